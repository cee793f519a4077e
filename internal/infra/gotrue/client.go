// Package gotrue is a client for the GoTrue (Supabase Auth) REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gateway/config"
	deliverycontext "gateway/internal/delivery/context"
	"gateway/internal/domain/entity"
	"gateway/internal/domain/service"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const (
	apiPrefix = "/auth/v1"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client talks to one GoTrue instance. It is immutable after construction and
// safe for concurrent use.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds the provider client from cfg.Provider. Outgoing calls are
// traced with tp.
func NewClient(cfg *config.Config, logger *slog.Logger, tp trace.TracerProvider) (service.IdentityProvider, error) {
	if cfg.Provider == nil || cfg.Provider.URL == "" || cfg.Provider.AnonKey == "" {
		return nil, errors.New("identity provider url and anon key must be provided")
	}

	httpClient := &http.Client{
		Timeout:   cfg.Provider.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithTracerProvider(tp)),
	}

	return newClient(cfg.Provider.URL, cfg.Provider.AnonKey, httpClient, logger), nil
}

func newClient(rawURL, anonKey string, httpClient *http.Client, logger *slog.Logger) *Client {
	base := strings.TrimRight(rawURL, "/")
	if !strings.HasSuffix(base, apiPrefix) {
		base += apiPrefix
	}

	return &Client{
		baseURL:    base,
		anonKey:    anonKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type identityDTO struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

type userDTO struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	Role       string        `json:"role"`
	CreatedAt  *time.Time    `json:"created_at"`
	Identities []identityDTO `json:"identities"`
}

type sessionDTO struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         *userDTO `json:"user"`
}

// authResponse covers both shapes /signup can return: a session, or the bare
// user when email confirmation is pending.
type authResponse struct {
	sessionDTO
	userDTO
}

// SignUp creates an account with email and password.
func (c *Client) SignUp(ctx context.Context, creds entity.Credentials) (*service.ProviderResponse, error) {
	var out authResponse
	body := credentialsRequest{Email: creds.Email, Password: creds.Password}
	if err := c.do(ctx, http.MethodPost, "/signup", nil, "", body, &out); err != nil {
		return nil, err
	}

	if out.AccessToken != "" {
		return out.sessionDTO.toResponse(), nil
	}

	return &service.ProviderResponse{User: out.userDTO.toProviderUser()}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, creds entity.Credentials) (*service.ProviderResponse, error) {
	var out sessionDTO
	query := url.Values{"grant_type": {"password"}}
	body := credentialsRequest{Email: creds.Email, Password: creds.Password}
	if err := c.do(ctx, http.MethodPost, "/token", query, "", body, &out); err != nil {
		return nil, err
	}

	return out.toResponse(), nil
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*service.ProviderResponse, error) {
	var out sessionDTO
	query := url.Values{"grant_type": {"refresh_token"}}
	if err := c.do(ctx, http.MethodPost, "/token", query, "", refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}

	return out.toResponse(), nil
}

// SignOut revokes every refresh token of the session's user.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	query := url.Values{"scope": {"global"}}

	return c.do(ctx, http.MethodPost, "/logout", query, accessToken, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode provider request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrap(err, "failed to create provider request")
	}

	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx).Warn("Identity provider unreachable", slog.String("path", path), slog.Any("error", err))

		return &service.ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()

	c.log(ctx).Debug("Identity provider responded", slog.String("path", path), slog.Int("status", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)

		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode provider response")
	}

	return nil
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, c.logger)
}

type errorDTO struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	ErrorDescription string          `json:"error_description"`
	Error            string          `json:"error"`
}

// decodeError reads GoTrue's error payloads, which vary by endpoint and version.
func decodeError(resp *http.Response) error {
	providerErr := &service.ProviderError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var dto errorDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		providerErr.Message = strings.TrimSpace(string(raw))
	} else {
		providerErr.Code = dto.ErrorCode
		if providerErr.Code == "" {
			var code string
			if json.Unmarshal(dto.Code, &code) == nil {
				providerErr.Code = code
			}
		}
		providerErr.Message = firstNonEmpty(dto.Msg, dto.Message, dto.ErrorDescription, dto.Error)
	}

	if providerErr.Message == "" {
		providerErr.Message = http.StatusText(resp.StatusCode)
	}

	return providerErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func (s *sessionDTO) toResponse() *service.ProviderResponse {
	resp := &service.ProviderResponse{}
	if s.User != nil {
		resp.User = s.User.toProviderUser()
	}
	if s.AccessToken == "" {
		return resp
	}

	resp.Session = &entity.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
		TokenType:    s.TokenType,
	}
	if resp.User != nil {
		user := resp.User.User
		resp.Session.User = &user
	}

	return resp
}

func (u *userDTO) toProviderUser() *service.ProviderUser {
	if u == nil || u.ID == "" {
		return nil
	}

	user := &service.ProviderUser{
		User: entity.User{
			ID:    u.ID,
			Email: u.Email,
			Role:  u.Role,
		},
	}
	if u.CreatedAt != nil {
		createdAt := *u.CreatedAt
		user.CreatedAt = &createdAt
	}
	for _, identity := range u.Identities {
		user.Identities = append(user.Identities, service.ProviderIdentity{
			ID:       identity.ID,
			Provider: identity.Provider,
		})
	}

	return user
}
