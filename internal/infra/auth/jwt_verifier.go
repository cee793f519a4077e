// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"
	"time"

	"gateway/config"
	"gateway/internal/domain/entity"
	domainerrors "gateway/internal/domain/errors"
	"gateway/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// hmacMethods are the only algorithms a shared secret can verify.
var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// accessTokenClaims mirrors the payload the identity provider signs.
type accessTokenClaims struct {
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	AppMetadata  map[string]any `json:"app_metadata,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// jwtVerifier is a concrete implementation of the TokenVerifier interface using the JWT standard.
type jwtVerifier struct {
	secret []byte
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewJWTVerifier builds the verifier from the shared secret in cfg.
func NewJWTVerifier(cfg *config.Config) (service.TokenVerifier, error) {
	if cfg.SecretKey.JWT == "" {
		return nil, errors.New("jwt secret must be provided")
	}

	var (
		audience string
		leeway   time.Duration
	)
	if cfg.Auth != nil {
		audience = cfg.Auth.Audience
		leeway = cfg.Auth.Leeway
	}

	return newJWTVerifier([]byte(cfg.SecretKey.JWT), audience, leeway, time.Now), nil
}

func newJWTVerifier(secret []byte, audience string, leeway time.Duration, now func() time.Time) *jwtVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(hmacMethods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(now),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}

	return &jwtVerifier{
		secret: secret,
		leeway: leeway,
		now:    now,
		parser: jwt.NewParser(opts...),
	}
}

// Verify validates the token and extracts its identity claims.
func (v *jwtVerifier) Verify(tokenString string) (*entity.IdentityClaims, error) {
	// Expiry is judged before the signature: an elapsed token is reported as
	// expired whoever signed it.
	unverified := &accessTokenClaims{}
	if _, _, err := v.parser.ParseUnverified(tokenString, unverified); err != nil {
		return nil, domainerrors.ErrInvalidSignature.WithDetails("malformed token")
	}
	if err := v.checkExpiry(unverified); err != nil {
		return nil, err
	}

	claims := &accessTokenClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.keyFunc)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, domainerrors.ErrInvalidSignature
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, domainerrors.ErrMissingSubject
	}

	return toIdentityClaims(claims), nil
}

func (v *jwtVerifier) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrSignatureInvalid
	}

	return v.secret, nil
}

func (v *jwtVerifier) checkExpiry(claims *accessTokenClaims) error {
	if claims.ExpiresAt == nil {
		return domainerrors.ErrExpired.WithDetails("token has no exp claim")
	}
	if !v.now().Before(claims.ExpiresAt.Add(v.leeway)) {
		return domainerrors.ErrExpired
	}

	return nil
}

// classify maps golang-jwt failures onto the verification taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainerrors.ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return domainerrors.ErrInvalidSignature.WithDetails("audience mismatch")
	default:
		return domainerrors.ErrInvalidSignature.WithDetails(err.Error())
	}
}

func toIdentityClaims(claims *accessTokenClaims) *entity.IdentityClaims {
	identity := &entity.IdentityClaims{
		Subject:      claims.Subject,
		Email:        claims.Email,
		Audience:     []string(claims.Audience),
		ExpiresAt:    claims.ExpiresAt.Time,
		Role:         claims.Role,
		AppMetadata:  claims.AppMetadata,
		UserMetadata: claims.UserMetadata,
	}
	if claims.IssuedAt != nil {
		issuedAt := claims.IssuedAt.Time
		identity.IssuedAt = &issuedAt
	}

	return identity
}
