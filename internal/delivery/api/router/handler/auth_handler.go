// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"gateway/internal/delivery/api/middleware"
	"gateway/internal/delivery/api/response"
	domainerrors "gateway/internal/domain/errors"
	"gateway/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler holds dependencies for session exchange handlers
type AuthHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

// SignUpRequest is the body of sign up requests
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInRequest is the body of sign in requests. The password length policy
// only applies to new accounts; a short password simply fails to sign in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of refresh requests
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SignUp handles account registration
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, result)
}

// SignIn handles email and password sign in
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authUC.Authenticate(c.Request().Context(), &usecase.AuthenticateInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result)
}

// SignOut revokes the caller's session. Requires the auth middleware.
func (h *AuthHandler) SignOut(c echo.Context) error {
	accessToken, ok := middleware.GetAccessToken(c)
	if !ok {
		return errors.Wrap(domainerrors.ErrUnauthorized, "access token not found in context")
	}

	if err := h.authUC.Invalidate(c.Request().Context(), accessToken); err != nil {
		return errors.WithStack(err)
	}

	return response.Empty(c, http.StatusOK)
}

// CurrentUser returns the identity of the caller. Requires the auth middleware.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return errors.Wrap(domainerrors.ErrUnauthorized, "identity not found in context")
	}

	return c.JSON(http.StatusOK, identity)
}

// Refresh exchanges a refresh token for a new session
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.authUC.Refresh(c.Request().Context(), &usecase.RefreshInput{
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, result)
}

// bindAndValidate decodes the JSON body into req and checks its rules.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.WithStack(err)
	}

	if err := c.Validate(req); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
