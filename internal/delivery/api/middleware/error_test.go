package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domainerrors "gateway/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Data  any `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

func handle(t *testing.T, err error) (int, errorBody) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/signin", nil), rec)

	NewErrorMiddleware(newDiscardLogger()).HandleHTTPError(err, c)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec.Code, body
}

func TestErrorMiddleware_AppErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantDetails any
	}{
		{
			name:        "validation keeps details",
			err:         domainerrors.ErrValidationFailed.WithDetails("Please enter a valid email address."),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: "Please enter a valid email address.",
		},
		{
			name:       "wrapped conflict",
			err:        errors.Wrap(domainerrors.ErrAccountExists, "registration failed"),
			wantStatus: http.StatusConflict,
			wantCode:   "ACCOUNT_EXISTS",
		},
		{
			name:       "unauthorized drops details",
			err:        domainerrors.ErrInvalidCredentials.WithDetails("Invalid login credentials"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_CREDENTIALS",
		},
		{
			name:        "provider failure keeps provider message",
			err:         errors.Wrap(domainerrors.ErrProviderUnavailable.WithDetails("Database error saving new user"), "registration failed"),
			wantStatus:  http.StatusBadGateway,
			wantCode:    "PROVIDER_UNAVAILABLE",
			wantDetails: "Database error saving new user",
		},
		{
			name:       "rate limited",
			err:        domainerrors.ErrRateLimited,
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := handle(t, tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Nil(t, body.Data)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantDetails, body.Error.Details)
			assert.NotEmpty(t, body.Meta.RequestID)
		})
	}
}

func TestErrorMiddleware_EchoErrors(t *testing.T) {
	status, body := handle(t, echo.NewHTTPError(http.StatusBadRequest, "property name should not exist"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Equal(t, "property name should not exist", body.Error.Details)

	status, body = handle(t, echo.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)

	status, body = handle(t, echo.ErrStatusRequestEntityTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "REQUEST_ENTITY_TOO_LARGE", body.Error.Code)
}

func TestErrorMiddleware_UnknownError(t *testing.T) {
	status, body := handle(t, errors.New("connection reset by peer"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Nil(t, body.Error.Details)
	assert.NotContains(t, body.Error.Message, "connection reset")
}
