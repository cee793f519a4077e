package response

import (
	"net/http"

	deliverycontext "gateway/internal/delivery/context"
	domainerrors "gateway/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// Result is the operation result envelope. Exactly one of Data and Error is
// non-null.
type Result struct {
	Data  any        `json:"data"`
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

// EmptyResult is returned by operations without a payload, such as sign out.
type EmptyResult struct {
	Error *ErrorInfo `json:"error"`
	Meta  *MetaInfo  `json:"meta"`
}

// ErrorInfo contains detailed error information
type ErrorInfo struct {
	Code    string `json:"code"`              // Machine-readable error code, e.g., "VALIDATION_FAILED"
	Message string `json:"message"`           // User-friendly error message
	Details any    `json:"details,omitempty"` // Additional error context
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID string `json:"request_id"` // Request tracking ID
}

func meta(c echo.Context) *MetaInfo {
	return &MetaInfo{RequestID: deliverycontext.GetRequestID(c)}
}

// Success returns a successful result
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, Result{
		Data: data,
		Meta: meta(c),
	})
}

// Empty returns a successful result without data
func Empty(c echo.Context, statusCode int) error {
	return c.JSON(statusCode, EmptyResult{Meta: meta(c)})
}

// Error returns an error result
func Error(c echo.Context, statusCode int, errorCode string, message string, details any) error {
	// Authentication failures and internal errors never carry details
	if statusCode == http.StatusInternalServerError || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		details = nil
	}
	if s, ok := details.(string); ok && s == "" {
		details = nil
	}

	return c.JSON(statusCode, Result{
		Error: &ErrorInfo{
			Code:    errorCode,
			Message: message,
			Details: details,
		},
		Meta: meta(c),
	})
}

// AppError renders a domain error
func AppError(c echo.Context, appErr domainerrors.AppError) error {
	return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), appErr.Details())
}
