// Package validator adapts go-playground/validator to echo.
package validator

import (
	"fmt"
	"reflect"
	"strings"

	domainerrors "gateway/internal/domain/errors"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// messages holds client-facing messages keyed by "<json field>.<tag>".
var messages = map[string]string{
	"email.required":        "Email should not be empty.",
	"email.email":           "Please enter a valid email address.",
	"password.required":     "Password should not be empty.",
	"password.min":          "Password must be at least 8 characters long.",
	"refreshToken.required": "Refresh token should not be empty.",
}

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}

		return name
	})

	return &CustomValidator{validate: v}
}

// Validate checks i against its validate tags. Rule violations are returned
// as ErrValidationFailed with one message per violation.
func (cv *CustomValidator) Validate(i any) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.WithStack(err)
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, message(fe))
	}

	return domainerrors.ErrValidationFailed.WithDetails(strings.Join(details, " "))
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s.", fe.Field(), fe.Tag(), fe.Param())
	}

	return fmt.Sprintf("%s must satisfy %s.", fe.Field(), fe.Tag())
}
