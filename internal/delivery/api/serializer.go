package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// unknownFieldPrefix starts the error encoding/json reports for a field the
// target does not declare; the package has no typed error for it.
const unknownFieldPrefix = "json: unknown field "

// strictJSONSerializer is echo's default serializer, except that request
// bodies with fields the target does not declare are rejected.
type strictJSONSerializer struct {
	echo.DefaultJSONSerializer
}

// Deserialize reads the request body into i.
func (strictJSONSerializer) Deserialize(c echo.Context, i any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(i)
	if err == nil {
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return echo.NewHTTPError(http.StatusBadRequest, "request body must contain a single JSON object")
		}

		return nil
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case strings.HasPrefix(err.Error(), unknownFieldPrefix):
		field := strings.Trim(strings.TrimPrefix(err.Error(), unknownFieldPrefix), `"`)

		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("property %s should not exist", field)).SetInternal(err)
	case errors.As(err, &typeErr):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type)).SetInternal(err)
	case errors.As(err, &syntaxErr):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "malformed JSON body").SetInternal(err)
	}
}
