package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func deserialize(t *testing.T, body string) (*signInBody, error) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c := echo.New().NewContext(req, httptest.NewRecorder())

	var out signInBody
	err := strictJSONSerializer{}.Deserialize(c, &out)

	return &out, err
}

func TestStrictJSONSerializer_Accepts(t *testing.T) {
	for _, body := range []string{
		`{"email": "a@b.com", "password": "x"}`,
		"  {\"email\": \"a@b.com\", \"password\": \"x\"}\n",
	} {
		out, err := deserialize(t, body)

		require.NoError(t, err, body)
		assert.Equal(t, "a@b.com", out.Email)
		assert.Equal(t, "x", out.Password)
	}
}

func TestStrictJSONSerializer_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{
			name:    "unknown field",
			body:    `{"email": "a@b.com", "password": "x", "role": "admin"}`,
			message: "property role should not exist",
		},
		{
			name:    "trailing object",
			body:    `{"email": "a@b.com", "password": "x"}{"junk": 1}`,
			message: "request body must contain a single JSON object",
		},
		{
			name:    "trailing brace",
			body:    `{"email": "a@b.com", "password": "x"}}`,
			message: "request body must contain a single JSON object",
		},
		{
			name:    "trailing value",
			body:    `{"email": "a@b.com", "password": "x"} 1`,
			message: "request body must contain a single JSON object",
		},
		{
			name:    "wrong type",
			body:    `{"email": 1, "password": "x"}`,
			message: "email must be a string",
		},
		{
			name:    "empty body",
			body:    ``,
			message: "malformed JSON body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := deserialize(t, tt.body)

			var httpErr *echo.HTTPError
			require.True(t, errors.As(err, &httpErr), "got %v", err)
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}
}
