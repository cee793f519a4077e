package auth

import (
	"testing"
	"time"

	"gateway/config"
	domainerrors "gateway/internal/domain/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test_jwt_secret_key_very_long_for_testing"
	otherSecret = "another_jwt_secret_key_very_long_for_testing"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)

	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "3f0c9a54-9d0e-4c57-9d7a-5f1f8c7d2b11",
		"email": "a@b.com",
		"role":  "authenticated",
		"aud":   "authenticated",
		"iat":   fixedNow.Add(-time.Minute).Unix(),
		"exp":   fixedNow.Add(time.Hour).Unix(),
		"app_metadata": map[string]any{
			"provider": "email",
		},
	}
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	verifier, err := NewJWTVerifier(&config.Config{})

	assert.Error(t, err)
	assert.Nil(t, verifier)
	assert.Contains(t, err.Error(), "jwt secret must be provided")
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier := newJWTVerifier([]byte(testSecret), "", 0, clock)
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	claims, err := verifier.Verify(token)

	require.NoError(t, err)
	assert.Equal(t, "3f0c9a54-9d0e-4c57-9d7a-5f1f8c7d2b11", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
	assert.Equal(t, []string{"authenticated"}, claims.Audience)
	assert.Equal(t, fixedNow.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, fixedNow.Add(-time.Minute).Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, "email", claims.AppMetadata["provider"])

	identity := claims.Identity()
	assert.Equal(t, claims.Subject, identity.ID)
	assert.Equal(t, "a@b.com", identity.Email)
	assert.Equal(t, "authenticated", identity.Role)
}

func TestJWTVerifier_OptionalClaimsAbsent(t *testing.T) {
	verifier := newJWTVerifier([]byte(testSecret), "", 0, clock)
	token := sign(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.MapClaims{
		"sub": "user-1",
		"exp": fixedNow.Add(time.Minute).Unix(),
	})

	claims, err := verifier.Verify(token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
	assert.Nil(t, claims.IssuedAt)
}

func TestJWTVerifier_Failures(t *testing.T) {
	expired := validClaims()
	expired["exp"] = fixedNow.Add(-time.Second).Unix()

	expiresNow := validClaims()
	expiresNow["exp"] = fixedNow.Unix()

	noSubject := validClaims()
	delete(noSubject, "sub")

	emptySubject := validClaims()
	emptySubject["sub"] = "  "

	noExp := validClaims()
	delete(noExp, "exp")

	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{
			name:  "expired with valid signature",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), expired) },
			want:  domainerrors.ErrExpired,
		},
		{
			name:  "expired with foreign signature",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(otherSecret), expired) },
			want:  domainerrors.ErrExpired,
		},
		{
			name:  "expiring exactly now",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), expiresNow) },
			want:  domainerrors.ErrExpired,
		},
		{
			name:  "missing exp",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), noExp) },
			want:  domainerrors.ErrExpired,
		},
		{
			name:  "foreign secret",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(otherSecret), validClaims()) },
			want:  domainerrors.ErrInvalidSignature,
		},
		{
			name: "alg none",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())
			},
			want: domainerrors.ErrInvalidSignature,
		},
		{
			name:  "malformed",
			token: func(*testing.T) string { return "clearly-not-a-jwt-token-format" },
			want:  domainerrors.ErrInvalidSignature,
		},
		{
			name:  "empty",
			token: func(*testing.T) string { return "" },
			want:  domainerrors.ErrInvalidSignature,
		},
		{
			name:  "missing subject",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), noSubject) },
			want:  domainerrors.ErrMissingSubject,
		},
		{
			name:  "blank subject",
			token: func(t *testing.T) string { return sign(t, jwt.SigningMethodHS256, []byte(testSecret), emptySubject) },
			want:  domainerrors.ErrMissingSubject,
		},
	}

	verifier := newJWTVerifier([]byte(testSecret), "", 0, clock)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.Verify(tt.token(t))

			assert.Nil(t, claims)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestJWTVerifier_Audience(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims())

	_, err := newJWTVerifier([]byte(testSecret), "authenticated", 0, clock).Verify(token)
	assert.NoError(t, err)

	_, err = newJWTVerifier([]byte(testSecret), "service_role", 0, clock).Verify(token)
	assert.True(t, errors.Is(err, domainerrors.ErrInvalidSignature))
}

func TestJWTVerifier_Leeway(t *testing.T) {
	claims := validClaims()
	claims["exp"] = fixedNow.Add(-10 * time.Second).Unix()
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	_, err := newJWTVerifier([]byte(testSecret), "", 30*time.Second, clock).Verify(token)
	assert.NoError(t, err)

	_, err = newJWTVerifier([]byte(testSecret), "", 5*time.Second, clock).Verify(token)
	assert.True(t, errors.Is(err, domainerrors.ErrExpired))
}

func TestNewJWTVerifier_FromConfig(t *testing.T) {
	cfg := &config.Config{Auth: &config.AuthConfig{Audience: "authenticated"}}
	cfg.SecretKey.JWT = testSecret

	verifier, err := NewJWTVerifier(cfg)
	require.NoError(t, err)

	claims := validClaims()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	claims["iat"] = time.Now().Unix()

	identity, err := verifier.Verify(sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", identity.Email)
}
