package impl

import (
	"io"
	"log/slog"
	"time"

	"gateway/internal/domain/entity"
	"gateway/internal/domain/service"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newProviderUser(id, email string, identities ...string) *service.ProviderUser {
	createdAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &service.ProviderUser{
		User: entity.User{
			ID:        id,
			Email:     email,
			Role:      "authenticated",
			CreatedAt: &createdAt,
		},
	}
	for _, provider := range identities {
		user.Identities = append(user.Identities, service.ProviderIdentity{ID: id, Provider: provider})
	}

	return user
}

func newProviderSession(user *service.ProviderUser) *entity.Session {
	session := &entity.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    3600,
		TokenType:    "bearer",
	}
	if user != nil {
		u := user.User
		session.User = &u
	}

	return session
}
