package service

import (
	"gateway/internal/domain/entity"
)

// TokenVerifier validates provider-issued access tokens locally.
// This abstracts the token format from the delivery layer.
type TokenVerifier interface {
	// Verify checks signature, expiry and subject of a raw bearer token and
	// returns its identity claims. Failures are ErrInvalidSignature,
	// ErrExpired or ErrMissingSubject from the domain errors package.
	Verify(token string) (*entity.IdentityClaims, error)
}
