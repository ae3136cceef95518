package service

import (
	"errors"

	"github.com/MaryRatiary/back-rise/internal/repo"
)

// Failure taxonomy exposed to the API layer and the realtime gateway.
// No error here is fatal to the process; a failed operation leaves
// state unchanged.
var (
	ErrUnauthorized = errors.New("caller is not allowed to perform this operation")
	ErrNotFound     = errors.New("target entity not found")
	ErrValidation   = errors.New("invalid request")
	ErrConflict     = errors.New("concurrent modification conflict")
)

// wrapRepoErr maps storage-level sentinels onto the service taxonomy,
// passing through anything already classified.
func wrapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrDocumentNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrInvalidObjectID), errors.Is(err, repo.ErrInvalidUserID):
		return ErrValidation
	default:
		return err
	}
}
