package membership

import (
	"errors"
	"fmt"

	"quizontal-backend/internal/docstore"
)

var (
	// ErrNotFound means the collection is not in the session cache. The caller
	// holds a stale reference and should reload.
	ErrNotFound = errors.New("collection not found")

	// ErrRemoteUnavailable means the cache could not be loaded from the store
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// StoreError is a transport or backend failure reported by the document store
type StoreError = docstore.StoreError

// ValidationError reports bad caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// PartialFailure is returned when a collection was deleted but some of its
// membership records could not be removed from the store
type PartialFailure struct {
	CollectionID string
	Remaining    int
	Err          error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("collection %s deleted, %d memberships left behind: %v", e.CollectionID, e.Remaining, e.Err)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
}

// isGone reports whether a delete failed only because the record no longer exists
func isGone(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}
