// Package docstore is the document-oriented remote store the rest of the
// application persists through. Backends deal in raw JSON; Collection[T]
// converts to typed records at the boundary.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("document not found")

// StoreError wraps a transport or backend failure
type StoreError struct {
	Op   string
	Kind string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Operator is a predicate comparison
type Operator int

const (
	OpEq Operator = iota
	OpIn
)

// Predicate filters documents on a top-level string field
type Predicate struct {
	Field  string
	Op     Operator
	Values []string
}

// Eq matches documents whose field equals value
func Eq(field, value string) Predicate {
	return Predicate{Field: field, Op: OpEq, Values: []string{value}}
}

// In matches documents whose field is one of values
func In(field string, values ...string) Predicate {
	return Predicate{Field: field, Op: OpIn, Values: values}
}

func (p Predicate) matches(v string) bool {
	for _, want := range p.Values {
		if v == want {
			return true
		}
	}
	return false
}

// Record is a raw stored document
type Record struct {
	ID        string
	Data      []byte
	CreatedAt time.Time
}

// Backend is the remote store contract. Query results are ordered by
// creation time, oldest first. Missing documents yield ErrNotFound.
type Backend interface {
	Create(ctx context.Context, kind string, data []byte) (Record, error)
	Get(ctx context.Context, kind, id string) (Record, error)
	Query(ctx context.Context, kind string, preds ...Predicate) ([]Record, error)
	Update(ctx context.Context, kind, id string, fields map[string]any) error
	Delete(ctx context.Context, kind, id string) error
	ServerTimestamp(ctx context.Context) (time.Time, error)
}

func wrap(op, kind string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Kind: kind, Err: err}
}
