package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Document is a typed stored record
type Document[T any] struct {
	ID        string
	CreatedAt time.Time
	Data      T
}

// Option configures a Collection
type Option func(*options)

type options struct {
	schema string
}

// WithSchema validates every created document against a JSON schema
func WithSchema(schema string) Option {
	return func(o *options) {
		o.schema = schema
	}
}

// Collection gives typed access to one document kind
type Collection[T any] struct {
	backend Backend
	kind    string
	schema  *jsonschema.Schema
}

// NewCollection creates a typed view over kind. It panics if the schema does
// not compile, since schemas are compile-time constants.
func NewCollection[T any](backend Backend, kind string, opts ...Option) *Collection[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Collection[T]{backend: backend, kind: kind}
	if o.schema != "" {
		schema, err := compileSchema(kind, o.schema)
		if err != nil {
			panic(fmt.Sprintf("docstore: invalid schema for %s: %v", kind, err))
		}
		c.schema = schema
	}
	return c
}

// Kind returns the document kind
func (c *Collection[T]) Kind() string {
	return c.kind
}

// Create stores data and returns the assigned identifier and server timestamp
func (c *Collection[T]) Create(ctx context.Context, data T) (Document[T], error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Document[T]{}, fmt.Errorf("failed to encode %s document: %w", c.kind, err)
	}
	if c.schema != nil {
		if err := validate(c.schema, raw); err != nil {
			return Document[T]{}, fmt.Errorf("invalid %s document: %w", c.kind, err)
		}
	}

	rec, err := c.backend.Create(ctx, c.kind, raw)
	if err != nil {
		return Document[T]{}, wrap("create", c.kind, err)
	}
	return Document[T]{ID: rec.ID, CreatedAt: rec.CreatedAt, Data: data}, nil
}

// Get returns the document with the given id
func (c *Collection[T]) Get(ctx context.Context, id string) (Document[T], error) {
	rec, err := c.backend.Get(ctx, c.kind, id)
	if err != nil {
		return Document[T]{}, wrap("get", c.kind, err)
	}
	return c.decode(rec)
}

// Query returns matching documents, oldest first
func (c *Collection[T]) Query(ctx context.Context, preds ...Predicate) ([]Document[T], error) {
	recs, err := c.backend.Query(ctx, c.kind, preds...)
	if err != nil {
		return nil, wrap("query", c.kind, err)
	}

	docs := make([]Document[T], 0, len(recs))
	for _, rec := range recs {
		doc, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update merges fields into the stored document
func (c *Collection[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	return wrap("update", c.kind, c.backend.Update(ctx, c.kind, id, fields))
}

// Delete removes the document
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return wrap("delete", c.kind, c.backend.Delete(ctx, c.kind, id))
}

func (c *Collection[T]) decode(rec Record) (Document[T], error) {
	var data T
	if err := json.Unmarshal(rec.Data, &data); err != nil {
		return Document[T]{}, fmt.Errorf("failed to decode %s document %s: %w", c.kind, rec.ID, err)
	}
	return Document[T]{ID: rec.ID, CreatedAt: rec.CreatedAt, Data: data}, nil
}
