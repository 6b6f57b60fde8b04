package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentsSchema = `
	CREATE TABLE IF NOT EXISTS documents (
		kind       TEXT        NOT NULL,
		id         TEXT        NOT NULL,
		data       JSONB       NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
		PRIMARY KEY (kind, id)
	);
	CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data jsonb_path_ops);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents (kind, created_at);
`

// PostgresBackend stores documents as JSONB rows in a single table
type PostgresBackend struct {
	db *pgxpool.Pool
}

// NewPostgresBackend creates a backend on top of db
func NewPostgresBackend(db *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the documents table if it does not exist
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.Exec(ctx, documentsSchema); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Create(ctx context.Context, kind string, data []byte) (Record, error) {
	query := `
		INSERT INTO documents (kind, id, data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING created_at
	`
	rec := Record{ID: uuid.New().String(), Data: data}
	if err := b.db.QueryRow(ctx, query, kind, rec.ID, data).Scan(&rec.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("failed to insert document: %w", err)
	}
	return rec, nil
}

func (b *PostgresBackend) Get(ctx context.Context, kind, id string) (Record, error) {
	query := `
		SELECT id, data, created_at
		FROM documents
		WHERE kind = $1 AND id = $2
	`
	var rec Record
	err := b.db.QueryRow(ctx, query, kind, id).Scan(&rec.ID, &rec.Data, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to get document: %w", err)
	}
	return rec, nil
}

func (b *PostgresBackend) Query(ctx context.Context, kind string, preds ...Predicate) ([]Record, error) {
	query, args := buildQuery(kind, preds)
	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Data, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}
	return recs, nil
}

func buildQuery(kind string, preds []Predicate) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data, created_at FROM documents WHERE kind = $1`)
	args := []any{kind}

	for _, p := range preds {
		args = append(args, p.Field)
		field := len(args)
		switch p.Op {
		case OpIn:
			args = append(args, p.Values)
			fmt.Fprintf(&sb, ` AND data ->> $%d::text = ANY($%d::text[])`, field, len(args))
		default:
			args = append(args, p.Values[0])
			fmt.Fprintf(&sb, ` AND data ->> $%d::text = $%d::text`, field, len(args))
		}
	}
	sb.WriteString(` ORDER BY created_at ASC, id ASC`)
	return sb.String(), args
}

func (b *PostgresBackend) Update(ctx context.Context, kind, id string, fields map[string]any) error {
	patch, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = clock_timestamp()
		WHERE kind = $1 AND id = $2
	`
	result, err := b.db.Exec(ctx, query, kind, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, kind, id string) error {
	result, err := b.db.Exec(ctx, `DELETE FROM documents WHERE kind = $1 AND id = $2`, kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) ServerTimestamp(ctx context.Context) (time.Time, error) {
	var ts time.Time
	if err := b.db.QueryRow(ctx, `SELECT clock_timestamp()`).Scan(&ts); err != nil {
		return time.Time{}, fmt.Errorf("failed to read server timestamp: %w", err)
	}
	return ts, nil
}
