package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PGStore persists snapshots in a single postgres table:
//
//	CREATE TABLE records (
//	    kind     TEXT  NOT NULL,
//	    id       TEXT  NOT NULL,
//	    snapshot JSONB NOT NULL,
//	    PRIMARY KEY (kind, id)
//	)
//
// Each call runs in its own transaction; there is no transaction spanning
// multiple keys.
type PGStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewPGStore creates a postgres-backed store over an open connection pool.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{
		db:     db,
		tracer: otel.Tracer("tradenexus/store"),
	}
}

func (s *PGStore) Get(ctx context.Context, kind Kind, id string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "store.get",
		trace.WithAttributes(
			attribute.String("record.kind", string(kind)),
			attribute.String("record.id", id),
		),
	)
	defer span.End()

	var snapshot []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT snapshot FROM records WHERE kind = $1 AND id = $2
	`, string(kind), id).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return snapshot, nil
}

func (s *PGStore) Upsert(ctx context.Context, kind Kind, id string, snapshot []byte) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "store.upsert",
		trace.WithAttributes(
			attribute.String("record.kind", string(kind)),
			attribute.String("record.id", id),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var previous []byte
	err = tx.QueryRowContext(ctx, `
		SELECT snapshot FROM records WHERE kind = $1 AND id = $2 FOR UPDATE
	`, string(kind), id).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query previous snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (kind, id, snapshot)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, id) DO UPDATE SET snapshot = EXCLUDED.snapshot
	`, string(kind), id, snapshot)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			span.SetAttributes(attribute.String("pq.code", string(pqErr.Code)))
		}
		return nil, fmt.Errorf("upsert record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Bool("record.existed", previous != nil))
	if previous == nil {
		return snapshot, nil
	}
	return previous, nil
}

func (s *PGStore) Delete(ctx context.Context, kind Kind, id string) error {
	ctx, span := s.tracer.Start(ctx, "store.delete",
		trace.WithAttributes(
			attribute.String("record.kind", string(kind)),
			attribute.String("record.id", id),
		),
	)
	defer span.End()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM records WHERE kind = $1 AND id = $2
	`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *PGStore) ListIDs(ctx context.Context, kind Kind) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "store.list_ids",
		trace.WithAttributes(attribute.String("record.kind", string(kind))),
	)
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM records WHERE kind = $1
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query record ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan record id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record ids: %w", err)
	}

	span.SetAttributes(attribute.Int("record.count", len(ids)))
	return ids, nil
}
