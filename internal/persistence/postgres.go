package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hazelgrove/studio-scheduler/internal/appointments"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores the snapshot as a single JSONB row, upserted on
// every save. The row id is fixed so there is always at most one snapshot.
type PostgresBackend struct {
	db DB
}

// NewPostgresBackend creates a Postgres snapshot backend.
func NewPostgresBackend(db DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Save upserts the snapshot row.
func (b *PostgresBackend) Save(ctx context.Context, snap appointments.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}
	_, err = b.db.Exec(ctx, `
		INSERT INTO scheduler_snapshots (id, state, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("persistence: save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row, returning an empty snapshot when none has
// been saved yet.
func (b *PostgresBackend) Load(ctx context.Context) (appointments.Snapshot, error) {
	var data []byte
	err := b.db.QueryRow(ctx, `SELECT state FROM scheduler_snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return emptySnapshot(), nil
	}
	if err != nil {
		return appointments.Snapshot{}, fmt.Errorf("persistence: load snapshot: %w", err)
	}

	var snap appointments.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return appointments.Snapshot{}, fmt.Errorf("persistence: unmarshal snapshot: %w", err)
	}
	normalize(&snap)
	return snap, nil
}
