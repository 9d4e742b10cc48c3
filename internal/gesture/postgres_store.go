package gesture

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists gesture samples in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed gesture sample store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, sample *Sample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gesture_samples (id, gesture_type, confidence, pos_x, pos_y, pos_z, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		sample.ID,
		string(sample.Type),
		sample.Confidence,
		sample.Position.X,
		sample.Position.Y,
		sample.Position.Z,
		sample.Source,
		sample.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record gesture sample: %w", err)
	}
	return nil
}

// RecordBatch inserts samples with COPY for dataset uploads.
func (s *PostgresStore) RecordBatch(ctx context.Context, samples []*Sample) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("gesture_samples",
		"id", "gesture_type", "confidence", "pos_x", "pos_y", "pos_z", "source", "recorded_at"))
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	for _, sample := range samples {
		if _, err := stmt.ExecContext(ctx,
			sample.ID, string(sample.Type), sample.Confidence,
			sample.Position.X, sample.Position.Y, sample.Position.Z,
			sample.Source, sample.Timestamp,
		); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("failed to batch insert gesture sample: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("failed to flush batch insert: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("failed to close batch insert: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, gesture_type, confidence, pos_x, pos_y, pos_z, source, recorded_at
		FROM gesture_samples
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list gesture samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Sample
	for rows.Next() {
		s := Sample{Position: &Position{}}
		if err := rows.Scan(&s.ID, &s.Type, &s.Confidence,
			&s.Position.X, &s.Position.Y, &s.Position.Z,
			&s.Source, &s.Timestamp); err != nil {
			continue
		}
		result = append(result, &s)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gesture_samples`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count gesture samples: %w", err)
	}
	return n, nil
}
