package scenarios

import (
	"context"
	"database/sql"

	"github.com/optimusecho/predictor/internal/pagination"
)

// PostgresStore persists scenario data in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed scenario store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, s *Scenario) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO scenarios (
			id, name, task_type, worker_count, robot_count,
			shift_duration_hours, proximity_threshold_meters, description,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.Name, s.TaskType, s.WorkerCount, s.RobotCount,
		s.ShiftHours, s.ProximityMeters, nullString(s.Description),
		string(s.Status), s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Scenario, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, name, task_type, worker_count, robot_count,
		       shift_duration_hours, proximity_threshold_meters, description,
		       status, created_at, updated_at
		FROM scenarios WHERE id = $1`, id)

	s, err := scanScenario(row)
	if err == sql.ErrNoRows {
		return nil, ErrScenarioNotFound
	}
	return s, err
}

func (p *PostgresStore) Update(ctx context.Context, s *Scenario) error {
	result, err := p.db.ExecContext(ctx, `
		UPDATE scenarios SET
			name = $1, task_type = $2, worker_count = $3, robot_count = $4,
			shift_duration_hours = $5, proximity_threshold_meters = $6,
			description = $7, status = $8, updated_at = $9
		WHERE id = $10`,
		s.Name, s.TaskType, s.WorkerCount, s.RobotCount,
		s.ShiftHours, s.ProximityMeters,
		nullString(s.Description), string(s.Status), s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrScenarioNotFound
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrScenarioNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*Scenario, error) {
	const columns = `id, name, task_type, worker_count, robot_count,
		       shift_duration_hours, proximity_threshold_meters, description,
		       status, created_at, updated_at`

	var (
		rows *sql.Rows
		err  error
	)
	if cursor != nil {
		rows, err = p.db.QueryContext(ctx, `
			SELECT `+columns+`
			FROM scenarios
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, cursor.CreatedAt, cursor.ID, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT `+columns+`
			FROM scenarios
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanScenarios(rows)
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&n)
	return n, err
}

// --- scanners ---

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanScenario(sc scanner) (*Scenario, error) {
	s := &Scenario{}
	var (
		description sql.NullString
		status      string
	)

	err := sc.Scan(
		&s.ID, &s.Name, &s.TaskType, &s.WorkerCount, &s.RobotCount,
		&s.ShiftHours, &s.ProximityMeters, &description,
		&status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Status = Status(status)
	s.Description = description.String
	return s, nil
}

func scanScenarios(rows *sql.Rows) ([]*Scenario, error) {
	var result []*Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// nullString converts an empty Go string to sql.NullString.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Compile-time assertion that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
