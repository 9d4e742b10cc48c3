package alerts

import (
	"context"
	"database/sql"
)

// PostgresStore persists alerts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed alert store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, a *Alert) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO alerts (id, scenario_id, prediction_id, type, message, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, nullString(a.ScenarioID), nullString(a.PredictionID),
		string(a.Type), a.Message, a.Acknowledged, a.CreatedAt,
	)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Alert, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, prediction_id, type, message, acknowledged, created_at
		FROM alerts WHERE id = $1`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, ErrAlertNotFound
	}
	return a, err
}

func (p *PostgresStore) List(ctx context.Context, includeAcked bool, limit int) ([]*Alert, error) {
	query := `
		SELECT id, scenario_id, prediction_id, type, message, acknowledged, created_at
		FROM alerts`
	if !includeAcked {
		query += ` WHERE NOT acknowledged`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (p *PostgresStore) Acknowledge(ctx context.Context, id string) (*Alert, error) {
	row := p.db.QueryRowContext(ctx, `
		UPDATE alerts SET acknowledged = TRUE
		WHERE id = $1
		RETURNING id, scenario_id, prediction_id, type, message, acknowledged, created_at`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, ErrAlertNotFound
	}
	return a, err
}

func (p *PostgresStore) CountActive(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE NOT acknowledged`).Scan(&n)
	return n, err
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(sc scanner) (*Alert, error) {
	a := &Alert{}
	var (
		scenarioID   sql.NullString
		predictionID sql.NullString
		typ          string
	)

	err := sc.Scan(&a.ID, &scenarioID, &predictionID, &typ, &a.Message, &a.Acknowledged, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.Type = Type(typ)
	a.ScenarioID = scenarioID.String
	a.PredictionID = predictionID.String
	return a, nil
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
