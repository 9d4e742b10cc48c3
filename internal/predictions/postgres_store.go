package predictions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/optimusecho/predictor/internal/pagination"
	"github.com/optimusecho/predictor/internal/risk"
)

// PostgresStore persists risk assessments in PostgreSQL. The structured
// parts of an assessment (echo risks, recommendations, reservoir details)
// are stored as JSONB; the scored metrics are columns so the dashboard
// aggregations run in SQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const assessmentColumns = `id, scenario_id, overall_risk_score, risk_level,
	       gesture_accuracy, mitigated_errors_percent, symbiosis_index,
	       echo_risks, recommendations, reservoir_details, created_at`

func (p *PostgresStore) Create(ctx context.Context, a *risk.Assessment) error {
	echoRisks, err := json.Marshal(a.EchoRisks)
	if err != nil {
		return fmt.Errorf("marshal echo risks: %w", err)
	}
	recommendations, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	var details []byte
	if a.ReservoirDetails != nil {
		if details, err = json.Marshal(a.ReservoirDetails); err != nil {
			return fmt.Errorf("marshal reservoir details: %w", err)
		}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (
			id, scenario_id, overall_risk_score, risk_level,
			gesture_accuracy, mitigated_errors_percent, symbiosis_index,
			echo_risks, recommendations, reservoir_details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, nullString(a.ScenarioID), a.OverallRiskScore, string(a.RiskLevel),
		a.GestureAccuracy, a.MitigatedErrorsPercent, a.SymbiosisIndex,
		echoRisks, recommendations, nullBytes(details), a.CreatedAt,
	)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*risk.Assessment, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments WHERE id = $1`, id)

	a, err := scanAssessment(row)
	if err == sql.ErrNoRows {
		return nil, ErrPredictionNotFound
	}
	return a, err
}

func (p *PostgresStore) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*risk.Assessment, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cursor != nil {
		rows, err = p.db.QueryContext(ctx, `
			SELECT `+assessmentColumns+`
			FROM risk_assessments
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3`, cursor.CreatedAt, cursor.ID, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT `+assessmentColumns+`
			FROM risk_assessments
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanAssessments(rows)
}

func (p *PostgresStore) ListByScenario(ctx context.Context, scenarioID string, limit int) ([]*risk.Assessment, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+assessmentColumns+`
		FROM risk_assessments
		WHERE scenario_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, scenarioID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanAssessments(rows)
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM risk_assessments`).Scan(&n)
	return n, err
}

func (p *PostgresStore) Averages(ctx context.Context) (*AverageMetrics, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT AVG(overall_risk_score), AVG(mitigated_errors_percent),
		       AVG(symbiosis_index), AVG(gesture_accuracy)
		FROM risk_assessments`)

	var riskScore, mitigated, symbiosis, accuracy sql.NullFloat64
	if err := row.Scan(&riskScore, &mitigated, &symbiosis, &accuracy); err != nil {
		return nil, err
	}
	if !riskScore.Valid {
		return nil, nil
	}
	return &AverageMetrics{
		RiskScore:       riskScore.Float64,
		MitigatedErrors: mitigated.Float64,
		SymbiosisIndex:  symbiosis.Float64,
		GestureAccuracy: accuracy.Float64,
	}, nil
}

func (p *PostgresStore) LevelCounts(ctx context.Context) (map[risk.Level]int, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT risk_level, COUNT(*)
		FROM risk_assessments
		GROUP BY risk_level`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[risk.Level]int)
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return nil, err
		}
		counts[risk.Level(level)] = n
	}
	return counts, rows.Err()
}

func (p *PostgresStore) RecentPoints(ctx context.Context, limit int) ([]*TrendPoint, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT created_at, overall_risk_score, symbiosis_index,
		       gesture_accuracy, mitigated_errors_percent
		FROM risk_assessments
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var points []*TrendPoint
	for rows.Next() {
		pt := &TrendPoint{}
		if err := rows.Scan(&pt.CreatedAt, &pt.RiskScore, &pt.SymbiosisIndex,
			&pt.GestureAccuracy, &pt.MitigatedErrors); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order for charting.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// --- scanners ---

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(sc scanner) (*risk.Assessment, error) {
	a := &risk.Assessment{}
	var (
		scenarioID      sql.NullString
		level           string
		echoRisks       []byte
		recommendations []byte
		details         []byte
	)

	err := sc.Scan(
		&a.ID, &scenarioID, &a.OverallRiskScore, &level,
		&a.GestureAccuracy, &a.MitigatedErrorsPercent, &a.SymbiosisIndex,
		&echoRisks, &recommendations, &details, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ScenarioID = scenarioID.String
	a.RiskLevel = risk.Level(level)
	if err := json.Unmarshal(echoRisks, &a.EchoRisks); err != nil {
		return nil, fmt.Errorf("unmarshal echo risks: %w", err)
	}
	if err := json.Unmarshal(recommendations, &a.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if len(details) > 0 {
		a.ReservoirDetails = &risk.ReservoirDetails{}
		if err := json.Unmarshal(details, a.ReservoirDetails); err != nil {
			return nil, fmt.Errorf("unmarshal reservoir details: %w", err)
		}
	}
	return a, nil
}

func scanAssessments(rows *sql.Rows) ([]*risk.Assessment, error) {
	var result []*risk.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
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

// nullBytes maps empty JSON payloads to SQL NULL.
func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

// Compile-time assertion that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
