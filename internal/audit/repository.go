package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound 조회 대상 없음
var ErrNotFound = errors.New("not found")

// DBTX is the subset of *pgxpool.Pool used by Repository
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository handles run history and model registry persistence
// ⭐ SSOT: Audit 데이터 저장/조회는 여기서만
type Repository struct {
	db DBTX
}

// NewRepository creates a new audit repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const runColumns = `id, command, status, started_at, finished_at, data_source, config_hash,
	model_fingerprint, rows, auc, gini, total_ead, total_el, avg_pd, coverage_ratio, error, events`

const runSelect = `SELECT id::text, command, status, started_at, finished_at, data_source, config_hash,
	model_fingerprint, rows, auc, gini, total_ead, total_el, avg_pd, coverage_ratio, error, events
	FROM credit.runs`

// SaveRun upserts a run record
func (r *Repository) SaveRun(ctx context.Context, run *RunRecord) error {
	eventsJSON, err := json.Marshal(run.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	query := `
		INSERT INTO credit.runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			model_fingerprint = EXCLUDED.model_fingerprint,
			rows = EXCLUDED.rows,
			auc = EXCLUDED.auc,
			gini = EXCLUDED.gini,
			total_ead = EXCLUDED.total_ead,
			total_el = EXCLUDED.total_el,
			avg_pd = EXCLUDED.avg_pd,
			coverage_ratio = EXCLUDED.coverage_ratio,
			error = EXCLUDED.error,
			events = EXCLUDED.events
	`

	_, err = r.db.Exec(ctx, query,
		run.ID, run.Command, run.Status, run.StartedAt, run.FinishedAt,
		run.DataSource, run.ConfigHash, nullString(run.ModelFingerprint), run.Rows,
		run.AUC, run.Gini, run.TotalEAD, run.TotalEL, run.AvgPD, run.CoverageRatio,
		nullString(run.Error), eventsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by id
func (r *Repository) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	query := runSelect + ` WHERE id = $1`

	run, err := scanRun(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := runSelect + ` ORDER BY started_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}

// RegisterModel records a persisted model; re-registering the same fingerprint updates it
func (r *Repository) RegisterModel(ctx context.Context, m *ModelEntry) error {
	query := `
		INSERT INTO credit.models (
			fingerprint, location, feature_order, train_rows, iterations, final_loss, auc, run_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fingerprint) DO UPDATE SET
			location = EXCLUDED.location,
			auc = COALESCE(EXCLUDED.auc, credit.models.auc),
			run_id = EXCLUDED.run_id
	`

	_, err := r.db.Exec(ctx, query,
		m.Fingerprint, m.Location, m.FeatureOrder, m.TrainRows, m.Iterations,
		m.FinalLoss, m.AUC, nullString(m.RunID), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register model: %w", err)
	}

	return nil
}

// LatestModel retrieves the most recently registered model
func (r *Repository) LatestModel(ctx context.Context) (*ModelEntry, error) {
	query := `
		SELECT fingerprint, location, feature_order, train_rows, iterations, final_loss, auc,
			COALESCE(run_id::text, ''), created_at
		FROM credit.models
		ORDER BY created_at DESC
		LIMIT 1
	`

	var m ModelEntry
	err := r.db.QueryRow(ctx, query).Scan(
		&m.Fingerprint, &m.Location, &m.FeatureOrder, &m.TrainRows, &m.Iterations,
		&m.FinalLoss, &m.AUC, &m.RunID, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("model registry: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest model: %w", err)
	}

	return &m, nil
}

// scanRun scans one credit.runs row
func scanRun(row pgx.Row) (*RunRecord, error) {
	var run RunRecord
	var fingerprint, errText *string
	var eventsJSON []byte

	err := row.Scan(
		&run.ID, &run.Command, &run.Status, &run.StartedAt, &run.FinishedAt,
		&run.DataSource, &run.ConfigHash, &fingerprint, &run.Rows,
		&run.AUC, &run.Gini, &run.TotalEAD, &run.TotalEL, &run.AvgPD, &run.CoverageRatio,
		&errText, &eventsJSON,
	)
	if err != nil {
		return nil, err
	}

	if fingerprint != nil {
		run.ModelFingerprint = *fingerprint
	}
	if errText != nil {
		run.Error = *errText
	}
	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, &run.Events); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
	}

	return &run, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
