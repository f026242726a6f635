package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/database"
)

// fakeDB DBTX 테스트 더블
type fakeDB struct {
	execSQL  string
	execArgs []any
	execErr  error
	row      pgx.Row
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return f.row
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestRepository_SaveRun(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db)

	auc := 0.8
	run := &RunRecord{
		ID:      "3b241101-e2bb-4255-8caf-4136c566a962",
		Command: "run",
		Status:  StatusSuccess,
		AUC:     &auc,
		Events:  []Event{{Kind: EventModelSaved, Data: "m.json"}},
	}
	require.NoError(t, repo.SaveRun(context.Background(), run))

	assert.Contains(t, db.execSQL, "INSERT INTO credit.runs")
	require.Len(t, db.execArgs, 17)
	assert.Equal(t, run.ID, db.execArgs[0])
	assert.Nil(t, db.execArgs[7].(*string), "empty fingerprint stored as NULL")
	assert.Equal(t, &auc, db.execArgs[9])

	var events []Event
	require.NoError(t, json.Unmarshal(db.execArgs[16].([]byte), &events))
	assert.Equal(t, EventModelSaved, events[0].Kind)
}

func TestRepository_SaveRun_Error(t *testing.T) {
	boom := errors.New("boom")
	repo := NewRepository(&fakeDB{execErr: boom})

	err := repo.SaveRun(context.Background(), &RunRecord{ID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestRepository_NotFound(t *testing.T) {
	repo := NewRepository(&fakeDB{row: errRow{err: pgx.ErrNoRows}})

	_, err := repo.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.LatestModel(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_RegisterModel(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db)

	entry := &ModelEntry{
		Fingerprint:  "ab12",
		Location:     "file://credit_model.json",
		FeatureOrder: []string{"monthly_income", "credit_score", "age"},
		TrainRows:    700,
	}
	require.NoError(t, repo.RegisterModel(context.Background(), entry))

	assert.Contains(t, db.execSQL, "INSERT INTO credit.models")
	assert.Equal(t, "ab12", db.execArgs[0])
	assert.Nil(t, db.execArgs[7].(*string), "empty run id stored as NULL")
}

func TestRunRecord_Duration(t *testing.T) {
	start := time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC)
	r := &RunRecord{StartedAt: start}
	assert.Equal(t, time.Duration(0), r.Duration())

	r.FinishedAt = start.Add(3 * time.Second)
	assert.Equal(t, 3*time.Second, r.Duration())
}

func TestRepository_Integration(t *testing.T) {
	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, db.Migrate(ctx, Schema))

	repo := NewRepository(db.Pool)
	gini := 0.5
	run := &RunRecord{
		ID:         uuid.NewString(),
		Command:    "run",
		Status:     StatusSuccess,
		StartedAt:  time.Now().UTC().Truncate(time.Millisecond),
		FinishedAt: time.Now().UTC().Truncate(time.Millisecond),
		DataSource: "test.csv",
		ConfigHash: "hash",
		Rows:       10,
		Gini:       &gini,
	}
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, 0.5, *got.Gini)
	assert.Nil(t, got.AUC)

	runs, err := repo.ListRuns(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, runs)
}
