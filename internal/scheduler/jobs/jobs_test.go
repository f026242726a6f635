package jobs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/pipeline"
	"github.com/wonny/aegis-credit/pkg/config"
	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/metrics"
)

type stubScorer struct {
	res  *pipeline.RunResult
	err  error
	path string
}

func (s *stubScorer) Score(_ context.Context, path string) (*pipeline.RunResult, error) {
	s.path = path
	return s.res, s.err
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(&config.Config{LogFormat: "json"}, &bytes.Buffer{})
}

func scoredResult() *pipeline.RunResult {
	return &pipeline.RunResult{
		RunID:   "r-1",
		Success: true,
		Portfolio: &contracts.PortfolioRiskTable{
			Summary: contracts.PortfolioSummary{Count: 2, TotalEL: 10, AvgPD: 0.1},
		},
	}
}

func TestRescoreJob(t *testing.T) {
	scorer := &stubScorer{res: scoredResult()}
	var hooked *pipeline.RunResult
	job := NewRescoreJob(scorer, "book.csv", "0 6 * * *", func(res *pipeline.RunResult) error {
		hooked = res
		return nil
	}, testLogger())

	assert.Equal(t, "portfolio_rescore", job.Name())
	assert.Equal(t, "0 6 * * *", job.Schedule())

	runID, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-1", runID)
	assert.Equal(t, "book.csv", scorer.path)
	assert.Same(t, scorer.res, hooked)
}

func TestRescoreJob_Errors(t *testing.T) {
	failed := &pipeline.RunResult{RunID: "r-2"}
	scoreErr := errors.New("schema error")

	job := NewRescoreJob(&stubScorer{res: failed, err: scoreErr}, "book.csv", "@daily", nil, testLogger())
	runID, err := job.Run(context.Background())
	assert.ErrorIs(t, err, scoreErr)
	assert.Equal(t, "r-2", runID)

	hookErr := errors.New("render failed")
	job = NewRescoreJob(&stubScorer{res: scoredResult()}, "book.csv", "@daily",
		func(*pipeline.RunResult) error { return hookErr }, testLogger())
	runID, err = job.Run(context.Background())
	assert.ErrorIs(t, err, hookErr)
	assert.Equal(t, "r-1", runID)
}

func TestMetricsExportJob(t *testing.T) {
	rec := metrics.New()
	rec.RecordRun("score", "success")

	path := filepath.Join(t.TempDir(), "credit.prom")
	job := NewMetricsExportJob(rec, path, "@every 1m", testLogger())
	assert.Equal(t, "metrics_export", job.Name())

	_, err := job.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "aegis_credit_runs_total")
}
