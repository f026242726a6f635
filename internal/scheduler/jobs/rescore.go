package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-credit/internal/pipeline"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// Scorer is the scoring pass of the pipeline (pipeline.Orchestrator)
type Scorer interface {
	Score(ctx context.Context, dataPath string) (*pipeline.RunResult, error)
}

// ResultHook receives every successful scoring result (리포트 출력 등)
type ResultHook func(res *pipeline.RunResult) error

// RescoreJob re-scores the portfolio with the persisted model
// ⭐ SSOT: 정기 재스코어링은 이 Job에서만 (모델 재학습 없음)
type RescoreJob struct {
	scorer   Scorer
	dataPath string
	schedule string
	hook     ResultHook
	logger   *logger.Logger
}

// NewRescoreJob creates a new rescore job
func NewRescoreJob(scorer Scorer, dataPath, schedule string, hook ResultHook, log *logger.Logger) *RescoreJob {
	return &RescoreJob{
		scorer:   scorer,
		dataPath: dataPath,
		schedule: schedule,
		hook:     hook,
		logger:   log,
	}
}

// Name returns the job name
func (j *RescoreJob) Name() string {
	return "portfolio_rescore"
}

// Schedule returns the cron schedule
func (j *RescoreJob) Schedule() string {
	return j.schedule
}

// Run executes one scoring pass
func (j *RescoreJob) Run(ctx context.Context) (string, error) {
	j.logger.WithField("data", j.dataPath).Info("Starting scheduled portfolio rescore")

	res, err := j.scorer.Score(ctx, j.dataPath)
	if err != nil {
		runID := ""
		if res != nil {
			runID = res.RunID
		}
		return runID, fmt.Errorf("rescore: %w", err)
	}

	s := res.Portfolio.Summary
	j.logger.WithFields(map[string]interface{}{
		"run_id":   res.RunID,
		"count":    s.Count,
		"total_el": s.TotalEL,
		"avg_pd":   s.AvgPD,
	}).Info("Portfolio rescored")

	if j.hook != nil {
		if err := j.hook(res); err != nil {
			return res.RunID, fmt.Errorf("rescore hook: %w", err)
		}
	}
	return res.RunID, nil
}
