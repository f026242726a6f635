package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-credit/internal/audit"
	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/evaluation"
	"github.com/wonny/aegis-credit/internal/model"
	"github.com/wonny/aegis-credit/internal/modelstore"
	"github.com/wonny/aegis-credit/internal/report"
	"github.com/wonny/aegis-credit/internal/risk"
	"github.com/wonny/aegis-credit/internal/riskconfig"
	"github.com/wonny/aegis-credit/internal/s0_data"
	"github.com/wonny/aegis-credit/internal/s0_data/quality"
	"github.com/wonny/aegis-credit/pkg/logger"
	"github.com/wonny/aegis-credit/pkg/metrics"
)

// Commands
const (
	CommandRun   = "run"
	CommandTrain = "train"
	CommandScore = "score"
)

// Stages
const (
	StageLoad      = "load"
	StageLoadModel = "load_model"
	StageValidate  = "validate"
	StageSplit     = "split"
	StageTrain     = "train"
	StageEvaluate  = "evaluate"
	StageSave      = "save"
	StageScore     = "score"
	StageSimulate  = "simulate"
	StageReport    = "report"
)

// ClassificationThreshold PD cut-off for the classification report
const ClassificationThreshold = 0.5

// RunHistory persists run records and the model registry (audit.Repository)
type RunHistory interface {
	SaveRun(ctx context.Context, run *audit.RunRecord) error
	RegisterModel(ctx context.Context, m *audit.ModelEntry) error
}

// Deps 오케스트레이터 의존성 (Store 외에는 모두 선택)
type Deps struct {
	Config   *riskconfig.Config
	Store    modelstore.Store
	History  RunHistory
	Metrics  *metrics.Recorder
	Observer contracts.Observer
	Logger   *logger.Logger
}

// Orchestrator coordinates load → validate → split → fit → evaluate → score → report
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	cfg      *riskconfig.Config
	store    modelstore.Store
	history  RunHistory
	metrics  *metrics.Recorder
	observer contracts.Observer
	logger   *logger.Logger
	engine   *risk.Engine
}

// RunResult holds the results of one pipeline invocation
type RunResult struct {
	RunID           string
	Command         string
	Source          string
	Success         bool
	Error           error
	CompletedStages []string
	Warnings        []string

	Rows      int
	TrainRows int
	TestRows  int

	Model            *model.Logistic
	ModelFingerprint string
	ModelLocation    string
	Training         *contracts.TrainingInfo
	Discrimination   *contracts.DiscriminationMetrics
	Classification   *evaluation.ClassificationReport

	Portfolio  *contracts.PortfolioRiskTable
	Grades     []risk.GradeBucket
	Simulation *risk.LossSimulation
	Report     *report.Report

	Events    []audit.Event
	StartedAt time.Time
	Duration  time.Duration
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("pipeline: model store is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("pipeline: logger is required")
	}

	cfg := deps.Config
	if cfg == nil {
		cfg = riskconfig.Default()
	}
	if err := riskconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	observer := deps.Observer
	if observer == nil {
		observer = contracts.NopObserver{}
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    deps.Store,
		history:  deps.History,
		metrics:  deps.Metrics,
		observer: observer,
		logger:   deps.Logger,
		engine:   risk.NewEngine(),
	}, nil
}

// runState 실행 1회 동안의 구성요소 (이벤트 trail 포함)
type runState struct {
	result   *RunResult
	trail    *audit.Trail
	observer contracts.Observer
	log      *logger.Logger
}

func (o *Orchestrator) begin(command, source string) *runState {
	trail := audit.NewTrail()
	result := &RunResult{
		RunID:           uuid.NewString(),
		Command:         command,
		Source:          source,
		CompletedStages: make([]string, 0),
		StartedAt:       time.Now().UTC(),
	}

	log := o.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"command": command,
	})
	log.WithField("source", source).Info("Starting pipeline run")

	return &runState{
		result:   result,
		trail:    trail,
		observer: audit.NewMulti(o.observer, trail),
		log:      log,
	}
}

// stage runs fn, records its latency, and marks it completed on success
func (o *Orchestrator) stage(st *runState, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if o.metrics != nil {
		o.metrics.RecordStage(name, time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	st.result.CompletedStages = append(st.result.CompletedStages, name)
	return nil
}

func (st *runState) warn(msg string) {
	st.result.Warnings = append(st.result.Warnings, msg)
	st.log.Warn(msg)
}

// finish stamps the result, records metrics, and persists run history
func (o *Orchestrator) finish(ctx context.Context, st *runState, err error) (*RunResult, error) {
	res := st.result
	res.Duration = time.Since(res.StartedAt)
	res.Events = st.trail.Events()
	res.Success = err == nil
	res.Error = err

	status := audit.StatusSuccess
	if err != nil {
		status = audit.StatusFailed
	}

	if o.metrics != nil {
		o.metrics.RecordRun(res.Command, status)
		if err != nil {
			o.metrics.RecordError(ErrorKind(err))
		}
	}

	if o.history != nil {
		if herr := o.history.SaveRun(ctx, o.runRecord(res, status)); herr != nil {
			st.log.WithError(herr).Warn("Failed to save run history")
		}
	}

	fields := map[string]interface{}{
		"duration": res.Duration.Seconds(),
		"stages":   len(res.CompletedStages),
		"status":   status,
	}
	if err != nil {
		st.log.WithError(err).WithFields(fields).Error("Pipeline run failed")
		return res, err
	}
	st.log.WithFields(fields).Info("Pipeline run completed successfully")
	return res, nil
}

func (o *Orchestrator) runRecord(res *RunResult, status string) *audit.RunRecord {
	hash, _ := riskconfig.Hash(o.cfg)

	rec := &audit.RunRecord{
		ID:               res.RunID,
		Command:          res.Command,
		Status:           status,
		StartedAt:        res.StartedAt,
		FinishedAt:       res.StartedAt.Add(res.Duration),
		DataSource:       res.Source,
		ConfigHash:       hash,
		ModelFingerprint: res.ModelFingerprint,
		Rows:             res.Rows,
		Events:           res.Events,
	}
	if res.Error != nil {
		rec.Error = res.Error.Error()
	}
	if d := res.Discrimination; d != nil {
		auc, gini := d.AUC, d.Gini
		rec.AUC, rec.Gini = &auc, &gini
	}
	if p := res.Portfolio; p != nil {
		rec.TotalEAD = p.Summary.TotalEAD
		rec.TotalEL = p.Summary.TotalEL
		rec.AvgPD = p.Summary.AvgPD
		if p.Summary.CoverageDefined {
			cov := p.Summary.CoverageRatio
			rec.CoverageRatio = &cov
		}
	}
	return rec
}

// ErrorKind maps an error to a metrics label
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, quality.ErrSchema):
		return "schema"
	case errors.Is(err, model.ErrConvergence):
		return "convergence"
	case errors.Is(err, model.ErrNotFitted):
		return "not_fitted"
	case errors.Is(err, modelstore.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, modelstore.ErrCorruptModel):
		return "corrupt_model"
	case errors.Is(err, s0_data.ErrInsufficientRows):
		return "insufficient_rows"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
