package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

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
)

// Run executes the full pipeline on a labelled dataset
// load → validate → split → train → evaluate → save → score → simulate → report
func (o *Orchestrator) Run(ctx context.Context, dataPath string) (*RunResult, error) {
	st := o.begin(CommandRun, dataPath)

	for _, w := range riskconfig.Warn(o.cfg) {
		st.warn(fmt.Sprintf("%s: %s", w.Code, w.Message))
	}

	ds, part, err := o.prepareTraining(ctx, st, dataPath, contracts.RunColumns())
	if err != nil {
		return o.finish(ctx, st, err)
	}

	if err := o.trainAndSave(ctx, st, part); err != nil {
		return o.finish(ctx, st, err)
	}

	// ⭐ 기본값 holdout: 학습에 쓰인 행은 포트폴리오에서 제외
	portfolio := part.Test
	if o.cfg.Risk.ScoringSet == riskconfig.ScoringFull {
		portfolio = ds
	}

	err = o.scoreAndReport(ctx, st, portfolio, st.result.Model)
	return o.finish(ctx, st, err)
}

// Train fits and persists a model without scoring a portfolio
func (o *Orchestrator) Train(ctx context.Context, dataPath string) (*RunResult, error) {
	st := o.begin(CommandTrain, dataPath)

	_, part, err := o.prepareTraining(ctx, st, dataPath, contracts.TrainingColumns())
	if err != nil {
		return o.finish(ctx, st, err)
	}

	err = o.trainAndSave(ctx, st, part)
	return o.finish(ctx, st, err)
}

// Score scores every contract of a dataset with the persisted model
func (o *Orchestrator) Score(ctx context.Context, dataPath string) (*RunResult, error) {
	st := o.begin(CommandScore, dataPath)

	ds, err := o.loadValidated(ctx, st, dataPath, contracts.ScoringColumns())
	if err != nil {
		return o.finish(ctx, st, err)
	}

	var m *model.Logistic
	err = o.stage(st, StageLoadModel, func() error {
		snap, err := o.store.Load(ctx)
		if err != nil {
			return err
		}
		m, err = model.Restore(snap)
		if err != nil {
			return fmt.Errorf("%w: %v", modelstore.ErrCorruptModel, err)
		}
		st.result.ModelFingerprint = modelstore.Fingerprint(snap)
		st.result.Model = m
		return nil
	})
	if err != nil {
		return o.finish(ctx, st, err)
	}
	st.log.WithField("fingerprint", st.result.ModelFingerprint[:12]).Info("Model loaded")

	err = o.scoreAndReport(ctx, st, ds, m)
	return o.finish(ctx, st, err)
}

// =============================================================================
// Stages
// =============================================================================

func (o *Orchestrator) loadValidated(ctx context.Context, st *runState, dataPath string, required []string) (*contracts.Dataset, error) {
	zl := o.logger.Zerolog()

	var ds *contracts.Dataset
	err := o.stage(st, StageLoad, func() error {
		var err error
		ds, err = s0_data.NewLoader(zl).Load(ctx, dataPath)
		return err
	})
	if err != nil {
		return nil, err
	}
	st.result.Rows = ds.Len()

	err = o.stage(st, StageValidate, func() error {
		v := quality.NewValidator(st.observer, zl)
		if _, err := v.Validate(ds, required); err != nil {
			return err
		}
		return v.CheckRecords(ds, required)
	})
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (o *Orchestrator) prepareTraining(ctx context.Context, st *runState, dataPath string, required []string) (*contracts.Dataset, *s0_data.Partition, error) {
	ds, err := o.loadValidated(ctx, st, dataPath, required)
	if err != nil {
		return nil, nil, err
	}

	var part *s0_data.Partition
	err = o.stage(st, StageSplit, func() error {
		var err error
		part, err = s0_data.Split(ds, o.cfg.Split.TestSize, o.cfg.Split.Seed)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	st.result.TrainRows = part.Train.Len()
	st.result.TestRows = part.Test.Len()

	st.log.WithFields(map[string]interface{}{
		"train_rows":   st.result.TrainRows,
		"test_rows":    st.result.TestRows,
		"default_rate": part.Train.DefaultRate(),
	}).Info("Dataset split")

	return ds, part, nil
}

// trainAndSave fits on the training partition, evaluates on the hold-out, and persists the model
func (o *Orchestrator) trainAndSave(ctx context.Context, st *runState, part *s0_data.Partition) error {
	var trained *model.Logistic
	err := o.stage(st, StageTrain, func() error {
		x, err := part.Train.Features(contracts.FeatureOrder)
		if err != nil {
			return err
		}
		trained, err = model.NewLogistic(o.cfg.ModelConfig(), contracts.FeatureOrder).Fit(x, part.Train.Labels())
		if err != nil {
			return err
		}
		info, err := trained.Info()
		if err != nil {
			return err
		}
		st.result.Training = &info
		st.observer.ModelTrained(info)
		return nil
	})
	if err != nil {
		return err
	}
	st.result.Model = trained

	if err := ctx.Err(); err != nil {
		return err
	}

	err = o.stage(st, StageEvaluate, func() error {
		x, err := part.Test.Features(contracts.FeatureOrder)
		if err != nil {
			return err
		}
		probs, err := trained.PredictProba(x)
		if err != nil {
			return err
		}
		labels := part.Test.Labels()

		metrics, err := evaluation.Evaluate(labels, probs)
		switch {
		case errors.Is(err, evaluation.ErrDegenerateLabels):
			// 단일 클래스 hold-out: AUC 미정의, 실행은 계속
			st.warn(fmt.Sprintf("discrimination undefined: %v", err))
		case err != nil:
			return err
		default:
			st.result.Discrimination = &metrics
			st.observer.ModelEvaluated(metrics)
		}

		cls, err := evaluation.Classify(labels, probs, ClassificationThreshold)
		if err != nil {
			return err
		}
		st.result.Classification = &cls
		return nil
	})
	if err != nil {
		return err
	}

	return o.stage(st, StageSave, func() error {
		snap, err := trained.Snapshot()
		if err != nil {
			return err
		}
		location, err := o.store.Save(ctx, snap)
		if err != nil {
			return fmt.Errorf("save model: %w", err)
		}
		st.result.ModelLocation = location
		st.result.ModelFingerprint = modelstore.Fingerprint(snap)
		st.observer.ModelSaved(location)

		o.registerModel(ctx, st, snap)
		return nil
	})
}

func (o *Orchestrator) registerModel(ctx context.Context, st *runState, snap *model.Snapshot) {
	if o.history == nil {
		return
	}

	entry := &audit.ModelEntry{
		Fingerprint:  st.result.ModelFingerprint,
		Location:     st.result.ModelLocation,
		FeatureOrder: snap.FeatureOrder,
		TrainRows:    snap.TrainRows,
		Iterations:   snap.Iterations,
		FinalLoss:    snap.FinalLoss,
		RunID:        st.result.RunID,
		CreatedAt:    time.Now().UTC(),
	}
	if d := st.result.Discrimination; d != nil {
		auc := d.AUC
		entry.AUC = &auc
	}

	if err := o.history.RegisterModel(ctx, entry); err != nil {
		st.log.WithError(err).Warn("Failed to register model")
	}
}

// scoreAndReport scores the portfolio, runs the optional simulation, and assembles the report
func (o *Orchestrator) scoreAndReport(ctx context.Context, st *runState, ds *contracts.Dataset, m contracts.PDModel) error {
	var table *contracts.PortfolioRiskTable
	err := o.stage(st, StageScore, func() error {
		agg := risk.NewAggregator(o.cfg.Risk.Workers, st.observer, o.logger.Zerolog())
		var err error
		table, err = agg.ScorePortfolio(ctx, ds, m, o.cfg.Risk.LGD)
		return err
	})
	if err != nil {
		return err
	}
	st.result.Portfolio = table
	st.result.Grades = o.engine.Grades(table)

	if !table.Summary.CoverageDefined {
		st.warn("coverage ratio undefined: portfolio has zero exposure")
	}

	if o.cfg.SimulationEnabled() {
		if len(table.Records) == 0 {
			st.warn("loss simulation skipped: empty portfolio")
		} else {
			err = o.stage(st, StageSimulate, func() error {
				sim, err := o.engine.SimulateLosses(ctx, table, o.cfg.SimulationConfig())
				if err != nil {
					return err
				}
				st.result.Simulation = sim
				if o.metrics != nil {
					for _, q := range sim.Quantiles {
						o.metrics.RecordLossQuantile(q.Confidence, q.VaR, q.CVaR)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
	}

	return o.stage(st, StageReport, func() error {
		fp := st.result.ModelFingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		scoringSet := riskconfig.ScoringFull
		if st.result.Command == CommandRun {
			scoringSet = o.cfg.Risk.ScoringSet
		}

		st.result.Report = report.Assemble(table, report.Options{
			SampleRows:       o.cfg.Report.SampleRows,
			Currency:         o.cfg.Report.Currency,
			RunID:            st.result.RunID,
			ScoringSet:       scoringSet,
			ModelFingerprint: fp,
			Discrimination:   st.result.Discrimination,
			Classification:   st.result.Classification,
			Grades:           st.result.Grades,
			Simulation:       st.result.Simulation,
			Warnings:         append([]string{}, st.result.Warnings...),
		})
		return nil
	})
}
