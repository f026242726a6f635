package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aegis_credit"

// Recorder records pipeline metrics on a private registry
// ⭐ SSOT: 메트릭 정의는 여기서만
type Recorder struct {
	registry *prometheus.Registry

	rowsValidated *prometheus.GaugeVec
	runsTotal     *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	trainIters    prometheus.Gauge
	trainLoss     prometheus.Gauge
	auc           prometheus.Gauge
	gini          prometheus.Gauge
	contracts     prometheus.Gauge
	totalEAD      prometheus.Gauge
	totalEL       prometheus.Gauge
	avgPD         prometheus.Gauge
	coverageRatio prometheus.Gauge
	lossQuantile  *prometheus.GaugeVec
	modelsSaved   prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		rowsValidated: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Rows in the last validated dataset",
			},
			[]string{"source"},
		),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by command and status",
			},
			[]string{"command", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Errors encountered by kind",
			},
			[]string{"kind"},
		),
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of pipeline stages in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		trainIters: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_iterations",
			Help:      "Solver iterations of the last fit",
		}),
		trainLoss: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_loss",
			Help:      "Final penalised log-loss of the last fit",
		}),
		auc: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_auc",
			Help:      "ROC AUC on the hold-out set",
		}),
		gini: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_gini",
			Help:      "Gini coefficient on the hold-out set",
		}),
		contracts: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_contracts",
			Help:      "Contracts in the last scored portfolio",
		}),
		totalEAD: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_exposure_total",
			Help:      "Total exposure at default",
		}),
		totalEL: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_expected_loss_total",
			Help:      "Total expected loss",
		}),
		avgPD: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_average_pd",
			Help:      "Mean probability of default",
		}),
		coverageRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_coverage_ratio",
			Help:      "Expected loss over exposure (NaN when undefined)",
		}),
		lossQuantile: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "simulated_loss",
				Help:      "Simulated credit loss VaR/CVaR by confidence level",
			},
			[]string{"measure", "confidence"},
		),
		modelsSaved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "models_saved_total",
			Help:      "Model snapshots persisted",
		}),
	}
}

// Registry returns the private registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordDataset records the row count of a validated dataset.
func (r *Recorder) RecordDataset(source string, rows int) {
	r.rowsValidated.WithLabelValues(source).Set(float64(rows))
}

// RecordRun records a finished pipeline run.
func (r *Recorder) RecordRun(command, status string) {
	r.runsTotal.WithLabelValues(command, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordStage records stage latency in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordTraining records solver diagnostics.
func (r *Recorder) RecordTraining(iterations int, loss float64) {
	r.trainIters.Set(float64(iterations))
	r.trainLoss.Set(loss)
}

// RecordDiscrimination records AUC and Gini.
func (r *Recorder) RecordDiscrimination(auc, gini float64) {
	r.auc.Set(auc)
	r.gini.Set(gini)
}

// RecordPortfolio records portfolio totals; coverage is ignored when undefined.
func (r *Recorder) RecordPortfolio(count int, ead, el, avgPD, coverage float64, coverageDefined bool) {
	r.contracts.Set(float64(count))
	r.totalEAD.Set(ead)
	r.totalEL.Set(el)
	r.avgPD.Set(avgPD)
	if coverageDefined {
		r.coverageRatio.Set(coverage)
	}
}

// RecordLossQuantile records simulated VaR and CVaR at one confidence level.
func (r *Recorder) RecordLossQuantile(confidence, varValue, cvar float64) {
	c := strconv.FormatFloat(confidence, 'f', -1, 64)
	r.lossQuantile.WithLabelValues("var", c).Set(varValue)
	r.lossQuantile.WithLabelValues("cvar", c).Set(cvar)
}

// RecordModelSaved counts a persisted model.
func (r *Recorder) RecordModelSaved() {
	r.modelsSaved.Inc()
}

// WriteTextfile writes the registry in node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
