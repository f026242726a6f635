package audit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/pkg/metrics"
)

// =============================================================================
// LogObserver - zerolog 감사 로그
// =============================================================================

// LogObserver writes every pipeline event as a structured log line
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates a new LogObserver
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log.With().Str("component", "audit").Logger()}
}

func (o *LogObserver) DatasetValidated(source string, rows int, required []string) {
	o.log.Info().
		Str("event", EventDatasetValidated).
		Str("source", source).
		Int("rows", rows).
		Strs("required", required).
		Msg("dataset validated")
}

func (o *LogObserver) ModelTrained(info contracts.TrainingInfo) {
	o.log.Info().
		Str("event", EventModelTrained).
		Int("rows", info.Rows).
		Int("iterations", info.Iterations).
		Float64("final_loss", info.FinalLoss).
		Float64("default_rate", info.DefaultRate).
		Strs("features", info.FeatureOrder).
		Floats64("weights", info.Weights).
		Float64("bias", info.Bias).
		Msg("model trained")
}

func (o *LogObserver) ModelEvaluated(m contracts.DiscriminationMetrics) {
	o.log.Info().
		Str("event", EventModelEvaluated).
		Float64("auc", m.AUC).
		Float64("gini", m.Gini).
		Int("samples", m.SampleCount).
		Int("positives", m.Positives).
		Int("negatives", m.Negatives).
		Msg("model evaluated")
}

func (o *LogObserver) ModelSaved(location string) {
	o.log.Info().
		Str("event", EventModelSaved).
		Str("location", location).
		Msg("model saved")
}

func (o *LogObserver) PortfolioScored(s contracts.PortfolioSummary) {
	ev := o.log.Info().
		Str("event", EventPortfolioScored).
		Int("contracts", s.Count).
		Float64("total_ead", s.TotalEAD).
		Float64("total_el", s.TotalEL).
		Float64("avg_pd", s.AvgPD).
		Float64("lgd", s.LGD)
	if s.CoverageDefined {
		ev = ev.Float64("coverage_ratio", s.CoverageRatio)
	} else {
		ev = ev.Bool("coverage_undefined", true)
	}
	ev.Msg("portfolio scored")
}

// =============================================================================
// MetricsObserver - Prometheus
// =============================================================================

// MetricsObserver forwards events to a Prometheus recorder
type MetricsObserver struct {
	rec *metrics.Recorder
}

// NewMetricsObserver creates a new MetricsObserver
func NewMetricsObserver(rec *metrics.Recorder) *MetricsObserver {
	return &MetricsObserver{rec: rec}
}

func (o *MetricsObserver) DatasetValidated(source string, rows int, _ []string) {
	o.rec.RecordDataset(source, rows)
}

func (o *MetricsObserver) ModelTrained(info contracts.TrainingInfo) {
	o.rec.RecordTraining(info.Iterations, info.FinalLoss)
}

func (o *MetricsObserver) ModelEvaluated(m contracts.DiscriminationMetrics) {
	o.rec.RecordDiscrimination(m.AUC, m.Gini)
}

func (o *MetricsObserver) ModelSaved(string) {
	o.rec.RecordModelSaved()
}

func (o *MetricsObserver) PortfolioScored(s contracts.PortfolioSummary) {
	o.rec.RecordPortfolio(s.Count, s.TotalEAD, s.TotalEL, s.AvgPD, s.CoverageRatio, s.CoverageDefined)
}

// =============================================================================
// Trail - 메모리 이벤트 기록 (run history 저장용)
// =============================================================================

// Event kinds
const (
	EventDatasetValidated = "dataset_validated"
	EventModelTrained     = "model_trained"
	EventModelEvaluated   = "model_evaluated"
	EventModelSaved       = "model_saved"
	EventPortfolioScored  = "portfolio_scored"
)

// Event is one recorded observer callback
type Event struct {
	Kind string      `json:"kind"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

// DatasetEvent payload of EventDatasetValidated
type DatasetEvent struct {
	Source   string   `json:"source"`
	Rows     int      `json:"rows"`
	Required []string `json:"required"`
}

// Trail collects events in arrival order; safe for concurrent use
type Trail struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

// NewTrail creates an empty Trail
func NewTrail() *Trail {
	return &Trail{now: time.Now}
}

func (t *Trail) add(kind string, data interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, Event{Kind: kind, At: t.now().UTC(), Data: data})
}

// Events returns a copy of the recorded events
func (t *Trail) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Kinds returns the event kinds in order
func (t *Trail) Kinds() []string {
	events := t.Events()
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (t *Trail) DatasetValidated(source string, rows int, required []string) {
	t.add(EventDatasetValidated, DatasetEvent{
		Source:   source,
		Rows:     rows,
		Required: append([]string(nil), required...),
	})
}

func (t *Trail) ModelTrained(info contracts.TrainingInfo) {
	t.add(EventModelTrained, info)
}

func (t *Trail) ModelEvaluated(m contracts.DiscriminationMetrics) {
	t.add(EventModelEvaluated, m)
}

func (t *Trail) ModelSaved(location string) {
	t.add(EventModelSaved, location)
}

func (t *Trail) PortfolioScored(s contracts.PortfolioSummary) {
	t.add(EventPortfolioScored, s)
}

// =============================================================================
// Multi - fan-out
// =============================================================================

// Multi fans every event out to each observer in order
type Multi []contracts.Observer

// NewMulti drops nil observers
func NewMulti(observers ...contracts.Observer) Multi {
	m := make(Multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m Multi) DatasetValidated(source string, rows int, required []string) {
	for _, o := range m {
		o.DatasetValidated(source, rows, required)
	}
}

func (m Multi) ModelTrained(info contracts.TrainingInfo) {
	for _, o := range m {
		o.ModelTrained(info)
	}
}

func (m Multi) ModelEvaluated(metrics contracts.DiscriminationMetrics) {
	for _, o := range m {
		o.ModelEvaluated(metrics)
	}
}

func (m Multi) ModelSaved(location string) {
	for _, o := range m {
		o.ModelSaved(location)
	}
}

func (m Multi) PortfolioScored(s contracts.PortfolioSummary) {
	for _, o := range m {
		o.PortfolioScored(s)
	}
}

var (
	_ contracts.Observer = (*LogObserver)(nil)
	_ contracts.Observer = (*MetricsObserver)(nil)
	_ contracts.Observer = (*Trail)(nil)
	_ contracts.Observer = Multi(nil)
)
