package model

import (
	"fmt"
	"math"
	"time"
)

// SnapshotVersion is bumped whenever the persisted layout changes
const SnapshotVersion = 1

// Snapshot is the serializable form of a trained model
// ⭐ 최소 필드: feature_order, weights, bias (나머지는 감사/재현용)
type Snapshot struct {
	Version      int        `json:"version"`
	FeatureOrder []string   `json:"feature_order"`
	Weights      []float64  `json:"weights"`
	Bias         float64    `json:"bias"`
	ClassWeights [2]float64 `json:"class_weights"`
	Config       Config     `json:"config"`
	Iterations   int        `json:"iterations"`
	FinalLoss    float64    `json:"final_loss"`
	TrainRows    int        `json:"train_rows"`
	DefaultRate  float64    `json:"default_rate"`
	TrainedAt    time.Time  `json:"trained_at"`
}

// Snapshot exports the trained state
func (m *Logistic) Snapshot() (*Snapshot, error) {
	if m.trained == nil {
		return nil, ErrNotFitted
	}
	return &Snapshot{
		Version:      SnapshotVersion,
		FeatureOrder: m.FeatureOrder(),
		Weights:      append([]float64{}, m.trained.weights...),
		Bias:         m.trained.bias,
		ClassWeights: m.trained.classWeights,
		Config:       m.cfg,
		Iterations:   m.trained.iterations,
		FinalLoss:    m.trained.loss,
		TrainRows:    m.trained.rows,
		DefaultRate:  m.trained.defaultRate,
		TrainedAt:    m.trained.trainedAt,
	}, nil
}

// Restore rebuilds a trained model from a snapshot
func Restore(s *Snapshot) (*Logistic, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidInput)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", ErrInvalidInput, s.Version)
	}
	if len(s.FeatureOrder) == 0 || len(s.FeatureOrder) != len(s.Weights) {
		return nil, fmt.Errorf("%w: %d features but %d weights", ErrInvalidInput, len(s.FeatureOrder), len(s.Weights))
	}
	for _, v := range append(append([]float64{}, s.Weights...), s.Bias) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", ErrInvalidInput)
		}
	}

	return &Logistic{
		cfg:          s.Config,
		featureOrder: append([]string{}, s.FeatureOrder...),
		trained: &fitted{
			weights:      append([]float64{}, s.Weights...),
			bias:         s.Bias,
			classWeights: s.ClassWeights,
			iterations:   s.Iterations,
			loss:         s.FinalLoss,
			rows:         s.TrainRows,
			defaultRate:  s.DefaultRate,
			trainedAt:    s.TrainedAt,
		},
	}, nil
}
