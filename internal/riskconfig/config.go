package riskconfig

import (
	"github.com/wonny/aegis-credit/internal/model"
	"github.com/wonny/aegis-credit/internal/risk"
)

// Config는 신용리스크 파이프라인의 전체 파라미터
// default 태그는 creasty/defaults, validate 태그는 go-playground/validator
type Config struct {
	Model      ModelSection      `yaml:"model" json:"model"`
	Split      SplitSection      `yaml:"split" json:"split"`
	Risk       RiskSection       `yaml:"risk" json:"risk"`
	Simulation SimulationSection `yaml:"simulation" json:"simulation"`
	Report     ReportSection     `yaml:"report" json:"report"`
}

// ModelSection 로지스틱 회귀 학습 설정
type ModelSection struct {
	L2            *float64 `yaml:"l2" json:"l2" default:"0.5" validate:"required,gte=0"`
	MaxIterations int      `yaml:"max_iterations" json:"max_iterations" default:"100" validate:"gt=0,lte=10000"`
	Tolerance     float64  `yaml:"tolerance" json:"tolerance" default:"1e-8" validate:"gt=0,lt=1"`
	ClassWeight   string   `yaml:"class_weight" json:"class_weight" default:"balanced" validate:"oneof=balanced none"`
}

// SplitSection 학습/검증 분할
type SplitSection struct {
	TestSize float64 `yaml:"test_size" json:"test_size" default:"0.3" validate:"gt=0,lt=1"`
	Seed     int64   `yaml:"seed" json:"seed" default:"42"`
}

// RiskSection EL 계산
type RiskSection struct {
	LGD        float64 `yaml:"lgd" json:"lgd" default:"0.45" validate:"gt=0,lte=1"`
	ScoringSet string  `yaml:"scoring_set" json:"scoring_set" default:"holdout" validate:"oneof=holdout full"`
	Workers    int     `yaml:"workers" json:"workers" default:"4" validate:"gte=1,lte=64"`
}

// SimulationSection 신용손실 Monte Carlo
type SimulationSection struct {
	Enabled          *bool     `yaml:"enabled" json:"enabled" default:"true" validate:"required"`
	NumSimulations   int       `yaml:"num_simulations" json:"num_simulations" default:"10000" validate:"gte=100,lte=1000000"`
	ConfidenceLevels []float64 `yaml:"confidence_levels" json:"confidence_levels" default:"[0.95,0.99]" validate:"min=1,dive,gt=0,lt=1"`
	Seed             int64     `yaml:"seed" json:"seed" default:"42"`
}

// ReportSection 경영진 리포트
type ReportSection struct {
	SampleRows int    `yaml:"sample_rows" json:"sample_rows" default:"5" validate:"gte=0,lte=1000"`
	Currency   string `yaml:"currency" json:"currency" default:"R$" validate:"max=8"`
}

// Scoring set
const (
	ScoringHoldout = "holdout"
	ScoringFull    = "full"
)

// ModelConfig converts to the optimizer config (split seed doubles as init seed)
func (c *Config) ModelConfig() model.Config {
	cfg := model.Config{
		MaxIterations: c.Model.MaxIterations,
		Tolerance:     c.Model.Tolerance,
		ClassWeight:   model.ClassWeight(c.Model.ClassWeight),
		Seed:          c.Split.Seed,
	}
	if c.Model.L2 != nil {
		cfg.L2 = *c.Model.L2
	}
	return cfg
}

// SimulationEnabled reports whether the loss simulation runs
func (c *Config) SimulationEnabled() bool {
	return c.Simulation.Enabled != nil && *c.Simulation.Enabled
}

// SimulationConfig converts to the Monte Carlo config
func (c *Config) SimulationConfig() risk.SimulationConfig {
	return risk.SimulationConfig{
		NumSimulations:   c.Simulation.NumSimulations,
		ConfidenceLevels: append([]float64{}, c.Simulation.ConfidenceLevels...),
		Seed:             c.Simulation.Seed,
	}
}
