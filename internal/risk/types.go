package risk

import (
	"errors"
	"time"
)

var (
	ErrInvalidLGD        = errors.New("lgd must be in (0, 1]")
	ErrInvalidPD         = errors.New("model returned pd outside [0, 1]")
	ErrUndefinedCoverage = errors.New("coverage ratio undefined: total EAD is zero")
	ErrNilModel          = errors.New("pd model is nil")
	ErrInsufficientData  = errors.New("insufficient data for simulation")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// VaRConvention VaR 부호 규약
// ⭐ SSOT: Loss를 양수로 표현 (VaR=1000 → 해당 신뢰수준에서 최대 1000 손실)
const VaRConvention = "loss_positive"

// =============================================================================
// VaR/CVaR Types
// =============================================================================

// VaRResult VaR 계산 결과 (손실 분포 상위 꼬리)
type VaRResult struct {
	Confidence float64 `json:"confidence"` // 신뢰수준 (예: 0.95, 0.99)
	VaR        float64 `json:"var"`        // Value at Risk (손실, 양수)
	CVaR       float64 `json:"cvar"`       // Expected Shortfall (VaR 이상 손실의 평균)
}

// =============================================================================
// Monte Carlo Types
// =============================================================================

// SimulationConfig 신용손실 Monte Carlo 설정
// ⭐ SSOT: 재현성을 위해 모든 설정을 명시적으로 기록
type SimulationConfig struct {
	NumSimulations   int       `json:"num_simulations"`   // 시뮬레이션 횟수 (기본: 10000)
	ConfidenceLevels []float64 `json:"confidence_levels"` // 신뢰수준 [0.95, 0.99]
	Seed             int64     `json:"seed"`              // 재현성용 시드 (0=랜덤)
}

// DefaultSimulationConfig 기본 Monte Carlo 설정
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		NumSimulations:   10000,
		ConfidenceLevels: []float64{0.95, 0.99},
		Seed:             42,
	}
}

// LossSimulation Monte Carlo 신용손실 분포 결과
// 독립 Bernoulli 부도 가정: loss = Σ D_i · LGD · EAD_i
type LossSimulation struct {
	RunID          string           `json:"run_id"`
	Config         SimulationConfig `json:"config"`
	Contracts      int              `json:"contracts"`
	ExpectedLoss   float64          `json:"expected_loss"`   // 해석적 EL (Σ PD·LGD·EAD)
	MeanLoss       float64          `json:"mean_loss"`       // 시뮬레이션 평균
	StdDev         float64          `json:"std_dev"`
	Quantiles      []VaRResult      `json:"quantiles"`       // 신뢰수준별 VaR/CVaR
	UnexpectedLoss float64          `json:"unexpected_loss"` // 최고 신뢰수준 VaR − EL
	Percentiles    map[int]float64  `json:"percentiles"`
	CreatedAt      time.Time        `json:"created_at"`
}

// =============================================================================
// Grade Types
// =============================================================================

// GradeBucket PD 등급 구간 집계
type GradeBucket struct {
	Grade        string  `json:"grade"`
	MinPD        float64 `json:"min_pd"` // 포함
	MaxPD        float64 `json:"max_pd"` // 미포함 (마지막 등급은 1 포함)
	Count        int     `json:"count"`
	EAD          float64 `json:"ead"`
	ExpectedLoss float64 `json:"expected_loss"`
	AvgPD        float64 `json:"avg_pd"`
}
