package risk

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// =============================================================================
// Engine - 순수 계산기
// =============================================================================

// Engine 리스크 엔진 (순수 계산기)
// ⭐ SSOT: 데이터 로드/모델 학습은 상위 레이어(pipeline)에서 조립
// internal/risk는 스코어링 결과에 대한 순수 계산만 담당
type Engine struct{}

// NewEngine 새 리스크 엔진 생성
func NewEngine() *Engine {
	return &Engine{}
}

// SimulateLosses 신용손실 분포 Monte Carlo
func (e *Engine) SimulateLosses(ctx context.Context, table *contracts.PortfolioRiskTable, config SimulationConfig) (*LossSimulation, error) {
	if err := ValidateSimulationConfig(config); err != nil {
		return nil, err
	}
	return NewMonteCarloSimulator(config).Simulate(ctx, table)
}

// =============================================================================
// PD Grades
// =============================================================================

// gradeBounds 등급 상한 (A < 2%, B < 5%, C < 10%, D < 20%, E 나머지)
var gradeBounds = []struct {
	grade string
	max   float64
}{
	{"A", 0.02},
	{"B", 0.05},
	{"C", 0.10},
	{"D", 0.20},
	{"E", 1.00},
}

// GradeOf PD → 등급
func GradeOf(pd float64) string {
	for _, b := range gradeBounds[:len(gradeBounds)-1] {
		if pd < b.max {
			return b.grade
		}
	}
	return gradeBounds[len(gradeBounds)-1].grade
}

// Grades 등급별 분포 (항상 A..E 5개 버킷, 빈 버킷 포함)
func (e *Engine) Grades(table *contracts.PortfolioRiskTable) []GradeBucket {
	buckets := make([]GradeBucket, len(gradeBounds))
	pos := make(map[string]int, len(gradeBounds))
	lower := 0.0
	for i, b := range gradeBounds {
		buckets[i] = GradeBucket{Grade: b.grade, MinPD: lower, MaxPD: b.max}
		pos[b.grade] = i
		lower = b.max
	}

	if table == nil {
		return buckets
	}

	for _, r := range table.Records {
		b := &buckets[pos[GradeOf(r.PD)]]
		b.Count++
		b.EAD += r.Contract.LoanAmount
		b.ExpectedLoss += r.ExpectedLoss
		b.AvgPD += r.PD
	}
	for i := range buckets {
		if buckets[i].Count > 0 {
			buckets[i].AvgPD /= float64(buckets[i].Count)
		}
	}

	return buckets
}

// ValidateSimulationConfig 설정 유효성 검사
func ValidateSimulationConfig(config SimulationConfig) error {
	if config.NumSimulations <= 0 {
		return fmt.Errorf("%w: NumSimulations must be > 0", ErrInvalidConfig)
	}
	if len(config.ConfidenceLevels) == 0 {
		return fmt.Errorf("%w: ConfidenceLevels cannot be empty", ErrInvalidConfig)
	}
	for _, cl := range config.ConfidenceLevels {
		if cl <= 0 || cl >= 1 {
			return fmt.Errorf("%w: ConfidenceLevel must be between 0 and 1", ErrInvalidConfig)
		}
	}
	return nil
}
