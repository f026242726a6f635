package risk

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// MonteCarloSimulator 신용손실 Monte Carlo 시뮬레이터
type MonteCarloSimulator struct {
	config SimulationConfig
	rng    *rand.Rand
}

// NewMonteCarloSimulator 새 시뮬레이터 생성
func NewMonteCarloSimulator(config SimulationConfig) *MonteCarloSimulator {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewSource(config.Seed))
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &MonteCarloSimulator{
		config: config,
		rng:    rng,
	}
}

// Simulate 포트폴리오 손실 분포 시뮬레이션
// 각 시나리오에서 계약별로 PD 확률로 부도 → LGD·EAD 손실
func (mc *MonteCarloSimulator) Simulate(ctx context.Context, table *contracts.PortfolioRiskTable) (*LossSimulation, error) {
	if table == nil || len(table.Records) == 0 {
		return nil, fmt.Errorf("%w: empty portfolio", ErrInsufficientData)
	}

	lgd := table.Summary.LGD
	exposures := make([]float64, len(table.Records))
	for i, r := range table.Records {
		exposures[i] = lgd * r.Contract.LoanAmount
	}

	losses := make([]float64, mc.config.NumSimulations)
	for s := range losses {
		if s%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var loss float64
		for i, r := range table.Records {
			if mc.rng.Float64() < r.PD {
				loss += exposures[i]
			}
		}
		losses[s] = loss
	}

	return mc.calculateResult(losses, table), nil
}

// calculateResult 시뮬레이션 결과 통계 계산
func (mc *MonteCarloSimulator) calculateResult(losses []float64, table *contracts.PortfolioRiskTable) *LossSimulation {
	sorted := make([]float64, len(losses))
	copy(sorted, losses)
	sort.Float64s(sorted)

	levels := append([]float64{}, mc.config.ConfidenceLevels...)
	sort.Float64s(levels)

	quantiles := make([]VaRResult, len(levels))
	for i, cl := range levels {
		quantiles[i] = lossVaRSorted(sorted, cl)
	}

	result := &LossSimulation{
		RunID:        uuid.New().String(),
		Config:       mc.config,
		Contracts:    len(table.Records),
		ExpectedLoss: table.Summary.TotalEL,
		MeanLoss:     CalculateMean(losses),
		StdDev:       CalculateStdDev(losses),
		Quantiles:    quantiles,
		Percentiles:  CalculatePercentiles(sorted, []int{1, 5, 10, 25, 50, 75, 90, 95, 99}),
		CreatedAt:    time.Now(),
	}
	if len(quantiles) > 0 {
		result.UnexpectedLoss = quantiles[len(quantiles)-1].VaR - result.ExpectedLoss
	}

	return result
}
