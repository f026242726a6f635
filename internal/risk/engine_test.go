package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
)

func fixedTable(pds []float64, ead, lgd float64) *contracts.PortfolioRiskTable {
	records := make([]contracts.RiskRecord, len(pds))
	for i, pd := range pds {
		records[i] = contracts.RiskRecord{
			Contract:     contracts.Contract{LoanAmount: ead},
			PD:           pd,
			ExpectedLoss: ExpectedLoss(pd, lgd, ead),
		}
	}
	return &contracts.PortfolioRiskTable{Records: records, Summary: Summarize(records, lgd)}
}

func TestGradeOf(t *testing.T) {
	tests := []struct {
		pd   float64
		want string
	}{
		{0, "A"},
		{0.0199, "A"},
		{0.02, "B"},
		{0.049, "B"},
		{0.05, "C"},
		{0.10, "D"},
		{0.1999, "D"},
		{0.20, "E"},
		{1, "E"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeOf(tt.pd), "pd=%v", tt.pd)
	}
}

func TestEngine_Grades(t *testing.T) {
	table := fixedTable([]float64{0.01, 0.015, 0.03, 0.5}, 1000, 0.5)
	buckets := NewEngine().Grades(table)

	require.Len(t, buckets, 5)
	assert.Equal(t, "A", buckets[0].Grade)
	assert.Equal(t, 2, buckets[0].Count)
	assert.InDelta(t, 0.0125, buckets[0].AvgPD, 1e-12)
	assert.InDelta(t, 2000, buckets[0].EAD, 1e-9)
	assert.Equal(t, 1, buckets[1].Count)
	assert.Equal(t, 0, buckets[2].Count)
	assert.Equal(t, 0.0, buckets[2].AvgPD)
	assert.Equal(t, 1, buckets[4].Count)
	assert.InDelta(t, 250, buckets[4].ExpectedLoss, 1e-9)

	var total int
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, 4, total)
}

func TestEngine_SimulateLosses_Deterministic(t *testing.T) {
	e := NewEngine()
	cfg := SimulationConfig{NumSimulations: 200, ConfidenceLevels: []float64{0.95, 0.99}, Seed: 7}

	sim, err := e.SimulateLosses(context.Background(), fixedTable([]float64{0, 0, 0}, 1000, 0.45), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim.MeanLoss)
	assert.Equal(t, 0.0, sim.Quantiles[1].VaR)

	sim, err = e.SimulateLosses(context.Background(), fixedTable([]float64{1, 1}, 1000, 0.45), cfg)
	require.NoError(t, err)
	assert.InDelta(t, 900, sim.MeanLoss, 1e-9)
	assert.InDelta(t, 900, sim.Quantiles[0].VaR, 1e-9)
	assert.InDelta(t, 900, sim.Quantiles[1].CVaR, 1e-9)
	assert.InDelta(t, 0, sim.UnexpectedLoss, 1e-9)
	assert.Equal(t, 0.0, sim.StdDev)
}

func TestEngine_SimulateLosses_Statistics(t *testing.T) {
	pds := make([]float64, 200)
	for i := range pds {
		pds[i] = 0.05 + 0.1*float64(i%5)/4
	}
	table := fixedTable(pds, 1000, 0.45)
	cfg := SimulationConfig{NumSimulations: 5000, ConfidenceLevels: []float64{0.99, 0.95}, Seed: 42}

	sim, err := NewEngine().SimulateLosses(context.Background(), table, cfg)
	require.NoError(t, err)

	// 평균 손실 ≈ 해석적 EL
	assert.InDelta(t, table.Summary.TotalEL, sim.MeanLoss, table.Summary.TotalEL*0.03)
	assert.Equal(t, table.Summary.TotalEL, sim.ExpectedLoss)
	assert.Equal(t, 200, sim.Contracts)
	assert.NotEmpty(t, sim.RunID)

	// 신뢰수준 오름차순 정렬, VaR ≤ CVaR
	require.Len(t, sim.Quantiles, 2)
	assert.Equal(t, 0.95, sim.Quantiles[0].Confidence)
	assert.Equal(t, 0.99, sim.Quantiles[1].Confidence)
	assert.LessOrEqual(t, sim.Quantiles[0].VaR, sim.Quantiles[1].VaR)
	for _, q := range sim.Quantiles {
		assert.LessOrEqual(t, q.VaR, q.CVaR)
	}
	assert.Greater(t, sim.UnexpectedLoss, 0.0)
	assert.InDelta(t, sim.Quantiles[1].VaR-sim.ExpectedLoss, sim.UnexpectedLoss, 1e-9)

	again, err := NewEngine().SimulateLosses(context.Background(), table, cfg)
	require.NoError(t, err)
	assert.Equal(t, sim.Quantiles, again.Quantiles)
	assert.Equal(t, sim.MeanLoss, again.MeanLoss)
}

func TestEngine_SimulateLosses_Errors(t *testing.T) {
	e := NewEngine()
	ctx := context.Background()
	table := fixedTable([]float64{0.1}, 1000, 0.45)

	_, err := e.SimulateLosses(ctx, table, SimulationConfig{NumSimulations: 0, ConfidenceLevels: []float64{0.95}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = e.SimulateLosses(ctx, table, SimulationConfig{NumSimulations: 10})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = e.SimulateLosses(ctx, table, SimulationConfig{NumSimulations: 10, ConfidenceLevels: []float64{1}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = e.SimulateLosses(ctx, fixedTable(nil, 1000, 0.45), DefaultSimulationConfig())
	assert.ErrorIs(t, err, ErrInsufficientData)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = e.SimulateLosses(cancelled, table, DefaultSimulationConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateLossVaR(t *testing.T) {
	losses := make([]float64, 100)
	for i := range losses {
		losses[i] = float64(i + 1)
	}

	r := CalculateLossVaR(losses, 0.95)
	assert.Equal(t, 95.0, r.VaR)
	assert.InDelta(t, (95.0+96+97+98+99+100)/6, r.CVaR, 1e-9)

	assert.Equal(t, VaRResult{Confidence: 0.9}, CalculateLossVaR(nil, 0.9))

	p := CalculatePercentiles(losses, []int{50, 99})
	assert.Equal(t, 50.0, p[50])
	assert.Equal(t, 99.0, p[99])
}
