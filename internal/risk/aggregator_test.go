package risk

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/model"
)

// scoreModel PD = score 컬럼 기반의 단순 결정적 모델
type scoreModel struct {
	err error
	out float64 // >=0 이면 고정 PD 반환
}

func (m scoreModel) FeatureOrder() []string {
	return []string{contracts.ColCreditScore}
}

func (m scoreModel) PredictProba(x [][]float64) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if m.out != 0 {
			out[i] = m.out
			continue
		}
		out[i] = 1 - (row[0]-300)/700
	}
	return out, nil
}

type recordingObserver struct {
	contracts.NopObserver
	summaries []contracts.PortfolioSummary
}

func (o *recordingObserver) PortfolioScored(s contracts.PortfolioSummary) {
	o.summaries = append(o.summaries, s)
}

func portfolio(n int) *contracts.Dataset {
	ds := &contracts.Dataset{
		Source:  "test",
		Columns: contracts.ScoringColumns(),
	}
	for i := 0; i < n; i++ {
		ds.Records = append(ds.Records, contracts.Contract{
			MonthlyIncome: 3000 + float64(i*10),
			CreditScore:   300 + (i*37)%701,
			Age:           20 + i%50,
			LoanAmount:    1000 + float64(i*250),
		})
	}
	return ds
}

func TestExpectedLoss(t *testing.T) {
	assert.InDelta(t, 0.1*0.45*10000, ExpectedLoss(0.1, 0.45, 10000), 1e-9)
	assert.Equal(t, 0.0, ExpectedLoss(0, 0.45, 10000))
}

func TestScorePortfolio_RecordsAndSummary(t *testing.T) {
	obs := &recordingObserver{}
	agg := NewAggregator(1, obs, zerolog.Nop())
	ds := portfolio(10)

	table, err := agg.ScorePortfolio(context.Background(), ds, scoreModel{}, 0.45)
	require.NoError(t, err)
	require.Len(t, table.Records, 10)

	var ead, el, pd float64
	for i, r := range table.Records {
		assert.Equal(t, ds.Records[i], r.Contract)
		want := 1 - (float64(ds.Records[i].CreditScore)-300)/700
		assert.InDelta(t, want, r.PD, 1e-12)
		assert.InDelta(t, r.PD*0.45*r.Contract.LoanAmount, r.ExpectedLoss, 1e-9)
		ead += r.Contract.LoanAmount
		el += r.ExpectedLoss
		pd += r.PD
	}

	s := table.Summary
	assert.Equal(t, 10, s.Count)
	assert.InDelta(t, ead, s.TotalEAD, 1e-9)
	assert.InDelta(t, el, s.TotalEL, 1e-9)
	assert.InDelta(t, pd/10, s.AvgPD, 1e-12)
	assert.True(t, s.CoverageDefined)
	assert.InDelta(t, el/ead, s.CoverageRatio, 1e-12)
	assert.LessOrEqual(t, s.TotalEL, s.TotalEAD*0.45+1e-9)
	assert.Equal(t, 0.45, s.LGD)

	require.Len(t, obs.summaries, 1)
	assert.Equal(t, s, obs.summaries[0])
}

func TestScorePortfolio_ParallelMatchesSequential(t *testing.T) {
	ds := portfolio(103)

	seq, err := NewAggregator(1, nil, zerolog.Nop()).ScorePortfolio(context.Background(), ds, scoreModel{}, 0.45)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 7, 200} {
		par, err := NewAggregator(workers, nil, zerolog.Nop()).ScorePortfolio(context.Background(), ds, scoreModel{}, 0.45)
		require.NoError(t, err)
		assert.Equal(t, seq.Records, par.Records, "workers=%d", workers)
		assert.Equal(t, seq.Summary, par.Summary, "workers=%d", workers)
	}
}

func TestScorePortfolio_DoesNotMutateInput(t *testing.T) {
	ds := portfolio(5)
	before := append([]contracts.Contract{}, ds.Records...)

	_, err := NewAggregator(2, nil, zerolog.Nop()).ScorePortfolio(context.Background(), ds, scoreModel{}, 0.45)
	require.NoError(t, err)
	assert.Equal(t, before, ds.Records)
}

func TestScorePortfolio_ELMonotoneInPD(t *testing.T) {
	ds := &contracts.Dataset{Records: []contracts.Contract{
		{MonthlyIncome: 5000, CreditScore: 900, Age: 40, LoanAmount: 10000},
		{MonthlyIncome: 5000, CreditScore: 600, Age: 40, LoanAmount: 10000},
		{MonthlyIncome: 5000, CreditScore: 350, Age: 40, LoanAmount: 10000},
	}}

	table, err := NewAggregator(1, nil, zerolog.Nop()).ScorePortfolio(context.Background(), ds, scoreModel{}, 0.45)
	require.NoError(t, err)
	assert.Less(t, table.Records[0].ExpectedLoss, table.Records[1].ExpectedLoss)
	assert.Less(t, table.Records[1].ExpectedLoss, table.Records[2].ExpectedLoss)
}

func TestScorePortfolio_EmptyPortfolio(t *testing.T) {
	table, err := NewAggregator(4, nil, zerolog.Nop()).ScorePortfolio(context.Background(), &contracts.Dataset{}, scoreModel{}, 0.45)
	require.NoError(t, err)
	assert.Empty(t, table.Records)
	assert.Equal(t, 0, table.Summary.Count)
	assert.Equal(t, 0.0, table.Summary.AvgPD)
	assert.False(t, table.Summary.CoverageDefined)

	_, err = CoverageRatio(table.Summary)
	assert.ErrorIs(t, err, ErrUndefinedCoverage)
}

func TestScorePortfolio_ZeroExposure(t *testing.T) {
	ds := &contracts.Dataset{Records: []contracts.Contract{
		{MonthlyIncome: 5000, CreditScore: 700, Age: 40, LoanAmount: 0},
	}}

	table, err := NewAggregator(1, nil, zerolog.Nop()).ScorePortfolio(context.Background(), ds, scoreModel{}, 0.45)
	require.NoError(t, err)
	assert.Equal(t, 0.0, table.Summary.TotalEL)
	assert.False(t, table.Summary.CoverageDefined)
	assert.Equal(t, 0.0, table.Summary.CoverageRatio)
}

func TestScorePortfolio_Errors(t *testing.T) {
	ds := portfolio(3)
	agg := NewAggregator(2, nil, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name  string
		model contracts.PDModel
		lgd   float64
		want  error
	}{
		{"lgd zero", scoreModel{}, 0, ErrInvalidLGD},
		{"lgd above one", scoreModel{}, 1.5, ErrInvalidLGD},
		{"lgd nan", scoreModel{}, math.NaN(), ErrInvalidLGD},
		{"nil model", nil, 0.45, ErrNilModel},
		{"pd out of range", scoreModel{out: 1.2}, 0.45, ErrInvalidPD},
		{"untrained model", model.NewLogistic(model.DefaultConfig(), contracts.FeatureOrder), 0.45, model.ErrNotFitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.ScorePortfolio(ctx, ds, tt.model, tt.lgd)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("model error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := agg.ScorePortfolio(ctx, ds, scoreModel{err: boom}, 0.45)
		assert.ErrorIs(t, err, boom)
	})
}

func TestScorePortfolio_TrainedModel(t *testing.T) {
	train := &contracts.Dataset{Columns: contracts.RunColumns(), Records: []contracts.Contract{
		{MonthlyIncome: 2500, CreditScore: 450, Age: 23, LoanAmount: 10000, Defaulted: 1},
		{MonthlyIncome: 8000, CreditScore: 820, Age: 45, LoanAmount: 10000, Defaulted: 0},
		{MonthlyIncome: 3200, CreditScore: 500, Age: 31, LoanAmount: 10000, Defaulted: 1},
		{MonthlyIncome: 5400, CreditScore: 710, Age: 36, LoanAmount: 10000, Defaulted: 0},
		{MonthlyIncome: 12000, CreditScore: 900, Age: 52, LoanAmount: 10000, Defaulted: 0},
	}}
	x, err := train.Features(contracts.FeatureOrder)
	require.NoError(t, err)

	m, err := model.NewLogistic(model.DefaultConfig(), contracts.FeatureOrder).Fit(x, train.Labels())
	require.NoError(t, err)

	table, err := NewAggregator(2, nil, zerolog.Nop()).ScorePortfolio(context.Background(), train, m, 0.45)
	require.NoError(t, err)

	s := table.Summary
	assert.True(t, s.CoverageDefined)
	assert.Greater(t, s.CoverageRatio, 0.0)
	assert.Less(t, s.CoverageRatio, 0.45)
	assert.LessOrEqual(t, s.TotalEL, s.TotalEAD*0.45)
}
