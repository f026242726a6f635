package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() *Dataset {
	return &Dataset{
		Source:  "test",
		Columns: RunColumns(),
		Records: []Contract{
			{MonthlyIncome: 3000, CreditScore: 750, Age: 30, LoanAmount: 5000, Defaulted: 0},
			{MonthlyIncome: 2000, CreditScore: 450, Age: 25, LoanAmount: 8000, Defaulted: 1},
			{MonthlyIncome: 5000, CreditScore: 820, Age: 40, LoanAmount: 3000, Defaulted: 0},
		},
	}
}

func TestContract_FeatureVector(t *testing.T) {
	c := Contract{MonthlyIncome: 3000, CreditScore: 750, Age: 30, LoanAmount: 5000}

	vec, err := c.FeatureVector(FeatureOrder)
	require.NoError(t, err)
	assert.Equal(t, []float64{3000, 750, 30}, vec)

	_, err = c.FeatureVector([]string{"salary"})
	assert.Error(t, err)
}

func TestColumnSets(t *testing.T) {
	assert.Equal(t, []string{ColMonthlyIncome, ColCreditScore, ColAge, ColDefaulted}, TrainingColumns())
	assert.Equal(t, []string{ColMonthlyIncome, ColCreditScore, ColAge, ColLoanAmount}, ScoringColumns())

	// 반환값 수정이 FeatureOrder 에 영향을 주면 안 됨
	cols := TrainingColumns()
	cols[0] = "changed"
	assert.Equal(t, ColMonthlyIncome, FeatureOrder[0])
}

func TestDataset_Subset(t *testing.T) {
	ds := sampleDataset()

	sub := ds.Subset([]int{2, 0})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 820, sub.Records[0].CreditScore)
	assert.Equal(t, 750, sub.Records[1].CreditScore)
	assert.Equal(t, 3, ds.Len(), "source dataset must be untouched")
	assert.True(t, sub.Labeled())
}

func TestDataset_FeaturesAndLabels(t *testing.T) {
	ds := sampleDataset()

	x, err := ds.Features(FeatureOrder)
	require.NoError(t, err)
	assert.Len(t, x, 3)
	assert.Equal(t, []float64{2000, 450, 25}, x[1])
	assert.Equal(t, []int{0, 1, 0}, ds.Labels())
	assert.InDelta(t, 1.0/3.0, ds.DefaultRate(), 1e-12)

	var empty *Dataset
	assert.Equal(t, 0, empty.Len())
}

func TestPortfolioRiskTable_Head(t *testing.T) {
	table := &PortfolioRiskTable{Records: []RiskRecord{{PD: 0.1}, {PD: 0.2}, {PD: 0.3}}}

	assert.Len(t, table.Head(2), 2)
	assert.Len(t, table.Head(10), 3)
	assert.Empty(t, table.Head(0))
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, table.PDs())
}
