package s0_data

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
)

func makeDataset(n int) *contracts.Dataset {
	ds := &contracts.Dataset{Source: "gen", Columns: contracts.RunColumns()}
	for i := 0; i < n; i++ {
		ds.Records = append(ds.Records, contracts.Contract{
			MonthlyIncome: float64(1000 + i),
			CreditScore:   300 + i,
			Age:           18 + i%50,
			LoanAmount:    float64(500 + i),
			Defaulted:     i % 2,
		})
	}
	return ds
}

func TestSplit_Sizes(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		testSize  float64
		wantTest  int
		wantTrain int
	}{
		{"default 30%", 100, 0.3, 30, 70},
		{"rounds up", 10, 0.25, 3, 7},
		{"five rows hold out one", 5, 0.2, 1, 4},
		{"keeps one training row", 3, 0.9, 2, 1},
		{"two rows", 2, 0.01, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Split(makeDataset(tt.n), tt.testSize, 42)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTest, p.Test.Len())
			assert.Equal(t, tt.wantTrain, p.Train.Len())
			assert.Len(t, p.TestIdx, tt.wantTest)
		})
	}
}

func TestSplit_DisjointAndOrdered(t *testing.T) {
	ds := makeDataset(50)

	p, err := Split(ds, 0.3, 7)
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, p.TrainIdx...), p.TestIdx...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 50)

	assert.IsIncreasing(t, p.TrainIdx)
	assert.IsIncreasing(t, p.TestIdx)
	for k, i := range p.TestIdx {
		assert.Equal(t, ds.Records[i], p.Test.Records[k])
	}
}

func TestSplit_Reproducible(t *testing.T) {
	ds := makeDataset(40)

	a, err := Split(ds, 0.3, 42)
	require.NoError(t, err)
	b, err := Split(ds, 0.3, 42)
	require.NoError(t, err)
	c, err := Split(ds, 0.3, 43)
	require.NoError(t, err)

	assert.Equal(t, a.TestIdx, b.TestIdx)
	assert.NotEqual(t, a.TestIdx, c.TestIdx)
}

func TestSplit_Errors(t *testing.T) {
	_, err := Split(makeDataset(1), 0.3, 42)
	assert.True(t, errors.Is(err, ErrInsufficientRows))

	_, err = Split(makeDataset(10), 0, 42)
	assert.True(t, errors.Is(err, ErrInvalidTestSize))

	_, err = Split(makeDataset(10), 1, 42)
	assert.True(t, errors.Is(err, ErrInvalidTestSize))
}
