package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/wonny/aegis-credit/internal/contracts"
)

var (
	ErrDegenerateLabels = errors.New("evaluation requires both classes")
	ErrLengthMismatch   = errors.New("labels and probabilities differ in length")
	ErrInvalidLabel     = errors.New("label not in {0,1}")
	ErrInvalidScore     = errors.New("score is not a finite number")
)

// Evaluate computes rank-based AUC (Mann-Whitney U) and Gini = 2·AUC − 1.
// Tied scores share their average rank. Pure function.
func Evaluate(labels []int, probs []float64) (contracts.DiscriminationMetrics, error) {
	if err := checkInput(labels, probs); err != nil {
		return contracts.DiscriminationMetrics{}, err
	}

	var positives, negatives int
	for _, y := range labels {
		if y == 1 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return contracts.DiscriminationMetrics{}, fmt.Errorf("%w: %d positives, %d negatives",
			ErrDegenerateLabels, positives, negatives)
	}

	ranks := averageRanks(probs)

	var rankSumPos float64
	for i, y := range labels {
		if y == 1 {
			rankSumPos += ranks[i]
		}
	}

	nPos := float64(positives)
	nNeg := float64(negatives)
	u := rankSumPos - nPos*(nPos+1)/2
	auc := u / (nPos * nNeg)

	return contracts.DiscriminationMetrics{
		AUC:         auc,
		Gini:        2*auc - 1,
		SampleCount: len(labels),
		Positives:   positives,
		Negatives:   negatives,
	}, nil
}

// averageRanks returns 1-based ranks with ties averaged
func averageRanks(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	ranks := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		// 위치 i..j (0-based) → 순위 i+1..j+1 의 평균
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

func checkInput(labels []int, probs []float64) error {
	if len(labels) != len(probs) {
		return fmt.Errorf("%w: %d labels, %d probabilities", ErrLengthMismatch, len(labels), len(probs))
	}
	for i, y := range labels {
		if y != 0 && y != 1 {
			return fmt.Errorf("%w: index %d has %d", ErrInvalidLabel, i, y)
		}
		if math.IsNaN(probs[i]) || math.IsInf(probs[i], 0) {
			return fmt.Errorf("%w: index %d", ErrInvalidScore, i)
		}
	}
	return nil
}
