package s0_data

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/wonny/aegis-credit/internal/contracts"
)

var (
	ErrInsufficientRows = errors.New("insufficient rows to split")
	ErrInvalidTestSize  = errors.New("test size must be in (0, 1)")
)

// Partition is a train/test split of one dataset
type Partition struct {
	Train    *contracts.Dataset
	Test     *contracts.Dataset
	TrainIdx []int // 원본 Dataset 기준 인덱스 (오름차순)
	TestIdx  []int
}

// Split shuffles row indices with a seeded RNG and holds out ceil(testSize*n) rows.
// At least one row lands on each side. Both partitions keep source row order.
// ⭐ 동일 seed + 동일 데이터 → 동일 분할 (재현성)
func Split(ds *contracts.Dataset, testSize float64, seed int64) (*Partition, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTestSize, testSize)
	}

	n := ds.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d, need 2", ErrInsufficientRows, n)
	}

	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	testIdx := append([]int{}, perm[:nTest]...)
	trainIdx := append([]int{}, perm[nTest:]...)
	sort.Ints(testIdx)
	sort.Ints(trainIdx)

	return &Partition{
		Train:    ds.Subset(trainIdx),
		Test:     ds.Subset(testIdx),
		TrainIdx: trainIdx,
		TestIdx:  testIdx,
	}, nil
}
