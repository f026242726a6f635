package risk

import (
	"math"
	"sort"
)

// =============================================================================
// VaR (Value at Risk) on loss distributions
// =============================================================================

// CalculateLossVaR 손실 분포 기반 VaR/CVaR 계산
// losses: 시뮬레이션 손실 (양수=손실)
// confidence: 신뢰수준 (예: 0.95, 0.99)
// VaR = confidence 분위수, CVaR = VaR 이상 손실의 평균
func CalculateLossVaR(losses []float64, confidence float64) VaRResult {
	if len(losses) == 0 {
		return VaRResult{Confidence: confidence}
	}

	sorted := make([]float64, len(losses))
	copy(sorted, losses)
	sort.Float64s(sorted)

	return lossVaRSorted(sorted, confidence)
}

// lossVaRSorted sorted: 오름차순 정렬된 손실
func lossVaRSorted(sorted []float64, confidence float64) VaRResult {
	idx := int(math.Ceil(confidence*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        sorted[idx],
		CVaR:       CalculateMean(sorted[idx:]),
	}
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// CalculateMean 평균 계산
func CalculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// CalculateStdDev 표준편차 계산 (표본)
func CalculateStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := CalculateMean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// CalculatePercentiles 백분위수 계산 (nearest rank)
func CalculatePercentiles(values []float64, percentiles []int) map[int]float64 {
	result := make(map[int]float64, len(percentiles))
	if len(values) == 0 {
		return result
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	for _, p := range percentiles {
		idx := int(math.Ceil(float64(p)/100*float64(len(sorted)))) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		result[p] = sorted[idx]
	}
	return result
}
