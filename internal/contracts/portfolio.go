package contracts

import "time"

// RiskParams holds the portfolio-wide risk parameters
type RiskParams struct {
	LGD float64 `json:"lgd"` // Loss Given Default, (0, 1]
}

// RiskRecord is the derived risk of one contract
// ⭐ 원본 Contract 와 함께만 존재 (단독 저장 금지)
type RiskRecord struct {
	Contract     Contract `json:"contract"`
	PD           float64  `json:"pd"`            // [0, 1]
	ExpectedLoss float64  `json:"expected_loss"` // PD * LGD * EAD
}

// PortfolioSummary holds the portfolio-level scalars
type PortfolioSummary struct {
	Count           int     `json:"count"`
	TotalEAD        float64 `json:"total_ead"`
	TotalEL         float64 `json:"total_el"`
	AvgPD           float64 `json:"avg_pd"`
	CoverageRatio   float64 `json:"coverage_ratio"`   // TotalEL / TotalEAD
	CoverageDefined bool    `json:"coverage_defined"` // false when TotalEAD == 0
	LGD             float64 `json:"lgd"`
}

// PortfolioRiskTable is the output of one scoring pass
// 매 스코어링마다 새로 계산 (캐시/변경 없음)
type PortfolioRiskTable struct {
	Records  []RiskRecord     `json:"records"`
	Summary  PortfolioSummary `json:"summary"`
	ScoredAt time.Time        `json:"scored_at"`
}

// Head returns up to n leading records
func (t *PortfolioRiskTable) Head(n int) []RiskRecord {
	if n > len(t.Records) {
		n = len(t.Records)
	}
	if n <= 0 {
		return []RiskRecord{}
	}
	return t.Records[:n]
}

// PDs returns the PD column
func (t *PortfolioRiskTable) PDs() []float64 {
	pds := make([]float64, len(t.Records))
	for i, r := range t.Records {
		pds[i] = r.PD
	}
	return pds
}

// DiscriminationMetrics summarizes held-out discrimination quality
type DiscriminationMetrics struct {
	AUC         float64 `json:"auc"`
	Gini        float64 `json:"gini"`
	SampleCount int     `json:"sample_count"`
	Positives   int     `json:"positives"`
	Negatives   int     `json:"negatives"`
}

// TrainingInfo describes a completed fit
type TrainingInfo struct {
	Rows         int       `json:"rows"`
	Iterations   int       `json:"iterations"`
	FinalLoss    float64   `json:"final_loss"`
	FeatureOrder []string  `json:"feature_order"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	DefaultRate  float64   `json:"default_rate"`
}
