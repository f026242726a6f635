package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// Aggregator turns PDs into per-contract EL and portfolio totals
// ⭐ SSOT: EL = PD × LGD × EAD 계산은 여기서만
type Aggregator struct {
	workers  int
	observer contracts.Observer
	log      zerolog.Logger
}

// NewAggregator creates a new Aggregator; workers <= 1 scores sequentially
func NewAggregator(workers int, observer contracts.Observer, log zerolog.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	if observer == nil {
		observer = contracts.NopObserver{}
	}
	return &Aggregator{
		workers:  workers,
		observer: observer,
		log:      log.With().Str("component", "risk.aggregator").Logger(),
	}
}

// ExpectedLoss returns pd * lgd * ead
func ExpectedLoss(pd, lgd, ead float64) float64 {
	return pd * lgd * ead
}

// ScorePortfolio scores every contract and rolls up the summary.
// Output order matches input order. Neither the dataset nor the model is modified.
func (a *Aggregator) ScorePortfolio(
	ctx context.Context,
	ds *contracts.Dataset,
	m contracts.PDModel,
	lgd float64,
) (*contracts.PortfolioRiskTable, error) {
	if m == nil {
		return nil, ErrNilModel
	}
	if !(lgd > 0 && lgd <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidLGD, lgd)
	}

	if ds == nil {
		ds = &contracts.Dataset{}
	}

	x, err := ds.Features(m.FeatureOrder())
	if err != nil {
		return nil, fmt.Errorf("extract features: %w", err)
	}

	n := len(x)
	pds := make([]float64, n)

	// 청크 단위 병렬 추론 (각 청크는 자기 구간에만 기록 → 순서 보존)
	chunk := (n + a.workers - 1) / a.workers
	if chunk < 1 {
		chunk = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			probs, err := m.PredictProba(x[lo:hi])
			if err != nil {
				return err
			}
			if len(probs) != hi-lo {
				return fmt.Errorf("model returned %d probabilities for %d rows", len(probs), hi-lo)
			}
			copy(pds[lo:hi], probs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("predict pd: %w", err)
	}

	records := make([]contracts.RiskRecord, n)
	for i, rec := range ds.Records {
		pd := pds[i]
		if !(pd >= 0 && pd <= 1) {
			return nil, fmt.Errorf("%w: row %d pd=%v", ErrInvalidPD, i, pd)
		}
		records[i] = contracts.RiskRecord{
			Contract:     rec,
			PD:           pd,
			ExpectedLoss: ExpectedLoss(pd, lgd, rec.LoanAmount),
		}
	}

	table := &contracts.PortfolioRiskTable{
		Records:  records,
		Summary:  Summarize(records, lgd),
		ScoredAt: time.Now().UTC(),
	}

	if !table.Summary.CoverageDefined {
		a.log.Warn().
			Int("contracts", n).
			Msg("total EAD is zero, coverage ratio undefined")
	}
	a.observer.PortfolioScored(table.Summary)

	return table, nil
}

// Summarize rolls up portfolio scalars in record order
func Summarize(records []contracts.RiskRecord, lgd float64) contracts.PortfolioSummary {
	s := contracts.PortfolioSummary{
		Count: len(records),
		LGD:   lgd,
	}

	var sumPD float64
	for _, r := range records {
		s.TotalEAD += r.Contract.LoanAmount
		s.TotalEL += r.ExpectedLoss
		sumPD += r.PD
	}
	if s.Count > 0 {
		s.AvgPD = sumPD / float64(s.Count)
	}
	if s.TotalEAD > 0 {
		s.CoverageRatio = s.TotalEL / s.TotalEAD
		s.CoverageDefined = true
	}

	return s
}

// CoverageRatio returns TotalEL / TotalEAD or ErrUndefinedCoverage
func CoverageRatio(s contracts.PortfolioSummary) (float64, error) {
	if !s.CoverageDefined {
		return 0, ErrUndefinedCoverage
	}
	return s.CoverageRatio, nil
}
