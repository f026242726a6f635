package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/evaluation"
	"github.com/wonny/aegis-credit/internal/risk"
)

// Report 경영진 신용리스크 리포트
// 포트폴리오 테이블에서만 파생 (부가 섹션은 선택)
type Report struct {
	Title            string                           `json:"title"`
	RunID            string                           `json:"run_id,omitempty"`
	GeneratedAt      time.Time                        `json:"generated_at"`
	Currency         string                           `json:"currency"`
	ScoringSet       string                           `json:"scoring_set,omitempty"`
	ModelFingerprint string                           `json:"model_fingerprint,omitempty"`
	Summary          contracts.PortfolioSummary       `json:"summary"`
	Sample           []contracts.RiskRecord           `json:"sample"`
	Discrimination   *contracts.DiscriminationMetrics `json:"discrimination,omitempty"`
	Classification   *evaluation.ClassificationReport `json:"classification,omitempty"`
	Grades           []risk.GradeBucket               `json:"grades,omitempty"`
	Simulation       *risk.LossSimulation             `json:"simulation,omitempty"`
	Warnings         []string                         `json:"warnings,omitempty"`
}

// Options 리포트 조립 옵션
type Options struct {
	SampleRows       int
	Currency         string
	RunID            string
	ScoringSet       string
	ModelFingerprint string
	Discrimination   *contracts.DiscriminationMetrics
	Classification   *evaluation.ClassificationReport
	Grades           []risk.GradeBucket
	Simulation       *risk.LossSimulation
	Warnings         []string
}

// Assemble builds the report from a scored portfolio
func Assemble(table *contracts.PortfolioRiskTable, opts Options) *Report {
	r := &Report{
		Title:            "CREDIT RISK EXECUTIVE REPORT",
		RunID:            opts.RunID,
		GeneratedAt:      time.Now().UTC(),
		Currency:         opts.Currency,
		ScoringSet:       opts.ScoringSet,
		ModelFingerprint: opts.ModelFingerprint,
		Discrimination:   opts.Discrimination,
		Classification:   opts.Classification,
		Grades:           opts.Grades,
		Simulation:       opts.Simulation,
		Warnings:         opts.Warnings,
	}
	if table != nil {
		r.Summary = table.Summary
		r.Sample = table.Head(opts.SampleRows)
	}
	return r
}

// Render writes the human-readable report
func Render(w io.Writer, r *Report) error {
	p := &printer{w: w}
	const kw = 26

	p.line("")
	p.line(DoubleRule)
	p.printf("  %s\n", r.Title)
	p.line(DoubleRule)
	if r.RunID != "" {
		p.keyValue("Run ID", r.RunID, kw)
	}
	p.keyValue("Generated", r.GeneratedAt.Format(time.RFC3339), kw)
	if r.ModelFingerprint != "" {
		p.keyValue("Model", r.ModelFingerprint, kw)
	}
	if r.ScoringSet != "" {
		p.keyValue("Scoring set", r.ScoringSet, kw)
	}
	p.line(SingleRule)

	s := r.Summary
	p.keyValue("Contracts (N)", strconv.Itoa(s.Count), kw)
	p.keyValue("Total exposure (EAD)", FormatMoney(r.Currency, s.TotalEAD), kw)
	p.keyValue("Expected loss (EL)", FormatMoney(r.Currency, s.TotalEL), kw)
	if s.CoverageDefined {
		p.keyValue("Coverage ratio (EL/EAD)", FormatPct(s.CoverageRatio), kw)
	} else {
		p.keyValue("Coverage ratio (EL/EAD)", "undefined (zero exposure)", kw)
	}
	p.keyValue("Average PD", FormatPct(s.AvgPD), kw)
	p.keyValue("LGD", FormatPct(s.LGD), kw)

	if d := r.Discrimination; d != nil {
		p.line(SingleRule)
		p.keyValue("AUC (hold-out)", FormatProb(d.AUC), kw)
		p.keyValue("Gini", FormatPct(d.Gini), kw)
		p.keyValue("Evaluated", fmt.Sprintf("%d (%d defaults)", d.SampleCount, d.Positives), kw)
	}

	if c := r.Classification; c != nil {
		p.line(SingleRule)
		p.printf("  Classification @ %s\n", FormatProb(c.Threshold))
		widths := []int{12, 10, 10, 10, 8}
		p.tableHeader([]string{"class", "precision", "recall", "f1", "support"}, widths)
		for _, row := range []struct {
			name string
			m    evaluation.ClassMetrics
		}{{"non-default", c.NonDefault}, {"default", c.Default}} {
			p.tableRow([]string{
				row.name,
				FormatProb(row.m.Precision),
				FormatProb(row.m.Recall),
				FormatProb(row.m.F1),
				strconv.Itoa(row.m.Support),
			}, widths)
		}
		p.keyValue("Accuracy", FormatProb(c.Accuracy), kw)
	}

	if len(r.Grades) > 0 {
		p.line(SingleRule)
		p.line("  PD grades")
		widths := []int{5, 7, 18, 18, 8}
		p.tableHeader([]string{"grade", "count", "EAD", "EL", "avg PD"}, widths)
		for _, g := range r.Grades {
			p.tableRow([]string{
				g.Grade,
				strconv.Itoa(g.Count),
				FormatMoney("", g.EAD),
				FormatMoney("", g.ExpectedLoss),
				FormatPct(g.AvgPD),
			}, widths)
		}
	}

	if sim := r.Simulation; sim != nil {
		p.line(SingleRule)
		p.printf("  Simulated credit loss (%d scenarios)\n", sim.Config.NumSimulations)
		p.keyValue("Mean loss", FormatMoney(r.Currency, sim.MeanLoss), kw)
		for _, q := range sim.Quantiles {
			p.keyValue("VaR "+FormatPct(q.Confidence), FormatMoney(r.Currency, q.VaR), kw)
			p.keyValue("CVaR "+FormatPct(q.Confidence), FormatMoney(r.Currency, q.CVaR), kw)
		}
		p.keyValue("Unexpected loss", FormatMoney(r.Currency, sim.UnexpectedLoss), kw)
	}

	p.line(SingleRule)
	p.printf("  Risk distribution (head %d)\n", len(r.Sample))
	widths := []int{6, 12, 16, 8, 14}
	p.tableHeader([]string{"score", "income", "loan", "pd", "EL"}, widths)
	for _, rec := range r.Sample {
		p.tableRow([]string{
			strconv.Itoa(rec.Contract.CreditScore),
			FormatMoney("", rec.Contract.MonthlyIncome),
			FormatMoney("", rec.Contract.LoanAmount),
			FormatProb(rec.PD),
			FormatMoney("", rec.ExpectedLoss),
		}, widths)
	}

	for _, warn := range r.Warnings {
		p.printf("  ⚠️  %s\n", warn)
	}
	p.line(DoubleRule)

	return p.err
}

// RenderJSON writes the report as indented JSON
func RenderJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
