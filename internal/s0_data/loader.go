package s0_data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/s0_data/quality"
)

// headerAliases maps accepted header names to canonical column names
// 기존 포트폴리오 파일(포르투갈어 헤더)도 그대로 읽을 수 있도록 별칭 지원
var headerAliases = map[string]string{
	contracts.ColMonthlyIncome: contracts.ColMonthlyIncome,
	contracts.ColCreditScore:   contracts.ColCreditScore,
	contracts.ColAge:           contracts.ColAge,
	contracts.ColLoanAmount:    contracts.ColLoanAmount,
	contracts.ColDefaulted:     contracts.ColDefaulted,
	"renda_mensal":             contracts.ColMonthlyIncome,
	"score_serasa":             contracts.ColCreditScore,
	"idade":                    contracts.ColAge,
	"valor_emprestimo":         contracts.ColLoanAmount,
	"inadimplente":             contracts.ColDefaulted,
}

// Loader reads contract tables from CSV files
type Loader struct {
	log zerolog.Logger
}

// NewLoader creates a new Loader
func NewLoader(log zerolog.Logger) *Loader {
	return &Loader{log: log.With().Str("component", "s0_data.loader").Logger()}
}

// Load reads a CSV file into a typed Dataset
func (l *Loader) Load(ctx context.Context, path string) (*contracts.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return l.Read(ctx, f, path)
}

// Read parses CSV content into a typed Dataset.
// Unknown columns are ignored; absent known columns stay zero and are
// left out of Dataset.Columns so the validator can report them.
func (l *Loader) Read(ctx context.Context, r io.Reader, source string) (*contracts.Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &quality.SchemaError{Source: source, Missing: contracts.RunColumns()}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	// 컬럼 인덱스 매핑 (canonical name → index)
	index := make(map[string]int)
	columns := make([]string, 0, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		canonical, ok := headerAliases[name]
		if !ok {
			continue
		}
		if _, dup := index[canonical]; dup {
			continue
		}
		index[canonical] = i
		columns = append(columns, canonical)
	}

	ds := &contracts.Dataset{Source: source, Columns: columns}
	var issues []quality.RecordIssue

	for row := 0; ; row++ {
		if row%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		rec, rowIssues := parseRecord(row, fields, index)
		issues = append(issues, rowIssues...)
		ds.Records = append(ds.Records, rec)
	}

	if len(issues) > 0 {
		return nil, &quality.SchemaError{Source: source, Invalid: issues}
	}

	l.log.Info().
		Str("source", source).
		Int("rows", ds.Len()).
		Strs("columns", columns).
		Msg("dataset loaded")

	return ds, nil
}

// parseRecord converts one CSV row; typing errors are collected, not returned early
func parseRecord(row int, fields []string, index map[string]int) (contracts.Contract, []quality.RecordIssue) {
	var rec contracts.Contract
	var issues []quality.RecordIssue

	get := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok || i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}

	parseFloat := func(col string) float64 {
		raw, ok := get(col)
		if !ok {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			issues = append(issues, quality.RecordIssue{Row: row, Column: col, Rule: "finite number", Value: raw})
			return 0
		}
		return v
	}

	parseInt := func(col string) int {
		raw, ok := get(col)
		if !ok {
			return 0
		}
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
		// "750.0" 처럼 정수값을 가진 실수 표기 허용
		v, err := strconv.ParseFloat(raw, 64)
		// int 변환 전 범위 확인 (1e30 같은 값은 변환 결과가 정의되지 않음)
		if err != nil || v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			issues = append(issues, quality.RecordIssue{Row: row, Column: col, Rule: "integer", Value: raw})
			return 0
		}
		return int(v)
	}

	rec.MonthlyIncome = parseFloat(contracts.ColMonthlyIncome)
	rec.CreditScore = parseInt(contracts.ColCreditScore)
	rec.Age = parseInt(contracts.ColAge)
	rec.LoanAmount = parseFloat(contracts.ColLoanAmount)
	rec.Defaulted = parseInt(contracts.ColDefaulted)

	return rec, issues
}
