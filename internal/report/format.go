package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// ═══════════════════════════════════════════════════════════
// Formatting Utilities
// 모든 리포트가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// 리포트와 CLI 가 공유하는 구분선
const (
	DoubleRule = "════════════════════════════════════════════════════════════"
	SingleRule = "────────────────────────────────────────────────────────────"
)

// FormatMoney 금액 포맷 (반올림 2자리, 천 단위 구분) 예: "R$ 1,234.50"
func FormatMoney(currency string, v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	if currency == "" {
		return out
	}
	return currency + " " + out
}

// FormatPct 비율 → 퍼센트 (2자리) 예: 0.1234 → "12.34%"
func FormatPct(v float64) string {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// FormatProb 확률 4자리
func FormatProb(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

// printer io.Writer 위에서 첫 에러만 기억
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) line(s string) {
	p.printf("%s\n", s)
}

// keyValue prints "  key : value"
func (p *printer) keyValue(key, value string, keyWidth int) {
	p.printf("  %-*s : %s\n", keyWidth, key, value)
}

// FormatTableRow renders one row; 첫 컬럼만 좌측 정렬, 나머지는 우측 정렬
func FormatTableRow(values []string, widths []int) string {
	var b strings.Builder
	b.WriteString("  ")
	for i, v := range values {
		if i == 0 {
			fmt.Fprintf(&b, "%-*s", widths[i], v)
		} else {
			fmt.Fprintf(&b, "%*s", widths[i], v)
		}
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatTableHeader renders a header row plus a rule sized to the widths
func FormatTableHeader(columns []string, widths []int) string {
	total := 0
	for i, w := range widths {
		total += w
		if i < len(widths)-1 {
			total += 2 // spacing
		}
	}
	return FormatTableRow(columns, widths) + "  " + strings.Repeat("─", total) + "\n"
}

func (p *printer) tableHeader(columns []string, widths []int) {
	p.printf("%s", FormatTableHeader(columns, widths))
}

func (p *printer) tableRow(values []string, widths []int) {
	p.printf("%s", FormatTableRow(values, widths))
}
