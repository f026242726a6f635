package quality

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// ErrSchema is matched by every SchemaError
var ErrSchema = errors.New("schema error")

// RecordIssue describes one out-of-range or malformed value
type RecordIssue struct {
	Row    int    `json:"row"` // 0-based data row index
	Column string `json:"column"`
	Rule   string `json:"rule"`
	Value  string `json:"value,omitempty"`
}

func (i RecordIssue) String() string {
	if i.Value != "" {
		return fmt.Sprintf("row %d %s=%q violates %s", i.Row, i.Column, i.Value, i.Rule)
	}
	return fmt.Sprintf("row %d %s violates %s", i.Row, i.Column, i.Rule)
}

// SchemaError reports every missing column and every invalid record at once
// ⭐ 첫 번째 누락 컬럼만이 아니라 전부 나열
type SchemaError struct {
	Source  string
	Missing []string
	Invalid []RecordIssue
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Invalid) > 0 {
		shown := e.Invalid
		if len(shown) > 5 {
			shown = shown[:5]
		}
		issues := make([]string, len(shown))
		for i, iss := range shown {
			issues[i] = iss.String()
		}
		msg := fmt.Sprintf("%d invalid values (%s", len(e.Invalid), strings.Join(issues, "; "))
		if len(e.Invalid) > len(shown) {
			msg += "; ..."
		}
		parts = append(parts, msg+")")
	}
	if e.Source != "" {
		return fmt.Sprintf("%s in %s: %s", ErrSchema, e.Source, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrSchema, strings.Join(parts, ", "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// columnFields maps canonical column names to Contract struct fields (StructPartial 용)
var columnFields = map[string]string{
	contracts.ColMonthlyIncome: "MonthlyIncome",
	contracts.ColCreditScore:   "CreditScore",
	contracts.ColAge:           "Age",
	contracts.ColLoanAmount:    "LoanAmount",
	contracts.ColDefaulted:     "Defaulted",
}

// Validator checks dataset schema and record ranges
// ⭐ SSOT: S0 → 학습 단계 진입 전 검증은 여기서만
type Validator struct {
	validate *validator.Validate
	observer contracts.Observer
	log      zerolog.Logger
}

// NewValidator creates a new Validator
func NewValidator(observer contracts.Observer, log zerolog.Logger) *Validator {
	if observer == nil {
		observer = contracts.NopObserver{}
	}

	v := validator.New()
	// 에러 메시지에 struct 필드명 대신 컬럼명(json 태그) 사용
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		observer: observer,
		log:      log.With().Str("component", "quality.validator").Logger(),
	}
}

// Validate returns the dataset unchanged when every required column is present.
// No type coercion happens here; the loader already produced typed records.
func (v *Validator) Validate(ds *contracts.Dataset, required []string) (*contracts.Dataset, error) {
	if ds == nil {
		return nil, &SchemaError{Missing: append([]string{}, required...)}
	}

	var missing []string
	for _, col := range required {
		if !ds.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	v.observer.DatasetValidated(ds.Source, ds.Len(), required)

	if len(missing) > 0 {
		v.log.Error().
			Str("source", ds.Source).
			Strs("missing", missing).
			Msg("required columns missing")
		return nil, &SchemaError{Source: ds.Source, Missing: missing}
	}

	return ds, nil
}

// CheckRecords runs range checks on the given columns of every record
// (income > 0, score in [300, 1000], age >= 18, loan > 0, label in {0, 1}).
func (v *Validator) CheckRecords(ds *contracts.Dataset, columns []string) error {
	fields := make([]string, 0, len(columns))
	for _, col := range columns {
		if f, ok := columnFields[col]; ok {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	var issues []RecordIssue
	for i, rec := range ds.Records {
		err := v.validate.StructPartial(rec, fields...)
		if err == nil {
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate row %d: %w", i, err)
		}
		for _, fe := range verrs {
			rule := fe.Tag()
			if fe.Param() != "" {
				rule += "=" + fe.Param()
			}
			issues = append(issues, RecordIssue{
				Row:    i,
				Column: fe.Field(),
				Rule:   rule,
				Value:  fmt.Sprintf("%v", fe.Value()),
			})
		}
	}

	if len(issues) > 0 {
		v.log.Error().
			Str("source", ds.Source).
			Int("issues", len(issues)).
			Msg("record range checks failed")
		return &SchemaError{Source: ds.Source, Invalid: issues}
	}

	return nil
}
