package contracts

import "fmt"

// =============================================================================
// Column Names
// =============================================================================

// Canonical column names of the input table
// ⭐ SSOT: 컬럼 이름은 여기서만 정의
const (
	ColMonthlyIncome = "monthly_income"
	ColCreditScore   = "credit_score"
	ColAge           = "age"
	ColLoanAmount    = "loan_amount"
	ColDefaulted     = "defaulted"
)

// FeatureOrder is the fixed feature vector layout (fit 과 predict 에서 동일해야 함)
var FeatureOrder = []string{ColMonthlyIncome, ColCreditScore, ColAge}

// TrainingColumns are required to fit a classifier
func TrainingColumns() []string {
	return append(append([]string{}, FeatureOrder...), ColDefaulted)
}

// ScoringColumns are required to score a portfolio (label optional)
func ScoringColumns() []string {
	return append(append([]string{}, FeatureOrder...), ColLoanAmount)
}

// RunColumns are required for a full train + score run
func RunColumns() []string {
	return append(append([]string{}, FeatureOrder...), ColLoanAmount, ColDefaulted)
}

// =============================================================================
// Contract Record
// =============================================================================

// Contract is one consumer credit contract (immutable row)
// validate 태그는 quality.Validator 에서 레코드 범위 검사에 사용
type Contract struct {
	MonthlyIncome float64 `json:"monthly_income" validate:"gt=0"`
	CreditScore   int     `json:"credit_score" validate:"gte=300,lte=1000"`
	Age           int     `json:"age" validate:"gte=18"`
	LoanAmount    float64 `json:"loan_amount" validate:"gt=0"`
	Defaulted     int     `json:"defaulted" validate:"oneof=0 1"`
}

// Feature returns the value of a feature column by name
func (c Contract) Feature(column string) (float64, error) {
	switch column {
	case ColMonthlyIncome:
		return c.MonthlyIncome, nil
	case ColCreditScore:
		return float64(c.CreditScore), nil
	case ColAge:
		return float64(c.Age), nil
	case ColLoanAmount:
		return c.LoanAmount, nil
	default:
		return 0, fmt.Errorf("unknown feature column %q", column)
	}
}

// FeatureVector extracts features in the given order
func (c Contract) FeatureVector(order []string) ([]float64, error) {
	vec := make([]float64, len(order))
	for i, col := range order {
		v, err := c.Feature(col)
		if err != nil {
			return nil, err
		}
		vec[i] = v
	}
	return vec, nil
}

// =============================================================================
// Dataset
// =============================================================================

// Dataset is an ordered, read-once table of contracts
// ⭐ SSOT: 한 번 로드된 Dataset 은 실행 동안 변경하지 않음
type Dataset struct {
	Source  string     `json:"source"`
	Columns []string   `json:"columns"` // 입력 파일에 실제로 존재한 컬럼 (canonical 이름)
	Records []Contract `json:"records"`
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// HasColumn reports whether the column was present in the source table
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Labeled reports whether the label column is present
func (d *Dataset) Labeled() bool {
	return d.HasColumn(ColDefaulted)
}

// Subset returns a new dataset holding the records at idx, in idx order
func (d *Dataset) Subset(idx []int) *Dataset {
	records := make([]Contract, len(idx))
	for i, j := range idx {
		records[i] = d.Records[j]
	}
	return &Dataset{
		Source:  d.Source,
		Columns: append([]string{}, d.Columns...),
		Records: records,
	}
}

// Features builds the feature matrix in the given column order
func (d *Dataset) Features(order []string) ([][]float64, error) {
	x := make([][]float64, len(d.Records))
	for i, rec := range d.Records {
		vec, err := rec.FeatureVector(order)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		x[i] = vec
	}
	return x, nil
}

// Labels returns the label vector
func (d *Dataset) Labels() []int {
	y := make([]int, len(d.Records))
	for i, rec := range d.Records {
		y[i] = rec.Defaulted
	}
	return y
}

// DefaultRate returns the share of defaulted contracts (0 for an empty dataset)
func (d *Dataset) DefaultRate() float64 {
	if d.Len() == 0 {
		return 0
	}
	var n int
	for _, rec := range d.Records {
		n += rec.Defaulted
	}
	return float64(n) / float64(len(d.Records))
}
