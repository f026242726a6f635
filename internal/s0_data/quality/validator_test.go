package quality

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-credit/internal/contracts"
)

type validationEvent struct {
	source   string
	rows     int
	required []string
}

type recordingObserver struct {
	contracts.NopObserver
	events []validationEvent
}

func (r *recordingObserver) DatasetValidated(source string, rows int, required []string) {
	r.events = append(r.events, validationEvent{source: source, rows: rows, required: required})
}

func newDataset(columns []string, records ...contracts.Contract) *contracts.Dataset {
	return &contracts.Dataset{Source: "test.csv", Columns: columns, Records: records}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name        string
		columns     []string
		required    []string
		wantMissing []string
	}{
		{
			name:     "all training columns present",
			columns:  contracts.RunColumns(),
			required: contracts.TrainingColumns(),
		},
		{
			name:        "label missing",
			columns:     contracts.ScoringColumns(),
			required:    contracts.TrainingColumns(),
			wantMissing: []string{contracts.ColDefaulted},
		},
		{
			name:        "feature missing while label present",
			columns:     []string{contracts.ColMonthlyIncome, contracts.ColAge, contracts.ColDefaulted},
			required:    contracts.TrainingColumns(),
			wantMissing: []string{contracts.ColCreditScore},
		},
		{
			name:     "every column missing",
			columns:  []string{"foo"},
			required: contracts.RunColumns(),
			wantMissing: []string{
				contracts.ColMonthlyIncome, contracts.ColCreditScore, contracts.ColAge,
				contracts.ColLoanAmount, contracts.ColDefaulted,
			},
		},
		{
			name:     "label optional for scoring",
			columns:  contracts.ScoringColumns(),
			required: contracts.ScoringColumns(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			v := NewValidator(obs, zerolog.Nop())
			ds := newDataset(tt.columns, contracts.Contract{MonthlyIncome: 1, CreditScore: 500, Age: 20, LoanAmount: 1})

			got, err := v.Validate(ds, tt.required)

			require.Len(t, obs.events, 1, "audit event must be emitted")
			assert.Equal(t, 1, obs.events[0].rows)
			assert.Equal(t, tt.required, obs.events[0].required)

			if tt.wantMissing == nil {
				require.NoError(t, err)
				assert.Same(t, ds, got, "dataset must be returned unchanged")
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchema))
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.wantMissing, schemaErr.Missing)
			for _, col := range tt.wantMissing {
				assert.Contains(t, err.Error(), col)
			}
		})
	}
}

func TestValidator_ValidateNilDataset(t *testing.T) {
	v := NewValidator(nil, zerolog.Nop())

	_, err := v.Validate(nil, contracts.TrainingColumns())
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Len(t, schemaErr.Missing, 4)
}

func TestValidator_CheckRecords(t *testing.T) {
	v := NewValidator(nil, zerolog.Nop())

	good := contracts.Contract{MonthlyIncome: 3000, CreditScore: 750, Age: 30, LoanAmount: 5000, Defaulted: 0}
	ds := newDataset(contracts.RunColumns(),
		good,
		contracts.Contract{MonthlyIncome: -1, CreditScore: 750, Age: 30, LoanAmount: 5000},
		contracts.Contract{MonthlyIncome: 3000, CreditScore: 200, Age: 17, LoanAmount: 5000},
		contracts.Contract{MonthlyIncome: 3000, CreditScore: 750, Age: 30, LoanAmount: 5000, Defaulted: 2},
	)

	err := v.CheckRecords(ds, contracts.RunColumns())
	require.Error(t, err)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Len(t, schemaErr.Invalid, 4)

	cols := make([]string, 0, len(schemaErr.Invalid))
	for _, iss := range schemaErr.Invalid {
		cols = append(cols, iss.Column)
	}
	assert.ElementsMatch(t, []string{
		contracts.ColMonthlyIncome, contracts.ColCreditScore, contracts.ColAge, contracts.ColDefaulted,
	}, cols)
	assert.Equal(t, 1, schemaErr.Invalid[0].Row)
}

func TestValidator_CheckRecordsPartial(t *testing.T) {
	v := NewValidator(nil, zerolog.Nop())

	// 스코어링 전용 데이터: loan_amount 가 없으면 검사하지 않음
	ds := newDataset(contracts.TrainingColumns(),
		contracts.Contract{MonthlyIncome: 3000, CreditScore: 750, Age: 30, Defaulted: 1},
	)

	assert.NoError(t, v.CheckRecords(ds, contracts.TrainingColumns()))
	assert.Error(t, v.CheckRecords(ds, contracts.ScoringColumns()))
	assert.NoError(t, v.CheckRecords(ds, []string{"unknown"}))
}

func TestSchemaError_Message(t *testing.T) {
	err := &SchemaError{Source: "x.csv", Missing: []string{"age", "defaulted"}}
	assert.Equal(t, "schema error in x.csv: missing columns [age, defaulted]", err.Error())

	issues := make([]RecordIssue, 7)
	for i := range issues {
		issues[i] = RecordIssue{Row: i, Column: "age", Rule: "gte=18"}
	}
	err = &SchemaError{Invalid: issues}
	assert.Contains(t, err.Error(), "7 invalid values")
	assert.Contains(t, err.Error(), "...")
}
