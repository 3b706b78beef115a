package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRow() ValidatedRow {
	return ValidatedRow{
		Line:            2,
		CIF:             "123456",
		AccountNumber:   "0001",
		AccountID:       "acct-1",
		SubjectID:       "staff-1",
		PreviousBalance: decimal.Zero,
		CurrentBalance:  decimal.NewFromInt(1000000),
		Changed:         true,
	}
}

func TestValidatedRow_JSONRoundTripKeepsAmounts(t *testing.T) {
	row := validRow()
	row.CurrentBalance = decimal.RequireFromString("1000000.25")

	b, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"current_balance":"1000000.25"`)
	assert.Contains(t, string(b), `"previous_balance":"0"`)

	var back ValidatedRow
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.CurrentBalance.Equal(row.CurrentBalance))
	require.NoError(t, back.Validate())
}

func TestCommitRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CommitRequest
		wantErr string
	}{
		{
			name: "ok",
			req:  CommitRequest{ReportDate: NewDate(2024, time.March, 1), ValidRows: []ValidatedRow{validRow()}},
		},
		{
			name:    "missing date",
			req:     CommitRequest{ValidRows: []ValidatedRow{validRow()}},
			wantErr: "report_date",
		},
		{
			name:    "no rows",
			req:     CommitRequest{ReportDate: NewDate(2024, time.March, 1)},
			wantErr: "valid_rows",
		},
		{
			name: "negative balance",
			req: func() CommitRequest {
				r := validRow()
				r.CurrentBalance = decimal.NewFromInt(-1)
				return CommitRequest{ReportDate: NewDate(2024, time.March, 1), ValidRows: []ValidatedRow{r}}
			}(),
			wantErr: "non-negative",
		},
		{
			name: "balance the ledger would round",
			req: func() CommitRequest {
				r := validRow()
				r.CurrentBalance = decimal.RequireFromString("1000.555")
				return CommitRequest{ReportDate: NewDate(2024, time.March, 1), ValidRows: []ValidatedRow{r}}
			}(),
			wantErr: "decimal places",
		},
		{
			name: "balance the ledger cannot hold",
			req: func() CommitRequest {
				r := validRow()
				r.CurrentBalance = decimal.RequireFromString("1e30")
				return CommitRequest{ReportDate: NewDate(2024, time.March, 1), ValidRows: []ValidatedRow{r}}
			}(),
			wantErr: "integer digits",
		},
		{
			name: "missing account",
			req: func() CommitRequest {
				r := validRow()
				r.AccountID = ""
				return CommitRequest{ReportDate: NewDate(2024, time.March, 1), ValidRows: []ValidatedRow{r}}
			}(),
			wantErr: "account_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestExportRequest_Validate(t *testing.T) {
	base := ExportRequest{
		StartDate:    NewDate(2024, time.March, 1),
		EndDate:      NewDate(2024, time.March, 31),
		BaselineYear: 2024,
	}
	require.NoError(t, base.Validate(366))
	assert.Equal(t, 31, base.Days())
	assert.Equal(t, NewDate(2024, time.January, 1), base.BaselineDate())

	reversed := base
	reversed.StartDate, reversed.EndDate = base.EndDate, base.StartDate
	require.NoError(t, reversed.Validate(366))
	assert.Equal(t, 0, reversed.Days())

	require.ErrorContains(t, base.Validate(30), "maximum is 30")

	noYear := base
	noYear.BaselineYear = 0
	require.Error(t, noYear.Validate(0))

	noDates := base
	noDates.EndDate = Date{}
	require.Error(t, noDates.Validate(0))
}

func TestParseError_Unwraps(t *testing.T) {
	inner := assert.AnError
	err := &ParseError{Format: "xlsx", Reason: "open workbook", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "parse xlsx: open workbook: "+inner.Error(), err.Error())

	pe := &PersistenceError{Processed: 4, Line: 7, Err: inner}
	assert.ErrorIs(t, pe, inner)
	assert.Contains(t, pe.Error(), "after 4 processed")
}
