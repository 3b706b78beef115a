package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// RawRow is one parsed input line before reconciliation.
type RawRow struct {
	Line          int    `json:"line"`
	CIF           string `json:"cif"`
	AccountNumber string `json:"account_number"`
	Balance       string `json:"reported_balance"`
	SubjectCode   string `json:"subject_code,omitempty"`
	// ParseError is non-empty when the line could not be read into fields.
	ParseError string `json:"parse_error,omitempty"`
}

// Malformed reports whether the parser flagged the row.
func (r RawRow) Malformed() bool { return r.ParseError != "" }

// RejectReason is the machine-readable cause of a row rejection.
type RejectReason string

const (
	RejectMalformedRow   RejectReason = "malformed_row"
	RejectUnknownCIF     RejectReason = "unknown_cif"
	RejectUnknownAccount RejectReason = "unknown_account"
	RejectUnknownSubject RejectReason = "unknown_subject"
	RejectInvalidAmount  RejectReason = "invalid_amount"
	RejectDuplicate      RejectReason = "duplicate"
)

// IsLookup reports whether the reason stems from an unresolved ledger identity.
func (r RejectReason) IsLookup() bool {
	return r == RejectUnknownCIF || r == RejectUnknownAccount || r == RejectUnknownSubject
}

// ValidatedRow is one reconciled line, ready for preview and commit.
type ValidatedRow struct {
	Line            int             `json:"line"`
	CIF             string          `json:"cif"              validate:"required"`
	CustomerName    string          `json:"customer_name"`
	AccountNumber   string          `json:"account_number"   validate:"required"`
	AccountID       string          `json:"account_id"       validate:"required"`
	SubjectID       string          `json:"subject_id"       validate:"required"`
	SubjectCode     string          `json:"subject_code"`
	SubjectName     string          `json:"subject_name"`
	PreviousBalance decimal.Decimal `json:"previous_balance" validate:"gte=0"`
	CurrentBalance  decimal.Decimal `json:"current_balance"  validate:"gte=0"`
	Changed         bool            `json:"changed"`
}

// Validate checks the invariants commit relies on.
func (r *ValidatedRow) Validate() error {
	if r.AccountID == "" || r.SubjectID == "" {
		return fmt.Errorf("line %d: account_id and subject_id are required", r.Line)
	}
	if r.PreviousBalance.IsNegative() || r.CurrentBalance.IsNegative() {
		return fmt.Errorf("line %d: balances must be non-negative", r.Line)
	}
	if err := CheckAmount(r.CurrentBalance); err != nil {
		return fmt.Errorf("line %d: %w", r.Line, err)
	}
	return nil
}

// RejectedRow is a raw row that failed reconciliation.
type RejectedRow struct {
	RawRow
	Reason RejectReason `json:"reason"`
	Detail string       `json:"detail"`
}

// ValidationSummary aggregates a reconciliation run.
type ValidationSummary struct {
	TotalRowsInSource    int                  `json:"total_rows_in_source"`
	ValidRows            int                  `json:"valid_rows"`
	RejectedRows         int                  `json:"rejected_rows"`
	ChangedRows          int                  `json:"changed_rows"`
	TotalPreviousBalance decimal.Decimal      `json:"total_previous_balance"`
	TotalNewBalance      decimal.Decimal      `json:"total_new_balance"`
	RejectionsByReason   map[RejectReason]int `json:"rejections_by_reason"`
}

// ValidationResult is the payload of a completed validation job.
type ValidationResult struct {
	ReportDate Date              `json:"report_date"`
	Validated  []ValidatedRow    `json:"valid_rows"`
	Rejected   []RejectedRow     `json:"rejected_rows"`
	Summary    ValidationSummary `json:"summary"`
}

// CommitRequest carries validated rows back from the client by value.
type CommitRequest struct {
	ReportDate Date           `json:"report_date" validate:"required"`
	ValidRows  []ValidatedRow `json:"valid_rows"  validate:"required,min=1,dive"`
}

// Validate checks the request shape without re-running reconciliation.
func (r *CommitRequest) Validate() error {
	if r.ReportDate.IsZero() {
		return errors.New("report_date is required")
	}
	if len(r.ValidRows) == 0 {
		return errors.New("valid_rows cannot be empty")
	}
	for i := range r.ValidRows {
		if err := r.ValidRows[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CommitResult is the payload of a commit job, terminal or not.
type CommitResult struct {
	ReportDate     Date `json:"report_date"`
	ProcessedCount int  `json:"processed_count"`
	TotalRows      int  `json:"total_rows"`
}
