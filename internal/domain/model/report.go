package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// NoDataMarker is rendered for a date with no snapshot. It is never zero.
const NoDataMarker = "-"

// ExportRequest selects the subjects and the span of a performance report.
type ExportRequest struct {
	SubjectIDs []string `json:"subject_ids"              validate:"omitempty,dive,required"`
	// SubjectFilter is a JMESPath expression evaluated over the subject directory.
	SubjectFilter string `json:"subject_filter,omitempty"`
	StartDate     Date   `json:"start_date"               validate:"required"`
	EndDate       Date   `json:"end_date"                 validate:"required"`
	BaselineYear  int    `json:"baseline_year"            validate:"required,gte=1900,lte=9999"`
}

// Validate checks dates and bounds the span to maxDays (0 disables the bound).
func (r *ExportRequest) Validate(maxDays int) error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return errors.New("start_date and end_date are required")
	}
	if r.BaselineYear < 1900 || r.BaselineYear > 9999 {
		return fmt.Errorf("baseline_year %d out of range", r.BaselineYear)
	}
	if maxDays > 0 && r.Days() > maxDays {
		return fmt.Errorf("date range spans %d days, maximum is %d", r.Days(), maxDays)
	}
	return nil
}

// Days is the inclusive length of the range; start after end is empty.
func (r *ExportRequest) Days() int {
	if r.StartDate.After(r.EndDate) {
		return 0
	}
	return r.StartDate.DaysUntil(r.EndDate) + 1
}

// BaselineDate is January 1 of the baseline year.
func (r *ExportRequest) BaselineDate() Date { return BaselineDate(r.BaselineYear) }

// Column is one date column of the pivot.
type Column struct {
	Date Date
	// Group is the month-year key ("2024-03") used to merge headers.
	Group string
}

// MonthGroup is a run of contiguous columns that share a month-year key.
type MonthGroup struct {
	Key   string
	Label string
	// Start is the index of the first date column in the run.
	Start int
	Span  int
}

// Cell is a scaled balance or the absence of one.
type Cell struct {
	Value   decimal.Decimal
	Present bool
}

// ReportRow is one subject's line. Baseline and Growth are unscaled ledger amounts.
type ReportRow struct {
	Ordinal       int
	Subject       Subject
	Baseline      decimal.Decimal
	Cells         []Cell
	Growth        decimal.Decimal
	GrowthPercent decimal.Decimal
}

// ReportTable is the laid-out pivot, ready for rendering.
type ReportTable struct {
	Title    string
	Start    Date
	End      Date
	Baseline Date
	Divisor  decimal.Decimal
	Columns  []Column
	Months   []MonthGroup
	Rows     []ReportRow
}

// ExportSummary describes what an export covered.
type ExportSummary struct {
	SubjectsRequested int      `json:"subjects_requested"`
	SubjectsReported  int      `json:"subjects_reported"`
	SkippedSubjectIDs []string `json:"skipped_subject_ids"`
	Days              int      `json:"days"`
}

// ExportResult is the payload of a completed export job.
type ExportResult struct {
	FilePath string        `json:"file_path"`
	FileName string        `json:"file_name"`
	Summary  ExportSummary `json:"summary"`
}
