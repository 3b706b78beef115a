// Package pivot lays out the performance report: one row per subject, one column per day.
package pivot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/internal/domain/model"
)

var hundred = decimal.NewFromInt(100)

// Columns returns one column per date in [start, end]. Start after end yields none.
func Columns(start, end model.Date) []model.Column {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil
	}
	cols := make([]model.Column, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		cols = append(cols, model.Column{Date: d, Group: groupKey(d)})
	}
	return cols
}

func groupKey(d model.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
}

// MonthGroups merges contiguous columns that share a month-year key.
func MonthGroups(cols []model.Column) []model.MonthGroup {
	var groups []model.MonthGroup
	for i, c := range cols {
		if n := len(groups); n > 0 && groups[n-1].Key == c.Group {
			groups[n-1].Span++
			continue
		}
		groups = append(groups, model.MonthGroup{
			Key:   c.Group,
			Label: fmt.Sprintf("%s %d", c.Date.Month(), c.Date.Year()),
			Start: i,
			Span:  1,
		})
	}
	return groups
}

// Scale divides a ledger amount by the display divisor and rounds to 2 places.
func Scale(amount, divisor decimal.Decimal) decimal.Decimal {
	if divisor.IsZero() {
		return amount.Round(2)
	}
	return amount.Div(divisor).Round(2)
}

// GrowthPercent is growth/baseline*100 rounded to 2 places, or 0 when baseline is not positive.
func GrowthPercent(growth, baseline decimal.Decimal) decimal.Decimal {
	if !baseline.IsPositive() {
		return decimal.Zero
	}
	return growth.Div(baseline).Mul(hundred).Round(2)
}

// BuildRow pivots one subject's snapshots onto cols.
func BuildRow(
	subject model.Subject,
	baseline decimal.Decimal,
	snapshots []model.SubjectBalance,
	cols []model.Column,
	divisor decimal.Decimal,
) model.ReportRow {
	byDate := make(map[model.Date]decimal.Decimal, len(snapshots))
	for _, s := range snapshots {
		byDate[s.Date] = s.Balance
	}

	row := model.ReportRow{
		Subject:  subject,
		Baseline: baseline,
		Cells:    make([]model.Cell, len(cols)),
	}
	latest := baseline
	for i, c := range cols {
		bal, ok := byDate[c.Date]
		if !ok {
			continue
		}
		row.Cells[i] = model.Cell{Value: Scale(bal, divisor), Present: true}
		latest = bal
	}
	row.Growth = latest.Sub(baseline)
	row.GrowthPercent = GrowthPercent(row.Growth, baseline)
	return row
}
