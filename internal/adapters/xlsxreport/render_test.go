package xlsxreport

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/domain/pivot"
)

func sampleTable() *model.ReportTable {
	start := model.NewDate(2024, time.February, 28)
	end := model.NewDate(2024, time.March, 2)
	cols := pivot.Columns(start, end)
	row := pivot.BuildRow(
		model.Subject{ID: "s1", Code: "FO-01", Name: "Andi", Role: "Funding Officer", OrgUnit: "KCP Sudirman", AccountCount: 12},
		decimal.NewFromInt(5_000_000),
		[]model.SubjectBalance{
			{SubjectID: "s1", Date: model.NewDate(2024, time.February, 28), Balance: decimal.NewFromInt(5_500_000)},
			{SubjectID: "s1", Date: model.NewDate(2024, time.March, 2), Balance: decimal.NewFromInt(6_000_000)},
		},
		cols,
		pivot.DefaultDivisor,
	)
	row.Ordinal = 1
	return &model.ReportTable{
		Title:    "STAFF FUNDING PERFORMANCE REPORT",
		Start:    start,
		End:      end,
		Baseline: model.BaselineDate(2024),
		Divisor:  pivot.DefaultDivisor,
		Columns:  cols,
		Months:   pivot.MonthGroups(cols),
		Rows:     []model.ReportRow{row},
	}
}

func openRendered(t *testing.T, table *model.ReportTable) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, table))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(SheetName, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestRender_Layout(t *testing.T) {
	f := openRendered(t, sampleTable())

	assert.Equal(t, "STAFF FUNDING PERFORMANCE REPORT", raw(t, f, "A1"))
	assert.Contains(t, raw(t, f, "A2"), "Period: 2024-02-28 to 2024-03-02")
	assert.Contains(t, raw(t, f, "A2"), "Unit: millions")

	// Static headers, then Feb 28-29 and Mar 1-2, then growth.
	assert.Equal(t, "No", raw(t, f, "A4"))
	assert.Equal(t, "Baseline 2024-01-01", raw(t, f, "G4"))
	assert.Equal(t, "February 2024", raw(t, f, "H4"))
	assert.Equal(t, "March 2024", raw(t, f, "J4"))
	assert.Equal(t, "28", raw(t, f, "H5"))
	assert.Equal(t, "2", raw(t, f, "K5"))
	assert.Equal(t, "Growth", raw(t, f, "L4"))
	assert.Equal(t, "Growth %", raw(t, f, "M4"))

	merges, err := f.GetMergeCells(SheetName)
	require.NoError(t, err)
	var ranges []string
	for _, m := range merges {
		ranges = append(ranges, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, ranges, "A1:M1")
	assert.Contains(t, ranges, "A4:A5")
	assert.Contains(t, ranges, "H4:I4")
	assert.Contains(t, ranges, "J4:K4")
	assert.Contains(t, ranges, "M4:M5")
}

func TestRender_DataRow(t *testing.T) {
	f := openRendered(t, sampleTable())

	assert.Equal(t, "1", raw(t, f, "A6"))
	assert.Equal(t, "FO-01", raw(t, f, "B6"))
	assert.Equal(t, "KCP Sudirman", raw(t, f, "E6"))
	assert.Equal(t, "12", raw(t, f, "F6"))
	assert.Equal(t, "5", raw(t, f, "G6"))
	assert.Equal(t, "5.5", raw(t, f, "H6"))
	assert.Equal(t, model.NoDataMarker, raw(t, f, "I6"))
	assert.Equal(t, model.NoDataMarker, raw(t, f, "J6"))
	assert.Equal(t, "6", raw(t, f, "K6"))
	assert.Equal(t, "1", raw(t, f, "L6"))
	assert.Equal(t, "20", raw(t, f, "M6"))

	formatted, err := f.GetCellValue(SheetName, "H6")
	require.NoError(t, err)
	assert.Equal(t, "5.50", formatted)
}

func TestRender_HeadersOnly(t *testing.T) {
	table := &model.ReportTable{
		Start:    model.NewDate(2024, time.March, 5),
		End:      model.NewDate(2024, time.March, 1),
		Baseline: model.BaselineDate(2024),
		Divisor:  decimal.NewFromInt(1),
	}
	f := openRendered(t, table)

	assert.Equal(t, "PERFORMANCE REPORT", raw(t, f, "A1"))
	assert.Equal(t, "Growth", raw(t, f, "H4"))
	assert.Equal(t, "Growth %", raw(t, f, "I4"))
	assert.Empty(t, raw(t, f, "A6"))
	assert.Contains(t, raw(t, f, "A2"), "Unit: units")
}

func TestUnitLabel(t *testing.T) {
	assert.Equal(t, "thousands", UnitLabel(decimal.NewFromInt(1000)))
	assert.Equal(t, "1/250", UnitLabel(decimal.NewFromInt(250)))
}
