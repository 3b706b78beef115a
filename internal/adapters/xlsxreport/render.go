// Package xlsxreport renders pivot report tables as styled XLSX workbooks.
package xlsxreport

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/domain/pivot"
)

// SheetName is the name of the single report sheet.
const SheetName = "Performance"

// Fixed row positions of the layout.
const (
	titleRow     = 1
	periodRow    = 2
	groupRow     = 4
	dayRow       = 5
	firstDataRow = 6
)

const (
	numFmtAmount  = 4 // #,##0.00
	numFmtPercent = 2 // 0.00
)

var staticHeaders = []string{"No", "Staff Code", "Staff Name", "Role", "Branch", "Accounts"}

// staticCols counts the static headers plus the baseline column.
var staticCols = len(staticHeaders) + 1

type styles struct {
	title, period, header, text, amount, percent, noData int
}

// Renderer adapts Render to a value that can be injected.
type Renderer struct{}

// Render writes table to w as an XLSX workbook.
func (Renderer) Render(w io.Writer, table *model.ReportTable) error { return Render(w, table) }

// Render writes table to w as an XLSX workbook.
func Render(w io.Writer, table *model.ReportTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}

	r := &renderer{f: f, st: st, table: table}
	steps := []func() error{
		r.writeBanner,
		r.writeHeaders,
		r.writeRows,
		r.layoutSheet,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type renderer struct {
	f     *excelize.File
	st    styles
	table *model.ReportTable
}

func (r *renderer) totalCols() int {
	return staticCols + len(r.table.Columns) + 2
}

// dateCol is the 1-based sheet column of date column i.
func dateCol(i int) int { return staticCols + 1 + i }

func (r *renderer) writeBanner() error {
	last := r.totalCols()
	title := r.table.Title
	if title == "" {
		title = "PERFORMANCE REPORT"
	}
	if err := r.set(1, titleRow, title, r.st.title); err != nil {
		return err
	}
	if err := r.merge(1, titleRow, last, titleRow); err != nil {
		return err
	}
	period := fmt.Sprintf("Period: %s to %s | Baseline: %s | Unit: %s",
		r.table.Start, r.table.End, r.table.Baseline, UnitLabel(r.table.Divisor))
	if err := r.set(1, periodRow, period, r.st.period); err != nil {
		return err
	}
	return r.merge(1, periodRow, last, periodRow)
}

func (r *renderer) writeHeaders() error {
	headers := append([]string{}, staticHeaders...)
	headers = append(headers, "Baseline "+r.table.Baseline.String())
	for i, h := range headers {
		if err := r.verticalHeader(i+1, h); err != nil {
			return err
		}
	}

	for _, g := range r.table.Months {
		start, end := dateCol(g.Start), dateCol(g.Start+g.Span-1)
		if err := r.set(start, groupRow, g.Label, r.st.header); err != nil {
			return err
		}
		if err := r.styleRange(start, groupRow, end, groupRow, r.st.header); err != nil {
			return err
		}
		if g.Span > 1 {
			if err := r.merge(start, groupRow, end, groupRow); err != nil {
				return err
			}
		}
	}
	for i, c := range r.table.Columns {
		if err := r.set(dateCol(i), dayRow, c.Date.Day(), r.st.header); err != nil {
			return err
		}
	}

	growth := dateCol(len(r.table.Columns))
	if err := r.verticalHeader(growth, "Growth"); err != nil {
		return err
	}
	return r.verticalHeader(growth+1, "Growth %")
}

// verticalHeader spans a header over both header bands.
func (r *renderer) verticalHeader(col int, label string) error {
	if err := r.set(col, groupRow, label, r.st.header); err != nil {
		return err
	}
	if err := r.styleRange(col, groupRow, col, dayRow, r.st.header); err != nil {
		return err
	}
	return r.merge(col, groupRow, col, dayRow)
}

func (r *renderer) writeRows() error {
	div := r.table.Divisor
	for i, row := range r.table.Rows {
		y := firstDataRow + i
		static := []any{
			row.Ordinal,
			row.Subject.Code,
			row.Subject.Name,
			row.Subject.Role,
			row.Subject.OrgUnit,
			row.Subject.AccountCount,
		}
		for c, v := range static {
			if err := r.set(c+1, y, v, r.st.text); err != nil {
				return err
			}
		}
		if err := r.setAmount(staticCols, y, pivot.Scale(row.Baseline, div), r.st.amount); err != nil {
			return err
		}
		for c, cell := range row.Cells {
			var err error
			if cell.Present {
				err = r.setAmount(dateCol(c), y, cell.Value, r.st.amount)
			} else {
				err = r.set(dateCol(c), y, model.NoDataMarker, r.st.noData)
			}
			if err != nil {
				return err
			}
		}
		growth := dateCol(len(r.table.Columns))
		if err := r.setAmount(growth, y, pivot.Scale(row.Growth, div), r.st.amount); err != nil {
			return err
		}
		if err := r.setAmount(growth+1, y, row.GrowthPercent, r.st.percent); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) layoutSheet() error {
	widths := []float64{6, 14, 28, 16, 18, 10, 16}
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := r.f.SetColWidth(SheetName, name, name, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	if n := len(r.table.Columns); n > 0 {
		first, _ := excelize.ColumnNumberToName(dateCol(0))
		last, _ := excelize.ColumnNumberToName(dateCol(n - 1))
		if err := r.f.SetColWidth(SheetName, first, last, 11); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	topLeft, err := excelize.CoordinatesToCellName(dateCol(0), firstDataRow)
	if err != nil {
		return err
	}
	return r.f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      staticCols,
		YSplit:      dayRow,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
	})
}

func (r *renderer) set(col, row int, v any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := r.f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return r.f.SetCellStyle(SheetName, cell, cell, style)
}

func (r *renderer) setAmount(col, row int, v decimal.Decimal, style int) error {
	return r.set(col, row, v.InexactFloat64(), style)
}

func (r *renderer) merge(c1, r1, c2, r2 int) error {
	from, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		return err
	}
	if err := r.f.MergeCell(SheetName, from, to); err != nil {
		return fmt.Errorf("merge %s:%s: %w", from, to, err)
	}
	return nil
}

func (r *renderer) styleRange(c1, r1, c2, r2, style int) error {
	from, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		return err
	}
	return r.f.SetCellStyle(SheetName, from, to, style)
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "9E9E9E", Style: 1},
		{Type: "right", Color: "9E9E9E", Style: 1},
		{Type: "top", Color: "9E9E9E", Style: 1},
		{Type: "bottom", Color: "9E9E9E", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	var st styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.period, &excelize.Style{
			Font:      &excelize.Font{Italic: true, Size: 10},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
			Alignment: center,
			Border:    border,
		}},
		{&st.text, &excelize.Style{Border: border}},
		{&st.amount, &excelize.Style{Border: border, NumFmt: numFmtAmount}},
		{&st.percent, &excelize.Style{Border: border, NumFmt: numFmtPercent}},
		{&st.noData, &excelize.Style{
			Border:    border,
			Font:      &excelize.Font{Color: "808080"},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return styles{}, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return st, nil
}

// UnitLabel names the display unit implied by divisor.
func UnitLabel(divisor decimal.Decimal) string {
	switch {
	case divisor.Equal(decimal.NewFromInt(1_000_000_000)):
		return "billions"
	case divisor.Equal(decimal.NewFromInt(1_000_000)):
		return "millions"
	case divisor.Equal(decimal.NewFromInt(1_000)):
		return "thousands"
	case divisor.IsZero(), divisor.Equal(decimal.NewFromInt(1)):
		return "units"
	default:
		return "1/" + divisor.String()
	}
}
