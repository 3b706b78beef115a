package tabular

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/target/balancedesk/internal/domain/model"
)

// xlsxRecords reads the first sheet of an XLSX workbook with raw cell values,
// so numbers are not passed through display formats.
func xlsxRecords(data []byte) (recordSeq, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &model.ParseError{Format: string(FormatXLSX), Reason: "open workbook", Err: err}
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &model.ParseError{Format: string(FormatXLSX), Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &model.ParseError{Format: string(FormatXLSX), Reason: "read sheet " + sheet, Err: err}
	}
	return materialized(rows), nil
}

// xlsRecords reads the first sheet of a legacy BIFF workbook.
func xlsRecords(data []byte) (seq recordSeq, err error) {
	defer func() {
		// extrame/xls panics on some corrupt streams.
		if r := recover(); r != nil {
			seq = nil
			err = &model.ParseError{Format: string(FormatXLS), Reason: fmt.Sprintf("corrupt workbook: %v", r)}
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &model.ParseError{Format: string(FormatXLS), Reason: "open workbook", Err: err}
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, &model.ParseError{Format: string(FormatXLS), Reason: "workbook has no sheets"}
	}

	rows := make([][]string, int(sheet.MaxRow)+1)
	for i := range rows {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for c := range cells {
			cells[c] = row.Col(c)
		}
		rows[i] = cells
	}
	return materialized(rows), nil
}

// materialized iterates rows already held in memory; line numbers are 1-based row indexes.
func materialized(rows [][]string) recordSeq {
	return func(yield func(record, error) bool) {
		for i, cells := range rows {
			if !yield(record{line: i + 1, cells: cells}, nil) {
				return
			}
		}
	}
}
