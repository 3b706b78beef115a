package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/internal/domain/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// record is one physical row of the source. malformed is set when the row
// could not be split into cells.
type record struct {
	line      int
	cells     []string
	malformed string
}

// recordSeq yields the source rows in order. A non-nil error ends the stream.
type recordSeq func(yield func(record, error) bool)

// Parser turns upload bytes into Tables.
type Parser struct {
	aliases Aliases
}

// NewParser returns a Parser that recognizes headers through aliases.
// A nil map selects DefaultAliases.
func NewParser(aliases Aliases) *Parser {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Parser{aliases: aliases}
}

// Parse reads r to the end and locates the header row. It fails with a
// *model.ParseError when the stream is unreadable or no header is found.
func (p *Parser) Parse(r io.Reader, format Format) (*Table, error) {
	if !format.Valid() {
		return nil, &model.ParseError{Format: string(format), Reason: "unsupported format"}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &model.ParseError{Format: string(format), Reason: "read upload", Err: err}
	}
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, &model.ParseError{Format: string(format), Reason: "file is empty"}
	}

	var seq recordSeq
	switch format {
	case FormatCSV:
		seq, err = csvRecords(data)
	case FormatXLSX:
		seq, err = xlsxRecords(data)
	case FormatXLS:
		seq, err = xlsRecords(data)
	}
	if err != nil {
		return nil, err
	}

	t := &Table{format: format, records: seq}
	if err := t.locateHeader(p.aliases); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseUpload parses r as format and returns its data rows.
func (p *Parser) ParseUpload(r io.Reader, format string) (iter.Seq2[model.RawRow, error], error) {
	t, err := p.Parse(r, Format(format))
	if err != nil {
		return nil, err
	}
	return t.Rows(), nil
}

// Table is a parsed upload with a known header. Its rows can be iterated any number of times.
type Table struct {
	format  Format
	records recordSeq
	layout  layout
	// skip is the number of source records up to and including the header.
	skip       int
	headerLine int
	// columns is the header width up to its last non-blank cell.
	columns int
}

// HeaderLine is the 1-based line of the header row.
func (t *Table) HeaderLine() int { return t.headerLine }

// HasSubjectColumn reports whether the upload names a subject per row.
func (t *Table) HasSubjectColumn() bool {
	_, ok := t.layout[FieldSubject]
	return ok
}

func (t *Table) locateHeader(aliases Aliases) error {
	n := 0
	var streamErr error
	for rec, err := range t.records {
		if err != nil {
			streamErr = err
			break
		}
		n++
		if rec.malformed != "" {
			continue
		}
		if l, ok := aliases.match(rec.cells); ok {
			t.layout, t.skip, t.headerLine = l, n, rec.line
			t.columns = filledWidth(rec.cells)
			return nil
		}
	}
	if streamErr != nil {
		return asParseError(t.format, streamErr)
	}
	return &model.ParseError{
		Format: string(t.format),
		Reason: "no header row with CIF, account number and balance columns",
	}
}

// Rows yields one RawRow per non-blank line after the header. Lines that
// cannot be read are yielded with ParseError set. A stream failure is yielded
// as a *model.ParseError and ends the sequence.
func (t *Table) Rows() iter.Seq2[model.RawRow, error] {
	return func(yield func(model.RawRow, error) bool) {
		n := 0
		for rec, err := range t.records {
			if err != nil {
				yield(model.RawRow{}, asParseError(t.format, err))
				return
			}
			n++
			if n <= t.skip {
				continue
			}
			if rec.malformed == "" && blank(rec.cells) {
				continue
			}
			if !yield(t.rawRow(rec), nil) {
				return
			}
		}
	}
}

func (t *Table) rawRow(rec record) model.RawRow {
	row := model.RawRow{Line: rec.line}
	if rec.malformed != "" {
		row.ParseError = rec.malformed
		return row
	}
	if w := t.layout.width(); len(rec.cells) < w {
		row.ParseError = fmt.Sprintf("expected at least %d cells, got %d", w, len(rec.cells))
		return row
	}
	// An unquoted "1,000,000" in a comma file spills into cells past the header.
	if n := filledWidth(rec.cells); n > t.columns {
		row.ParseError = fmt.Sprintf("row has %d cells, header has %d; quote amounts that contain the delimiter", n, t.columns)
		return row
	}
	row.CIF = NormalizeIdentifier(cell(rec.cells, t.layout[FieldCIF]))
	row.AccountNumber = NormalizeIdentifier(cell(rec.cells, t.layout[FieldAccount]))
	row.Balance = cell(rec.cells, t.layout[FieldBalance])
	if idx, ok := t.layout[FieldSubject]; ok {
		row.SubjectCode = cell(rec.cells, idx)
	}
	switch {
	case row.CIF == "":
		row.ParseError = "missing CIF"
	case row.AccountNumber == "":
		row.ParseError = "missing account number"
	}
	return row
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func filledWidth(cells []string) int {
	for i := len(cells) - 1; i >= 0; i-- {
		if strings.TrimSpace(cells[i]) != "" {
			return i + 1
		}
	}
	return 0
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// NormalizeIdentifier trims an identifier and expands numbers that spreadsheet
// tools rendered in scientific or float notation back to plain digits.
// Text such as "0001" keeps its leading zeros.
func NormalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return s
	}
	return d.String()
}

func asParseError(format Format, err error) error {
	var pe *model.ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return &model.ParseError{Format: string(format), Reason: "read rows", Err: err}
}
