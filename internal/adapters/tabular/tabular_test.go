package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/target/balancedesk/internal/domain/model"
)

func collectRows(t *testing.T, tbl *Table) []model.RawRow {
	t.Helper()
	var out []model.RawRow
	for row, err := range tbl.Rows() {
		require.NoError(t, err)
		out = append(out, row)
	}
	return out
}

func TestParse_CSV(t *testing.T) {
	input := "\ufeffReport generated 2024-03-01\n" +
		"No CIF;No Rekening;Saldo;Kode Staff\n" +
		"123456;0001;\"1,000,000\";FO-01\n" +
		"\n" +
		"777000;1.23457E+11;250000;\n" +
		"888000\n" +
		";0009;10;\n"

	tbl, err := NewParser(nil).Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.HeaderLine())
	assert.True(t, tbl.HasSubjectColumn())

	rows := collectRows(t, tbl)
	require.Len(t, rows, 4)

	assert.Equal(t, model.RawRow{
		Line: 3, CIF: "123456", AccountNumber: "0001", Balance: "1,000,000", SubjectCode: "FO-01",
	}, rows[0])

	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "123457000000", rows[1].AccountNumber)
	assert.Empty(t, rows[1].SubjectCode)
	assert.False(t, rows[1].Malformed())

	assert.Equal(t, 6, rows[2].Line)
	assert.Contains(t, rows[2].ParseError, "expected at least 3 cells")

	assert.Equal(t, "missing CIF", rows[3].ParseError)
}

func TestParse_CSVIsRestartable(t *testing.T) {
	input := "cif,account_number,balance\n1,0001,5\n2,0002,6\n"
	tbl, err := NewParser(nil).Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)

	first := collectRows(t, tbl)
	second := collectRows(t, tbl)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)

	// Stopping early must not break a later full pass.
	for range tbl.Rows() {
		break
	}
	assert.Len(t, collectRows(t, tbl), 2)
}

func TestParse_CSVOverflowingCells(t *testing.T) {
	input := "cif,account_number,balance,\n" +
		"123456,0001,1,000,000\n" +
		"123456,0002,\"1,000,000\"\n" +
		"123456,0003,500,,\n"

	rows, err := NewParser(nil).ParseUpload(strings.NewReader(input), "csv")
	require.NoError(t, err)

	var got []model.RawRow
	for row, err := range rows {
		require.NoError(t, err)
		got = append(got, row)
	}
	require.Len(t, got, 3)

	assert.Equal(t, 2, got[0].Line)
	assert.True(t, got[0].Malformed())
	assert.Equal(t, "row has 5 cells, header has 3; quote amounts that contain the delimiter", got[0].ParseError)
	assert.Empty(t, got[0].Balance)

	assert.False(t, got[1].Malformed())
	assert.Equal(t, "1,000,000", got[1].Balance)

	// Trailing empty cells are not data.
	assert.False(t, got[2].Malformed())
	assert.Equal(t, "500", got[2].Balance)
}

func TestParse_CSVTabDelimited(t *testing.T) {
	input := "CIF\tAccount No\tAmount\n123\t0001\t7\n"
	tbl, err := NewParser(nil).Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	rows := collectRows(t, tbl)
	require.Len(t, rows, 1)
	assert.Equal(t, "7", rows[0].Balance)
	assert.False(t, tbl.HasSubjectColumn())
}

func TestParse_StreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		input  []byte
		format Format
		reason string
	}{
		{name: "empty", input: []byte("  \n"), format: FormatCSV, reason: "empty"},
		{name: "no header", input: []byte("a,b,c\n1,2,3\n"), format: FormatCSV, reason: "no header"},
		{name: "bad encoding", input: []byte{'c', 'i', 'f', 0xff, 0xfe, '\n'}, format: FormatCSV, reason: "UTF-8"},
		{name: "not a workbook", input: []byte("plain text"), format: FormatXLSX, reason: "open workbook"},
		{name: "not a legacy workbook", input: []byte("plain text"), format: FormatXLS, reason: "workbook"},
		{name: "unknown format", input: []byte("x"), format: Format("ods"), reason: "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser(nil).Parse(bytes.NewReader(tt.input), tt.format)
			var pe *model.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, pe.Error(), tt.reason)
		})
	}
}

func TestParse_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Officer", "CIF", "Account Number", "Balance"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"FO-01", "123456", "0001", 1000000}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"FO-02", 777000, 123456789012, 2500.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := NewParser(nil).Parse(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.HeaderLine())

	rows := collectRows(t, tbl)
	require.Len(t, rows, 2)
	assert.Equal(t, model.RawRow{
		Line: 2, CIF: "123456", AccountNumber: "0001", Balance: "1000000", SubjectCode: "FO-01",
	}, rows[0])
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "777000", rows[1].CIF)
	assert.Equal(t, "123456789012", rows[1].AccountNumber)
	assert.Equal(t, "2500.5", rows[1].Balance)
}

func TestNormalizeIdentifier(t *testing.T) {
	tests := map[string]string{
		" 0001 ":      "0001",
		"1.23457E+11": "123457000000",
		"123456.0":    "123456",
		"12.5":        "12.5",
		"AB-01":       "AB-01",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeIdentifier(in), in)
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "no_rekening", NormalizeHeader("  No. Rekening "))
	assert.Equal(t, "account_no", NormalizeHeader("Account-No"))
	assert.Equal(t, "cif", NormalizeHeader("\ufeffCIF"))
}

func TestResolveFormat(t *testing.T) {
	f, err := ResolveFormat("", "balances.XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ResolveFormat("csv", "balances.xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ResolveFormat("", "balances")
	require.Error(t, err)
	_, err = ResolveFormat("", "balances.pdf")
	require.Error(t, err)
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cif:\n  - Kode Nasabah\nbalance:\n  - Posisi Saldo\n"), 0o600))

	aliases, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, FieldCIF, aliases["kode_nasabah"])
	assert.Equal(t, FieldBalance, aliases["posisi_saldo"])
	assert.Equal(t, FieldAccount, aliases["no_rekening"], "defaults are kept")

	input := "Kode Nasabah,No Rekening,Posisi Saldo\n1,0001,5\n"
	tbl, err := NewParser(aliases).Parse(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	assert.Len(t, collectRows(t, tbl), 1)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("branch:\n  - cabang\n"), 0o600))
	_, err = LoadAliases(bad)
	require.ErrorContains(t, err, "unknown field")

	defaults, err := LoadAliases("")
	require.NoError(t, err)
	assert.True(t, slices.Contains(keysOf(defaults), "saldo"))
}

func TestLoadAliases_ExampleFile(t *testing.T) {
	aliases, err := LoadAliases(filepath.Join("..", "..", "..", "config", "header_aliases.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, FieldSubject, aliases["rm_code"])
	assert.Equal(t, FieldAccount, aliases["acct_no"])
}

func keysOf(a Aliases) []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	return out
}
