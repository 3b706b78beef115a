// Package tabular reads uploaded balance files (CSV, XLSX, legacy XLS) into raw rows.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a supported upload format.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatXLSX || f == FormatXLS
}

// UnmarshalText implements encoding.TextUnmarshaler for Format.
func (f *Format) UnmarshalText(text []byte) error {
	v := Format(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unsupported format %q (want csv, xlsx or xls)", string(text))
	}
	*f = v
	return nil
}

// ResolveFormat picks the declared format, or infers it from the file name.
func ResolveFormat(declared, filename string) (Format, error) {
	var f Format
	if strings.TrimSpace(declared) != "" {
		if err := f.UnmarshalText([]byte(declared)); err != nil {
			return "", err
		}
		return f, nil
	}
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer format of %q: no extension", filename)
	}
	if err := f.UnmarshalText([]byte(ext)); err != nil {
		return "", err
	}
	return f, nil
}
