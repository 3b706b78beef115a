package tabular

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field is a semantic column of an upload.
type Field string

const (
	FieldCIF     Field = "cif"
	FieldAccount Field = "account_number"
	FieldBalance Field = "balance"
	FieldSubject Field = "subject"
)

var requiredFields = []Field{FieldCIF, FieldAccount, FieldBalance}

// Aliases maps a normalized header to the field it names.
type Aliases map[string]Field

// DefaultAliases returns the built-in header vocabulary.
func DefaultAliases() Aliases {
	a := Aliases{}
	a.add(FieldCIF, "cif", "no_cif", "nomor_cif", "customer_id")
	a.add(FieldAccount, "account_number", "no_rekening", "nomor_rekening", "account_no", "rekening")
	a.add(FieldBalance, "balance", "saldo", "amount", "saldo_akhir")
	a.add(FieldSubject, "staff_code", "subject", "officer", "kode_staff")
	return a
}

func (a Aliases) add(field Field, headers ...string) {
	for _, h := range headers {
		a[NormalizeHeader(h)] = field
	}
}

// aliasFile is the YAML layout: field name to extra header spellings.
type aliasFile map[Field][]string

// LoadAliases merges the aliases declared in a YAML file over the defaults.
// An empty path returns the defaults.
func LoadAliases(path string) (Aliases, error) {
	aliases := DefaultAliases()
	if path == "" {
		return aliases, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read header aliases: %w", err)
	}
	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse header aliases %s: %w", path, err)
	}
	for field, headers := range file {
		switch field {
		case FieldCIF, FieldAccount, FieldBalance, FieldSubject:
			aliases.add(field, headers...)
		default:
			return nil, fmt.Errorf("header aliases %s: unknown field %q", path, field)
		}
	}
	return aliases, nil
}

// NormalizeHeader lower-cases a header and folds spaces, dashes and dots to underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return strings.Trim(h, "_")
}

// layout records where each field lives in a header row.
type layout map[Field]int

func (a Aliases) match(cells []string) (layout, bool) {
	l := layout{}
	for i, c := range cells {
		field, ok := a[NormalizeHeader(c)]
		if !ok {
			continue
		}
		if _, dup := l[field]; !dup {
			l[field] = i
		}
	}
	for _, f := range requiredFields {
		if _, ok := l[f]; !ok {
			return nil, false
		}
	}
	return l, true
}

// width is the minimum number of cells a data row needs.
func (l layout) width() int {
	w := 0
	for _, f := range requiredFields {
		if l[f]+1 > w {
			w = l[f] + 1
		}
	}
	return w
}
