package reconcile

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/internal/domain/model"
)

var (
	errEmptyAmount    = errors.New("amount is empty")
	errNegativeAmount = errors.New("amount is negative")
)

var currencyPrefixes = []string{"idr", "rp.", "rp"}

// ParseAmount reads a reported balance. It accepts thousands separators,
// surrounding whitespace and an optional Rp/IDR prefix. Amounts the ledger
// would round or overflow are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, errNegativeAmount
	}
	if err := model.CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
