package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by ledger lookups when no matching record exists.
var ErrNotFound = errors.New("not found")

// Balances are stored as NUMERIC(20, 2).
const (
	AmountScale     = 2
	AmountIntDigits = 18
)

var maxAmount = decimal.New(1, AmountIntDigits)

// CheckAmount reports whether d fits a ledger balance column exactly, so the
// stored value is the one that was previewed.
func CheckAmount(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(AmountScale)) {
		return fmt.Errorf("amount %s has more than %d decimal places", d, AmountScale)
	}
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount %s has more than %d integer digits", d, AmountIntDigits)
	}
	return nil
}

// Subject is the staff member whose daily balances are tracked and reported on.
type Subject struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	OrgUnit      string `json:"org_unit"`
	AccountCount int    `json:"account_count"`
}

// Customer is a bank customer identified by CIF.
type Customer struct {
	ID   string `json:"id"`
	CIF  string `json:"cif"`
	Name string `json:"name"`
}

// Account is a customer account attributed to a subject.
type Account struct {
	ID               string          `json:"id"`
	CustomerID       string          `json:"customer_id"`
	SubjectID        string          `json:"subject_id"`
	Number           string          `json:"account_number"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
}

// BalanceWrite is one overwrite of an account's daily balance snapshot.
type BalanceWrite struct {
	AccountID string
	SubjectID string
	Date      Date
	Balance   decimal.Decimal
}

// SubjectBalance is a subject's total balance on one date.
type SubjectBalance struct {
	SubjectID string
	Date      Date
	Balance   decimal.Decimal
}
