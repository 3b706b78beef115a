package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// SeededLedger holds the ids created by SeedLedger.
type SeededLedger struct {
	StaffID    string
	CustomerID string
	AccountID  string
}

// LedgerSeed describes a minimal staff/customer/account chain.
type LedgerSeed struct {
	StaffCode     string
	StaffName     string
	CIF           string
	CustomerName  string
	AccountNumber string
}

// DefaultLedgerSeed returns a seed matching the fixtures used across tests.
func DefaultLedgerSeed() LedgerSeed {
	return LedgerSeed{
		StaffCode:     "S001",
		StaffName:     "Alice",
		CIF:           "123456",
		CustomerName:  "PT Contoh",
		AccountNumber: "0001",
	}
}

// SeedLedger inserts one staff member, one customer and one account owned by both.
func SeedLedger(t testing.TB, db *sql.DB, seed LedgerSeed) SeededLedger {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out SeededLedger
	out.StaffID = InsertStaff(t, db, seed.StaffCode, seed.StaffName)
	if err := db.QueryRowContext(ctx,
		`INSERT INTO customers (cif, name) VALUES ($1, $2) RETURNING id::text`,
		seed.CIF, seed.CustomerName,
	).Scan(&out.CustomerID); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	if err := db.QueryRowContext(ctx, `
		INSERT INTO accounts (customer_id, staff_id, account_number)
		VALUES ($1, $2, $3) RETURNING id::text`,
		out.CustomerID, out.StaffID, seed.AccountNumber,
	).Scan(&out.AccountID); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return out
}

// InsertStaff inserts a staff member and returns its id.
func InsertStaff(t testing.TB, db *sql.DB, code, name string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	if err := db.QueryRowContext(ctx, `
		INSERT INTO staff (code, name, role, branch) VALUES ($1, $2, 'RM', 'Jakarta')
		RETURNING id::text`,
		code, name,
	).Scan(&id); err != nil {
		t.Fatalf("insert staff %s: %v", code, err)
	}
	return id
}

// InsertSnapshot writes a daily balance row directly, bypassing the repository.
func InsertSnapshot(t testing.TB, db *sql.DB, accountID, staffID string, day time.Time, balance string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `
		INSERT INTO account_daily_balances (account_id, staff_id, balance_date, balance)
		VALUES ($1, $2, $3, $4)`,
		accountID, staffID, day, decimal.RequireFromString(balance),
	); err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
}
