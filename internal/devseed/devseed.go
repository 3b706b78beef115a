// Package devseed loads a small sample ledger for local development.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/data"
	"github.com/target/balancedesk/internal/domain/model"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB     *sql.DB
	Ledger core.LedgerWriter
	Now    func() time.Time
}

// NewServices constructs the seeding dependencies for db.
func NewServices(db *sql.DB) Services {
	return Services{DB: db, Ledger: data.NewLedgerRepo(db), Now: time.Now}
}

type staffSeed struct {
	Code   string
	Name   string
	Role   string
	Branch string
}

type accountSeed struct {
	CIF       string
	Customer  string
	Number    string
	StaffCode string
	// Opening is the balance on January 1; each seeded day adds Step.
	Opening int64
	Step    int64
}

func defaultStaff() []staffSeed {
	return []staffSeed{
		{Code: "S001", Name: "Alice Wijaya", Role: "RM", Branch: "Jakarta"},
		{Code: "S002", Name: "Budi Santoso", Role: "RM", Branch: "Bandung"},
		{Code: "S003", Name: "Citra Lestari", Role: "Funding Officer", Branch: "Surabaya"},
	}
}

func defaultAccounts() []accountSeed {
	return []accountSeed{
		{CIF: "100001", Customer: "PT Sinar Abadi", Number: "0001001", StaffCode: "S001", Opening: 1_500_000_000, Step: 12_500_000},
		{CIF: "100001", Customer: "PT Sinar Abadi", Number: "0001002", StaffCode: "S001", Opening: 250_000_000, Step: -2_000_000},
		{CIF: "100002", Customer: "CV Maju Jaya", Number: "0002001", StaffCode: "S002", Opening: 780_000_000, Step: 4_000_000},
		{CIF: "100003", Customer: "Koperasi Sejahtera", Number: "0003001", StaffCode: "S003", Opening: 3_200_000_000, Step: 25_000_000},
	}
}

// seedDays is how many trailing days of snapshots are written.
const seedDays = 14

// Run upserts the sample staff, customers and accounts, then writes a January 1
// baseline and the trailing daily snapshots through the ledger writer. It is
// safe to run repeatedly.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if svcs.DB == nil || svcs.Ledger == nil {
		return errors.New("devseed: DB and ledger are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := svcs.Now
	if now == nil {
		now = time.Now
	}

	staffIDs := make(map[string]string)
	for _, s := range defaultStaff() {
		id, err := upsertStaff(ctx, svcs.DB, s)
		if err != nil {
			return err
		}
		staffIDs[s.Code] = id
	}

	today := model.DateOf(now())
	baseline := model.BaselineDate(today.Year())
	failures := 0
	for _, a := range defaultAccounts() {
		staffID := staffIDs[a.StaffCode]
		accountID, err := upsertAccount(ctx, svcs.DB, a, staffID)
		if err != nil {
			return err
		}
		for _, w := range snapshots(a, accountID, staffID, baseline, today) {
			if err := svcs.Ledger.ApplyBalance(ctx, w); err != nil {
				logger.ErrorContext(ctx, "failed to seed balance",
					"account", a.Number, "date", w.Date.String(), "error", err)
				failures++
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	logger.InfoContext(ctx, "development ledger seeded",
		"staff", len(staffIDs), "accounts", len(defaultAccounts()), "days", seedDays)
	return nil
}

// snapshots returns the baseline write followed by one write per trailing day.
func snapshots(a accountSeed, accountID, staffID string, baseline, today model.Date) []model.BalanceWrite {
	out := []model.BalanceWrite{{
		AccountID: accountID,
		SubjectID: staffID,
		Date:      baseline,
		Balance:   decimal.NewFromInt(a.Opening),
	}}
	for i := seedDays - 1; i >= 0; i-- {
		d := today.AddDays(-i)
		if !d.After(baseline) {
			continue
		}
		bal := a.Opening + a.Step*int64(seedDays-i)
		if bal < 0 {
			bal = 0
		}
		out = append(out, model.BalanceWrite{
			AccountID: accountID,
			SubjectID: staffID,
			Date:      d,
			Balance:   decimal.NewFromInt(bal),
		})
	}
	return out
}

func upsertStaff(ctx context.Context, db *sql.DB, s staffSeed) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO staff (code, name, role, branch) VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, branch = EXCLUDED.branch
		RETURNING id::text`,
		s.Code, s.Name, s.Role, s.Branch,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed staff %s: %w", s.Code, err)
	}
	return id, nil
}

func upsertAccount(ctx context.Context, db *sql.DB, a accountSeed, staffID string) (string, error) {
	var customerID string
	if err := db.QueryRowContext(ctx, `
		INSERT INTO customers (cif, name) VALUES ($1, $2)
		ON CONFLICT (cif) DO UPDATE SET name = EXCLUDED.name
		RETURNING id::text`,
		a.CIF, a.Customer,
	).Scan(&customerID); err != nil {
		return "", fmt.Errorf("seed customer %s: %w", a.CIF, err)
	}

	var accountID string
	if err := db.QueryRowContext(ctx, `
		INSERT INTO accounts (customer_id, staff_id, account_number) VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, account_number) DO UPDATE SET staff_id = EXCLUDED.staff_id
		RETURNING id::text`,
		customerID, staffID, a.Number,
	).Scan(&accountID); err != nil {
		return "", fmt.Errorf("seed account %s: %w", a.Number, err)
	}
	return accountID, nil
}
