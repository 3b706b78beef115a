package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/internal/data/pgxutil"
	"github.com/target/balancedesk/internal/domain/model"
	apperrors "github.com/target/balancedesk/internal/errors"
)

// LedgerRepo reads and writes the staff, customer, account and daily balance tables.
// It implements core.LedgerReader, core.LedgerWriter and core.SubjectDirectory.
type LedgerRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewLedgerRepo creates a LedgerRepo with the real clock.
func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewLedgerRepoWithTimeProvider creates a LedgerRepo with a custom clock (useful for tests).
func NewLedgerRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *LedgerRepo {
	return &LedgerRepo{DB: db, timeProvider: tp}
}

const subjectColumns = `
	s.id::text, s.code, s.name, s.role, s.branch,
	(SELECT count(*) FROM accounts a WHERE a.staff_id = s.id)`

// CustomerByCIF resolves a customer by CIF.
func (r *LedgerRepo) CustomerByCIF(ctx context.Context, cif string) (*model.Customer, error) {
	var c model.Customer
	err := r.DB.QueryRowContext(ctx,
		`SELECT id::text, cif, name FROM customers WHERE cif = $1`, cif,
	).Scan(&c.ID, &c.CIF, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("customer", cif)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by cif: %w", err)
	}
	return &c, nil
}

// AccountByNumber resolves an account owned by customerID.
func (r *LedgerRepo) AccountByNumber(ctx context.Context, customerID, number string) (*model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx, `
		SELECT id::text, customer_id::text, COALESCE(staff_id::text, ''), account_number,
		       current_balance, available_balance
		FROM accounts
		WHERE customer_id = $1 AND account_number = $2`,
		customerID, number,
	).Scan(&a.ID, &a.CustomerID, &a.SubjectID, &a.Number, &a.CurrentBalance, &a.AvailableBalance)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, notFound("account", number)
	}
	if err != nil {
		return nil, fmt.Errorf("get account by number: %w", err)
	}
	return &a, nil
}

// SubjectByCode resolves a staff member by code.
func (r *LedgerRepo) SubjectByCode(ctx context.Context, code string) (*model.Subject, error) {
	return r.getSubject(ctx, `SELECT`+subjectColumns+` FROM staff s WHERE s.code = $1`, code)
}

// SubjectByID resolves a staff member by id. Malformed ids are reported as not found.
func (r *LedgerRepo) SubjectByID(ctx context.Context, id string) (*model.Subject, error) {
	return r.getSubject(ctx, `SELECT`+subjectColumns+` FROM staff s WHERE s.id = $1`, id)
}

func (r *LedgerRepo) getSubject(ctx context.Context, query, key string) (*model.Subject, error) {
	var s model.Subject
	err := r.DB.QueryRowContext(ctx, query, key).
		Scan(&s.ID, &s.Code, &s.Name, &s.Role, &s.OrgUnit, &s.AccountCount)
	if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
		return nil, notFound("subject", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return &s, nil
}

// ListSubjects returns every staff member ordered by code.
func (r *LedgerRepo) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var out []model.Subject
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT`+subjectColumns+` FROM staff s ORDER BY s.code`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Subject, error) {
			var s model.Subject
			err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Role, &s.OrgUnit, &s.AccountCount)
			return s, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return out, nil
}

// LatestAccountBalance returns the newest snapshot of the account on or before date.
func (r *LedgerRepo) LatestAccountBalance(
	ctx context.Context,
	accountID string,
	date model.Date,
) (decimal.Decimal, bool, error) {
	var bal decimal.Decimal
	err := r.DB.QueryRowContext(ctx, `
		SELECT balance FROM account_daily_balances
		WHERE account_id = $1 AND balance_date <= $2
		ORDER BY balance_date DESC
		LIMIT 1`,
		accountID, date.Time(),
	).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("latest account balance: %w", err)
	}
	return bal, true, nil
}

// SubjectBalanceOn sums the subject's account snapshots for exactly date.
func (r *LedgerRepo) SubjectBalanceOn(
	ctx context.Context,
	subjectID string,
	date model.Date,
) (decimal.Decimal, bool, error) {
	var (
		bal   decimal.Decimal
		count int
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(balance), 0), count(*)
		FROM account_daily_balances
		WHERE staff_id = $1 AND balance_date = $2`,
		subjectID, date.Time(),
	).Scan(&bal, &count)
	if isInvalidID(err) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("subject balance: %w", err)
	}
	return bal, count > 0, nil
}

// SubjectBalances returns the subject's per-date totals within [start, end].
func (r *LedgerRepo) SubjectBalances(
	ctx context.Context,
	subjectID string,
	start, end model.Date,
) ([]model.SubjectBalance, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT balance_date, SUM(balance)
		FROM account_daily_balances
		WHERE staff_id = $1 AND balance_date BETWEEN $2 AND $3
		GROUP BY balance_date
		ORDER BY balance_date`,
		subjectID, start.Time(), end.Time(),
	)
	if isInvalidID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("subject balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.SubjectBalance
	for rows.Next() {
		var (
			day time.Time
			bal decimal.Decimal
		)
		if err := rows.Scan(&day, &bal); err != nil {
			return nil, fmt.Errorf("scan subject balance: %w", err)
		}
		out = append(out, model.SubjectBalance{SubjectID: subjectID, Date: model.DateOf(day), Balance: bal})
	}
	return out, rows.Err()
}

// ApplyBalance overwrites the (account, date) snapshot and mirrors the account's
// latest snapshot into its balance columns, in one transaction.
func (r *LedgerRepo) ApplyBalance(ctx context.Context, w model.BalanceWrite) error {
	now := r.timeProvider.Now().UTC()
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{Fn: func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO account_daily_balances (account_id, staff_id, balance_date, balance, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (account_id, balance_date) DO UPDATE
			SET staff_id = EXCLUDED.staff_id, balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at`,
			w.AccountID, w.SubjectID, w.Date.Time(), w.Balance, now,
		); err != nil {
			return fmt.Errorf("upsert daily balance: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE accounts a
			SET current_balance = latest.balance, available_balance = latest.balance, updated_at = $2
			FROM (
				SELECT balance FROM account_daily_balances
				WHERE account_id = $1
				ORDER BY balance_date DESC
				LIMIT 1
			) latest
			WHERE a.id = $1`,
			w.AccountID, now,
		)
		if err != nil {
			return fmt.Errorf("mirror account balance: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound("account", w.AccountID)
		}
		return nil
	}})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.MapDBError(err)
	}
	return err
}
