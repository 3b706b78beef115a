package core

import (
	"context"
	"io"
	"iter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/target/balancedesk/internal/domain/model"
)

// This file contains the ledger and artifact ports.
// Lookups that find nothing return an error wrapping model.ErrNotFound.

// LedgerReader resolves upload rows against the ledger. It never mutates state.
type LedgerReader interface {
	CustomerByCIF(ctx context.Context, cif string) (*model.Customer, error)
	// AccountByNumber resolves an account scoped to its owning customer.
	AccountByNumber(ctx context.Context, customerID, number string) (*model.Account, error)
	SubjectByCode(ctx context.Context, code string) (*model.Subject, error)
	SubjectByID(ctx context.Context, id string) (*model.Subject, error)
	// LatestAccountBalance returns the newest snapshot on or before date.
	// found is false when the account has no snapshot at all in that window.
	LatestAccountBalance(ctx context.Context, accountID string, date model.Date) (balance decimal.Decimal, found bool, err error)
}

// LedgerWriter applies committed balances.
type LedgerWriter interface {
	// ApplyBalance overwrites the (account, date) snapshot and mirrors the
	// account's latest snapshot into its current and available balances.
	ApplyBalance(ctx context.Context, w model.BalanceWrite) error
}

// SubjectDirectory lists subjects and reads their aggregated daily snapshots.
type SubjectDirectory interface {
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	SubjectByID(ctx context.Context, id string) (*model.Subject, error)
	// SubjectBalanceOn returns the subject snapshot for exactly date.
	SubjectBalanceOn(ctx context.Context, subjectID string, date model.Date) (decimal.Decimal, bool, error)
	// SubjectBalances returns the subject snapshots within [start, end], ascending by date.
	SubjectBalances(ctx context.Context, subjectID string, start, end model.Date) ([]model.SubjectBalance, error)
}

// ArtifactStore keeps rendered export files.
type ArtifactStore interface {
	// Save writes the artifact and returns a reference describing where it lives.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
	// DeleteOlderThan removes artifacts last written before cutoff and returns how many went.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// UploadParser turns an uploaded file into raw rows. format is one of the
// tabular formats, already resolved by the caller.
type UploadParser interface {
	ParseUpload(r io.Reader, format string) (iter.Seq2[model.RawRow, error], error)
}

// ReportRenderer writes a pivot table as a spreadsheet.
type ReportRenderer interface {
	Render(w io.Writer, table *model.ReportTable) error
}
