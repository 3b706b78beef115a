// Package reconcile turns parsed upload rows into balance deltas against the ledger.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/domain/model"
)

const defaultConcurrency = 8

// Options configure an Engine.
type Options struct {
	Ledger core.LedgerReader
	// Concurrency bounds parallel ledger lookups. Zero selects the default.
	Concurrency int
	Logger      *slog.Logger
}

// Engine reconciles raw rows. It is read-only against the ledger, so runs are safely retryable.
type Engine struct {
	ledger      core.LedgerReader
	concurrency int
	logger      *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Ledger == nil {
		return nil, errors.New("reconcile: ledger reader is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Engine{
		ledger:      opts.Ledger,
		concurrency: concurrency,
		logger:      logger.With("component", "reconcile"),
	}, nil
}

// outcome is the per-row result slot; exactly one field is set.
type outcome struct {
	valid    *model.ValidatedRow
	rejected *model.RejectedRow
}

// Reconcile consumes rows and classifies each one as valid or rejected.
// A non-nil error yielded by rows aborts the run, as does any ledger failure
// other than a lookup miss. Row-level problems never abort.
func (e *Engine) Reconcile(
	ctx context.Context,
	rows iter.Seq2[model.RawRow, error],
	reportDate model.Date,
) (*model.ValidationResult, error) {
	if reportDate.IsZero() {
		return nil, errors.New("reconcile: report date is required")
	}

	var raw []model.RawRow
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		raw = append(raw, row)
	}

	results := make([]outcome, len(raw))
	superseded := markDuplicates(raw)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range raw {
		if by, dup := superseded[i]; dup {
			results[i] = reject(raw[i], model.RejectDuplicate,
				fmt.Sprintf("superseded by line %d", raw[by].Line))
			continue
		}
		if raw[i].Malformed() {
			results[i] = reject(raw[i], model.RejectMalformedRow, raw[i].ParseError)
			continue
		}
		g.Go(func() error {
			out, err := e.resolve(gctx, raw[i], reportDate)
			if err != nil {
				return fmt.Errorf("line %d: %w", raw[i].Line, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := collect(results, reportDate)
	e.logger.DebugContext(ctx, "reconciled upload",
		"report_date", reportDate.String(),
		"rows", res.Summary.TotalRowsInSource,
		"valid", res.Summary.ValidRows,
		"rejected", res.Summary.RejectedRows,
	)
	return res, nil
}

// markDuplicates maps the index of every superseded row to the index of the
// row that replaces it. The last occurrence of a (CIF, account) pair wins.
func markDuplicates(rows []model.RawRow) map[int]int {
	last := make(map[string]int, len(rows))
	for i, r := range rows {
		if r.Malformed() {
			continue
		}
		last[dedupKey(r)] = i
	}
	superseded := make(map[int]int)
	for i, r := range rows {
		if r.Malformed() {
			continue
		}
		if winner := last[dedupKey(r)]; winner != i {
			superseded[i] = winner
		}
	}
	return superseded
}

func dedupKey(r model.RawRow) string {
	return strings.TrimSpace(r.CIF) + "\x00" + strings.TrimSpace(r.AccountNumber)
}

func (e *Engine) resolve(ctx context.Context, row model.RawRow, reportDate model.Date) (outcome, error) {
	cif := strings.TrimSpace(row.CIF)
	number := strings.TrimSpace(row.AccountNumber)

	customer, err := e.ledger.CustomerByCIF(ctx, cif)
	if err != nil {
		return lookupMiss(row, err, model.RejectUnknownCIF, "no customer with CIF "+cif)
	}
	account, err := e.ledger.AccountByNumber(ctx, customer.ID, number)
	if err != nil {
		return lookupMiss(row, err, model.RejectUnknownAccount,
			fmt.Sprintf("account %s does not belong to CIF %s", number, cif))
	}
	subject, err := e.subjectFor(ctx, row, account)
	if err != nil {
		return lookupMiss(row, err, model.RejectUnknownSubject, subjectDetail(row, account))
	}

	amount, err := ParseAmount(row.Balance)
	if err != nil {
		return reject(row, model.RejectInvalidAmount, err.Error()), nil
	}

	previous, _, err := e.ledger.LatestAccountBalance(ctx, account.ID, reportDate)
	if err != nil {
		return outcome{}, fmt.Errorf("previous balance for account %s: %w", account.ID, err)
	}

	return outcome{valid: &model.ValidatedRow{
		Line:            row.Line,
		CIF:             cif,
		CustomerName:    customer.Name,
		AccountNumber:   number,
		AccountID:       account.ID,
		SubjectID:       subject.ID,
		SubjectCode:     subject.Code,
		SubjectName:     subject.Name,
		PreviousBalance: previous,
		CurrentBalance:  amount,
		Changed:         !previous.Equal(amount),
	}}, nil
}

// subjectFor prefers the subject named on the row and falls back to the account owner.
func (e *Engine) subjectFor(ctx context.Context, row model.RawRow, account *model.Account) (*model.Subject, error) {
	if code := strings.TrimSpace(row.SubjectCode); code != "" {
		return e.ledger.SubjectByCode(ctx, code)
	}
	if account.SubjectID == "" {
		return nil, fmt.Errorf("account %s has no owning subject: %w", account.Number, model.ErrNotFound)
	}
	return e.ledger.SubjectByID(ctx, account.SubjectID)
}

func subjectDetail(row model.RawRow, account *model.Account) string {
	if code := strings.TrimSpace(row.SubjectCode); code != "" {
		return "no subject with code " + code
	}
	return "account " + account.Number + " has no owning subject"
}

func lookupMiss(row model.RawRow, err error, reason model.RejectReason, detail string) (outcome, error) {
	if errors.Is(err, model.ErrNotFound) {
		return reject(row, reason, detail), nil
	}
	return outcome{}, err
}

func reject(row model.RawRow, reason model.RejectReason, detail string) outcome {
	return outcome{rejected: &model.RejectedRow{RawRow: row, Reason: reason, Detail: detail}}
}

func collect(results []outcome, reportDate model.Date) *model.ValidationResult {
	res := &model.ValidationResult{
		ReportDate: reportDate,
		Validated:  make([]model.ValidatedRow, 0, len(results)),
		Rejected:   make([]model.RejectedRow, 0),
		Summary: model.ValidationSummary{
			TotalRowsInSource:    len(results),
			TotalPreviousBalance: decimal.Zero,
			TotalNewBalance:      decimal.Zero,
			RejectionsByReason:   make(map[model.RejectReason]int),
		},
	}
	for _, out := range results {
		switch {
		case out.valid != nil:
			res.Validated = append(res.Validated, *out.valid)
			res.Summary.TotalPreviousBalance = res.Summary.TotalPreviousBalance.Add(out.valid.PreviousBalance)
			res.Summary.TotalNewBalance = res.Summary.TotalNewBalance.Add(out.valid.CurrentBalance)
			if out.valid.Changed {
				res.Summary.ChangedRows++
			}
		case out.rejected != nil:
			res.Rejected = append(res.Rejected, *out.rejected)
			res.Summary.RejectionsByReason[out.rejected.Reason]++
		}
	}
	res.Summary.ValidRows = len(res.Validated)
	res.Summary.RejectedRows = len(res.Rejected)
	return res
}
