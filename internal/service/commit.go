package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/domain/model"
	apperrors "github.com/target/balancedesk/internal/errors"
)

// CommitServiceOptions groups dependencies for CommitService.
type CommitServiceOptions struct {
	Ledger    core.LedgerWriter // Required: ledger writer
	Submitter JobSubmitter      // Required: job scheduler
	Logger    *slog.Logger      // Optional: structured logger
}

// CommitService applies validated rows to the ledger. Every write overwrites the
// (account, date) snapshot, so replaying a commit leaves the same end state.
type CommitService struct {
	ledger    core.LedgerWriter
	submitter JobSubmitter
	logger    *slog.Logger
}

// NewCommitService constructs a new CommitService.
func NewCommitService(opts CommitServiceOptions) (*CommitService, error) {
	if opts.Ledger == nil {
		return nil, errors.New("LedgerWriter is required")
	}
	if opts.Submitter == nil {
		return nil, errors.New("JobSubmitter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CommitService{
		ledger:    opts.Ledger,
		submitter: opts.Submitter,
		logger:    logger.With("component", "commit_service"),
	}, nil
}

// Submit checks the request shape and schedules a commit job. Rows are trusted
// as validated; reconciliation is not run again.
func (s *CommitService) Submit(ctx context.Context, req *model.CommitRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("commit request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	rows := append([]model.ValidatedRow(nil), req.ValidRows...)
	date := req.ReportDate
	return s.submitter.Submit(ctx, model.JobKindCommit, func(ctx context.Context, job *model.Job) (Outcome, error) {
		return s.Apply(ctx, job.ID, date, rows)
	})
}

// Apply writes rows in order and stops at the first failure. Rows written
// before the failure stay written.
func (s *CommitService) Apply(
	ctx context.Context,
	jobID string,
	reportDate model.Date,
	rows []model.ValidatedRow,
) (Outcome, error) {
	result := model.CommitResult{ReportDate: reportDate, TotalRows: len(rows)}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return Outcome{}, s.persistFailure(result, row, err)
		}
		err := s.ledger.ApplyBalance(ctx, model.BalanceWrite{
			AccountID: row.AccountID,
			SubjectID: row.SubjectID,
			Date:      reportDate,
			Balance:   row.CurrentBalance,
		})
		if err != nil {
			return Outcome{}, s.persistFailure(result, row, err)
		}
		result.ProcessedCount++
	}

	s.logger.InfoContext(ctx, "balances committed",
		"job_id", jobID,
		"report_date", reportDate,
		"processed_count", result.ProcessedCount,
	)
	return Outcome{
		Message: fmt.Sprintf("Committed %d rows for %s.", result.ProcessedCount, reportDate),
		Payload: result,
	}, nil
}

func (s *CommitService) persistFailure(result model.CommitResult, row model.ValidatedRow, err error) error {
	pe := &model.PersistenceError{Processed: result.ProcessedCount, Line: row.Line, Err: err}
	return &TaskError{
		Message: fmt.Sprintf(
			"Commit stopped at line %d after %d of %d rows were saved. Saved rows are kept; re-running the commit is safe.",
			row.Line, result.ProcessedCount, result.TotalRows,
		),
		Payload: result,
		Err:     pe,
	}
}
