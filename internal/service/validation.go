package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/domain/reconcile"
	apperrors "github.com/target/balancedesk/internal/errors"
)

// ValidationServiceOptions groups dependencies for ValidationService.
type ValidationServiceOptions struct {
	Parser    core.UploadParser // Required: upload parser
	Engine    *reconcile.Engine // Required: reconciliation engine
	Submitter JobSubmitter      // Required: job scheduler
	MaxBytes  int64             // Optional: upload size cap; 0 disables the check
	Logger    *slog.Logger      // Optional: structured logger
}

// ValidationService runs upload validation jobs: parse, then reconcile.
// It never mutates the ledger, so the same file may be submitted any number of times.
type ValidationService struct {
	parser    core.UploadParser
	engine    *reconcile.Engine
	submitter JobSubmitter
	maxBytes  int64
	logger    *slog.Logger
}

// NewValidationService constructs a new ValidationService.
func NewValidationService(opts ValidationServiceOptions) (*ValidationService, error) {
	if opts.Parser == nil {
		return nil, errors.New("UploadParser is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("reconciliation engine is required")
	}
	if opts.Submitter == nil {
		return nil, errors.New("JobSubmitter is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidationService{
		parser:    opts.Parser,
		engine:    opts.Engine,
		submitter: opts.Submitter,
		maxBytes:  opts.MaxBytes,
		logger:    logger.With("component", "validation_service"),
	}, nil
}

// ValidationInput is one upload submission.
type ValidationInput struct {
	File       io.Reader
	Format     string // resolved tabular format: csv, xlsx or xls
	ReportDate model.Date
}

// Submit buffers the upload and schedules a validation job. The upload is read
// before returning because the request body does not outlive the request.
func (s *ValidationService) Submit(ctx context.Context, in ValidationInput) (*model.Job, error) {
	if in.ReportDate.IsZero() {
		return nil, apperrors.ValidationField("report_date", "report_date is required")
	}
	if in.File == nil {
		return nil, apperrors.ValidationField("file", "file is required")
	}

	src := in.File
	if s.maxBytes > 0 {
		src = io.LimitReader(in.File, s.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, apperrors.Validationf("file exceeds the %d byte limit", s.maxBytes)
	}

	format, date := in.Format, in.ReportDate
	return s.submitter.Submit(ctx, model.JobKindValidation, func(ctx context.Context, job *model.Job) (Outcome, error) {
		return s.run(ctx, job, bytes.NewReader(data), format, date)
	})
}

func (s *ValidationService) run(
	ctx context.Context,
	job *model.Job,
	r io.Reader,
	format string,
	reportDate model.Date,
) (Outcome, error) {
	rows, err := s.parser.ParseUpload(r, format)
	if err != nil {
		return Outcome{}, taskError(err, validationFailure(err))
	}

	result, err := s.engine.Reconcile(ctx, rows, reportDate)
	if err != nil {
		return Outcome{}, taskError(err, validationFailure(err))
	}

	sum := result.Summary
	s.logger.InfoContext(ctx, "upload validated",
		"job_id", job.ID,
		"report_date", reportDate,
		"total_rows", sum.TotalRowsInSource,
		"valid_rows", sum.ValidRows,
		"rejected_rows", sum.RejectedRows,
	)
	return Outcome{
		Message: fmt.Sprintf("Validated %d rows: %d valid (%d changed), %d rejected.",
			sum.TotalRowsInSource, sum.ValidRows, sum.ChangedRows, sum.RejectedRows),
		Payload: result,
	}, nil
}

func validationFailure(err error) string {
	var pe *model.ParseError
	if errors.As(err, &pe) {
		return "Could not read the uploaded file: " + pe.Reason + "."
	}
	return "Validation failed while reading the ledger. Please try again."
}
