package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/domain/pivot"
	apperrors "github.com/target/balancedesk/internal/errors"
)

// ExportServiceOptions groups dependencies for ExportService.
type ExportServiceOptions struct {
	Generator *pivot.Generator      // Required: report layout
	Directory core.SubjectDirectory // Required: subject listing for subject_filter
	Renderer  core.ReportRenderer   // Required: spreadsheet writer
	Artifacts core.ArtifactStore    // Required: artifact storage
	Submitter JobSubmitter          // Required: job scheduler
	Jobs      *JobService           // Required: job lookups for downloads
	MaxDays   int                   // Optional: span cap; 0 disables it
	Logger    *slog.Logger          // Optional: structured logger
}

// ExportService runs performance report jobs and serves their artifacts.
type ExportService struct {
	generator *pivot.Generator
	dir       core.SubjectDirectory
	renderer  core.ReportRenderer
	artifacts core.ArtifactStore
	submitter JobSubmitter
	jobs      *JobService
	maxDays   int
	logger    *slog.Logger
}

// NewExportService constructs a new ExportService.
func NewExportService(opts ExportServiceOptions) (*ExportService, error) {
	switch {
	case opts.Generator == nil:
		return nil, errors.New("pivot generator is required")
	case opts.Directory == nil:
		return nil, errors.New("SubjectDirectory is required")
	case opts.Renderer == nil:
		return nil, errors.New("ReportRenderer is required")
	case opts.Artifacts == nil:
		return nil, errors.New("ArtifactStore is required")
	case opts.Submitter == nil:
		return nil, errors.New("JobSubmitter is required")
	case opts.Jobs == nil:
		return nil, errors.New("JobService is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		generator: opts.Generator,
		dir:       opts.Directory,
		renderer:  opts.Renderer,
		artifacts: opts.Artifacts,
		submitter: opts.Submitter,
		jobs:      opts.Jobs,
		maxDays:   opts.MaxDays,
		logger:    logger.With("component", "export_service"),
	}, nil
}

// Submit validates the request and schedules an export job.
func (s *ExportService) Submit(ctx context.Context, req *model.ExportRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("export request is required")
	}
	if err := req.Validate(s.maxDays); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if req.SubjectFilter != "" {
		if _, err := jmespath.Compile(req.SubjectFilter); err != nil {
			return nil, apperrors.ValidationField("subject_filter", "invalid JMESPath expression: "+err.Error())
		}
	}
	r := *req
	r.SubjectIDs = append([]string(nil), req.SubjectIDs...)
	return s.submitter.Submit(ctx, model.JobKindExport, func(ctx context.Context, job *model.Job) (Outcome, error) {
		return s.run(ctx, job, &r)
	})
}

func (s *ExportService) run(ctx context.Context, job *model.Job, req *model.ExportRequest) (Outcome, error) {
	ids, err := s.selectSubjects(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	table, summary, err := s.generator.Build(ctx, ids, req)
	if err != nil {
		return Outcome{}, taskError(err, "Report generation failed while reading balances.")
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, table); err != nil {
		return Outcome{}, taskError(err, "Report rendering failed.")
	}

	name := ArtifactName(req, job.ID)
	ref, err := s.artifacts.Save(ctx, name, &buf)
	if err != nil {
		return Outcome{}, taskError(err, "Report could not be stored.")
	}

	s.logger.InfoContext(ctx, "report exported",
		"job_id", job.ID,
		"file", ref,
		"subjects_reported", summary.SubjectsReported,
		"skipped", len(summary.SkippedSubjectIDs),
		"days", summary.Days,
	)
	msg := fmt.Sprintf("Report ready: %d subjects over %d days.", summary.SubjectsReported, summary.Days)
	if n := len(summary.SkippedSubjectIDs); n > 0 {
		msg += fmt.Sprintf(" %d unknown subjects skipped.", n)
	}
	return Outcome{
		Message: msg,
		Payload: model.ExportResult{FilePath: ref, FileName: name, Summary: summary},
	}, nil
}

// selectSubjects merges explicit ids with the ids selected by subject_filter.
func (s *ExportService) selectSubjects(ctx context.Context, req *model.ExportRequest) ([]string, error) {
	ids := append([]string(nil), req.SubjectIDs...)
	if req.SubjectFilter == "" {
		return ids, nil
	}
	subjects, err := s.dir.ListSubjects(ctx)
	if err != nil {
		return nil, taskError(err, "Report generation failed while listing staff.")
	}
	filtered, err := FilterSubjects(req.SubjectFilter, subjects)
	if err != nil {
		return nil, taskError(err, "subject_filter did not produce a list of staff.")
	}
	return append(ids, filtered...), nil
}

// FilterSubjects evaluates a JMESPath expression over subjects and returns the
// selected ids. The expression must yield a list of ids or of subject objects.
func FilterSubjects(expr string, subjects []model.Subject) ([]string, error) {
	// Round-trip through JSON so the expression sees the API field names.
	b, err := json.Marshal(subjects)
	if err != nil {
		return nil, fmt.Errorf("encode subjects: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}

	out, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate subject_filter: %w", err)
	}
	if out == nil {
		return nil, nil
	}
	list, ok := out.([]any)
	if !ok {
		return nil, fmt.Errorf("subject_filter returned %T, want a list", out)
	}

	ids := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			ids = append(ids, v)
		case map[string]any:
			id, ok := v["id"].(string)
			if !ok {
				return nil, errors.New("subject_filter returned an object without an id")
			}
			ids = append(ids, id)
		default:
			return nil, fmt.Errorf("subject_filter returned a list of %T", item)
		}
	}
	return ids, nil
}

// ArtifactName is the file name of an export: performance_report_<start>_<end>_<job8>.xlsx.
func ArtifactName(req *model.ExportRequest, jobID string) string {
	short := jobID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("performance_report_%s_%s_%s.xlsx", req.StartDate, req.EndDate, short)
}

// Download opens the artifact of a completed export job.
func (s *ExportService) Download(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	job, err := s.jobs.GetKind(ctx, jobID, model.JobKindExport)
	if err != nil {
		return nil, "", err
	}
	if job.Status != model.JobStatusCompleted {
		return nil, "", apperrors.Conflictf("export job is %s", job.Status)
	}
	var res model.ExportResult
	if err := job.DecodePayload(&res); err != nil {
		return nil, "", err
	}
	rc, err := s.artifacts.Open(ctx, res.FileName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", apperrors.NotFound("Report file is no longer available.")
		}
		return nil, "", fmt.Errorf("open artifact: %w", err)
	}
	return rc, res.FileName, nil
}
