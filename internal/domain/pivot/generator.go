package pivot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/target/balancedesk/internal/core"
	"github.com/target/balancedesk/internal/domain/model"
)

// DefaultDivisor shows balances in millions.
var DefaultDivisor = decimal.NewFromInt(1_000_000)

// GeneratorOptions configure a Generator.
type GeneratorOptions struct {
	Directory core.SubjectDirectory
	Divisor   decimal.Decimal
	Title     string
	Logger    *slog.Logger
}

// Generator builds report tables from the subject directory.
type Generator struct {
	dir     core.SubjectDirectory
	divisor decimal.Decimal
	title   string
	logger  *slog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(opts GeneratorOptions) (*Generator, error) {
	if opts.Directory == nil {
		return nil, errors.New("pivot: subject directory is required")
	}
	divisor := opts.Divisor
	if !divisor.IsPositive() {
		divisor = DefaultDivisor
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		dir:     opts.Directory,
		divisor: divisor,
		title:   opts.Title,
		logger:  logger.With("component", "pivot"),
	}, nil
}

// Build lays out the report for subjectIDs. Unknown subjects are skipped and
// listed in the summary; an empty selection or range yields a headers-only table.
func (g *Generator) Build(
	ctx context.Context,
	subjectIDs []string,
	req *model.ExportRequest,
) (*model.ReportTable, model.ExportSummary, error) {
	ids := uniqueIDs(subjectIDs)
	cols := Columns(req.StartDate, req.EndDate)
	table := &model.ReportTable{
		Title:    g.title,
		Start:    req.StartDate,
		End:      req.EndDate,
		Baseline: req.BaselineDate(),
		Divisor:  g.divisor,
		Columns:  cols,
		Months:   MonthGroups(cols),
	}
	summary := model.ExportSummary{
		SubjectsRequested: len(ids),
		SkippedSubjectIDs: []string{},
		Days:              len(cols),
	}

	for _, id := range ids {
		row, ok, err := g.subjectRow(ctx, id, table)
		if err != nil {
			return nil, summary, err
		}
		if !ok {
			g.logger.WarnContext(ctx, "skipping unknown subject", "subject_id", id)
			summary.SkippedSubjectIDs = append(summary.SkippedSubjectIDs, id)
			continue
		}
		row.Ordinal = len(table.Rows) + 1
		table.Rows = append(table.Rows, row)
	}
	summary.SubjectsReported = len(table.Rows)
	return table, summary, nil
}

func (g *Generator) subjectRow(
	ctx context.Context,
	id string,
	table *model.ReportTable,
) (model.ReportRow, bool, error) {
	subject, err := g.dir.SubjectByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ReportRow{}, false, nil
	}
	if err != nil {
		return model.ReportRow{}, false, fmt.Errorf("subject %s: %w", id, err)
	}

	baseline, _, err := g.dir.SubjectBalanceOn(ctx, id, table.Baseline)
	if err != nil {
		return model.ReportRow{}, false, fmt.Errorf("baseline for subject %s: %w", id, err)
	}

	var snapshots []model.SubjectBalance
	if len(table.Columns) > 0 {
		snapshots, err = g.dir.SubjectBalances(ctx, id, table.Start, table.End)
		if err != nil {
			return model.ReportRow{}, false, fmt.Errorf("snapshots for subject %s: %w", id, err)
		}
	}
	return BuildRow(*subject, baseline, snapshots, table.Columns, g.divisor), true, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
