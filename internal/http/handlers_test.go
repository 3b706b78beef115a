package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/target/balancedesk/internal/domain/model"
)

const sampleUpload = "cif,account_number,balance\n123456,0001,\"1,000,000\"\n"

func (f *apiFixture) expectKnownAccount(reportDate model.Date) {
	f.reader.EXPECT().CustomerByCIF(gomock.Any(), "123456").
		Return(&model.Customer{ID: "cust-1", CIF: "123456", Name: "PT Contoh"}, nil).AnyTimes()
	f.reader.EXPECT().AccountByNumber(gomock.Any(), "cust-1", "0001").
		Return(&model.Account{ID: "acct-1", CustomerID: "cust-1", SubjectID: "staff-1", Number: "0001"}, nil).AnyTimes()
	f.reader.EXPECT().SubjectByID(gomock.Any(), "staff-1").
		Return(&model.Subject{ID: "staff-1", Code: "S001", Name: "Alice"}, nil).AnyTimes()
	f.reader.EXPECT().LatestAccountBalance(gomock.Any(), "acct-1", reportDate).
		Return(decimal.Zero, false, nil).AnyTimes()
}

func mustDate(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestUploadValidateCommitFlow(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	reportDate := mustDate(t, "2024-03-01")
	f.expectKnownAccount(reportDate)

	resp := f.upload(t, map[string]string{"report_date": "2024-03-01"}, "balances.csv", sampleUpload)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	submitted := decodeBody[SubmitResponse](t, resp)
	require.NotEmpty(t, submitted.JobID)
	assert.Equal(t, model.JobStatusProcessing, submitted.Status)
	assert.Equal(t, "/api/balance-uploads/"+submitted.JobID+"/status", submitted.StatusURL)
	assert.Equal(t, submitted.StatusURL, resp.Header.Get("Location"))

	status := f.waitStatus(t, submitted.StatusURL)
	require.Equal(t, "completed", status.Status, status.Message)

	var result model.ValidationResult
	require.NoError(t, json.Unmarshal(status.Data, &result))
	require.Len(t, result.Validated, 1)
	row := result.Validated[0]
	assert.Equal(t, "acct-1", row.AccountID)
	assert.True(t, row.PreviousBalance.IsZero())
	assert.True(t, row.CurrentBalance.Equal(decimal.NewFromInt(1_000_000)))
	assert.True(t, row.Changed)
	assert.Empty(t, result.Rejected)

	f.writer.EXPECT().ApplyBalance(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, w model.BalanceWrite) error {
			assert.Equal(t, "acct-1", w.AccountID)
			assert.Equal(t, reportDate.String(), w.Date.String())
			return nil
		})

	// The whole data block is posted back as-is.
	resp = f.postJSON(t, "/api/balance-commits", []byte(status.Data))
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	commit := decodeBody[SubmitResponse](t, resp)
	assert.Equal(t, "/api/balance-commits/"+commit.JobID+"/status", commit.StatusURL)

	done := f.waitStatus(t, commit.StatusURL)
	assert.Equal(t, "completed", done.Status)
	assert.Equal(t, "Committed 1 rows for 2024-03-01.", done.Message)
	require.NotNil(t, done.ProcessedCount)
	assert.Equal(t, 1, *done.ProcessedCount)
}

func TestUploadRejectsBadForms(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		field    string
	}{
		{name: "missing report date", filename: "balances.csv", field: "report_date"},
		{name: "malformed report date", fields: map[string]string{"report_date": "01/03/2024"}, filename: "balances.csv", field: "report_date"},
		{name: "missing file", fields: map[string]string{"report_date": "2024-03-01"}, field: "file"},
		{name: "unknown format", fields: map[string]string{"report_date": "2024-03-01"}, filename: "balances.pdf", field: "format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.upload(t, tt.fields, tt.filename, sampleUpload)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[ErrorBody](t, resp)
			assert.Equal(t, "validation", body.Code)
			assert.Contains(t, body.Details, tt.field)
		})
	}
}

func TestUploadBackpressure(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{workers: 1, queueSize: 1})
	reportDate := mustDate(t, "2024-03-01")

	release := make(chan struct{})
	f.reader.EXPECT().CustomerByCIF(gomock.Any(), "123456").DoAndReturn(
		func(ctx context.Context, _ string) (*model.Customer, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil, model.ErrNotFound
		}).AnyTimes()
	defer close(release)

	for range 2 {
		resp := f.upload(t, map[string]string{"report_date": reportDate.String()}, "balances.csv", sampleUpload)
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	resp := f.upload(t, map[string]string{"report_date": reportDate.String()}, "balances.csv", sampleUpload)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeBody[ErrorBody](t, resp)
	assert.Equal(t, "unavailable", body.Code)
}

func TestCommitRejectsInvalidRequests(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})

	t.Run("unknown field", func(t *testing.T) {
		resp := f.postJSON(t, "/api/balance-commits", `{"report_date":"2024-03-01","rows":[]}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[ErrorBody](t, resp)
		assert.Equal(t, codeInvalidJSON, body.Code)
	})

	t.Run("trailing data", func(t *testing.T) {
		resp := f.postJSON(t, "/api/balance-commits", `{"report_date":"2024-03-01","valid_rows":[]} {}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[ErrorBody](t, resp)
		assert.Equal(t, codeInvalidJSON, body.Code)
	})

	t.Run("field errors", func(t *testing.T) {
		resp := f.postJSON(t, "/api/balance-commits", map[string]any{
			"report_date": "2024-03-01",
			"valid_rows": []map[string]any{
				{"line": 2, "cif": "123456", "account_number": "0001", "subject_id": "staff-1", "current_balance": "-5"},
			},
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[ErrorBody](t, resp)
		assert.Equal(t, "validation", body.Code)
		assert.Equal(t, "is required", body.Details["valid_rows[0].account_id"])
		assert.Contains(t, body.Details, "valid_rows[0].current_balance")
	})

	t.Run("empty rows", func(t *testing.T) {
		resp := f.postJSON(t, "/api/balance-commits", `{"report_date":"2024-03-01","valid_rows":[]}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody[ErrorBody](t, resp)
		assert.Contains(t, body.Details, "valid_rows")
	})
}

func TestCommitFailureReportsProgress(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	gomock.InOrder(
		f.writer.EXPECT().ApplyBalance(gomock.Any(), gomock.Any()).Return(nil),
		f.writer.EXPECT().ApplyBalance(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")),
	)

	rows := make([]map[string]any, 0, 3)
	for i := range 3 {
		rows = append(rows, map[string]any{
			"line": i + 2, "cif": "123456", "account_number": fmt.Sprintf("000%d", i+1),
			"account_id": fmt.Sprintf("acct-%d", i+1), "subject_id": "staff-1",
			"previous_balance": "0", "current_balance": "10",
		})
	}
	resp := f.postJSON(t, "/api/balance-commits", map[string]any{"report_date": "2024-03-01", "valid_rows": rows})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	commit := decodeBody[SubmitResponse](t, resp)

	done := f.waitStatus(t, commit.StatusURL)
	assert.Equal(t, "failed", done.Status)
	assert.Contains(t, done.Message, "Commit stopped at line 3 after 1 of 3 rows were saved.")
	require.NotNil(t, done.ProcessedCount)
	assert.Equal(t, 1, *done.ProcessedCount)
}

func TestExportStatusAndDownload(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	start, end := mustDate(t, "2024-03-01"), mustDate(t, "2024-03-02")

	f.directory.EXPECT().SubjectByID(gomock.Any(), "staff-1").
		Return(&model.Subject{ID: "staff-1", Code: "S001", Name: "Alice"}, nil)
	f.directory.EXPECT().SubjectBalanceOn(gomock.Any(), "staff-1", model.BaselineDate(2024)).
		Return(decimal.NewFromInt(1_000_000), true, nil)
	f.directory.EXPECT().SubjectBalances(gomock.Any(), "staff-1", start, end).
		Return([]model.SubjectBalance{{SubjectID: "staff-1", Date: start, Balance: decimal.NewFromInt(1_250_000)}}, nil)

	resp := f.postJSON(t, "/api/reports/performance", map[string]any{
		"subject_ids":   []string{"staff-1"},
		"start_date":    "2024-03-01",
		"end_date":      "2024-03-02",
		"baseline_year": 2024,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	submitted := decodeBody[SubmitResponse](t, resp)

	status := f.waitStatus(t, submitted.StatusURL)
	require.Equal(t, "completed", status.Status, status.Message)
	assert.Equal(t, "Report ready: 1 subjects over 2 days.", status.Message)
	assert.True(t, strings.HasPrefix(status.FileName, "performance_report_2024-03-01_2024-03-02_"))
	assert.NotEmpty(t, status.FilePath)

	var summary model.ExportSummary
	require.NoError(t, json.Unmarshal(status.Data, &summary))
	assert.Equal(t, 1, summary.SubjectsReported)
	assert.Equal(t, 2, summary.Days)

	resp = f.do(t, http.MethodGet, "/api/reports/performance/"+submitted.JobID+"/download", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, status.FileName, params["filename"])

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer book.Close()
	assert.NotEmpty(t, book.GetSheetList())
}

func TestExportRejectsInvalidRequest(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	resp := f.postJSON(t, "/api/reports/performance", map[string]any{
		"subject_ids":   []string{"staff-1"},
		"start_date":    "2024-03-01",
		"baseline_year": 1200,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[ErrorBody](t, resp)
	assert.Contains(t, body.Details, "end_date")
	assert.Contains(t, body.Details, "baseline_year")
}

func TestJobNotFoundResponses(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	reportDate := mustDate(t, "2024-03-01")
	f.expectKnownAccount(reportDate)

	resp := f.upload(t, map[string]string{"report_date": "2024-03-01"}, "balances.csv", sampleUpload)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	uploadJob := decodeBody[SubmitResponse](t, resp)
	f.waitStatus(t, uploadJob.StatusURL)

	paths := map[string]string{
		"unknown upload":         "/api/balance-uploads/does-not-exist/status",
		"unknown commit":         "/api/balance-commits/does-not-exist/status",
		"unknown export":         "/api/reports/performance/does-not-exist/status",
		"unknown download":       "/api/reports/performance/does-not-exist/download",
		"wrong kind status":      "/api/balance-commits/" + uploadJob.JobID + "/status",
		"wrong kind download":    "/api/reports/performance/" + uploadJob.JobID + "/download",
		"upload id as an export": "/api/reports/performance/" + uploadJob.JobID + "/status",
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, path, nil, "")
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			body := decodeBody[StatusResponse](t, resp)
			assert.Equal(t, model.JobStatusFailed, body.Status)
			assert.Equal(t, jobNotFoundMessage, body.Message)
		})
	}
}

func TestEvictJob(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	reportDate := mustDate(t, "2024-03-01")
	f.expectKnownAccount(reportDate)

	resp := f.upload(t, map[string]string{"report_date": "2024-03-01"}, "balances.csv", sampleUpload)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	job := decodeBody[SubmitResponse](t, resp)
	f.waitStatus(t, job.StatusURL)

	resp = f.do(t, http.MethodDelete, "/api/jobs/"+job.JobID, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, job.StatusURL, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodDelete, "/api/jobs/"+job.JobID, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newAPIFixture(t, fixtureOptions{checks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		}})
		resp := f.do(t, http.MethodGet, "/healthz", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("degraded", func(t *testing.T) {
		f := newAPIFixture(t, fixtureOptions{checks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		}})
		resp := f.do(t, http.MethodGet, "/healthz", nil, "")
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "degraded", body["status"])

		head := f.do(t, http.MethodHead, "/healthz", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, head.StatusCode)
	})
}
