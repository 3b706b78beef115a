package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/balancedesk/internal/adapters/artifacts"
	"github.com/target/balancedesk/internal/adapters/jobrunner"
	"github.com/target/balancedesk/internal/adapters/tabular"
	"github.com/target/balancedesk/internal/adapters/xlsxreport"
	"github.com/target/balancedesk/internal/data"
	"github.com/target/balancedesk/internal/domain/pivot"
	"github.com/target/balancedesk/internal/domain/reconcile"
	"github.com/target/balancedesk/internal/mocks"
	"github.com/target/balancedesk/internal/service"
)

type apiFixture struct {
	server    *httptest.Server
	jobs      *service.JobService
	reader    *mocks.MockLedgerReader
	writer    *mocks.MockLedgerWriter
	directory *mocks.MockSubjectDirectory
	artifacts *artifacts.LocalStore
}

type fixtureOptions struct {
	workers   int
	queueSize int
	checks    map[string]HealthCheck
}

func newAPIFixture(t *testing.T, opts fixtureOptions) *apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &apiFixture{
		reader:    mocks.NewMockLedgerReader(ctrl),
		writer:    mocks.NewMockLedgerWriter(ctrl),
		directory: mocks.NewMockSubjectDirectory(ctrl),
	}

	var err error
	f.jobs, err = service.NewJobService(service.JobServiceOptions{Cache: data.NewMemoryCacheRepo(nil), TTL: time.Hour})
	require.NoError(t, err)

	if opts.workers == 0 {
		opts.workers = 2
	}
	if opts.queueSize == 0 {
		opts.queueSize = 8
	}
	runner, err := jobrunner.NewRunner(jobrunner.RunnerOptions{
		Jobs:      f.jobs,
		Workers:   opts.workers,
		QueueSize: opts.queueSize,
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	engine, err := reconcile.NewEngine(reconcile.Options{Ledger: f.reader})
	require.NoError(t, err)
	validation, err := service.NewValidationService(service.ValidationServiceOptions{
		Parser:    tabular.NewParser(nil),
		Engine:    engine,
		Submitter: runner,
		MaxBytes:  1 << 20,
	})
	require.NoError(t, err)

	commit, err := service.NewCommitService(service.CommitServiceOptions{Ledger: f.writer, Submitter: runner})
	require.NoError(t, err)

	f.artifacts, err = artifacts.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	gen, err := pivot.NewGenerator(pivot.GeneratorOptions{Directory: f.directory, Title: "TEST"})
	require.NoError(t, err)
	export, err := service.NewExportService(service.ExportServiceOptions{
		Generator: gen,
		Directory: f.directory,
		Renderer:  xlsxreport.Renderer{},
		Artifacts: f.artifacts,
		Submitter: runner,
		Jobs:      f.jobs,
		MaxDays:   366,
	})
	require.NoError(t, err)

	f.server = httptest.NewServer(NewRouter(RouterServices{
		Jobs:           f.jobs,
		Validation:     validation,
		Commit:         commit,
		Export:         export,
		HealthChecks:   opts.checks,
		MaxUploadBytes: 1 << 20,
	}))
	t.Cleanup(func() {
		f.server.Close()
		cancel()
		require.NoError(t, <-done)
	})
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, f.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (f *apiFixture) postJSON(t *testing.T, path string, v any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	switch b := v.(type) {
	case string:
		buf.WriteString(b)
	case []byte:
		buf.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	return f.do(t, http.MethodPost, path, &buf, "application/json")
}

func (f *apiFixture) upload(t *testing.T, fields map[string]string, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return f.do(t, http.MethodPost, "/api/balance-uploads", &buf, mw.FormDataContentType())
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// statusBody mirrors StatusResponse with Data left raw for per-kind decoding.
type statusBody struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	Data           json.RawMessage `json:"data"`
	ProcessedCount *int            `json:"processed_count"`
	FilePath       string          `json:"file_path"`
	FileName       string          `json:"file_name"`
}

// waitStatus polls path until the job leaves processing.
func (f *apiFixture) waitStatus(t *testing.T, path string) statusBody {
	t.Helper()
	var last statusBody
	require.Eventually(t, func() bool {
		resp := f.do(t, http.MethodGet, path, nil, "")
		if resp.StatusCode != http.StatusOK {
			return false
		}
		last = decodeBody[statusBody](t, resp)
		return last.Status != "processing"
	}, 5*time.Second, 10*time.Millisecond)
	return last
}
