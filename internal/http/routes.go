package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/balancedesk/internal/http/validation"
	"github.com/target/balancedesk/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs       *service.JobService
	Validation *service.ValidationService
	Commit     *service.CommitService
	Export     *service.ExportService
	// Optional: named dependency probes reported by /healthz
	HealthChecks map[string]HealthCheck
	// MaxUploadBytes bounds multipart bodies; 0 leaves the limit to the service.
	MaxUploadBytes int64
	Logger         *slog.Logger // Logger for request errors (optional)
}

// NewRouter creates and configures the API router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")
	v := validation.New()

	mux := http.NewServeMux()

	registerUploadRoutes(mux, &UploadHandlers{
		Svc:      services.Validation,
		Jobs:     services.Jobs,
		MaxBytes: services.MaxUploadBytes,
		Logger:   logger,
	})
	registerCommitRoutes(mux, &CommitHandlers{
		Svc:       services.Commit,
		Jobs:      services.Jobs,
		Validator: v,
		Logger:    logger,
	})
	registerReportRoutes(mux, &ReportHandlers{
		Svc:       services.Export,
		Jobs:      services.Jobs,
		Validator: v,
		Logger:    logger,
	})
	registerJobRoutes(mux, &JobHandlers{Svc: services.Jobs, Logger: logger})

	health := &HealthHandlers{Checks: services.HealthChecks, Logger: logger}
	mux.HandleFunc("GET /healthz", health.Health)
	mux.HandleFunc("HEAD /healthz", health.Health)

	return mux
}

func registerUploadRoutes(mux *http.ServeMux, h *UploadHandlers) {
	mux.HandleFunc("POST /api/balance-uploads", h.Submit)
	mux.HandleFunc("GET /api/balance-uploads/{id}/status", h.Status)
}

func registerCommitRoutes(mux *http.ServeMux, h *CommitHandlers) {
	mux.HandleFunc("POST /api/balance-commits", h.Submit)
	mux.HandleFunc("GET /api/balance-commits/{id}/status", h.Status)
}

func registerReportRoutes(mux *http.ServeMux, h *ReportHandlers) {
	mux.HandleFunc("POST /api/reports/performance", h.Submit)
	mux.HandleFunc("GET /api/reports/performance/{id}/status", h.Status)
	mux.HandleFunc("GET /api/reports/performance/{id}/download", h.Download)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("DELETE /api/jobs/{id}", h.Evict)
}
