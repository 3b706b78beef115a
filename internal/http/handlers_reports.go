package httpx

import (
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/http/validation"
	"github.com/target/balancedesk/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandlers serves performance report exports.
type ReportHandlers struct {
	Svc       *service.ExportService
	Jobs      *service.JobService
	Validator *validation.Validator
	Logger    *slog.Logger
}

// Submit handles POST /api/reports/performance.
func (h *ReportHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.ExportRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}

	job, err := h.Svc.Submit(r.Context(), &req)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	accepted(w, job, "/api/reports/performance/"+job.ID+"/status")
}

// Status handles GET /api/reports/performance/{id}/status.
func (h *ReportHandlers) Status(w http.ResponseWriter, r *http.Request) {
	job, resp, ok := jobStatus(w, r, h.Jobs, model.JobKindExport, h.Logger)
	if !ok {
		return
	}
	var res model.ExportResult
	if job.Status == model.JobStatusCompleted && decodeResult(r, h.Logger, job, &res) {
		resp.FilePath = res.FilePath
		resp.FileName = res.FileName
		resp.Data = res.Summary
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Download handles GET /api/reports/performance/{id}/download.
func (h *ReportHandlers) Download(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.Svc.Download(r.Context(), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.Logger.WarnContext(r.Context(), "artifact download interrupted", "file", name, "error", err)
	}
}
