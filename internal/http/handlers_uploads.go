package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/balancedesk/internal/adapters/tabular"
	"github.com/target/balancedesk/internal/domain/model"
	apperrors "github.com/target/balancedesk/internal/errors"
	"github.com/target/balancedesk/internal/service"
)

// multipartMemory is how much of a multipart upload is held in memory before spilling to disk.
const multipartMemory = 8 << 20

// UploadHandlers serves balance upload validation.
type UploadHandlers struct {
	Svc      *service.ValidationService
	Jobs     *service.JobService
	MaxBytes int64
	Logger   *slog.Logger
}

// Submit handles POST /api/balance-uploads (multipart: file, report_date, optional format).
func (h *UploadHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	if h.MaxBytes > 0 {
		// Leave room for the other form fields and multipart framing.
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RenderError(w, r, h.Logger, apperrors.ValidationField("file", "file is too large"))
			return
		}
		RenderError(w, r, h.Logger, apperrors.Validation("expected a multipart form with a file field"))
		return
	}

	reportDate, err := model.ParseDate(r.FormValue("report_date"))
	if err != nil {
		RenderError(w, r, h.Logger, apperrors.ValidationField("report_date", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		RenderError(w, r, h.Logger, apperrors.ValidationField("file", "file is required"))
		return
	}
	defer file.Close()

	format, err := tabular.ResolveFormat(r.FormValue("format"), header.Filename)
	if err != nil {
		RenderError(w, r, h.Logger, apperrors.ValidationField("format", err.Error()))
		return
	}

	job, err := h.Svc.Submit(r.Context(), service.ValidationInput{
		File:       file,
		Format:     string(format),
		ReportDate: reportDate,
	})
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	accepted(w, job, "/api/balance-uploads/"+job.ID+"/status")
}

// Status handles GET /api/balance-uploads/{id}/status.
func (h *UploadHandlers) Status(w http.ResponseWriter, r *http.Request) {
	job, resp, ok := jobStatus(w, r, h.Jobs, model.JobKindValidation, h.Logger)
	if !ok {
		return
	}
	if job.Status == model.JobStatusCompleted && len(job.Payload) > 0 {
		resp.Data = job.Payload
	}
	WriteJSON(w, http.StatusOK, resp)
}
