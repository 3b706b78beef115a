// Package httpx provides the REST API of the balancedesk service.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/service"
)

// StatusResponse is the body of every job status endpoint. Only the fields
// relevant to the job kind and status are set.
type StatusResponse struct {
	Status         model.JobStatus `json:"status"`
	Message        string          `json:"message"`
	Data           any             `json:"data,omitempty"`
	ProcessedCount *int            `json:"processed_count,omitempty"`
	FilePath       string          `json:"file_path,omitempty"`
	FileName       string          `json:"file_name,omitempty"`
}

// SubmitResponse is returned when a job has been accepted.
type SubmitResponse struct {
	JobID     string          `json:"job_id"`
	Status    model.JobStatus `json:"status"`
	StatusURL string          `json:"status_url"`
}

func accepted(w http.ResponseWriter, job *model.Job, statusURL string) {
	w.Header().Set("Location", statusURL)
	WriteJSON(w, http.StatusAccepted, SubmitResponse{JobID: job.ID, Status: job.Status, StatusURL: statusURL})
}

// JobHandlers serves kind-agnostic job operations.
type JobHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

// Evict handles DELETE /api/jobs/{id}.
func (h *JobHandlers) Evict(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Svc.Evict(r.Context(), r.PathValue("id"))
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	if !deleted {
		writeJobNotFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// jobStatus loads a job of kind and renders its common status fields. The
// caller fills in kind-specific fields when the job has finished.
func jobStatus(
	w http.ResponseWriter,
	r *http.Request,
	svc *service.JobService,
	kind model.JobKind,
	logger *slog.Logger,
) (*model.Job, *StatusResponse, bool) {
	job, err := svc.GetKind(r.Context(), r.PathValue("id"), kind)
	if err != nil {
		RenderError(w, r, logger, err)
		return nil, nil, false
	}
	return job, &StatusResponse{Status: job.Status, Message: job.Message}, true
}

// decodeResult decodes the job payload, logging instead of failing the request
// when a finished job carries no usable payload.
func decodeResult(r *http.Request, logger *slog.Logger, job *model.Job, dst any) bool {
	if len(job.Payload) == 0 {
		return false
	}
	if err := job.DecodePayload(dst); err != nil {
		logger.WarnContext(r.Context(), "undecodable job payload", "job_id", job.ID, "kind", job.Kind, "error", err)
		return false
	}
	return true
}
