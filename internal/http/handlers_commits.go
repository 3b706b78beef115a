package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/balancedesk/internal/domain/model"
	"github.com/target/balancedesk/internal/http/validation"
	"github.com/target/balancedesk/internal/service"
)

// CommitHandlers serves commits of validated rows.
type CommitHandlers struct {
	Svc       *service.CommitService
	Jobs      *service.JobService
	Validator *validation.Validator
	Logger    *slog.Logger
}

// Submit handles POST /api/balance-commits. The body is the report_date and
// valid_rows exactly as returned by the validation status endpoint.
func (h *CommitHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	cr := req.toModel()
	if err := h.Validator.Struct(cr); err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}

	job, err := h.Svc.Submit(r.Context(), &cr)
	if err != nil {
		RenderError(w, r, h.Logger, err)
		return
	}
	accepted(w, job, "/api/balance-commits/"+job.ID+"/status")
}

// commitRequest accepts the full validation payload so clients can post back
// the data block unchanged. Only report_date and valid_rows are used.
type commitRequest struct {
	model.CommitRequest
	Rejected any `json:"rejected_rows,omitempty"`
	Summary  any `json:"summary,omitempty"`
}

func (c commitRequest) toModel() model.CommitRequest { return c.CommitRequest }

// Status handles GET /api/balance-commits/{id}/status.
func (h *CommitHandlers) Status(w http.ResponseWriter, r *http.Request) {
	job, resp, ok := jobStatus(w, r, h.Jobs, model.JobKindCommit, h.Logger)
	if !ok {
		return
	}
	var res model.CommitResult
	if job.Status.Terminal() && decodeResult(r, h.Logger, job, &res) {
		resp.ProcessedCount = &res.ProcessedCount
	}
	WriteJSON(w, http.StatusOK, resp)
}
