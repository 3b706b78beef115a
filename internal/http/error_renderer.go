package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/balancedesk/internal/domain/model"
	apperrors "github.com/target/balancedesk/internal/errors"
	"github.com/target/balancedesk/internal/http/validation"
	"github.com/target/balancedesk/internal/service"
)

// Error codes used in ErrorBody.Code beyond the apperrors codes.
const (
	codeInvalidJSON = "invalid_json"
	codeInternal    = string(apperrors.ErrCodeInternal)
)

// jobNotFoundMessage is shown for unknown, evicted and expired job ids alike.
const jobNotFoundMessage = "Job not found or expired."

// RenderError maps err onto a status code and writes the JSON body. Internal
// details of unexpected errors are logged, never returned.
func RenderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if err == nil {
		return
	}

	if errors.Is(err, service.ErrJobNotFound) {
		writeJobNotFound(w)
		return
	}

	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		WriteJSON(w, http.StatusBadRequest, ErrorBody{
			Error:   "Request is invalid.",
			Code:    string(apperrors.ErrCodeValidation),
			Details: fieldErrs,
		})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		body := ErrorBody{Error: appErr.Message, Code: string(appErr.Code)}
		if appErr.Field != "" {
			body.Details = map[string]string{appErr.Field: appErr.Message}
		}
		status := appErr.Code.HTTPStatus()
		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			logError(r, logger, err)
			body.Error = "An unexpected error occurred."
		}
		WriteJSON(w, status, body)
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		WriteJSON(w, http.StatusGatewayTimeout, ErrorBody{
			Error: "Request timed out. Please try again.",
			Code:  string(apperrors.ErrCodeTimeout),
		})
	case errors.Is(err, context.Canceled):
		WriteJSON(w, apperrors.StatusClientClosedRequest, ErrorBody{Error: "Request was canceled.", Code: string(apperrors.ErrCodeCanceled)})
	default:
		logError(r, logger, err)
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{
			Error: "An unexpected error occurred.",
			Code:  codeInternal,
		})
	}
}

func logError(r *http.Request, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()),
		"error", err,
	)
}

func writeJobNotFound(w http.ResponseWriter) {
	WriteJSON(w, http.StatusNotFound, StatusResponse{Status: model.JobStatusFailed, Message: jobNotFoundMessage})
}
