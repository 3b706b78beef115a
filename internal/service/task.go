package service

import (
	"context"
	"errors"

	"github.com/target/balancedesk/internal/domain/model"
)

// Outcome is what a successful task leaves in its job record.
type Outcome struct {
	Message string
	Payload any
}

// TaskFunc is the body of an asynchronous job. It runs off the request path
// with a context detached from the submitting request.
type TaskFunc func(ctx context.Context, job *model.Job) (Outcome, error)

// JobSubmitter creates a job record and schedules its task.
type JobSubmitter interface {
	Submit(ctx context.Context, kind model.JobKind, task TaskFunc) (*model.Job, error)
}

// TaskError carries the user-facing message for a failed task separately from its cause.
type TaskError struct {
	Message string
	// Payload optionally records partial progress on the failed job.
	Payload any
	Err     error
}

func (e *TaskError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TaskError) Unwrap() error { return e.Err }

// DefaultFailureMessage is shown when a task fails without a user-facing message.
const DefaultFailureMessage = "Job failed due to an internal error."

// FailureMessage extracts the user-facing message for a task error.
func FailureMessage(err error) string {
	var te *TaskError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return DefaultFailureMessage
}

func taskError(err error, message string) error {
	return &TaskError{Message: message, Err: err}
}
