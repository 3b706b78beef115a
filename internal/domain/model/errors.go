package model

import "fmt"

// ParseError reports a stream that cannot be read as a table at all.
// It aborts the enclosing job; individual bad lines never produce it.
type ParseError struct {
	Format string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError reports a ledger write failure part way through a commit.
// Rows before Processed were written and stay written.
type PersistenceError struct {
	Processed int
	Line      int
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist row at line %d after %d processed: %v", e.Line, e.Processed, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
