package billing

import (
	"fmt"

	"github.com/google/uuid"
)

// RunLevelError aborts an entire billing cycle run. Only calendar bootstrap
// and admin directory resolution failures belong to this class; everything
// else is isolated per record.
type RunLevelError struct {
	Stage string
	Err   error
}

// Error implements the error interface
func (e *RunLevelError) Error() string {
	return fmt.Sprintf("billing run aborted at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error
func (e *RunLevelError) Unwrap() error {
	return e.Err
}

// RecordProcessingError wraps a failure while handling one billing record.
// It is caught by the run loop, logged with the record id, and never aborts
// the run.
type RecordProcessingError struct {
	RecordID uuid.UUID
	Err      error
}

// Error implements the error interface
func (e *RecordProcessingError) Error() string {
	return fmt.Sprintf("record %s: %v", e.RecordID, e.Err)
}

// Unwrap returns the underlying error
func (e *RecordProcessingError) Unwrap() error {
	return e.Err
}
