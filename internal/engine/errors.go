package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when another batch holds the processor past the access timeout.
	ErrBusy = errors.New("processor is busy with another batch")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("processor is closed")
	// ErrResolutionTimeout marks a dependency resolution that outlived its deadline.
	ErrResolutionTimeout = errors.New("dependency resolution timed out")
)

const (
	OpTransitive = "process transitive"
	OpExplicit   = "process explicit"
	OpResolve    = "resolve dependencies"
	OpBatch      = "evaluate batch"
)

// ProcessingError reports an infrastructure failure: the batch could not be run at
// all, or the caller was interrupted while waiting for it. Per-issue failures never
// surface as a ProcessingError; they only shrink the result.
type ProcessingError struct {
	Op      string
	Subject string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("processor execution failed: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("processor execution failed: %s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// TaskError is the failure of one evaluation task. Evaluator is empty when the task
// failed outside of any evaluator.
type TaskError struct {
	Issue     string
	Evaluator string
	Err       error
}

func (e *TaskError) Error() string {
	if e.Evaluator == "" {
		return fmt.Sprintf("evaluate %s: %v", e.Issue, e.Err)
	}
	return fmt.Sprintf("evaluate %s: evaluator %s: %v", e.Issue, e.Evaluator, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }
