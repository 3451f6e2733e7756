package scan

import "errors"

// Error classes for the scan lifecycle. Each phase failure wraps one of
// these so callers can branch on the phase that broke without parsing
// messages.
var (
	// ErrValidation marks a malformed scan rejected before any hardware
	// interaction.
	ErrValidation = errors.New("scanflow: validation failed")
	// ErrSetup marks a failure in pre-scan or detector/trigger setup.
	// Teardown runs first unless pre-scan itself was the failure.
	ErrSetup = errors.New("scanflow: setup failed")
	// ErrExecution marks a failure reported by the execution engine; no
	// dataset is recorded for the run.
	ErrExecution = errors.New("scanflow: execution failed")
	// ErrTeardown marks a post-scan failure. A dataset captured before
	// teardown began is retained alongside the error.
	ErrTeardown = errors.New("scanflow: teardown failed")
)
