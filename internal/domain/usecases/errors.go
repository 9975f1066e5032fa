package usecases

import (
	"errors"
	"fmt"
)

// ErrEmptyQuestion rejects requests with a blank question.
var ErrEmptyQuestion = errors.New("question must not be empty")

// ErrNotReady is surfaced while the index is still being built.
var ErrNotReady = errors.New("service is not ready")

// UpstreamError marks a failed call to an external model service (embedding,
// rerank, generation). The HTTP layer maps it to an upstream-failure response;
// anything else becomes an internal error.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
