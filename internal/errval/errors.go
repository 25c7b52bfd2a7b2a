package errval

import (
	"errors"
)

var (
	ErrInternal         = errors.New("internal server error")
	ErrNotFound         = errors.New("not found")
	ErrStatusConflict   = errors.New("task status conflict")
	ErrEnqueueFailed    = errors.New("failed to enqueue task job")
	ErrNoProvider       = errors.New("no provider available")
	ErrProviderNotFound = errors.New("AI provider not available")
)
