package shared

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")
	ErrWorkoutNotFound    = fmt.Errorf("%w: workout", ErrNotFound)
	ErrVideoNotFound      = fmt.Errorf("%w: video", ErrNotFound)
	ErrPostNotFound       = fmt.Errorf("%w: post", ErrNotFound)

	// Device errors
	ErrMediaAccess = fmt.Errorf("media device unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// ErrorKind groups errors by how the client surfaces them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindAuth           // blocking alert, navigation halted
	KindNotFound       // alert, redirect to a safe default
	KindNetwork        // empty state for reads, swallowed for best-effort writes
	KindMedia          // alert with gallery fallback
	KindInput
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindMedia:
		return "media"
	case KindInput:
		return "input"
	default:
		return "unknown"
	}
}

// Classify maps err onto an [ErrorKind].
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshFailed),
		errors.Is(err, ErrNoRefreshToken), errors.Is(err, ErrInvalidCredentials):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAPIRequest), errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	case errors.Is(err, ErrMediaAccess):
		return KindMedia
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingArgument),
		errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInvalidFlag):
		return KindInput
	default:
		return KindUnknown
	}
}
