// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/marquee/internal/models"
)

// Failure kinds. Every error returned by an adapter matches exactly one of
// these with errors.Is.
var (
	ErrInvalidArgument           = errors.New("invalid argument")
	ErrUpstreamRateLimited       = errors.New("upstream rate limited")
	ErrUpstreamAuthFailed        = errors.New("upstream authentication failed")
	ErrUpstreamUnavailable       = errors.New("upstream unavailable")
	ErrUpstreamMalformedResponse = errors.New("upstream malformed response")
)

// ErrCircuitOpen marks calls refused by a source's circuit breaker. It is
// classified as ErrUpstreamUnavailable but never retried.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Error is a typed adapter failure.
type Error struct {
	Source models.SourceID
	Op     Operation
	// Kind is one of the Err* sentinels above.
	Kind error
	// Status is the upstream HTTP status, or 0 when no response was received.
	Status int
	// PayloadHash identifies an unparseable payload (first 16 bytes of its
	// SHA-256, hex encoded). The payload itself is never retained.
	PayloadHash string
	Err         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds a typed failure.
func NewError(source models.SourceID, op Operation, kind error, err error) *Error {
	return &Error{Source: source, Op: op, Kind: kind, Err: err}
}

// InvalidArgument reports bad caller input.
func InvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// KindForStatus maps an upstream HTTP status to a failure kind. Statuses
// below 400 return nil.
func KindForStatus(status int) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUpstreamAuthFailed
	case status == http.StatusTooManyRequests:
		return ErrUpstreamRateLimited
	default:
		// 5xx and the remaining 4xx; the latter are marked non-transient by IsRetryable.
		return ErrUpstreamUnavailable
	}
}

var kinds = []error{
	ErrInvalidArgument,
	ErrUpstreamRateLimited,
	ErrUpstreamAuthFailed,
	ErrUpstreamMalformedResponse,
	ErrUpstreamUnavailable,
}

// KindOf classifies any error into one of the failure kinds. Context
// expiry and unknown errors count as ErrUpstreamUnavailable. A nil error
// returns nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrUpstreamUnavailable
}

// KindName returns a stable label for a failure kind, used in logs and metrics.
func KindName(err error) string {
	switch KindOf(err) {
	case nil:
		return "none"
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrUpstreamRateLimited:
		return "rate_limited"
	case ErrUpstreamAuthFailed:
		return "auth_failed"
	case ErrUpstreamMalformedResponse:
		return "malformed"
	default:
		if errors.Is(err, ErrCircuitOpen) {
			return "circuit_open"
		}
		return "unavailable"
	}
}

// IsRetryable reports whether err is a transient transport failure worth one
// retry: ErrUpstreamUnavailable from a 5xx, a transport error or a timeout.
// Auth, rate-limit, malformed, caller-cancelled, circuit-open and non-transient
// 4xx failures are not retryable.
func IsRetryable(err error) bool {
	if KindOf(err) != ErrUpstreamUnavailable {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *Error
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
		return false
	}
	return true
}
