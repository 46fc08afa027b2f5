// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCanceled
	ErrTypeBackend
	ErrTypeInvalidResponse
)

// String returns a short name for logs.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeBackend:
		return "backend"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the API client.
// For backend errors Message is the server-supplied reason.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match any error against the bare sentinels below,
// which carry only a Type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == "" && t.StatusCode == 0
}

// Sentinel errors for easy checking.
var (
	ErrConnection = &ClientError{Type: ErrTypeConnection}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout}
	ErrCanceled   = &ClientError{Type: ErrTypeCanceled}
	ErrBackend    = &ClientError{Type: ErrTypeBackend}
)

// FallbackReason is used when a failed response carries no reason.
const FallbackReason = "Backend unavailable"

func typeOf(err error) ErrorType {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeUnknown
}

// IsConnection reports whether err means the backend was unreachable.
func IsConnection(err error) bool { return typeOf(err) == ErrTypeConnection }

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool { return typeOf(err) == ErrTypeTimeout }

// IsCanceled reports whether the request was canceled by its caller.
func IsCanceled(err error) bool { return typeOf(err) == ErrTypeCanceled }

// IsBackend reports whether the backend answered with a non-success status.
func IsBackend(err error) bool { return typeOf(err) == ErrTypeBackend }

// Reason returns the human-readable reason carried by err.
func Reason(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
