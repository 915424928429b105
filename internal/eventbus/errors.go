// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package eventbus

import "errors"

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// RetryableError marks a transient failure: the message is nacked and
// JetStream redelivers it, subject to MaxDeliver.
type RetryableError struct {
	Message string
	Cause   error
}

// NewRetryableError wraps a transient failure.
func NewRetryableError(message string, cause error) *RetryableError {
	return &RetryableError{Message: message, Cause: cause}
}

func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As.
func (e *RetryableError) Unwrap() error { return e.Cause }

// PermanentError marks a failure retrying cannot fix: malformed JSON,
// a validation failure. Handlers return it so the retry middleware
// hands the message straight to the poison queue.
type PermanentError struct {
	Message string
	Cause   error
}

// NewPermanentError wraps an unretryable failure.
func NewPermanentError(message string, cause error) *PermanentError {
	return &PermanentError{Message: message, Cause: cause}
}

func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As.
func (e *PermanentError) Unwrap() error { return e.Cause }

// IsPermanent reports whether err carries a PermanentError anywhere in
// its chain.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
