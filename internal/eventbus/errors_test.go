// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package eventbus

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewRetryableError("publish event", cause)

	if !errors.Is(err, cause) {
		t.Error("RetryableError should unwrap to its cause")
	}
	if got := err.Error(); got != "publish event: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRetryableError_NoCause(t *testing.T) {
	t.Parallel()

	err := NewRetryableError("transient failure", nil)
	if got := err.Error(); got != "transient failure" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"retryable", NewRetryableError("busy", nil), false},
		{"permanent", NewPermanentError("bad payload", nil), true},
		{"wrapped permanent", fmt.Errorf("handle: %w", NewPermanentError("bad payload", nil)), true},
		{"permanent wrapping retryable", NewPermanentError("gave up", NewRetryableError("busy", nil)), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
