// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Size   int    `validate:"min=1,max=50"`
	Status string `validate:"omitempty,oneof=COMPLETED SKIPPED"`
	URL    string `validate:"omitempty,url"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Size: 10, Status: "COMPLETED"}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("valid struct should pass: %v", err)
	}
}

func TestValidateStructReportsEveryField(t *testing.T) {
	t.Parallel()

	req := sampleRequest{Size: 0, Status: "PAUSED", URL: "not a url"}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var se *StructError
	ok := false
	if se, ok = err.(*StructError); !ok {
		t.Fatalf("error type = %T, want *StructError", err)
	}
	if len(se.Fields()) != 3 {
		t.Errorf("field errors = %d, want 3", len(se.Fields()))
	}
	if !strings.Contains(se.Error(), "Size must be at least 1") {
		t.Errorf("message missing min translation: %q", se.Error())
	}
	if !strings.Contains(se.Error(), "Status must be one of") {
		t.Errorf("message missing oneof translation: %q", se.Error())
	}
}

func TestValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
