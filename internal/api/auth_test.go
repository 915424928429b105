// Auditus - Listening Session Analytics and Taste-Based Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditus

package api

import (
	"testing"
	"time"
)

func TestNewJWTManager_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTManager("too-short", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()

	manager, err := NewJWTManager(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := manager.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	t.Parallel()

	manager, err := NewJWTManager(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	manager.timeout = -time.Minute

	token, err := manager.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewJWTManager(testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	verifier, err := NewJWTManager("ffffffffffffffffffffffffffffffff", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	token, err := issuer.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}
