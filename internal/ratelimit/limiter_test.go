package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWindowKeyStableWithinWindow(t *testing.T) {
	userID := uuid.New()
	window := 10 * time.Minute
	base := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	k1 := windowKey("extract", userID, base, window)
	k2 := windowKey("extract", userID, base.Add(9*time.Minute+59*time.Second), window)
	if k1 != k2 {
		t.Fatalf("keys differ within one window: %q vs %q", k1, k2)
	}

	k3 := windowKey("extract", userID, base.Add(10*time.Minute), window)
	if k1 == k3 {
		t.Fatalf("key did not roll over to the next window: %q", k3)
	}
}

func TestWindowKeySeparatesScopesAndUsers(t *testing.T) {
	now := time.Now()
	window := 10 * time.Minute
	a, b := uuid.New(), uuid.New()

	if windowKey("extract", a, now, window) == windowKey("transcribe", a, now, window) {
		t.Fatal("scopes must not share a budget")
	}
	if windowKey("extract", a, now, window) == windowKey("extract", b, now, window) {
		t.Fatal("users must not share a budget")
	}
}

func TestAllowWithoutBackendFailsOpen(t *testing.T) {
	l := NewLimiter(nil, 10, time.Minute, nil)
	if err := l.Allow(context.Background(), "extract", uuid.New()); err != nil {
		t.Fatalf("nil backend must fail open, got %v", err)
	}
}

func TestAllowDisabledWhenNoBudget(t *testing.T) {
	l := NewLimiter(nil, 0, time.Minute, nil)
	if err := l.Allow(context.Background(), "extract", uuid.New()); err != nil {
		t.Fatalf("zero budget disables the limiter, got %v", err)
	}
}
