package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d within burst should be allowed", i+1)
		}
	}

	if limiter.Allow() {
		t.Error("request beyond burst should be rejected")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	limiter := NewRateLimiter(0.1, 1) // 1 токен в 10 секунд
	if !limiter.Allow() {
		t.Fatal("first token should be available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	if err == nil {
		t.Error("expected context deadline error")
	}
}

func TestRefillOverTime(t *testing.T) {
	limiter := NewRateLimiter(100, 1)
	if !limiter.Allow() {
		t.Fatal("first token should be available")
	}
	if limiter.Allow() {
		t.Fatal("bucket should be empty")
	}

	// 100 req/sec → токен появится через ~10ms
	time.Sleep(30 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("token should have been refilled")
	}
}

func TestDefaultsApplied(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	if limiter.rate != 10 {
		t.Errorf("expected default rate 10, got %v", limiter.rate)
	}
	if limiter.burst != 20 {
		t.Errorf("expected default burst 20, got %v", limiter.burst)
	}
}
