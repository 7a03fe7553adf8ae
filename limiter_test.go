package memorial

import (
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLoginLimiterBlocksAfterMax(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewLoginLimiter(2, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.10"

	for i := 0; i < 2; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("attempt %d: expected to be allowed", i+1)
		}
		limiter.Record(ip)
	}
	if limiter.Check(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestLoginLimiterResetsAfterWindow(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewLoginLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Check(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestLoginLimiterIsPerIP(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewLoginLimiter(1, time.Minute)
	defer limiter.Stop()

	limiter.Record("203.0.113.30")
	if !limiter.Check("203.0.113.31") {
		t.Fatalf("expected second IP to be allowed")
	}
	if limiter.Check("203.0.113.30") {
		t.Fatalf("expected first IP to be blocked on retry")
	}
}

func TestLoginLimiterCheckDoesNotConsume(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewLoginLimiter(2, time.Minute)
	defer limiter.Stop()
	ip := "203.0.113.40"

	for i := 0; i < 5; i++ {
		if !limiter.Check(ip) {
			t.Fatalf("check %d: expected to be allowed", i)
		}
	}
	limiter.Record(ip)
	if !limiter.Check(ip) {
		t.Fatalf("expected one remaining attempt")
	}
	limiter.Record(ip)
	if limiter.Check(ip) {
		t.Fatalf("expected to be blocked after two failures")
	}
}

func TestLoginLimiterCleanup(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	limiter := NewLoginLimiter(1, 50*time.Millisecond)
	limiter.Record("203.0.113.50")

	deadline := time.Now().Add(2 * time.Second)
	for {
		limiter.mu.Lock()
		n := len(limiter.clients)
		limiter.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected idle client to be evicted")
		}
		time.Sleep(10 * time.Millisecond)
	}

	limiter.Stop()
	limiter.Stop()
}
