package ratelimit

import (
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	t.Run("burst size selects token bucket", func(t *testing.T) {
		l := NewLimiter(60, 10)
		tb, ok := l.(*TokenBucket)
		if !ok {
			t.Fatalf("NewLimiter(60, 10) = %T, want *TokenBucket", l)
		}
		if tb.capacity != 10 {
			t.Errorf("capacity = %d, want 10", tb.capacity)
		}
		// 10 tokens refilled at 60/min means a full bucket every 10s.
		if tb.refillPeriod != 10*time.Second {
			t.Errorf("refillPeriod = %v, want 10s", tb.refillPeriod)
		}
	})

	t.Run("no burst selects sliding window", func(t *testing.T) {
		l := NewLimiter(120, 0)
		sw, ok := l.(*SlidingWindow)
		if !ok {
			t.Fatalf("NewLimiter(120, 0) = %T, want *SlidingWindow", l)
		}
		if sw.maxRequests != 120 {
			t.Errorf("maxRequests = %d, want 120", sw.maxRequests)
		}
		if sw.windowSize != time.Minute {
			t.Errorf("windowSize = %v, want 1m", sw.windowSize)
		}
	})

	t.Run("non-positive rate falls back to default", func(t *testing.T) {
		l := NewLimiter(0, 0)
		sw, ok := l.(*SlidingWindow)
		if !ok {
			t.Fatalf("NewLimiter(0, 0) = %T, want *SlidingWindow", l)
		}
		if sw.maxRequests != 60 {
			t.Errorf("maxRequests = %d, want default 60", sw.maxRequests)
		}
	})
}

func TestTokenBucket(t *testing.T) {
	t.Run("drains to zero then denies", func(t *testing.T) {
		tb := NewTokenBucket(3, 100*time.Millisecond)

		for i := 0; i < 3; i++ {
			if !tb.Allow() {
				t.Fatalf("request %d denied with tokens remaining", i+1)
			}
		}
		if tb.Allow() {
			t.Error("request allowed on an empty bucket")
		}
	})

	t.Run("refills after the refill period", func(t *testing.T) {
		tb := NewTokenBucket(2, 50*time.Millisecond)
		tb.Allow()
		tb.Allow()

		time.Sleep(60 * time.Millisecond)

		// Refill restores the full bucket, not a single token.
		if !tb.Allow() || !tb.Allow() {
			t.Error("bucket not back to capacity after refill period")
		}
	})

	t.Run("reset restores capacity immediately", func(t *testing.T) {
		tb := NewTokenBucket(2, time.Hour)
		tb.Allow()
		tb.Allow()

		tb.Reset()

		if !tb.Allow() {
			t.Error("request denied right after reset")
		}
	})

	t.Run("wait blocks until a token frees up", func(t *testing.T) {
		tb := NewTokenBucket(1, 40*time.Millisecond)
		tb.Allow()

		start := time.Now()
		tb.Wait()
		elapsed := time.Since(start)

		if elapsed < 20*time.Millisecond {
			t.Errorf("Wait returned after %v, expected to block for the refill", elapsed)
		}
	})
}

func TestSlidingWindow(t *testing.T) {
	t.Run("fills the window then denies", func(t *testing.T) {
		sw := NewSlidingWindow(3, 100*time.Millisecond)

		for i := 0; i < 3; i++ {
			if !sw.Allow() {
				t.Fatalf("request %d denied inside an open window", i+1)
			}
		}
		if sw.Allow() {
			t.Error("request allowed past the window limit")
		}
	})

	t.Run("old requests fall out of the window", func(t *testing.T) {
		sw := NewSlidingWindow(2, 50*time.Millisecond)
		sw.Allow()
		sw.Allow()

		time.Sleep(60 * time.Millisecond)

		if !sw.Allow() {
			t.Error("request denied after earlier requests left the window")
		}
	})

	t.Run("reset clears recorded requests", func(t *testing.T) {
		sw := NewSlidingWindow(1, time.Hour)
		sw.Allow()

		sw.Reset()

		if len(sw.requests) != 0 {
			t.Errorf("requests after reset = %d, want 0", len(sw.requests))
		}
		if !sw.Allow() {
			t.Error("request denied right after reset")
		}
	})
}
