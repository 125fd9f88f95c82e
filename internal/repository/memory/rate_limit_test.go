package memory

import (
	"context"
	"testing"
	"time"
)

func TestRateLimitStore_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	store := NewRateLimitStore(0)
	base := time.Now()

	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := store.RecordAttempt(ctx, "otp:user@example.com", at, 15*time.Minute); err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
	}

	count, err := store.CountAttempts(ctx, "otp:user@example.com")
	if err != nil {
		t.Fatalf("CountAttempts() error = %v", err)
	}
	if count != 3 {
		t.Errorf("CountAttempts() = %d, want 3", count)
	}

	// Slide the window past the first attempt.
	if err := store.TrimWindow(ctx, "otp:user@example.com", base.Add(30*time.Second)); err != nil {
		t.Fatalf("TrimWindow() error = %v", err)
	}
	count, err = store.CountAttempts(ctx, "otp:user@example.com")
	if err != nil {
		t.Fatalf("CountAttempts() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountAttempts() after trim = %d, want 2", count)
	}

	oldest, err := store.OldestAttempt(ctx, "otp:user@example.com")
	if err != nil {
		t.Fatalf("OldestAttempt() error = %v", err)
	}
	if !oldest.Equal(base.Add(time.Minute)) {
		t.Errorf("OldestAttempt() = %v, want %v", oldest, base.Add(time.Minute))
	}
}

func TestRateLimitStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewRateLimitStore(0)

	if err := store.RecordAttempt(ctx, "key", time.Now(), time.Minute); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if err := store.Clear(ctx, "key"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	count, err := store.CountAttempts(ctx, "key")
	if err != nil {
		t.Fatalf("CountAttempts() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountAttempts() after Clear() = %d, want 0", count)
	}
}

func TestRateLimitStore_OldestOnEmptyBucket(t *testing.T) {
	ctx := context.Background()
	store := NewRateLimitStore(0)

	oldest, err := store.OldestAttempt(ctx, "missing")
	if err != nil {
		t.Fatalf("OldestAttempt() error = %v", err)
	}
	if !oldest.IsZero() {
		t.Errorf("OldestAttempt() on empty bucket = %v, want zero time", oldest)
	}
}

func TestLoginAttemptStore_WindowedCount(t *testing.T) {
	ctx := context.Background()
	store := NewLoginAttemptStore(15*time.Minute, 0)
	base := time.Now()

	for i := 0; i < 5; i++ {
		if _, err := store.RecordFailure(ctx, "user@example.com", "10.0.0.1", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordFailure() error = %v", err)
		}
	}

	count, err := store.FailureCount(ctx, "user@example.com", "10.0.0.1", base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("FailureCount() error = %v", err)
	}
	if count != 3 {
		t.Errorf("FailureCount() = %d, want 3", count)
	}

	// A different IP keeps its own counter.
	count, err = store.FailureCount(ctx, "user@example.com", "10.0.0.2", base)
	if err != nil {
		t.Fatalf("FailureCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("FailureCount() for other IP = %d, want 0", count)
	}
}

func TestLoginAttemptStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewLoginAttemptStore(15*time.Minute, 0)
	base := time.Now()

	if _, err := store.RecordFailure(ctx, "user@example.com", "10.0.0.1", base); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	if err := store.Reset(ctx, "user@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	count, err := store.FailureCount(ctx, "user@example.com", "10.0.0.1", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("FailureCount() error = %v", err)
	}
	if count != 0 {
		t.Errorf("FailureCount() after Reset() = %d, want 0", count)
	}
}

func TestRateLimitStore_SweeperDropsAgedBuckets(t *testing.T) {
	ctx := context.Background()
	store := NewRateLimitStore(10 * time.Millisecond)
	defer store.Close()

	// A bucket whose window lapsed a minute ago and one that is current.
	if err := store.RecordAttempt(ctx, "stale", time.Now().Add(-2*time.Minute), time.Minute); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if err := store.RecordAttempt(ctx, "fresh", time.Now(), time.Hour); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		store.mu.Lock()
		_, staleLeft := store.buckets["stale"]
		_, freshLeft := store.buckets["fresh"]
		store.mu.Unlock()
		if !staleLeft && freshLeft {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale=%v fresh=%v, sweeper did not drop the aged bucket", staleLeft, freshLeft)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoginAttemptStore_SweeperPurgesOldFailures(t *testing.T) {
	ctx := context.Background()
	store := NewLoginAttemptStore(time.Minute, 10*time.Millisecond)
	defer store.Close()

	if _, err := store.RecordFailure(ctx, "user@example.com", "10.0.0.1", time.Now().Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for {
		store.mu.Lock()
		n := len(store.buckets)
		store.mu.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%d buckets left, sweeper did not purge old failures", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
