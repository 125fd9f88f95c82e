package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newVerifiedStore(t *testing.T, path string) *VerifiedEmailStore {
	t.Helper()
	store, err := NewVerifiedEmailStore(path, 2*time.Hour, 0, nil)
	if err != nil {
		t.Fatalf("NewVerifiedEmailStore() error = %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func TestVerifiedEmailStore_MarkAndConsume(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "verified_emails.json")
	store := newVerifiedStore(t, path)

	if err := store.Mark(ctx, "user@example.com", time.Now()); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	ok, err := store.IsVerified(ctx, "USER@example.com")
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if !ok {
		t.Fatal("IsVerified() = false after Mark()")
	}

	if err := store.Consume(ctx, "user@example.com"); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}

	ok, err = store.IsVerified(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if ok {
		t.Error("IsVerified() = true after Consume()")
	}
}

func TestVerifiedEmailStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "verified_emails.json")

	first := newVerifiedStore(t, path)
	if err := first.Mark(ctx, "user@example.com", time.Now()); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}
	first.Close()

	second := newVerifiedStore(t, path)
	ok, err := second.IsVerified(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if !ok {
		t.Error("mark did not survive a restart")
	}
}

func TestVerifiedEmailStore_RetentionExpiry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "verified_emails.json")
	store := newVerifiedStore(t, path)

	base := time.Now()
	store.WithClock(func() time.Time { return base })

	if err := store.Mark(ctx, "user@example.com", base); err != nil {
		t.Fatalf("Mark() error = %v", err)
	}

	store.WithClock(func() time.Time { return base.Add(3 * time.Hour) })

	ok, err := store.IsVerified(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if ok {
		t.Error("IsVerified() = true past the retention window")
	}
}

func TestVerifiedEmailStore_MalformedFileIgnored(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "verified_emails.json")

	writeFile(t, path, "{not json")

	store := newVerifiedStore(t, path)
	ok, err := store.IsVerified(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("IsVerified() error = %v", err)
	}
	if ok {
		t.Error("IsVerified() = true from malformed file")
	}
}
