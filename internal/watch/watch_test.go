package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewRejectsBadArgs(t *testing.T) {
	if _, err := New(nil, time.Second, func(string) {}); err == nil {
		t.Error("expected error for empty paths")
	}
	if _, err := New([]string{t.TempDir()}, time.Second, nil); err == nil {
		t.Error("expected error for nil handler")
	}
	if _, err := New([]string{"/does/not/exist"}, time.Second, func(string) {}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestBurstCollapsesToOneCallback(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.txt")

	var mu sync.Mutex
	calls := 0
	changed := make(chan string, 8)

	w, err := New([]string{dir}, 50*time.Millisecond, func(path string) {
		mu.Lock()
		calls++
		mu.Unlock()
		changed <- path
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Editor-style burst: several writes in quick succession.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(file, []byte("draft"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case path := <-changed:
		if path != file {
			t.Errorf("path = %q, want %q", path, file)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	// The quiet period has passed; no further callbacks should arrive.
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, err := New([]string{t.TempDir()}, 50*time.Millisecond, func(string) {})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
