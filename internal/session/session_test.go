package session

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	c := NewCounters()

	c.RecordExchange()
	c.RecordExchange()
	c.RecordFile()

	stats := c.Snapshot()
	if stats.ExchangeCount != 2 {
		t.Errorf("ExchangeCount = %d, want 2", stats.ExchangeCount)
	}
	if stats.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", stats.FilesProcessed)
	}
	if stats.Uptime < 0 {
		t.Errorf("negative uptime: %v", stats.Uptime)
	}

	c.Reset()
	stats = c.Snapshot()
	if stats.ExchangeCount != 0 || stats.FilesProcessed != 0 {
		t.Errorf("reset left counts: %+v", stats)
	}
}

func TestCountersConcurrent(t *testing.T) {
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordExchange()
			c.RecordFile()
			c.Refresh()
		}()
	}
	wg.Wait()

	stats := c.Snapshot()
	if stats.ExchangeCount != 50 {
		t.Errorf("ExchangeCount = %d, want 50", stats.ExchangeCount)
	}
	if stats.FilesProcessed != 50 {
		t.Errorf("FilesProcessed = %d, want 50", stats.FilesProcessed)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestStoreSessionLifecycle(t *testing.T) {
	store := newTestStore(t)

	id, err := store.BeginSession(time.Now())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := store.LogOperation(id, "chunk", 9000, 2); err != nil {
		t.Fatalf("log operation: %v", err)
	}
	if err := store.LogOperation(id, "validate", 120, 0); err != nil {
		t.Fatalf("log operation: %v", err)
	}

	ops, err := store.RecentOperations(id, 10)
	if err != nil {
		t.Fatalf("recent operations: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2", len(ops))
	}
	// Newest first.
	if ops[0].Operation != "validate" || ops[1].Operation != "chunk" {
		t.Errorf("unexpected order: %s, %s", ops[0].Operation, ops[1].Operation)
	}
	if ops[1].CharsIn != 9000 || ops[1].ChunksOut != 2 {
		t.Errorf("chunk record = %+v", ops[1])
	}

	if err := store.EndSession(id, Stats{ExchangeCount: 2, FilesProcessed: 1}); err != nil {
		t.Fatalf("end: %v", err)
	}

	history, err := store.History(10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d history entries, want 1", len(history))
	}
	if history[0].EndedAt == nil {
		t.Error("ended session should have EndedAt set")
	}
	if history[0].ExchangeCount != 2 {
		t.Errorf("ExchangeCount = %d, want 2", history[0].ExchangeCount)
	}
}

func TestStoreReset(t *testing.T) {
	store := newTestStore(t)

	id, err := store.BeginSession(time.Now())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.LogOperation(id, "escapeQuotes", 10, 0); err != nil {
		t.Fatalf("log operation: %v", err)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}

	history, err := store.History(10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("got %d history entries after reset, want 0", len(history))
	}
	ops, err := store.RecentOperations(id, 10)
	if err != nil {
		t.Fatalf("recent operations: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("got %d operations after reset, want 0", len(ops))
	}
}

func TestEndUnknownSession(t *testing.T) {
	store := newTestStore(t)
	if err := store.EndSession(12345, Stats{}); err == nil {
		t.Error("expected error for unknown session id")
	}
}
