package corpus

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_FlagsStaleOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all_content.json")
	if err := os.WriteFile(path, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	var calls int
	var mu sync.Mutex
	w := NewWatcher(path, func(string) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if w.Stale() {
		t.Fatal("watcher should not start stale")
	}
	if err := os.WriteFile(path, []byte(`[{"url":"u"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(700 * time.Millisecond)

	if !w.Stale() {
		t.Error("expected stale after corpus write")
	}
	mu.Lock()
	defer mu.Unlock()
	if calls < 1 {
		t.Errorf("expected at least one stale callback, got %d", calls)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all_content.json")
	if err := os.WriteFile(path, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(700 * time.Millisecond)

	if w.Stale() {
		t.Error("sibling file change should not mark corpus stale")
	}
}

func TestWatcher_StaleOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "all_content.json")
	if err := os.WriteFile(path, []byte("[]"), 0600); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, "all_content.json.tmp")
	if err := os.WriteFile(tmp, []byte(`[{"url":"u"}]`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(700 * time.Millisecond)

	if !w.Stale() {
		t.Error("expected stale after atomic replace")
	}
}
