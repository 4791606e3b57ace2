package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"codevault/internal/testutil"
)

type recorder struct {
	mu    sync.Mutex
	saves []string
	err   error
}

func (r *recorder) save(_ context.Context, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saves = append(r.saves, content)
	return nil
}

func (r *recorder) Saves() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.saves...)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func startWatcher(t *testing.T, path string, debounce time.Duration, save SaveFunc) (*Watcher, context.CancelFunc, <-chan error) {
	t.Helper()
	w, err := New(path, debounce, save, testutil.NewRecordingLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return w, cancel, done
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}

	t.Run("missing file", func(t *testing.T) {
		if _, err := New(filepath.Join(dir, "nope.txt"), 0, rec.save, nil); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("nil save", func(t *testing.T) {
		path := filepath.Join(dir, "a.txt")
		writeFile(t, path, "")
		if _, err := New(path, 0, nil, nil); err == nil {
			t.Error("expected error for nil save func")
		}
	})
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	writeFile(t, path, "v0")

	rec := &recorder{}
	_, cancel, done := startWatcher(t, path, 100*time.Millisecond, rec.save)

	for _, v := range []string{"v1", "v2", "v3"} {
		writeFile(t, path, v)
		time.Sleep(10 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool { return len(rec.Saves()) > 0 })
	time.Sleep(200 * time.Millisecond)

	saves := rec.Saves()
	if len(saves) != 1 {
		t.Fatalf("saves = %v, want exactly one", saves)
	}
	if saves[0] != "v3" {
		t.Errorf("saved %q, want %q", saves[0], "v3")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_IgnoresOtherFilesAndUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	writeFile(t, path, "same")

	rec := &recorder{}
	_, cancel, done := startWatcher(t, path, 30*time.Millisecond, rec.save)
	defer func() {
		cancel()
		<-done
	}()

	writeFile(t, filepath.Join(dir, "other.py"), "x")
	writeFile(t, path, "same")
	time.Sleep(200 * time.Millisecond)

	if saves := rec.Saves(); len(saves) != 0 {
		t.Errorf("saves = %v, want none", saves)
	}
}

func TestWatcher_RetriesAfterSaveError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	writeFile(t, path, "v0")

	rec := &recorder{err: errors.New("offline")}
	_, cancel, done := startWatcher(t, path, 30*time.Millisecond, rec.save)
	defer func() {
		cancel()
		<-done
	}()

	writeFile(t, path, "v1")
	time.Sleep(150 * time.Millisecond)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	// a later touch with the same body is still saved since the failed save
	// never recorded it
	writeFile(t, path, "v1")
	waitFor(t, 2*time.Second, func() bool { return len(rec.Saves()) == 1 })
	if got := rec.Saves()[0]; got != "v1" {
		t.Errorf("saved %q, want v1", got)
	}
}

func TestWatcher_FlushesPendingOnCancel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	writeFile(t, path, "v0")

	rec := &recorder{}
	_, cancel, done := startWatcher(t, path, time.Hour, rec.save)

	writeFile(t, path, "final")
	time.Sleep(100 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	saves := rec.Saves()
	if len(saves) != 1 || saves[0] != "final" {
		t.Errorf("saves = %v, want [final]", saves)
	}
}
