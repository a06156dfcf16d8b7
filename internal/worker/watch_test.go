package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReportsWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "a.wvf")
	other := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(watched, []byte("A\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher([]string{watched}, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { changes <- paths })
	}()

	// Unwatched files are ignored; several writes collapse into one call
	_ = os.WriteFile(other, []byte("x"), 0o644)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(watched, []byte("B\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-changes:
		abs, _ := filepath.Abs(watched)
		if len(got) != 1 || got[0] != abs {
			t.Errorf("changes = %v, want [%s]", got, abs)
		}
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	if _, err := NewWatcher([]string{filepath.Join(t.TempDir(), "absent", "a.wvf")}, 0); err == nil {
		t.Error("expected error for missing directory")
	}
}
