package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	libs := t.TempDir()
	jar := filepath.Join(libs, "a.jar")
	if err := os.WriteFile(jar, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{dir, jar})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "com", "example", "A.class"), true},
		{filepath.Join(dir, "com", "example", "A.java"), false},
		{jar, true},
		{filepath.Join(libs, "b.jar"), false},
		{filepath.Join(libs, "Stray.class"), false},
	}
	for _, tt := range tests {
		if got := w.relevant(tt.path); got != tt.want {
			t.Errorf("relevant(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestHandleEvent_CreatedDirs(t *testing.T) {
	dir := t.TempDir()
	libs := t.TempDir()
	jar := filepath.Join(libs, "a.jar")
	if err := os.WriteFile(jar, []byte("PK"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := New([]string{dir, jar}, WithDebounce(time.Hour))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	tests := []struct {
		name    string
		path    string
		watched bool
	}{
		{"package dir on the classpath", filepath.Join(dir, "com"), true},
		{"dir next to a watched jar", filepath.Join(libs, "unrelated"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.Mkdir(tt.path, 0o755); err != nil {
				t.Fatal(err)
			}
			w.handleEvent(fsnotify.Event{Name: tt.path, Op: fsnotify.Create})

			if got := slices.Contains(w.fsWatcher.WatchList(), tt.path); got != tt.watched {
				t.Errorf("watching %s = %v, want %v", tt.path, got, tt.watched)
			}
			if got := slices.Contains(w.drain(), tt.path); got != tt.watched {
				t.Errorf("queued %s = %v, want %v", tt.path, got, tt.watched)
			}
		})
	}
}

func TestNew_MissingPath(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("New() with missing path should fail")
	}
}

func TestRun_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "com", "example")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	changes := make(chan []string, 4)
	w, err := New([]string{dir},
		WithDebounce(50*time.Millisecond),
		WithOnChange(func(_ context.Context, files []string) { changes <- files }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	a := filepath.Join(sub, "A.class")
	b := filepath.Join(sub, "B.class")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte{0xCA, 0xFE}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(sub, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var seen []string
	deadline := time.After(5 * time.Second)
	for !slices.Contains(seen, a) || !slices.Contains(seen, b) {
		select {
		case files := <-changes:
			seen = append(seen, files...)
		case <-deadline:
			t.Fatalf("timed out, saw %v", seen)
		}
	}
	for _, f := range seen {
		if filepath.Ext(f) != ".class" {
			t.Errorf("unexpected change reported: %s", f)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
}
