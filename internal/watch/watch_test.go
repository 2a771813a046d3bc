package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/hmkim/logsift/internal/catalog"
	"github.com/hmkim/logsift/internal/classifier"
	"github.com/hmkim/logsift/internal/pipeline"
)

func newTestWatcher(t *testing.T, sources ...string) (*Watcher, string, string) {
	t.Helper()
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "input.log")
	if err := os.WriteFile(inputPath, nil, 0o644); err != nil {
		t.Fatalf("failed to create input: %v", err)
	}
	outputPath := filepath.Join(dir, "out.logs")

	set := &catalog.ModuleSet{Module: "test"}
	for _, src := range sources {
		set.Patterns = append(set.Patterns, catalog.Pattern{
			Source: src,
			Regexp: regexp.MustCompile(src),
		})
	}

	w := New(Options{
		Module:     "test",
		InputPath:  inputPath,
		OutputPath: outputPath,
		Classifier: classifier.New(set),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	out, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	t.Cleanup(func() { out.Close() })
	w.out = out

	in, err := os.Open(inputPath)
	if err != nil {
		t.Fatalf("failed to open input: %v", err)
	}
	t.Cleanup(func() { in.Close() })
	w.in = in

	return w, inputPath, outputPath
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestConsumeFiltersAppendedLines(t *testing.T) {
	w, inputPath, outputPath := newTestWatcher(t, "INFO")

	appendTo(t, inputPath, "INFO heartbeat\nERROR timeout\n")
	if err := w.consume(); err != nil {
		t.Fatalf("consume() error = %v", err)
	}

	if w.sum.LinesRead != 2 || w.sum.LinesSuppressed != 1 || w.sum.LinesWritten != 1 {
		t.Errorf("Summary = %+v, want read=2 suppressed=1 written=1", w.sum)
	}
	if got := readFile(t, outputPath); got != "ERROR timeout\n" {
		t.Errorf("output = %q, want %q", got, "ERROR timeout\n")
	}
}

func TestConsumeCarriesPartialLine(t *testing.T) {
	w, inputPath, outputPath := newTestWatcher(t, "INFO")

	// First write ends mid-line; the fragment must not be classified yet.
	appendTo(t, inputPath, "ERROR time")
	if err := w.consume(); err != nil {
		t.Fatalf("consume() error = %v", err)
	}
	if w.sum.LinesRead != 0 {
		t.Errorf("LinesRead = %d after partial write, want 0", w.sum.LinesRead)
	}

	appendTo(t, inputPath, "out\nINFO noise\n")
	if err := w.consume(); err != nil {
		t.Fatalf("consume() error = %v", err)
	}

	if w.sum.LinesRead != 2 || w.sum.LinesWritten != 1 {
		t.Errorf("Summary = %+v, want read=2 written=1", w.sum)
	}
	if got := readFile(t, outputPath); got != "ERROR timeout\n" {
		t.Errorf("output = %q, want reassembled %q", got, "ERROR timeout\n")
	}
}

func TestFlushPartialClassifiesTrailingFragment(t *testing.T) {
	w, inputPath, outputPath := newTestWatcher(t, "INFO")

	appendTo(t, inputPath, "ERROR unterminated")
	if err := w.consume(); err != nil {
		t.Fatalf("consume() error = %v", err)
	}
	if err := w.flushPartial(); err != nil {
		t.Fatalf("flushPartial() error = %v", err)
	}

	if w.sum.LinesRead != 1 || w.sum.LinesWritten != 1 {
		t.Errorf("Summary = %+v, want read=1 written=1", w.sum)
	}
	if got := readFile(t, outputPath); got != "ERROR unterminated\n" {
		t.Errorf("output = %q, want %q", got, "ERROR unterminated\n")
	}
}

func newRunWatcher(t *testing.T, followRotate bool, sources ...string) (*Watcher, string, string) {
	t.Helper()
	dir := t.TempDir()

	inputPath := filepath.Join(dir, "input.log")
	if err := os.WriteFile(inputPath, nil, 0o644); err != nil {
		t.Fatalf("failed to create input: %v", err)
	}
	outputPath := filepath.Join(dir, "out.logs")

	set := &catalog.ModuleSet{Module: "test"}
	for _, src := range sources {
		set.Patterns = append(set.Patterns, catalog.Pattern{
			Source: src,
			Regexp: regexp.MustCompile(src),
		})
	}

	w := New(Options{
		Module:       "test",
		InputPath:    inputPath,
		OutputPath:   outputPath,
		FollowRotate: followRotate,
		Classifier:   classifier.New(set),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return w, inputPath, outputPath
}

// startRun runs the watcher in a goroutine and returns its result channel.
func startRun(ctx context.Context, w *Watcher) <-chan struct {
	sum pipeline.Summary
	err error
} {
	done := make(chan struct {
		sum pipeline.Summary
		err error
	}, 1)
	go func() {
		sum, err := w.Run(ctx)
		done <- struct {
			sum pipeline.Summary
			err error
		}{sum, err}
	}()
	return done
}

func TestRunAppendsContentWrittenAfterStart(t *testing.T) {
	w, inputPath, outputPath := newRunWatcher(t, false, "INFO")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRun(ctx, w)

	// Give the watcher time to open the file and register the watch.
	time.Sleep(200 * time.Millisecond)

	appendTo(t, inputPath, "INFO heartbeat\nERROR timeout\n")
	time.Sleep(300 * time.Millisecond)

	// A trailing fragment without a newline is flushed on shutdown.
	appendTo(t, inputPath, "ERROR unterminated")
	time.Sleep(300 * time.Millisecond)

	cancel()

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Run() error = %v", res.err)
		}
		if res.sum.LinesRead != 3 || res.sum.LinesSuppressed != 1 || res.sum.LinesWritten != 2 {
			t.Errorf("Summary = %+v, want read=3 suppressed=1 written=2", res.sum)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop within timeout")
	}

	want := "ERROR timeout\nERROR unterminated\n"
	if got := readFile(t, outputPath); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunFollowRotateFlushesOldFragment(t *testing.T) {
	w, inputPath, outputPath := newRunWatcher(t, true, "^INFO")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRun(ctx, w)

	time.Sleep(200 * time.Millisecond)

	// The old file ends mid-line; the fragment stays pending.
	appendTo(t, inputPath, "ERROR old-frag")
	time.Sleep(300 * time.Millisecond)

	// Rotate: rename away, then a fresh file appears at the same path.
	if err := os.Rename(inputPath, inputPath+".1"); err != nil {
		t.Fatalf("failed to rotate: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if err := os.WriteFile(inputPath, []byte("INFO noise-line\nERROR real\n"), 0o644); err != nil {
		t.Fatalf("failed to recreate input: %v", err)
	}
	time.Sleep(500 * time.Millisecond)

	cancel()

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("Run() error = %v", res.err)
		}
		if res.sum.LinesRead != 3 || res.sum.LinesSuppressed != 1 || res.sum.LinesWritten != 2 {
			t.Errorf("Summary = %+v, want read=3 suppressed=1 written=2", res.sum)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop within timeout")
	}

	// The old fragment must land as its own line and never splice onto the
	// new file's first line, which would break anchored patterns.
	want := "ERROR old-frag\nERROR real\n"
	if got := readFile(t, outputPath); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunMissingInput(t *testing.T) {
	w, inputPath, _ := newRunWatcher(t, false)
	if err := os.Remove(inputPath); err != nil {
		t.Fatalf("failed to remove input: %v", err)
	}

	_, err := w.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want input error")
	}
}

func TestEchoReceivesNovelLinesOnly(t *testing.T) {
	w, inputPath, _ := newTestWatcher(t, "INFO")

	var echoed []string
	w.opts.Echo = func(line string) error {
		echoed = append(echoed, line)
		return nil
	}

	appendTo(t, inputPath, "INFO a\nERROR b\nINFO c\nERROR d\n")
	if err := w.consume(); err != nil {
		t.Fatalf("consume() error = %v", err)
	}

	if len(echoed) != 2 || echoed[0] != "ERROR b" || echoed[1] != "ERROR d" {
		t.Errorf("echoed = %v, want only the novel lines", echoed)
	}
}
