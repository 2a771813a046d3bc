// Package watch follows a growing log file and appends novel lines to the
// run's output file as they arrive.
//
// It implements "tail -f" like following for a single input file: content
// appended after the watcher starts is classified line by line, noise is
// dropped, and novel lines are appended to the output. Content already in
// the file at start is left to a regular filter run.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hmkim/logsift/internal/pipeline"
)

// Options configures the watcher behavior.
type Options struct {
	Module       string
	InputPath    string
	OutputPath   string
	FollowRotate bool                    // keep following when the file is renamed/removed
	Classifier   pipeline.Classifier     // noise decision per line
	Echo         func(line string) error // optional, called for each novel line
	Logger       *slog.Logger
}

// Watcher follows one input file and filters appended content live.
type Watcher struct {
	opts    Options
	logger  *slog.Logger
	in      *os.File
	out     *os.File
	offset  int64
	partial []byte
	fsw     *fsnotify.Watcher
	sum     pipeline.Summary
}

// New creates a Watcher with the given options.
func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{opts: opts, logger: logger}
}

// Run starts watching. It blocks until the context is cancelled or an
// error occurs, and returns the cumulative summary either way. A partial
// final line pending at cancellation is classified and flushed.
func (w *Watcher) Run(ctx context.Context) (pipeline.Summary, error) {
	if err := os.MkdirAll(filepath.Dir(w.opts.OutputPath), 0o755); err != nil {
		return w.sum, &pipeline.OutputError{Path: w.opts.OutputPath, Err: err}
	}

	out, err := os.OpenFile(w.opts.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return w.sum, &pipeline.OutputError{Path: w.opts.OutputPath, Err: err}
	}
	w.out = out
	defer w.close()

	if err := w.openInput(); err != nil {
		return w.sum, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return w.sum, err
	}
	w.fsw = fsw

	if err := fsw.Add(w.opts.InputPath); err != nil {
		return w.sum, &pipeline.InputError{Path: w.opts.InputPath, Err: err}
	}

	// Content may have arrived between open and watch setup.
	if err := w.consume(); err != nil {
		return w.sum, err
	}

	err = w.loop(ctx)
	if flushErr := w.flushPartial(); err == nil {
		err = flushErr
	}
	return w.sum, err
}

// openInput opens the input file and positions the offset at its end.
func (w *Watcher) openInput() error {
	f, err := os.Open(w.opts.InputPath)
	if err != nil {
		return &pipeline.InputError{Path: w.opts.InputPath, Err: err}
	}
	w.in = f

	stat, err := f.Stat()
	if err != nil {
		return &pipeline.InputError{Path: w.opts.InputPath, Err: err}
	}
	w.offset = stat.Size()
	return nil
}

// loop dispatches file system events until the context is cancelled.
func (w *Watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}
			if err := w.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a single file system event.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) error {
	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		return w.consume()

	case event.Op&fsnotify.Remove == fsnotify.Remove || event.Op&fsnotify.Rename == fsnotify.Rename:
		return w.handleRotation(ctx)
	}

	return nil
}

// consume reads everything appended since the last offset, carries any
// trailing partial line, and filters the complete lines.
func (w *Watcher) consume() error {
	if _, err := w.in.Seek(w.offset, io.SeekStart); err != nil {
		return &pipeline.InputError{Path: w.opts.InputPath, Err: err}
	}

	data, err := io.ReadAll(w.in)
	if err != nil {
		return &pipeline.InputError{Path: w.opts.InputPath, Err: err}
	}
	w.offset += int64(len(data))

	buf := append(w.partial, data...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		line := string(buf[:i])
		buf = buf[i+1:]
		if err := w.handle(line); err != nil {
			return err
		}
	}
	w.partial = append([]byte(nil), buf...)

	return nil
}

// handle classifies one complete line and appends it if novel.
func (w *Watcher) handle(line string) error {
	w.sum.LinesRead++

	if pattern, ok := w.opts.Classifier.Match(line); ok {
		w.sum.LinesSuppressed++
		w.logger.Debug("suppressed line",
			"module", w.opts.Module,
			"pattern", pattern,
			"line", w.sum.LinesRead)
		return nil
	}

	if _, err := w.out.WriteString(line + "\n"); err != nil {
		return &pipeline.OutputError{Path: w.opts.OutputPath, Err: err}
	}
	w.sum.LinesWritten++

	if w.opts.Echo != nil {
		return w.opts.Echo(line)
	}
	return nil
}

// flushPartial processes a pending unterminated final line.
func (w *Watcher) flushPartial() error {
	if len(w.partial) == 0 {
		return nil
	}
	line := string(w.partial)
	w.partial = nil
	return w.handle(line)
}

// handleRotation reopens the input after it was renamed or removed.
func (w *Watcher) handleRotation(ctx context.Context) error {
	if !w.opts.FollowRotate {
		return fmt.Errorf("input file rotated: %s", w.opts.InputPath)
	}

	if w.in != nil {
		w.in.Close()
		w.in = nil
	}

	// A pending fragment was the old file's final, unterminated line.
	// Flush it now so it cannot splice onto the new file's first line.
	if err := w.flushPartial(); err != nil {
		return err
	}

	timeout := time.After(10 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file to reappear: %s", w.opts.InputPath)
		case <-ticker.C:
			f, err := os.Open(w.opts.InputPath)
			if err != nil {
				continue
			}
			w.in = f
			w.offset = 0

			if err := w.fsw.Add(w.opts.InputPath); err != nil {
				return &pipeline.InputError{Path: w.opts.InputPath, Err: err}
			}

			w.logger.Info("input rotated, following new file", "path", w.opts.InputPath)
			return w.consume()
		}
	}
}

// close releases all resources.
func (w *Watcher) close() {
	if w.in != nil {
		w.in.Close()
	}
	if w.out != nil {
		w.out.Close()
	}
	if w.fsw != nil {
		w.fsw.Close()
	}
}
