// Package pipeline runs a single filter pass over one log file.
//
// A run reads the input sequentially, drops lines the classifier marks as
// noise, and appends the rest to the output file in original order. Output
// is strictly append-only: existing content is never truncated or
// reordered, and repeated runs accumulate without deduplication.
package pipeline

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Classifier is the line-classification contract consumed by the pipeline.
type Classifier interface {
	// Match reports whether line is known noise, and which pattern matched.
	Match(line string) (pattern string, ok bool)
}

// Run holds the resolved, immutable parameters of one filter invocation.
type Run struct {
	Module      string
	InputPath   string
	OutputPath  string
	PatternPath string
	Classifier  Classifier
}

// Summary reports what one run did.
type Summary struct {
	LinesRead       int `json:"lines_read"`
	LinesSuppressed int `json:"lines_suppressed"`
	LinesWritten    int `json:"lines_written"`
}

// InputError reports an input file that could not be opened or read.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// OutputError reports an output directory or file that could not be
// created or written.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// maxLineSize bounds a single log line (generous for JSON logs).
const maxLineSize = 1024 * 1024

// Execute filters run.InputPath through run.Classifier, appending novel
// lines to run.OutputPath. Missing output directories are created. A final
// line without a trailing newline is still processed; every written line is
// newline-terminated. Suppressed lines are logged at debug level with the
// pattern that matched.
//
// A write failure mid-run leaves already-appended lines in place; there is
// no rollback and no retry.
func Execute(run Run, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sum Summary

	if err := os.MkdirAll(filepath.Dir(run.OutputPath), 0o755); err != nil {
		return sum, &OutputError{Path: run.OutputPath, Err: err}
	}

	in, err := os.Open(run.InputPath)
	if err != nil {
		return sum, &InputError{Path: run.InputPath, Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(run.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return sum, &OutputError{Path: run.OutputPath, Err: err}
	}
	defer out.Close()

	w := bufio.NewWriter(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		sum.LinesRead++

		if pattern, ok := run.Classifier.Match(line); ok {
			sum.LinesSuppressed++
			logger.Debug("suppressed line",
				"module", run.Module,
				"pattern", pattern,
				"line", sum.LinesRead)
			continue
		}

		if _, err := w.WriteString(line + "\n"); err != nil {
			return sum, &OutputError{Path: run.OutputPath, Err: err}
		}
		sum.LinesWritten++
	}

	if err := scanner.Err(); err != nil {
		return sum, &InputError{Path: run.InputPath, Err: err}
	}

	if err := w.Flush(); err != nil {
		return sum, &OutputError{Path: run.OutputPath, Err: err}
	}

	logger.Info("filter run complete",
		"module", run.Module,
		"read", sum.LinesRead,
		"suppressed", sum.LinesSuppressed,
		"written", sum.LinesWritten)

	return sum, nil
}
