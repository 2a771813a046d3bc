// Package output renders run summaries, module listings, and catalog check
// results. It supports text, JSON, and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hmkim/logsift/internal/pipeline"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RunReport combines a run summary with its identifying context.
type RunReport struct {
	Module  string           `json:"module"`
	Output  string           `json:"output"`
	Summary pipeline.Summary `json:"summary"`
}

// WriteSummary outputs the result of one filter run.
func (wr *Writer) WriteSummary(report RunReport) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(report)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODULE\tREAD\tSUPPRESSED\tWRITTEN\tOUTPUT")
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n",
			report.Module,
			report.Summary.LinesRead,
			report.Summary.LinesSuppressed,
			report.Summary.LinesWritten,
			report.Output)
		return tw.Flush()
	default:
		fmt.Fprintf(wr.w, "Module: %s\n", report.Module)
		fmt.Fprintf(wr.w, "Lines read: %d\n", report.Summary.LinesRead)
		fmt.Fprintf(wr.w, "Suppressed: %d\n", report.Summary.LinesSuppressed)
		fmt.Fprintf(wr.w, "Appended: %d -> %s\n", report.Summary.LinesWritten, report.Output)
		return nil
	}
}

// ModuleInfo describes one catalog module for listings.
type ModuleInfo struct {
	Name     string `json:"name"`
	Patterns int    `json:"patterns"`
}

// WriteModules outputs the modules defined in a catalog.
func (wr *Writer) WriteModules(catalogPath string, modules []ModuleInfo) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(struct {
			Catalog string       `json:"catalog"`
			Modules []ModuleInfo `json:"modules"`
		}{Catalog: catalogPath, Modules: modules})
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MODULE\tPATTERNS")
		for _, m := range modules {
			fmt.Fprintf(tw, "%s\t%d\n", m.Name, m.Patterns)
		}
		return tw.Flush()
	default:
		fmt.Fprintf(wr.w, "Catalog: %s\n", catalogPath)
		for _, m := range modules {
			fmt.Fprintf(wr.w, "  %s (%d patterns)\n", m.Name, m.Patterns)
		}
		return nil
	}
}

// CheckResult reports the validation outcome for one catalog file.
type CheckResult struct {
	Path     string
	Modules  int
	Patterns int
	Err      error
}

// MarshalJSON implements json.Marshaler for CheckResult.
func (r CheckResult) MarshalJSON() ([]byte, error) {
	doc := struct {
		Path     string `json:"path"`
		Modules  int    `json:"modules"`
		Patterns int    `json:"patterns"`
		Valid    bool   `json:"valid"`
		Error    string `json:"error,omitempty"`
	}{
		Path:     r.Path,
		Modules:  r.Modules,
		Patterns: r.Patterns,
		Valid:    r.Err == nil,
	}
	if r.Err != nil {
		doc.Error = r.Err.Error()
	}
	return json.Marshal(doc)
}

// WriteChecks outputs the validation results for a set of catalog files.
func (wr *Writer) WriteChecks(results []CheckResult, mode ColorMode) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(results)
	case FormatTable:
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATALOG\tMODULES\tPATTERNS\tSTATUS")
		for _, r := range results {
			status := "ok"
			if r.Err != nil {
				status = r.Err.Error()
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", r.Path, r.Modules, r.Patterns, status)
		}
		return tw.Flush()
	default:
		colorize := shouldColorize(mode, wr.w)
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(wr.w, "%s %s: %v\n", statusLabel("FAIL", colorRed, colorize), r.Path, r.Err)
				continue
			}
			fmt.Fprintf(wr.w, "%s %s: %d modules, %d patterns\n",
				statusLabel("OK", colorGreen, colorize), r.Path, r.Modules, r.Patterns)
		}
		return nil
	}
}
