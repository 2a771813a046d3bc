// Package pathing computes the effective input, output, and catalog paths
// for a filter run.
package pathing

import (
	"fmt"
	"path/filepath"
	"time"
)

// Resolver turns optional explicit paths into concrete ones.
//
// Defaults follow the conventional layout: logs/ holds raw input,
// result/<code>/<module>/<year>/<month>/ holds cumulative output, and
// patterns.json sits at the base directory. Resolution is pure path
// computation; no existence checks are performed here.
type Resolver struct {
	BaseDir string
	Now     func() time.Time // defaults to time.Now
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Input resolves the input log path. An empty explicit path defaults to
// <base>/logs/<module>; an absolute path is returned unchanged; a relative
// path is taken under <base>/logs.
func (r *Resolver) Input(explicit, module string) string {
	if explicit == "" {
		explicit = module
	}
	if filepath.IsAbs(explicit) {
		return explicit
	}
	return filepath.Join(r.BaseDir, "logs", explicit)
}

// Output resolves the output path. An empty explicit path defaults to a
// date-bucketed path under result/: one directory per calendar month, one
// file per day, grouped by catalog code and module. The date comes from the
// resolver clock at run time, not from log content.
func (r *Resolver) Output(explicit, module, code string) string {
	if explicit != "" {
		if filepath.IsAbs(explicit) {
			return explicit
		}
		return filepath.Join(r.BaseDir, explicit)
	}

	t := r.now()
	return filepath.Join(
		r.BaseDir,
		"result",
		code,
		module,
		t.Format("2006"),
		t.Format("01"),
		fmt.Sprintf("%s_%s.logs", module, t.Format("20060102")),
	)
}

// PatternFile resolves the catalog path, defaulting to <base>/patterns.json.
// A non-empty explicit path is used verbatim.
func (r *Resolver) PatternFile(explicit string) string {
	if explicit == "" {
		return filepath.Join(r.BaseDir, "patterns.json")
	}
	return explicit
}
