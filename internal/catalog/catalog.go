// Package catalog loads and validates pattern catalogs.
//
// A catalog is a JSON document mapping module names to ordered lists of
// regular-expression patterns:
//
//	{
//	  "auth-service": { "patterns": ["^INFO", "\\(\\d{5}\\)"] }
//	}
//
// A line matching any of a module's patterns is considered known noise.
// Patterns are compiled eagerly at load time so a malformed expression
// fails before any log data is read.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Pattern pairs a compiled regexp with its source text for diagnostics.
type Pattern struct {
	Source string
	Regexp *regexp.Regexp
}

// ModuleSet holds the compiled patterns for one module, in catalog order.
type ModuleSet struct {
	Module   string
	Patterns []Pattern
}

// Catalog is the immutable module-to-pattern-set mapping loaded from one file.
type Catalog struct {
	path    string
	modules map[string]*ModuleSet
}

// Load reads, validates, and compiles the catalog at path.
//
// It returns a *ConfigError if the file is missing, is not valid JSON, or
// does not match the expected shape, and a *CompileError if any pattern is
// not a valid regular expression.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var raw map[string]struct {
		Patterns *[]string `json:"patterns"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if raw == nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("top-level value is not an object")}
	}

	modules := make(map[string]*ModuleSet, len(raw))
	for name, entry := range raw {
		if entry.Patterns == nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf(`module %q has no "patterns" key`, name)}
		}

		set := &ModuleSet{
			Module:   name,
			Patterns: make([]Pattern, 0, len(*entry.Patterns)),
		}
		for _, src := range *entry.Patterns {
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, &CompileError{Module: name, Pattern: src, Err: err}
			}
			set.Patterns = append(set.Patterns, Pattern{Source: src, Regexp: re})
		}
		modules[name] = set
	}

	return &Catalog{path: path, modules: modules}, nil
}

// Path returns the file the catalog was loaded from.
func (c *Catalog) Path() string {
	return c.path
}

// Module returns the compiled pattern set for name. Module names are
// case-sensitive; an absent name is a hard error, never a pass-through.
func (c *Catalog) Module(name string) (*ModuleSet, error) {
	set, ok := c.modules[name]
	if !ok {
		return nil, &UnknownModuleError{Module: name, Path: c.path}
	}
	return set, nil
}

// Modules returns the sorted names of all modules in the catalog.
func (c *Catalog) Modules() []string {
	names := make([]string, 0, len(c.modules))
	for name := range c.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var codePattern = regexp.MustCompile(`^patterns_(.+)\.json$`)

// Code derives the result bucket name from a catalog filename:
// "patterns.json" maps to "default", "patterns_<code>.json" to "<code>",
// and anything else to its basename without extension.
func Code(path string) string {
	base := filepath.Base(path)
	if base == "patterns.json" {
		return "default"
	}
	if m := codePattern.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
