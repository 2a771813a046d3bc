package catalog

import "fmt"

// ConfigError reports a pattern file that is missing or structurally invalid.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pattern file %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CompileError reports a declared pattern that is not a valid regular
// expression. It names the module and the offending pattern text.
type CompileError struct {
	Module  string
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("module %q: invalid pattern %q: %v", e.Module, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// UnknownModuleError reports a module lookup that found no catalog entry.
type UnknownModuleError struct {
	Module string
	Path   string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("module %q not found in %s", e.Module, e.Path)
}
