package core

import "fmt"

// ConfigError reports invalid or missing configuration. The CLI prints
// usage and exits with a distinct status when it sees one.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ToolNotFoundError means a requested tool binary is not on PATH.
type ToolNotFoundError struct {
	Tool string
	Bin  string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found: %q is not installed or not on PATH", e.Tool, e.Bin)
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// ToolExecutionError means a tool was launched but did not produce a
// usable result.
type ToolExecutionError struct {
	Tool     string
	ExitCode int
	TimedOut bool
	Stderr   string
	Err      error
}

func (e *ToolExecutionError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("tool %q timed out", e.Tool)
	}
	msg := fmt.Sprintf("tool %q failed with exit code %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	return msg
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// OutputWriteError means the aggregated report could not be written.
type OutputWriteError struct {
	Path string
	Err  error
}

func (e *OutputWriteError) Error() string {
	return fmt.Sprintf("failed to write report to %q: %v", e.Path, e.Err)
}

func (e *OutputWriteError) Unwrap() error {
	return e.Err
}
