package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/reaandrew/secsweep/core"
	log "github.com/sirupsen/logrus"
)

// RawResult captures the raw outcome of a single subprocess invocation.
type RawResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   string
	Duration time.Duration
}

// Invoker launches tool subprocesses. A zero Timeout means no per-tool
// deadline beyond the run's own context.
type Invoker struct {
	Timeout time.Duration
}

// CheckAvailable verifies the tool binary can be found on PATH.
func (i Invoker) CheckAvailable(tool *Tool) error {
	if _, err := exec.LookPath(tool.Bin); err != nil {
		return &core.ToolNotFoundError{Tool: tool.Name, Bin: tool.Bin, Err: err}
	}
	return nil
}

// Run executes the tool binary and captures its output. A non-zero exit
// is reported through the RawResult rather than as an error; several of
// the wrapped tools encode finding counts in their exit status.
func (i Invoker) Run(ctx context.Context, tool *Tool, args []string) (RawResult, error) {
	if i.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	log.Debugf("Running %s %s", tool.Bin, strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool.Bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()
	result := RawResult{
		Stdout:   stdout.Bytes(),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, &core.ToolExecutionError{Tool: tool.Name, TimedOut: true, Stderr: result.Stderr, Err: ctx.Err()}
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return result, nil
		}
		return result, &core.ToolExecutionError{Tool: tool.Name, ExitCode: result.ExitCode, Stderr: result.Stderr, Err: err}
	}
	return result, nil
}
