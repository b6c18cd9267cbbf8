package scanners_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/scanners"
	"github.com/reaandrew/secsweep/tools"
	"github.com/reaandrew/secsweep/utils"
	"github.com/stretchr/testify/assert"
)

// lineTool shells out to sh and turns each stdout line into a finding.
func lineTool(name, script string) *tools.Tool {
	return &tools.Tool{
		Name: name,
		Bin:  "sh",
		Kind: core.TargetKindPath,
		BuildArgs: func(_ core.Target, _ string) []string {
			return []string{"-c", script}
		},
		Parse: func(data []byte, target core.Target) ([]core.Finding, error) {
			var findings []core.Finding
			for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
				if line == "" {
					continue
				}
				findings = append(findings, core.Finding{
					Name:     line,
					Type:     core.TypeGeneric,
					Severity: core.SeverityInfo,
					Tool:     name,
					Target:   target.Raw,
				})
			}
			return findings, nil
		},
	}
}

func urlTool(name, script string) *tools.Tool {
	tool := lineTool(name, script)
	tool.Kind = core.TargetKindURL
	return tool
}

// CaptureReporter records the run it was asked to report.
type CaptureReporter struct {
	Run    *core.Run
	Called int
}

func (c *CaptureReporter) Report(run *core.Run, repository core.FindingRepository) error {
	c.Run = run
	c.Called++
	return nil
}

func pathTarget(t *testing.T) scanners.ResolvedTarget {
	t.Helper()
	dir := t.TempDir()
	return scanners.ResolvedTarget{Target: core.Target{Raw: dir, Kind: core.TargetKindPath, LocalPath: dir}}
}

func TestRunProducesOneInvocationPerPair(t *testing.T) {
	capture := &CaptureReporter{}
	repository := &utils.MockFindingRepository{}
	runner := scanners.ScanRunner{
		Invoker:    tools.Invoker{},
		Repository: repository,
		Reporter:   capture,
		Workers:    2,
	}

	selected := []*tools.Tool{
		lineTool("alpha", "echo issue-a"),
		urlTool("probe", "echo probe-hit"),
	}
	run, err := runner.Run(context.Background(), selected, []scanners.ResolvedTarget{pathTarget(t)})
	assert.Nil(t, err)

	assert.Len(t, run.Invocations, 2)
	assert.Equal(t, core.InvocationOK, run.Invocations[0].Status)
	assert.Equal(t, "alpha", run.Invocations[0].Tool)
	assert.Equal(t, core.InvocationSkipped, run.Invocations[1].Status)
	assert.Equal(t, "probe", run.Invocations[1].Tool)

	assert.Equal(t, 1, capture.Called)
	assert.Equal(t, run, capture.Run)
	assert.Len(t, repository.Findings, 1)
	assert.Equal(t, "issue-a", repository.Findings[0].Name)
	assert.Equal(t, 1, run.Summary.Findings)
}

func TestRunSurvivesMissingTool(t *testing.T) {
	capture := &CaptureReporter{}
	repository := &utils.MockFindingRepository{}
	runner := scanners.ScanRunner{
		Invoker:    tools.Invoker{},
		Repository: repository,
		Reporter:   capture,
		Workers:    2,
	}

	ghost := lineTool("ghost", "echo never")
	ghost.Bin = "secsweep-test-missing-binary"

	selected := []*tools.Tool{ghost, lineTool("alpha", "echo issue-a")}
	run, err := runner.Run(context.Background(), selected, []scanners.ResolvedTarget{pathTarget(t)})
	assert.Nil(t, err)

	assert.Len(t, run.Invocations, 2)
	assert.Equal(t, core.InvocationFailed, run.Invocations[0].Status)
	assert.Equal(t, core.InvocationOK, run.Invocations[1].Status)
	assert.Equal(t, 1, capture.Called)

	// The missing tool shows up as a ToolFailure finding, the healthy
	// tool still reports its own findings.
	assert.Len(t, repository.Findings, 2)
	assert.Equal(t, core.TypeToolFailure, repository.Findings[0].Type)
	assert.Equal(t, "ghost", repository.Findings[0].Tool)
	assert.Equal(t, "issue-a", repository.Findings[1].Name)
}

func TestRunFailsPathToolsOnCloneFailure(t *testing.T) {
	capture := &CaptureReporter{}
	repository := &utils.MockFindingRepository{}
	runner := scanners.ScanRunner{
		Invoker:    tools.Invoker{},
		Repository: repository,
		Reporter:   capture,
		Workers:    1,
	}

	broken := scanners.ResolvedTarget{
		Target:   core.Target{Raw: "https://example.com/team/app.git", Kind: core.TargetKindURL},
		CloneErr: errors.New("authentication required"),
	}

	selected := []*tools.Tool{lineTool("alpha", "echo never"), urlTool("probe", "echo probe-hit")}
	run, err := runner.Run(context.Background(), selected, []scanners.ResolvedTarget{broken})
	assert.Nil(t, err)

	assert.Len(t, run.Invocations, 2)
	assert.Equal(t, core.InvocationFailed, run.Invocations[0].Status)
	assert.Contains(t, run.Invocations[0].Error, "authentication required")
	assert.Equal(t, core.InvocationOK, run.Invocations[1].Status)

	assert.Len(t, repository.Findings, 2)
	assert.Equal(t, core.TypeToolFailure, repository.Findings[0].Type)
	assert.Equal(t, "probe-hit", repository.Findings[1].Name)

	assert.Equal(t, "https://example.com/team/app.git", run.Targets[0].Raw)
	assert.Contains(t, run.Targets[0].CloneError, "authentication required")
}

func TestRunSkipsReportWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	capture := &CaptureReporter{}
	runner := scanners.ScanRunner{
		Invoker:    tools.Invoker{},
		Repository: &utils.MockFindingRepository{},
		Reporter:   capture,
		Workers:    2,
	}

	selected := []*tools.Tool{lineTool("alpha", "echo issue-a")}
	run, err := runner.Run(ctx, selected, []scanners.ResolvedTarget{pathTarget(t)})

	assert.NotNil(t, err)
	assert.Equal(t, 0, capture.Called)
	assert.Len(t, run.Invocations, 1)
	assert.Equal(t, core.InvocationFailed, run.Invocations[0].Status)
}

func TestRunManyPairsCompletes(t *testing.T) {
	target := pathTarget(t)
	targets := make([]scanners.ResolvedTarget, 200)
	for i := range targets {
		targets[i] = target
	}

	runner := scanners.ScanRunner{
		Invoker:    tools.Invoker{},
		Repository: &utils.MockFindingRepository{},
		Reporter:   &CaptureReporter{},
		Workers:    8,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		run, err := runner.Run(context.Background(), []*tools.Tool{lineTool("alpha", "echo x")}, targets)
		assert.Nil(t, err)
		assert.Len(t, run.Invocations, 200)
	}()

	select {
	case <-done:
	case <-time.After(60 * time.Second):
		t.Fatal("Run timed out, likely due to deadlock")
	}
}
