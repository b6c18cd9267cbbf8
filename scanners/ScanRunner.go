package scanners

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reaandrew/secsweep/classify"
	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/reporters"
	"github.com/reaandrew/secsweep/tools"
	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
)

const (
	workerBufferSize = 100 // Buffer size for channels
)

// PairJob carries one tool/target pair to a worker.
type PairJob struct {
	Index int
	Pair  Pair
}

// PairResult carries one finished pair back to the collection loop.
type PairResult struct {
	Index      int
	Findings   []core.Finding
	Invocation core.Invocation
}

// ScanRunner drives one run: it fans the tool/target pairs out over a
// worker pool, folds the results into the finding repository and writes
// the report once everything has completed.
type ScanRunner struct {
	Invoker          tools.Invoker
	Classifier       *classify.Classifier
	Repository       core.FindingRepository
	Reporter         reporters.Reporter
	ProgressReporter utils.ProgressReporter
	Workers          int
	WorkDir          string
}

// Run executes every tool/target pair and reports the completed run.
// The report is not written when the context is canceled mid-run.
func (runner ScanRunner) Run(ctx context.Context, selected []*tools.Tool, targets []ResolvedTarget) (*core.Run, error) {
	run := &core.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	for _, tool := range selected {
		run.Tools = append(run.Tools, tool.Name)
	}

	// Each run starts from a clean repository so repeated scans of an
	// unchanged target produce the same report.
	if err := runner.Repository.Clear(); err != nil {
		return run, fmt.Errorf("failed to clear finding repository: %w", err)
	}

	excluded := func(string) bool { return false }
	if runner.Classifier != nil {
		excluded = runner.Classifier.Excluded
	}
	for _, target := range targets {
		run.Targets = append(run.Targets, CollectInventory(target, excluded))
	}

	pairs := BuildPairs(selected, targets)
	progress := runner.ProgressReporter
	if progress == nil {
		progress = utils.NoopProgressReporter{}
	}
	progress.SetTotal(len(pairs))

	jobs := make(chan PairJob, workerBufferSize)
	results := make(chan PairResult, workerBufferSize)

	var wg sync.WaitGroup
	workerCount := min(runner.Workers, len(pairs))
	if workerCount < 1 {
		workerCount = 1
	}
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go runner.worker(ctx, i+1, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for index, pair := range pairs {
			select {
			case jobs <- PairJob{Index: index, Pair: pair}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	executed := make([]*PairResult, len(pairs))
	for res := range results {
		res := res
		executed[res.Index] = &res
		progress.Increment()
	}
	progress.Finish()

	// Fold results back in pair order so the stored findings and the
	// invocation list do not depend on worker scheduling.
	for index, pair := range pairs {
		res := executed[index]
		if res == nil {
			run.Invocations = append(run.Invocations, core.Invocation{
				Tool:   pair.Tool.Name,
				Target: pair.Target.Raw,
				Status: core.InvocationFailed,
				Error:  "run canceled before invocation",
			})
			continue
		}

		if len(res.Findings) > 0 {
			if err := runner.Repository.Store(res.Findings); err != nil {
				return run, fmt.Errorf("failed to store findings for %s on %s: %w", pair.Tool.Name, pair.Target.Raw, err)
			}
			for _, finding := range res.Findings {
				run.Summary.Add(finding)
			}
		}
		run.Invocations = append(run.Invocations, res.Invocation)
	}

	run.FinishedAt = time.Now().UTC()

	if err := ctx.Err(); err != nil {
		log.Warnf("Run %s interrupted, skipping report", run.ID)
		return run, err
	}

	if runner.Reporter != nil {
		if err := runner.Reporter.Report(run, runner.Repository); err != nil {
			return run, err
		}
	}
	return run, nil
}

func (runner ScanRunner) worker(
	ctx context.Context,
	id int,
	jobs <-chan PairJob,
	results chan<- PairResult,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			log.Debugf("Worker %d: %s on %s", id, job.Pair.Tool.Name, job.Pair.Target.Raw)
			findings, invocation := runner.executePair(ctx, job.Pair)
			results <- PairResult{Index: job.Index, Findings: findings, Invocation: invocation}
		case <-ctx.Done():
			return
		}
	}
}

// executePair runs a single tool against a single target. Tool failures
// of any kind become a failed invocation plus a ToolFailure finding;
// they never abort the run.
func (runner ScanRunner) executePair(ctx context.Context, pair Pair) ([]core.Finding, core.Invocation) {
	invocation := core.Invocation{Tool: pair.Tool.Name, Target: pair.Target.Raw}

	if !pair.Tool.AppliesTo(pair.Target.Target) {
		invocation.Status = core.InvocationSkipped
		invocation.Error = fmt.Sprintf("%s only scans %s targets", pair.Tool.Name, pair.Tool.Kind)
		return nil, invocation
	}

	// Path tools need a working tree; a failed clone fails them here.
	if pair.Tool.Kind == core.TargetKindPath && pair.Target.CloneErr != nil {
		invocation.Status = core.InvocationFailed
		invocation.Error = fmt.Sprintf("clone failed: %v", pair.Target.CloneErr)
		return []core.Finding{failureFinding(pair, invocation.Error, nil)}, invocation
	}

	if err := runner.Invoker.CheckAvailable(pair.Tool); err != nil {
		invocation.Status = core.InvocationFailed
		invocation.Error = err.Error()
		return []core.Finding{failureFinding(pair, invocation.Error, nil)}, invocation
	}

	findings, raw, err := pair.Tool.Execute(ctx, runner.Invoker, pair.Target.Target, runner.WorkDir)
	invocation.ExitCode = raw.ExitCode
	invocation.DurationMS = raw.Duration.Milliseconds()
	if err != nil {
		invocation.Status = core.InvocationFailed
		invocation.Error = err.Error()

		properties := map[string]interface{}{"exit_code": raw.ExitCode}
		var execErr *core.ToolExecutionError
		if errors.As(err, &execErr) {
			if execErr.TimedOut {
				properties["timed_out"] = true
			}
			if execErr.Stderr != "" {
				properties["stderr"] = execErr.Stderr
			}
		}
		return []core.Finding{failureFinding(pair, invocation.Error, properties)}, invocation
	}

	if runner.Classifier != nil {
		findings = runner.Classifier.Apply(findings)
	}
	invocation.Status = core.InvocationOK
	return findings, invocation
}

func failureFinding(pair Pair, message string, properties map[string]interface{}) core.Finding {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	properties["error"] = message
	return core.Finding{
		Name:       pair.Tool.Name,
		Type:       core.TypeToolFailure,
		Severity:   core.SeverityInfo,
		Tool:       pair.Tool.Name,
		Target:     pair.Target.Raw,
		Properties: properties,
	}
}
