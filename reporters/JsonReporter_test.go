package reporters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
	"github.com/stretchr/testify/assert"
)

func sampleRun() *core.Run {
	run := &core.Run{
		ID:        "5a9ee1f9-2cbb-49a7-bb9c-24575a0b1e52",
		StartedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Tools:     []string{"detect-secrets", "nuclei"},
		Targets: []core.TargetInfo{
			{Raw: "/srv/app", Kind: core.TargetKindPath, LocalPath: "/srv/app"},
		},
		Invocations: []core.Invocation{
			{Tool: "detect-secrets", Target: "/srv/app", Status: core.InvocationOK, DurationMS: 1200},
			{Tool: "nuclei", Target: "/srv/app", Status: core.InvocationSkipped, Error: "tool requires a URL target"},
		},
	}
	run.Summary.Add(core.Finding{Severity: core.SeverityHigh, Tool: "detect-secrets"})
	return run
}

func TestJsonReporterWritesSingleDocument(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	repository := &utils.MockFindingRepository{}
	err := repository.Store([]core.Finding{
		{Name: "AWS Access Key", Type: core.TypeSecret, Severity: core.SeverityHigh, Tool: "detect-secrets", Target: "/srv/app", Path: "config/settings.py"},
	})
	assert.Nil(t, err)

	reporter := JsonReporter{OutputPath: outputPath}
	err = reporter.Report(sampleRun(), repository)
	assert.Nil(t, err)

	data, err := os.ReadFile(outputPath)
	assert.Nil(t, err)

	var document map[string]interface{}
	err = json.Unmarshal(data, &document)
	assert.Nil(t, err)

	assert.Equal(t, "5a9ee1f9-2cbb-49a7-bb9c-24575a0b1e52", document["run_id"])
	assert.Len(t, document["invocations"], 2)
	assert.Len(t, document["findings"], 1)
}

func TestJsonReporterWritesEmptyFindingsArray(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	reporter := JsonReporter{OutputPath: outputPath}
	err := reporter.Report(sampleRun(), &utils.MockFindingRepository{})
	assert.Nil(t, err)

	data, err := os.ReadFile(outputPath)
	assert.Nil(t, err)
	assert.Contains(t, string(data), `"findings": []`)
}

func TestJsonReporterWrapsWriteFailures(t *testing.T) {
	reporter := JsonReporter{OutputPath: "/nonexistent-dir/report.json"}
	err := reporter.Report(sampleRun(), &utils.MockFindingRepository{})

	var writeErr *core.OutputWriteError
	assert.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "/nonexistent-dir/report.json", writeErr.Path)
}
