package runstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/reaandrew/secsweep/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndListRoundTrip(t *testing.T) {
	store := openTestStore(t)

	summary := RunSummary{
		ID:         "run-1",
		StartedAt:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC),
		Targets:    []string{"/srv/app"},
		Tools:      []string{"detect-secrets"},
		Findings:   3,
		BySeverity: map[core.Severity]int{core.SeverityHigh: 3},
		ReportPath: "secsweep_report.json",
	}
	require.NoError(t, store.Save(summary))

	listed, err := store.List(time.Time{})
	assert.Nil(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, summary.ID, listed[0].ID)
	assert.Equal(t, 3, listed[0].Findings)
	assert.Equal(t, 3, listed[0].BySeverity[core.SeverityHigh])
}

func TestListOrdersMostRecentFirstAndHonorsSince(t *testing.T) {
	store := openTestStore(t)

	for i, started := range []time.Time{
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, store.Save(RunSummary{
			ID:        string(rune('a' + i)),
			StartedAt: started,
		}))
	}

	listed, err := store.List(time.Time{})
	assert.Nil(t, err)
	assert.Len(t, listed, 3)
	assert.Equal(t, "b", listed[0].ID)
	assert.Equal(t, "c", listed[1].ID)
	assert.Equal(t, "a", listed[2].ID)

	listed, err = store.List(time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC))
	assert.Nil(t, err)
	assert.Len(t, listed, 2)
	assert.Equal(t, "b", listed[0].ID)
}

func TestSaveReplacesSameRunID(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(RunSummary{ID: "run-1", Findings: 1}))
	require.NoError(t, store.Save(RunSummary{ID: "run-1", Findings: 7}))

	listed, err := store.List(time.Time{})
	assert.Nil(t, err)
	assert.Len(t, listed, 1)
	assert.Equal(t, 7, listed[0].Findings)
}

func TestSummarizeCondensesRun(t *testing.T) {
	run := &core.Run{
		ID:        "run-9",
		StartedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Targets: []core.TargetInfo{
			{Raw: "/srv/app"},
			{Raw: "https://example.com/team/app.git"},
		},
		Tools: []string{"trivy"},
	}
	run.Summary.Add(core.Finding{Severity: core.SeverityCritical, Tool: "trivy"})

	summary := Summarize(run, "out.json")
	assert.Equal(t, "run-9", summary.ID)
	assert.Equal(t, []string{"/srv/app", "https://example.com/team/app.git"}, summary.Targets)
	assert.Equal(t, 1, summary.Findings)
	assert.Equal(t, "out.json", summary.ReportPath)
}

func TestParseSince(t *testing.T) {
	cutoff, err := ParseSince("")
	assert.Nil(t, err)
	assert.True(t, cutoff.IsZero())

	cutoff, err = ParseSince("2025-03-10")
	assert.Nil(t, err)
	assert.Equal(t, 2025, cutoff.Year())
	assert.Equal(t, time.March, cutoff.Month())

	_, err = ParseSince("not a date at all zzz")
	var configErr *core.ConfigError
	assert.ErrorAs(t, err, &configErr)
}
