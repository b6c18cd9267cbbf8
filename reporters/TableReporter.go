package reporters

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/reaandrew/secsweep/core"
)

// TableReporter renders the run as a colored terminal table. With an
// OutputPath it writes the same rendering to a file instead of stdout.
type TableReporter struct {
	OutputPath string

	// Out overrides the destination, used by tests.
	Out io.Writer
}

func (t TableReporter) Report(run *core.Run, repository core.FindingRepository) error {
	var findings []core.Finding
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve findings: %w", err)
		}
		findings = append(findings, set.Findings...)
	}

	w := t.Out
	if w == nil {
		if t.OutputPath == "" {
			w = os.Stdout
		} else {
			file, err := os.Create(t.OutputPath)
			if err != nil {
				return &core.OutputWriteError{Path: t.OutputPath, Err: err}
			}
			defer file.Close()
			w = file
		}
	}

	fmt.Fprintf(w, "Run %s — %d findings across %d targets\n", run.ID, run.Summary.Findings, len(run.Targets))

	if len(findings) > 0 {
		// Most severe first, then stable by tool and path.
		sort.SliceStable(findings, func(i, j int) bool {
			if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
				return findings[i].Severity.Rank() < findings[j].Severity.Rank()
			}
			if findings[i].Tool != findings[j].Tool {
				return findings[i].Tool < findings[j].Tool
			}
			return findings[i].Path < findings[j].Path
		})

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Severity", "Tool", "Target", "Name", "Path"})
		table.SetAutoWrapText(false)
		table.SetBorder(false)
		table.SetColumnSeparator("│")

		for _, finding := range findings {
			table.Append([]string{
				colorSeverity(finding.Severity),
				finding.Tool,
				finding.Target,
				finding.Name,
				finding.Path,
			})
		}
		table.Render()
	} else {
		fmt.Fprintln(w, "No findings.")
	}

	fmt.Fprintf(w, "\nSummary: %s\n", formatSummary(run.Summary))

	failed := failedInvocations(run.Invocations)
	if len(failed) > 0 {
		fmt.Fprintln(w, "\nFailed invocations:")
		for _, invocation := range failed {
			fmt.Fprintf(w, "  %s on %s: %s\n", invocation.Tool, invocation.Target, invocation.Error)
		}
	}

	return nil
}

func failedInvocations(invocations []core.Invocation) []core.Invocation {
	var failed []core.Invocation
	for _, invocation := range invocations {
		if invocation.Status == core.InvocationFailed {
			failed = append(failed, invocation)
		}
	}
	return failed
}

func colorSeverity(s core.Severity) string {
	switch s {
	case core.SeverityCritical:
		return color.RedString("CRITICAL")
	case core.SeverityHigh:
		return color.RedString("HIGH")
	case core.SeverityMedium:
		return color.YellowString("MEDIUM")
	case core.SeverityLow:
		return color.CyanString("LOW")
	case core.SeverityInfo:
		return color.WhiteString("INFO")
	default:
		return string(s)
	}
}

func formatSummary(summary core.Summary) string {
	return fmt.Sprintf("%d findings (%d critical, %d high, %d medium, %d low, %d info)",
		summary.Findings,
		summary.BySeverity[core.SeverityCritical],
		summary.BySeverity[core.SeverityHigh],
		summary.BySeverity[core.SeverityMedium],
		summary.BySeverity[core.SeverityLow],
		summary.BySeverity[core.SeverityInfo],
	)
}
