package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reaandrew/secsweep/core"
)

// testsslEntry mirrors one element of the testssl.sh JSON report.
type testsslEntry struct {
	ID       string `json:"id"`
	IP       string `json:"ip"`
	Port     string `json:"port"`
	Severity string `json:"severity"`
	Finding  string `json:"finding"`
	CVE      string `json:"cve"`
}

// TestsslTool wraps testssl.sh for URL targets. Entries below LOW
// severity are baseline protocol chatter and are dropped.
func TestsslTool() *Tool {
	name := "testssl.sh"
	return &Tool{
		Name:        name,
		Bin:         "testssl.sh",
		Kind:        core.TargetKindURL,
		Description: "Checks TLS/SSL configuration of a URL",
		WritesFile:  true,
		BuildArgs: func(target core.Target, outFile string) []string {
			url, _ := target.HTTPURL()
			return []string{"--jsonfile", outFile, "--quiet", "--color", "0", url}
		},
		Parse: func(data []byte, target core.Target) ([]core.Finding, error) {
			if len(bytes.TrimSpace(data)) == 0 {
				return nil, nil
			}

			var entries []testsslEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return nil, fmt.Errorf("failed to parse testssl output: %w", err)
			}

			var findings []core.Finding
			for _, entry := range entries {
				severity, reportable := testsslSeverity(entry.Severity)
				if !reportable {
					continue
				}

				properties := map[string]interface{}{
					"finding": entry.Finding,
					"ip":      entry.IP,
					"port":    entry.Port,
				}
				if entry.CVE != "" {
					properties["cve"] = entry.CVE
				}
				findings = append(findings, core.Finding{
					Name:       entry.ID,
					Type:       core.TypeTLS,
					Severity:   severity,
					Tool:       name,
					Target:     target.Raw,
					Properties: properties,
				})
			}
			return findings, nil
		},
	}
}

// testsslSeverity maps testssl's severity labels onto the normalized
// scale. OK, INFO, DEBUG and WARN entries are not findings.
func testsslSeverity(raw string) (core.Severity, bool) {
	switch raw {
	case "LOW":
		return core.SeverityLow, true
	case "MEDIUM":
		return core.SeverityMedium, true
	case "HIGH":
		return core.SeverityHigh, true
	case "CRITICAL":
		return core.SeverityCritical, true
	default:
		return "", false
	}
}
