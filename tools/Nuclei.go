package tools

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reaandrew/secsweep/core"
)

// nucleiEvent mirrors one line of nuclei's JSONL export.
type nucleiEvent struct {
	TemplateID string `json:"template-id"`
	Info       struct {
		Name        string `json:"name"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
	} `json:"info"`
	Type      string `json:"type"`
	Host      string `json:"host"`
	MatchedAt string `json:"matched-at"`
}

// NucleiTool wraps the nuclei template scanner for URL targets.
func NucleiTool() *Tool {
	name := "nuclei"
	return &Tool{
		Name:        name,
		Bin:         "nuclei",
		Kind:        core.TargetKindURL,
		Description: "Probes a URL with nuclei vulnerability templates",
		WritesFile:  true,
		BuildArgs: func(target core.Target, outFile string) []string {
			url, _ := target.HTTPURL()
			return []string{"-u", url, "-jsonl", "-o", outFile, "-silent"}
		},
		Parse: func(data []byte, target core.Target) ([]core.Finding, error) {
			var findings []core.Finding
			scanner := bufio.NewScanner(bytes.NewReader(data))
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := bytes.TrimSpace(scanner.Bytes())
				if len(line) == 0 || line[0] != '{' {
					continue
				}

				var event nucleiEvent
				if err := json.Unmarshal(line, &event); err != nil {
					return nil, fmt.Errorf("failed to parse nuclei output line: %w", err)
				}

				properties := map[string]interface{}{
					"title":    event.Info.Name,
					"protocol": event.Type,
					"host":     event.Host,
				}
				if event.Info.Description != "" {
					properties["description"] = event.Info.Description
				}
				findings = append(findings, core.Finding{
					Name:       event.TemplateID,
					Type:       core.TypeVulnerability,
					Severity:   core.ParseSeverity(event.Info.Severity),
					Tool:       name,
					Target:     target.Raw,
					Path:       event.MatchedAt,
					Properties: properties,
				})
			}
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read nuclei output: %w", err)
			}
			return findings, nil
		},
	}
}
