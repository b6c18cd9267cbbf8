package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/reaandrew/secsweep/core"
)

// trivyReport helps unmarshal Trivy's JSON output. Fields can be expanded
// or trimmed depending on what the report needs.
type trivyReport struct {
	Results []struct {
		Target          string `json:"Target"`
		Class           string `json:"Class"`
		Type            string `json:"Type"`
		Vulnerabilities []struct {
			VulnerabilityID  string `json:"VulnerabilityID"`
			PkgName          string `json:"PkgName"`
			InstalledVersion string `json:"InstalledVersion"`
			FixedVersion     string `json:"FixedVersion"`
			Severity         string `json:"Severity"`
			Title            string `json:"Title"`
		} `json:"Vulnerabilities"`
	} `json:"Results"`
}

// TrivyTool wraps `trivy fs` dependency scanning of a working tree.
func TrivyTool() *Tool {
	name := "trivy"
	return &Tool{
		Name:        name,
		Bin:         "trivy",
		Kind:        core.TargetKindPath,
		Description: "Scans a working tree for vulnerable dependencies",
		WritesFile:  true,
		BuildArgs: func(target core.Target, outFile string) []string {
			return []string{"fs", "--format", "json", "--output", outFile, "--quiet", target.LocalPath}
		},
		Parse: func(data []byte, target core.Target) ([]core.Finding, error) {
			if len(bytes.TrimSpace(data)) == 0 {
				return nil, nil
			}

			var report trivyReport
			if err := json.Unmarshal(data, &report); err != nil {
				return nil, fmt.Errorf("failed to parse trivy JSON: %w", err)
			}

			var findings []core.Finding
			for _, result := range report.Results {
				for _, vuln := range result.Vulnerabilities {
					findings = append(findings, core.Finding{
						Name:     vuln.VulnerabilityID,
						Type:     core.TypeVulnerability,
						Severity: core.ParseSeverity(vuln.Severity),
						Tool:     name,
						Target:   target.Raw,
						Path:     result.Target,
						Properties: map[string]interface{}{
							"title":             vuln.Title,
							"pkg_name":          vuln.PkgName,
							"installed_version": vuln.InstalledVersion,
							"fixed_version":     vuln.FixedVersion,
							"class":             result.Class,
							"pkg_type":          result.Type,
						},
					})
				}
			}
			return findings, nil
		},
	}
}
