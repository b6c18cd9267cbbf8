package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/reaandrew/secsweep/core"
)

// detectSecretsReport mirrors the baseline JSON that `detect-secrets scan`
// prints to stdout. Results are keyed by file path.
type detectSecretsReport struct {
	Results map[string][]struct {
		Type         string `json:"type"`
		LineNumber   int    `json:"line_number"`
		HashedSecret string `json:"hashed_secret"`
		IsVerified   bool   `json:"is_verified"`
	} `json:"results"`
}

// DetectSecretsTool wraps the detect-secrets scanner. Severities are
// assigned afterwards from the secret type rules.
func DetectSecretsTool() *Tool {
	name := "detect-secrets"
	return &Tool{
		Name:        name,
		Bin:         "detect-secrets",
		Kind:        core.TargetKindPath,
		Description: "Scans a working tree for committed secrets",
		BuildArgs: func(target core.Target, _ string) []string {
			return []string{"scan", "--all-files", target.LocalPath}
		},
		Parse: func(data []byte, target core.Target) ([]core.Finding, error) {
			var report detectSecretsReport
			if err := json.Unmarshal(data, &report); err != nil {
				return nil, fmt.Errorf("failed to parse detect-secrets output: %w", err)
			}

			paths := make([]string, 0, len(report.Results))
			for path := range report.Results {
				paths = append(paths, path)
			}
			sort.Strings(paths)

			var findings []core.Finding
			for _, path := range paths {
				for _, secret := range report.Results[path] {
					findings = append(findings, core.Finding{
						Name:   secret.Type,
						Type:   core.TypeSecret,
						Tool:   name,
						Target: target.Raw,
						Path:   path,
						Properties: map[string]interface{}{
							"line":          secret.LineNumber,
							"hashed_secret": secret.HashedSecret,
							"is_verified":   secret.IsVerified,
						},
					})
				}
			}
			return findings, nil
		},
	}
}
