package classify

import (
	"embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/reaandrew/secsweep/core"
)

//go:embed rules.toml
var rulesFS embed.FS

type severityRules struct {
	Default string            `toml:"default"`
	Secrets map[string]string `toml:"secrets"`
}

// Classifier assigns severities to secret findings from the embedded rule
// table and filters findings whose paths match exclusion globs.
type Classifier struct {
	defaultSeverity core.Severity
	secretSeverity  map[string]core.Severity
	excludes        []glob.Glob
}

func NewClassifier(excludePatterns []string) (*Classifier, error) {
	data, err := rulesFS.ReadFile("rules.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to read severity rules: %w", err)
	}

	var rules severityRules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse severity rules: %w", err)
	}

	classifier := &Classifier{
		defaultSeverity: core.ParseSeverity(rules.Default),
		secretSeverity:  make(map[string]core.Severity, len(rules.Secrets)),
	}
	if rules.Default == "" {
		classifier.defaultSeverity = core.SeverityMedium
	}
	for secretType, severity := range rules.Secrets {
		classifier.secretSeverity[secretType] = core.ParseSeverity(severity)
	}

	for _, pattern := range excludePatterns {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, core.NewConfigError("invalid exclude pattern %q: %v", pattern, err)
		}
		classifier.excludes = append(classifier.excludes, compiled)
	}
	return classifier, nil
}

// SecretSeverity looks up the severity for a detect-secrets detector type.
func (c *Classifier) SecretSeverity(secretType string) core.Severity {
	if severity, ok := c.secretSeverity[secretType]; ok {
		return severity
	}
	return c.defaultSeverity
}

// Excluded reports whether a finding path matches any exclusion glob.
func (c *Classifier) Excluded(path string) bool {
	if path == "" {
		return false
	}
	for _, pattern := range c.excludes {
		if pattern.Match(path) {
			return true
		}
	}
	return false
}

// Apply drops excluded findings and fills in severities that the tool
// parsers left empty.
func (c *Classifier) Apply(findings []core.Finding) []core.Finding {
	classified := make([]core.Finding, 0, len(findings))
	for _, finding := range findings {
		if c.Excluded(finding.Path) {
			continue
		}
		if finding.Severity == "" {
			if finding.Type == core.TypeSecret {
				finding.Severity = c.SecretSeverity(finding.Name)
			} else {
				finding.Severity = core.SeverityInfo
			}
		}
		classified = append(classified, finding)
	}
	return classified
}
