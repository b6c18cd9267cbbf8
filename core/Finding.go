package core

import "strings"

// Severity is the normalized scale every tool's output is mapped onto.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists all severities from most to least severe.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

var severityRanks = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// Rank returns the sort order of a severity, most severe first. Unknown
// severities sort last.
func (s Severity) Rank() int {
	if rank, ok := severityRanks[s]; ok {
		return rank
	}
	return len(severityRanks)
}

// ParseSeverity maps a tool-reported severity string onto the normalized
// scale. Unrecognised values become SeverityInfo.
func ParseSeverity(raw string) Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityInfo
	}
}

// Finding type labels. Each wrapped tool emits findings of one type;
// ToolFailure marks invocations that could not produce results.
const (
	TypeSecret        = "Secret"
	TypeVulnerability = "Vulnerability"
	TypeTLS           = "TLS"
	TypeToolFailure   = "ToolFailure"
	TypeGeneric       = "Generic"
)

// Finding represents a single normalized finding with its details.
type Finding struct {
	Name       string                 `json:"name,omitempty"`
	Type       string                 `json:"type,omitempty"`
	Severity   Severity               `json:"severity,omitempty"`
	Tool       string                 `json:"tool,omitempty"`
	Target     string                 `json:"target,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}
