package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSeverityNormalizesToolValues(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity("CRITICAL"))
	assert.Equal(t, SeverityHigh, ParseSeverity("High"))
	assert.Equal(t, SeverityMedium, ParseSeverity("moderate"))
	assert.Equal(t, SeverityLow, ParseSeverity(" low "))
	assert.Equal(t, SeverityInfo, ParseSeverity("OK"))
	assert.Equal(t, SeverityInfo, ParseSeverity(""))
}

func TestSeverityRankOrdersMostSevereFirst(t *testing.T) {
	assert.True(t, SeverityCritical.Rank() < SeverityHigh.Rank())
	assert.True(t, SeverityHigh.Rank() < SeverityMedium.Rank())
	assert.True(t, SeverityMedium.Rank() < SeverityLow.Rank())
	assert.True(t, SeverityLow.Rank() < SeverityInfo.Rank())
	assert.True(t, SeverityInfo.Rank() < Severity("bogus").Rank())
}

func TestSummaryAddCountsBySeverityAndTool(t *testing.T) {
	summary := Summary{}
	summary.Add(Finding{Severity: SeverityHigh, Tool: "detect-secrets"})
	summary.Add(Finding{Severity: SeverityHigh, Tool: "nuclei"})
	summary.Add(Finding{Severity: SeverityLow, Tool: "nuclei"})

	assert.Equal(t, 3, summary.Findings)
	assert.Equal(t, 2, summary.BySeverity[SeverityHigh])
	assert.Equal(t, 1, summary.BySeverity[SeverityLow])
	assert.Equal(t, 2, summary.ByTool["nuclei"])
}
