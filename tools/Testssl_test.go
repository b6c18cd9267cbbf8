package tools

import (
	"testing"

	"github.com/reaandrew/secsweep/core"
	"github.com/stretchr/testify/assert"
)

const testsslOutput = `[
  {"id":"service","ip":"example.com/93.184.216.34","port":"443","severity":"INFO","finding":"HTTP"},
  {"id":"TLS1","ip":"example.com/93.184.216.34","port":"443","severity":"LOW","finding":"TLS 1.0 offered"},
  {"id":"cipher_order","ip":"example.com/93.184.216.34","port":"443","severity":"OK","finding":"server order used"},
  {"id":"SWEET32","ip":"example.com/93.184.216.34","port":"443","severity":"HIGH","finding":"VULNERABLE, uses 64 bit block ciphers","cve":"CVE-2016-2183"},
  {"id":"scanProblem","ip":"example.com/93.184.216.34","port":"443","severity":"WARN","finding":"Scan interrupted"}
]`

func TestTestsslParseDropsBaselineEntries(t *testing.T) {
	tool := TestsslTool()
	target, _ := core.ParseTarget("https://example.com")

	findings, err := tool.Parse([]byte(testsslOutput), target)
	assert.Nil(t, err)
	assert.Len(t, findings, 2)
	assert.Equal(t, "TLS1", findings[0].Name)
	assert.Equal(t, "SWEET32", findings[1].Name)
}

func TestTestsslParseMapsSeverityAndCve(t *testing.T) {
	tool := TestsslTool()
	target, _ := core.ParseTarget("https://example.com")

	findings, err := tool.Parse([]byte(testsslOutput), target)
	assert.Nil(t, err)

	assert.Equal(t, core.SeverityLow, findings[0].Severity)
	assert.Equal(t, core.TypeTLS, findings[0].Type)
	assert.Equal(t, core.SeverityHigh, findings[1].Severity)
	assert.Equal(t, "CVE-2016-2183", findings[1].Properties["cve"])
	assert.Equal(t, "443", findings[1].Properties["port"])
}

func TestTestsslParseToleratesEmptyReport(t *testing.T) {
	tool := TestsslTool()
	target, _ := core.ParseTarget("https://example.com")

	findings, err := tool.Parse([]byte("  "), target)
	assert.Nil(t, err)
	assert.Empty(t, findings)
}

func TestTestsslBuildArgsWritesJsonReport(t *testing.T) {
	tool := TestsslTool()
	target, _ := core.ParseTarget("https://example.com")

	args := tool.BuildArgs(target, "/tmp/tls.json")
	assert.Equal(t, []string{"--jsonfile", "/tmp/tls.json", "--quiet", "--color", "0", "https://example.com"}, args)
}
