package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reaandrew/secsweep/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Empty(t, cfg.Tools)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "once", cfg.Schedule)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.False(t, cfg.KeepClones)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, ".secsweep.yaml")

	content := `tools:
  - detect-secrets
  - nuclei
format: xlsx
workers: 8
timeout: 30m
excludes:
  - "**/vendor/**"
keep_clones: true
`
	err := os.WriteFile(cfgFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromFile(cfgFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"detect-secrets", "nuclei"}, cfg.Tools)
	assert.Equal(t, "xlsx", cfg.Format)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
	assert.Equal(t, []string{"**/vendor/**"}, cfg.Excludes)
	assert.True(t, cfg.KeepClones)
	// Defaults for unset values.
	assert.Equal(t, "once", cfg.Schedule)
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/.secsweep.yaml")
	assert.Error(t, err)
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("SECSWEEP_WORKERS", "12")
	t.Setenv("SECSWEEP_FORMAT", "table")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, "table", cfg.Format)
}

func newScanFlags() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringSlice("tools", nil, "")
	cmd.Flags().String("output", "", "")
	cmd.Flags().String("format", "json", "")
	cmd.Flags().String("schedule", "once", "")
	cmd.Flags().Int("workers", 4, "")
	cmd.Flags().Duration("timeout", 10*time.Minute, "")
	cmd.Flags().StringArray("exclude", nil, "")
	cmd.Flags().String("clone-dir", "", "")
	cmd.Flags().Bool("keep-clones", false, "")
	cmd.Flags().String("tools-file", "", "")
	cmd.Flags().String("gitlab-base-url", "", "")
	return cmd
}

func TestApplyFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cfg := Config{Format: "xlsx", Workers: 8, Schedule: "daily"}

	cmd := newScanFlags()
	require.NoError(t, cmd.Flags().Set("workers", "2"))
	require.NoError(t, cmd.Flags().Set("tools", "nuclei,testssl.sh"))
	require.NoError(t, cmd.Flags().Set("exclude", "**/{fixtures,testdata}/**"))

	ApplyFlags(&cfg, cmd)

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"nuclei", "testssl.sh"}, cfg.Tools)
	// The glob keeps its comma: exclude is an array flag, not a slice.
	assert.Equal(t, []string{"**/{fixtures,testdata}/**"}, cfg.Excludes)
	// Not changed, flags weren't set.
	assert.Equal(t, "xlsx", cfg.Format)
	assert.Equal(t, "daily", cfg.Schedule)
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := Defaults()
	cfg.Format = "pdf"

	err := cfg.Validate()
	var cfgErr *core.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "pdf")
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := Defaults()
	cfg.Workers = 0

	var cfgErr *core.ConfigError
	assert.ErrorAs(t, cfg.Validate(), &cfgErr)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Nil(t, cfg.Validate())
}
