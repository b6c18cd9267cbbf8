package scanners_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/scanners"
	"github.com/stretchr/testify/assert"
)

func TestResolveAcceptsExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	resolver := &scanners.TargetResolver{CloneBaseDir: t.TempDir()}

	resolved, err := resolver.Resolve(context.Background(), []string{dir})
	assert.Nil(t, err)
	assert.Len(t, resolved, 1)
	assert.Equal(t, core.TargetKindPath, resolved[0].Kind)
	assert.Equal(t, dir, resolved[0].LocalPath)
	assert.Nil(t, resolved[0].CloneErr)
}

func TestResolveRejectsMissingPath(t *testing.T) {
	resolver := &scanners.TargetResolver{CloneBaseDir: t.TempDir()}

	_, err := resolver.Resolve(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})

	var configErr *core.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestResolveRejectsEmptyTargetList(t *testing.T) {
	resolver := &scanners.TargetResolver{CloneBaseDir: t.TempDir()}

	_, err := resolver.Resolve(context.Background(), nil)

	var configErr *core.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestResolveRecordsCloneFailureWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	resolver := &scanners.TargetResolver{CloneBaseDir: t.TempDir()}

	// A malformed ssh remote fails name extraction before any network
	// activity. The run must still proceed for the healthy target.
	resolved, err := resolver.Resolve(context.Background(), []string{"git@nohost", dir})
	assert.Nil(t, err)
	assert.Len(t, resolved, 2)

	assert.Equal(t, core.TargetKindURL, resolved[0].Kind)
	assert.NotNil(t, resolved[0].CloneErr)
	assert.Equal(t, "", resolved[0].LocalPath)

	assert.Nil(t, resolved[1].CloneErr)
	assert.Equal(t, dir, resolved[1].LocalPath)
}
