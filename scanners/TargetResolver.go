package scanners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
)

// ResolvedTarget is a target ready for scanning. Remote targets that
// could not be cloned carry the clone error so the runner can fail their
// path-based invocations instead of aborting the run.
type ResolvedTarget struct {
	core.Target
	CloneErr error
}

// TargetResolver prepares targets for scanning: local paths are checked
// for existence, remote repositories are cloned below CloneBaseDir.
type TargetResolver struct {
	CloneBaseDir string
	KeepClones   bool

	cloned []string
}

// Resolve parses and prepares every raw target. A missing local path is
// a configuration error; a failed clone is not, it is recorded on the
// resolved target and surfaces as failed invocations later.
func (r *TargetResolver) Resolve(ctx context.Context, rawTargets []string) ([]ResolvedTarget, error) {
	if len(rawTargets) == 0 {
		return nil, core.NewConfigError("no targets specified")
	}

	resolved := make([]ResolvedTarget, 0, len(rawTargets))
	for _, raw := range rawTargets {
		target, err := core.ParseTarget(raw)
		if err != nil {
			return nil, core.NewConfigError("invalid target %q: %v", raw, err)
		}

		switch target.Kind {
		case core.TargetKindPath:
			info, err := os.Stat(target.LocalPath)
			if err != nil {
				return nil, core.NewConfigError("target path %q does not exist", target.LocalPath)
			}
			if !info.IsDir() {
				return nil, core.NewConfigError("target path %q is not a directory", target.LocalPath)
			}
			resolved = append(resolved, ResolvedTarget{Target: target})
		case core.TargetKindURL:
			resolved = append(resolved, r.clone(ctx, target))
		}
	}
	return resolved, nil
}

func (r *TargetResolver) clone(ctx context.Context, target core.Target) ResolvedTarget {
	repoName, err := utils.ExtractRepoName(target.Raw)
	if err != nil {
		return ResolvedTarget{Target: target, CloneErr: err}
	}

	if err := os.MkdirAll(r.CloneBaseDir, os.ModePerm); err != nil {
		return ResolvedTarget{Target: target, CloneErr: fmt.Errorf("failed to create clone base directory %q: %w", r.CloneBaseDir, err)}
	}

	destination := filepath.Join(r.CloneBaseDir, utils.SanitizeRepoName(repoName))
	// A leftover clone from an earlier run would make PlainClone fail.
	if err := os.RemoveAll(destination); err != nil {
		return ResolvedTarget{Target: target, CloneErr: err}
	}

	log.Infof("Cloning repository %s", repoName)
	if err := utils.CloneRepository(ctx, target.Raw, destination); err != nil {
		return ResolvedTarget{Target: target, CloneErr: err}
	}

	r.cloned = append(r.cloned, destination)
	target.LocalPath = destination
	return ResolvedTarget{Target: target}
}

// Cleanup removes the working clones made by Resolve unless the
// resolver was asked to keep them.
func (r *TargetResolver) Cleanup() {
	if r.KeepClones {
		return
	}
	for _, path := range r.cloned {
		if err := os.RemoveAll(path); err != nil {
			log.Warnf("Failed to remove clone %q: %v", path, err)
		}
	}
	r.cloned = nil
}
