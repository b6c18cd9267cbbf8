package core

import (
	"fmt"
	"strings"
)

// TargetKind distinguishes local filesystem targets from remote ones.
type TargetKind string

const (
	TargetKindPath TargetKind = "path"
	TargetKindURL  TargetKind = "url"
)

// Target is a single scan subject. LocalPath is filled in during
// resolution: for path targets it mirrors Raw, for remote targets it
// points at the working clone.
type Target struct {
	Raw       string     `json:"raw"`
	Kind      TargetKind `json:"kind"`
	LocalPath string     `json:"local_path,omitempty"`
}

// ParseTarget classifies a raw target string. Anything that looks like a
// clonable repository URL is a URL target, everything else is treated as a
// local path.
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, fmt.Errorf("empty target")
	}
	if strings.HasPrefix(trimmed, "http://") ||
		strings.HasPrefix(trimmed, "https://") ||
		strings.HasPrefix(trimmed, "git@") ||
		strings.HasPrefix(trimmed, "ssh://") {
		return Target{Raw: trimmed, Kind: TargetKindURL}, nil
	}
	return Target{Raw: trimmed, Kind: TargetKindPath, LocalPath: trimmed}, nil
}

// HTTPURL returns the target's URL when it can be probed over HTTP(S).
// SSH remotes are clonable but not probeable.
func (t Target) HTTPURL() (string, bool) {
	if t.Kind != TargetKindURL {
		return "", false
	}
	if strings.HasPrefix(t.Raw, "http://") || strings.HasPrefix(t.Raw, "https://") {
		return t.Raw, true
	}
	return "", false
}
