package core

import "time"

// Invocation statuses. Skipped means the tool/target pairing was never
// attempted because the tool does not apply to that kind of target.
const (
	InvocationOK      = "ok"
	InvocationFailed  = "failed"
	InvocationSkipped = "skipped"
)

// Invocation records the outcome of one tool against one target.
type Invocation struct {
	Tool       string `json:"tool"`
	Target     string `json:"target"`
	Status     string `json:"status"`
	ExitCode   int    `json:"exit_code"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// TargetInfo is the per-target header of a report: how the target was
// resolved plus a small language inventory of its working tree.
type TargetInfo struct {
	Raw          string         `json:"target"`
	Kind         TargetKind     `json:"kind"`
	LocalPath    string         `json:"local_path,omitempty"`
	CloneError   string         `json:"clone_error,omitempty"`
	Files        int            `json:"files,omitempty"`
	Languages    map[string]int `json:"languages,omitempty"`
	Commits      int            `json:"commits,omitempty"`
	Contributors int            `json:"contributors,omitempty"`
	LastCommit   string         `json:"last_commit,omitempty"`
}

// Summary aggregates finding counts for the report header.
type Summary struct {
	Findings   int              `json:"findings"`
	BySeverity map[Severity]int `json:"by_severity"`
	ByTool     map[string]int   `json:"by_tool"`
}

// Add counts a finding into the summary.
func (s *Summary) Add(f Finding) {
	if s.BySeverity == nil {
		s.BySeverity = make(map[Severity]int)
	}
	if s.ByTool == nil {
		s.ByTool = make(map[string]int)
	}
	s.Findings++
	s.BySeverity[f.Severity]++
	if f.Tool != "" {
		s.ByTool[f.Tool]++
	}
}

// Run is the report header: one scan pass over all tool/target pairs.
type Run struct {
	ID          string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Targets     []TargetInfo `json:"targets"`
	Tools       []string     `json:"tools"`
	Invocations []Invocation `json:"invocations"`
	Summary     Summary      `json:"summary"`
}
