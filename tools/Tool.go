package tools

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
)

// Tool describes one wrapped scanner: the binary it shells out to, the
// kind of target it consumes, how its command line is built and how its
// output is decoded into findings.
type Tool struct {
	Name        string
	Bin         string
	Kind        core.TargetKind
	Description string

	// WritesFile marks tools that write their report to a file passed on
	// the command line instead of stdout.
	WritesFile bool

	BuildArgs func(target core.Target, outFile string) []string
	Parse     func(data []byte, target core.Target) ([]core.Finding, error)
}

// AppliesTo reports whether the tool can run against the target at all.
// Path tools run against any resolved working tree, URL tools only
// against targets probeable over HTTP(S).
func (t *Tool) AppliesTo(target core.Target) bool {
	if t.Kind == core.TargetKindURL {
		_, ok := target.HTTPURL()
		return ok
	}
	return true
}

// Execute runs the tool against a resolved target and parses its output.
// The returned RawResult is populated even on failure so callers can
// record exit codes and durations.
func (t *Tool) Execute(ctx context.Context, invoker Invoker, target core.Target, workDir string) ([]core.Finding, RawResult, error) {
	var outFile string
	if t.WritesFile {
		outFile = filepath.Join(workDir, utils.GenerateRandomFilename("json"))
		defer os.Remove(outFile)
	}

	raw, err := invoker.Run(ctx, t, t.BuildArgs(target, outFile))
	if err != nil {
		return nil, raw, err
	}

	data := raw.Stdout
	if t.WritesFile {
		fileData, readErr := os.ReadFile(outFile)
		if readErr != nil {
			if raw.ExitCode != 0 {
				return nil, raw, &core.ToolExecutionError{Tool: t.Name, ExitCode: raw.ExitCode, Stderr: raw.Stderr, Err: readErr}
			}
			// A clean exit without a report file means nothing was found.
			fileData = nil
		}
		data = fileData
	}

	findings, err := t.Parse(data, target)
	if err != nil {
		return nil, raw, &core.ToolExecutionError{Tool: t.Name, ExitCode: raw.ExitCode, Stderr: raw.Stderr, Err: err}
	}
	return findings, raw, nil
}

// Registry holds the available tools in registration order.
type Registry struct {
	order []string
	tools map[string]*Tool
}

// NewRegistry returns a registry with all built-in tools registered.
func NewRegistry() *Registry {
	registry := &Registry{tools: make(map[string]*Tool)}
	registry.Register(DetectSecretsTool())
	registry.Register(NucleiTool())
	registry.Register(TestsslTool())
	registry.Register(TrivyTool())
	return registry
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(tool *Tool) {
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

func (r *Registry) Get(name string) (*Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns every registered tool in registration order.
func (r *Registry) All() []*Tool {
	all := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.tools[name])
	}
	return all
}

// Resolve maps requested tool names onto registered tools. An empty
// request selects every registered tool.
func (r *Registry) Resolve(names []string) ([]*Tool, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	selected := make([]*Tool, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		tool, ok := r.tools[name]
		if !ok {
			known := r.Names()
			sort.Strings(known)
			return nil, core.NewConfigError("unknown tool %q, known tools: %s", name, strings.Join(known, ", "))
		}
		seen[name] = true
		selected = append(selected, tool)
	}
	if len(selected) == 0 {
		return nil, core.NewConfigError("no tools selected")
	}
	return selected, nil
}
