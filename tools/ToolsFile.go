package tools

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/reaandrew/secsweep/core"
	"gopkg.in/yaml.v3"
)

// Definition is one entry in a custom tools file. Args may reference
// {{target}} and {{output}} placeholders; a definition whose args use
// {{output}} is treated as writing its report to that file.
type Definition struct {
	Name     string   `yaml:"name"`
	Bin      string   `yaml:"bin"`
	Kind     string   `yaml:"kind"`
	Args     []string `yaml:"args"`
	Type     string   `yaml:"type"`
	Severity string   `yaml:"severity"`
}

type toolsFile struct {
	Tools []Definition `yaml:"tools"`
}

// LoadToolsFile reads custom tool definitions from a YAML file and
// registers them, replacing any built-in with the same name.
func LoadToolsFile(registry *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.NewConfigError("failed to read tools file %q: %v", path, err)
	}

	var file toolsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return core.NewConfigError("failed to parse tools file %q: %v", path, err)
	}
	if len(file.Tools) == 0 {
		return core.NewConfigError("tools file %q defines no tools", path)
	}

	for _, def := range file.Tools {
		tool, err := FromDefinition(def)
		if err != nil {
			return err
		}
		registry.Register(tool)
	}
	return nil
}

// FromDefinition builds a line-oriented generic tool from a definition.
// Every non-empty output line becomes one finding.
func FromDefinition(def Definition) (*Tool, error) {
	if def.Name == "" {
		return nil, core.NewConfigError("tool definition is missing a name")
	}

	bin := def.Bin
	if bin == "" {
		bin = def.Name
	}

	kind := core.TargetKindPath
	switch def.Kind {
	case "", "path":
	case "url":
		kind = core.TargetKindURL
	default:
		return nil, core.NewConfigError("tool %q has unknown kind %q, expected path or url", def.Name, def.Kind)
	}

	findingType := def.Type
	if findingType == "" {
		findingType = core.TypeGeneric
	}
	severity := core.SeverityInfo
	if def.Severity != "" {
		severity = core.ParseSeverity(def.Severity)
	}

	args := def.Args
	if len(args) == 0 {
		args = []string{"{{target}}"}
	}
	writesFile := false
	for _, arg := range args {
		if strings.Contains(arg, "{{output}}") {
			writesFile = true
		}
	}

	name := def.Name
	return &Tool{
		Name:        name,
		Bin:         bin,
		Kind:        kind,
		Description: "Custom tool from tools file",
		WritesFile:  writesFile,
		BuildArgs: func(target core.Target, outFile string) []string {
			value := target.LocalPath
			if kind == core.TargetKindURL {
				value, _ = target.HTTPURL()
			}

			built := make([]string, 0, len(args))
			for _, arg := range args {
				arg = strings.ReplaceAll(arg, "{{target}}", value)
				arg = strings.ReplaceAll(arg, "{{output}}", outFile)
				built = append(built, arg)
			}
			return built
		},
		Parse: func(data []byte, target core.Target) ([]core.Finding, error) {
			var findings []core.Finding
			lineNumber := 0
			scanner := bufio.NewScanner(bytes.NewReader(data))
			for scanner.Scan() {
				lineNumber++
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				findings = append(findings, core.Finding{
					Name:     name,
					Type:     findingType,
					Severity: severity,
					Tool:     name,
					Target:   target.Raw,
					Properties: map[string]interface{}{
						"output_line": lineNumber,
						"text":        line,
					},
				})
			}
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return findings, nil
		},
	}, nil
}
