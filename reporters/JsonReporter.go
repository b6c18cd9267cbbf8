package reporters

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reaandrew/secsweep/core"
	log "github.com/sirupsen/logrus"
)

// JsonReporter writes the whole run as a single JSON document: the run
// header followed by every finding.
type JsonReporter struct {
	OutputPath string
}

type jsonReport struct {
	core.Run
	Findings []core.Finding `json:"findings"`
}

func (j JsonReporter) Report(run *core.Run, repository core.FindingRepository) error {
	document := jsonReport{Run: *run, Findings: make([]core.Finding, 0)}

	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve findings: %w", err)
		}
		document.Findings = append(document.Findings, set.Findings...)
	}

	jsonBytes, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	jsonBytes = append(jsonBytes, '\n')

	if err := os.WriteFile(j.OutputPath, jsonBytes, 0644); err != nil {
		return &core.OutputWriteError{Path: j.OutputPath, Err: err}
	}

	log.Infof("JSON report generated successfully: %s", j.OutputPath)
	return nil
}
