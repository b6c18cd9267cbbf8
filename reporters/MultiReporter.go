package reporters

import "github.com/reaandrew/secsweep/core"

// MultiReporter fans one run out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(run *core.Run, repository core.FindingRepository) error {
	for _, reporter := range m {
		if err := reporter.Report(run, repository); err != nil {
			return err
		}
	}
	return nil
}
