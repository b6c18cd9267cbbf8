package reporters

import (
	"fmt"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/repositories"
	log "github.com/sirupsen/logrus"
)

// SqliteReporter writes the run into a SQLite database that the report
// command can later re-render into any other format.
type SqliteReporter struct {
	OutputPath string
}

func (s SqliteReporter) Report(run *core.Run, repository core.FindingRepository) error {
	reportRepo, err := repositories.NewSqliteFindingRepository(s.OutputPath)
	if err != nil {
		return &core.OutputWriteError{Path: s.OutputPath, Err: err}
	}
	defer reportRepo.Close()

	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve findings: %w", err)
		}
		if err := reportRepo.Store(set.Findings); err != nil {
			return &core.OutputWriteError{Path: s.OutputPath, Err: err}
		}
	}

	if err := reportRepo.StoreRun(run); err != nil {
		return &core.OutputWriteError{Path: s.OutputPath, Err: err}
	}

	log.Infof("SQLite report generated successfully: %s", s.OutputPath)
	return nil
}
