package reporters

import "github.com/reaandrew/secsweep/core"

type Reporter interface {
	Report(run *core.Run, repository core.FindingRepository) error
}
