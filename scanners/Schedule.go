package scanners

import (
	"context"
	"strings"

	"github.com/reaandrew/secsweep/core"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// ParseSchedule maps the schedule option onto a cron expression.
// Returns recurring=false for a single immediate run. Accepted values:
// "once" (or empty), "hourly", "daily", "weekly", "monthly", any
// "@every <duration>" / "@midnight" style descriptor, or a standard
// 5-field cron expression.
func ParseSchedule(schedule string) (spec string, recurring bool, err error) {
	switch strings.ToLower(strings.TrimSpace(schedule)) {
	case "", "once":
		return "", false, nil
	case "hourly":
		return "@hourly", true, nil
	case "daily":
		return "@daily", true, nil
	case "weekly":
		return "@weekly", true, nil
	case "monthly":
		return "@monthly", true, nil
	}

	if _, parseErr := cron.ParseStandard(schedule); parseErr != nil {
		return "", false, core.NewConfigError("invalid schedule %q: %v", schedule, parseErr)
	}
	return schedule, true, nil
}

// RunOnSchedule runs fn immediately, then again on every tick of the
// cron spec until the context is canceled. The final in-flight run is
// given a chance to finish before returning.
func RunOnSchedule(ctx context.Context, spec string, fn func()) error {
	fn()

	c := cron.New()
	if _, err := c.AddFunc(spec, fn); err != nil {
		return core.NewConfigError("invalid schedule %q: %v", spec, err)
	}

	log.Infof("Scheduler started (%s)", spec)
	c.Start()
	<-ctx.Done()

	// Stop returns a context that completes once running jobs finish.
	<-c.Stop().Done()
	return ctx.Err()
}
