package scheduler

import (
	"strings"

	"github.com/robfig/cron/v3"

	gwerrors "github.com/masallsome/gwsyncer/pkg/errors"
)

// parser accepts both 6-field (seconds first) expressions and the
// predefined-descriptor grammar (@every, @hourly, ...). A bare 5-field
// expression is handled explicitly by ParseSchedule, which prepends "*" for
// the seconds field, so "* * * * *" fires every second of every minute
// (cron.SecondOptional would instead default seconds to 0 and fire once a
// minute).
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Reboot is the sentinel returned by ParseSchedule for "@reboot": a one-shot
// that fires once at process start and is never re-armed.
const Reboot = "@reboot"

// ParseSchedule validates expr and returns either a cron.Schedule (normal
// case) or, for "@reboot", (nil, true, nil) signaling the one-shot case.
// Invalid expressions are rejected with a configuration error, satisfying
// §8's "total function" property.
func ParseSchedule(expr string) (cron.Schedule, bool, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == Reboot {
		return nil, true, nil
	}
	if fields := strings.Fields(trimmed); len(fields) == 5 {
		trimmed = "* " + trimmed
	}
	sched, err := parser.Parse(trimmed)
	if err != nil {
		return nil, false, gwerrors.Configuration("invalid schedule expression %q: %v", expr, err)
	}
	return sched, false, nil
}
