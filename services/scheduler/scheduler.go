package schedulersvc

import (
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

// New selects the scheduler backend by deployment configuration. Both
// backends honor the same contract; callers must not depend on which
// one they got.
func New(dispatcher attendance.Dispatcher, clk core.Clock, conf *core.Config, logger core.Logger) (attendance.Scheduler, error) {
	switch conf.Notification.Scheduler {
	case "queue":
		return NewQueueScheduler(conf, logger), nil
	case "", "timer":
		return NewTimerScheduler(dispatcher, clk, conf, logger), nil
	}
	return nil, errors.Errorf("unknown scheduler backend %q", conf.Notification.Scheduler)
}
