package period

import (
	"go.uber.org/fx"

	"github.com/sepelio/nucleo/internal/clock"
	"github.com/sepelio/nucleo/internal/config"
)

// Module provides the *Calendar every debt/payment/commission query window
// is resolved against, dialed to the hot-reloaded collections timezone.
var Module = fx.Module("period",
	fx.Provide(NewCalendarFromConfig),
)

// NewCalendarFromConfig builds a Calendar off the collections config's
// civil timezone, re-reading the holder only at construction time: the
// timezone a cooperative operates in does not change at runtime the way
// its rates and cutoffs do.
func NewCalendarFromConfig(holder *config.CollectionsConfigHolder, c clock.Clock) (*Calendar, error) {
	cfg := config.DefaultCollectionsConfig()
	if holder != nil {
		cfg = holder.Get()
	}
	return NewCalendar(cfg.CivilTimezone, c)
}
