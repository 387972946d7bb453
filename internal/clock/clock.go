package clock

import "time"

// Clock abstracts wall-clock reads so PeriodCalendar and PaymentPoster are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System is the production Clock backed by time.Now.
var System Clock = systemClock{}

func (systemClock) Now() time.Time { return time.Now() }
