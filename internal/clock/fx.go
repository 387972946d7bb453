package clock

import "go.uber.org/fx"

// Module provides the process-wide Clock, backed by time.Now in production.
var Module = fx.Module("clock",
	fx.Provide(func() Clock { return System }),
)
