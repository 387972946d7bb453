package accounting

import "go.uber.org/fx"

var Module = fx.Module("accounting.service",
	fx.Provide(NewService),
)
