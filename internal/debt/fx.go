package debt

import "go.uber.org/fx"

var Module = fx.Module("debt.service",
	fx.Provide(NewService),
)
