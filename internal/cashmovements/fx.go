package cashmovements

import "go.uber.org/fx"

var Module = fx.Module("cashmovements.service",
	fx.Provide(NewService),
)
