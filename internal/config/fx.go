package config

import "go.uber.org/fx"

// Module provides the process-wide Config, loaded once from the
// environment (and .env, if present).
var Module = fx.Module("config",
	fx.Provide(Load),
)
