package ratelimit

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/sepelio/nucleo/internal/config"
)

// Module provides the best-effort distributed Locker CashMovements layers
// in front of its DB-level idempotency check. Both the client and the
// Locker are nil when no Redis address is configured (the consuming
// fx.In field is tagged optional:"true"), matching the spec's "best
// effort" framing for this guard.
var Module = fx.Module("rate.limit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewLocker),
)

// NewRedisClient dials the configured Redis instance, or returns nil when
// RedisAddr is unset.
func NewRedisClient(cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
