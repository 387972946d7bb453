package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CollectionsConfig holds the cooperative-wide settings threaded through
// DebtEngine, PaymentPoster and CommissionCalculator, generalizing the
// teacher's BillingConfigHolder (aging buckets/risk levels) to this
// domain's global singletons (spec §9: "timezone, currency, cutoff become
// a typed configuration object").
type CollectionsConfig struct {
	CivilTimezone      string
	DefaultCurrency    string
	ArrearsCutoffMonths int
	CommissionDefault  CommissionDefault
}

// CommissionDefault is the fallback per-agent commission configuration
// (spec §4.9) when an agent has no override on file.
type CommissionDefault struct {
	BaseRate       float64
	GraceDays      int
	PenaltyPerDay  float64
}

// DefaultCollectionsConfig is used when no collections.yaml section is present,
// matching the spec's example figures (§8 scenario 7).
func DefaultCollectionsConfig() CollectionsConfig {
	return CollectionsConfig{
		CivilTimezone:       "America/Argentina/Mendoza",
		DefaultCurrency:     "ARS",
		ArrearsCutoffMonths: 4,
		CommissionDefault: CommissionDefault{
			BaseRate:      0.05,
			GraceDays:     7,
			PenaltyPerDay: 0.1,
		},
	}
}

// CollectionsConfigHolder hot-reloads CollectionsConfig the same way the
// teacher's BillingConfigHolder does.
type CollectionsConfigHolder struct {
	current atomic.Value // holds CollectionsConfig
}

// NewCollectionsConfigHolder reads collections.yaml, falling back to
// DefaultCollectionsConfig when no file is present.
func NewCollectionsConfigHolder() (*CollectionsConfigHolder, error) {
	v := viper.New()
	v.SetConfigName("collections")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/nucleo")

	v.SetEnvPrefix("NUCLEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &CollectionsConfigHolder{}

	cfg := DefaultCollectionsConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else if err := v.UnmarshalKey("collections", &cfg); err != nil {
		return nil, err
	}
	if err := validateCollectionsConfig(cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultCollectionsConfig()
		if err := v.UnmarshalKey("collections", &updated); err != nil {
			log.Printf("[collections-config] reload failed: %v", err)
			return
		}
		if err := validateCollectionsConfig(updated); err != nil {
			log.Printf("[collections-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[collections-config] reloaded from %s", e.Name)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *CollectionsConfigHolder) Get() CollectionsConfig {
	return h.current.Load().(CollectionsConfig)
}

func validateCollectionsConfig(cfg CollectionsConfig) error {
	if cfg.CivilTimezone == "" {
		return errors.New("collections.civilTimezone cannot be empty")
	}
	if cfg.DefaultCurrency == "" {
		return errors.New("collections.defaultCurrency cannot be empty")
	}
	if cfg.ArrearsCutoffMonths <= 0 {
		return errors.New("collections.arrearsCutoffMonths must be positive")
	}
	return nil
}
