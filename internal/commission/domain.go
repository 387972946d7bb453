// Package commission implements CommissionCalculator (spec §4.9): the
// per-agent earned-vs-paid commission computation for a reporting period.
package commission

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/period"
)

// AgentConfig is one agent's commission configuration. BaseRate and
// PenaltyPerDay accept either a fraction (<=1) or a percentage (0-100);
// callers should pass raw input through pkg/money.NormalizeRate before
// storing it here, so Calculate always sees a normalized fraction.
type AgentConfig struct {
	BaseRate      decimal.Decimal
	GraceDays     int
	PenaltyPerDay decimal.Decimal
}

// Report is one agent's commission standing for a reporting period.
type Report struct {
	AgentUserID int64
	Period      period.Period
	Earned      decimal.Decimal
	Expected    decimal.Decimal
	AlreadyPaid decimal.Decimal
	Outstanding decimal.Decimal
}

// Service is CommissionCalculator's public contract.
type Service interface {
	// Calculate computes earned, expected and already-paid commission for
	// agentUserID over reportingPeriod, using cfg (normalized rates).
	Calculate(ctx context.Context, agentUserID int64, reportingPeriod period.Period, cfg AgentConfig, currency string) (Report, error)
}
