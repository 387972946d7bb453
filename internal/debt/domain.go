// Package debt implements DebtEngine (spec §4.5): for a member, the
// sequence of (period, charge, paid, balance, status) rows over a window.
// Grounded on the teacher's thin read-service convention, generalized with
// pricing.Service for charge() and the payment repository's PaidByPeriod
// for paid().
package debt

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/period"
)

// Status is a period's fill state.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPartial Status = "partial"
	StatusDue     Status = "due"
)

// PeriodState is one row of a member's period_state sequence.
type PeriodState struct {
	Period  period.Period
	Charge  decimal.Decimal
	Paid    decimal.Decimal
	Balance decimal.Decimal
	Status  Status
}

// GrandTotals summarizes a PeriodState slice.
type GrandTotals struct {
	Charge  decimal.Decimal
	Paid    decimal.Decimal
	Balance decimal.Decimal
}

// MemberDebtState is DebtEngine's full response for one member.
type MemberDebtState struct {
	Periods     []PeriodState
	GrandTotals GrandTotals
}

// Window bounds a period_state query; nil From defaults to the member's
// joined_at period, nil To defaults to now_period.
type Window struct {
	From          *period.Period
	To            *period.Period
	IncludeFuture bool
}

// Service is DebtEngine's public contract.
type Service interface {
	PeriodState(ctx context.Context, memberID snowflake.ID, window Window) (MemberDebtState, error)

	// TotalDueUpToNow sums Balance over periods <= now_period (used by
	// PaymentPoster step 3).
	TotalDueUpToNow(ctx context.Context, memberID snowflake.ID) (decimal.Decimal, error)

	// ArrearsMonths counts periods with Balance > 0 at or before now_period
	// (used by PaymentPoster step 4).
	ArrearsMonths(ctx context.Context, memberID snowflake.ID) (int, error)

	// BalanceAt returns the current balance for a single period — the race
	// re-check PaymentPoster step 8 drives off this.
	BalanceAt(ctx context.Context, memberID snowflake.ID, p period.Period) (decimal.Decimal, error)
}

var (
	ErrMemberNotFound = errors.New("member_not_found")
)
