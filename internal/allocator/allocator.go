// Package allocator implements Allocator (spec §4.6): FIFO and manual
// placement of an incoming amount across due billing periods. Pure
// computation — no storage, no blocking suspension points (spec §5).
package allocator

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/debt"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/pkg/money"
)

// PeriodAmount is one (period, amount) placement.
type PeriodAmount struct {
	Period period.Period
	Amount decimal.Decimal
}

// Result is Allocator's output.
type Result struct {
	Allocations []PeriodAmount
	Leftover    decimal.Decimal
}

var (
	ErrPeriodInFuture         = errors.New("period_in_future")
	ErrOverpayPeriod          = errors.New("overpay_period")
	ErrBreakdownExceedsAmount = errors.New("breakdown_exceeds_amount")
	ErrNothingToAllocate      = errors.New("nothing_to_allocate")
	// ErrLeftoverNotAllowed is returned when an amount cannot be fully
	// placed on due periods <= now: spec §3 disallows a leftover on a
	// fully-posted payment ("sum(allocations.amount_applied) = amount
	// when fully allocated").
	ErrLeftoverNotAllowed = errors.New("leftover_not_allowed")
)

// FIFOUntilNow walks state.Periods in ascending order, skipping periods
// after nowPeriod and periods with Balance <= 0, taking min(remaining,
// balance) at each step.
func FIFOUntilNow(state debt.MemberDebtState, nowPeriod period.Period, amount decimal.Decimal) (Result, error) {
	remaining := money.Round2(amount)
	allocations := make([]PeriodAmount, 0, len(state.Periods))

	for _, ps := range state.Periods {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		if ps.Period.After(nowPeriod) {
			continue
		}
		if !ps.Balance.IsPositive() {
			continue
		}
		take := money.Round2(money.Min(remaining, ps.Balance))
		if !take.IsPositive() {
			continue
		}
		allocations = append(allocations, PeriodAmount{Period: ps.Period, Amount: take})
		remaining = money.Round2(remaining.Sub(take))
	}

	result := Result{Allocations: allocations, Leftover: remaining}
	if len(allocations) == 0 {
		return result, ErrNothingToAllocate
	}
	if remaining.IsPositive() {
		return result, ErrLeftoverNotAllowed
	}
	return result, nil
}

// Manual validates a caller-supplied breakdown against state, then places
// any remainder by FIFO over the still-due periods.
func Manual(state debt.MemberDebtState, nowPeriod period.Period, breakdown []PeriodAmount, fallbackAmount decimal.Decimal) (Result, error) {
	balances := make(map[period.Period]decimal.Decimal, len(state.Periods))
	for _, ps := range state.Periods {
		balances[ps.Period] = ps.Balance
	}

	breakdownTotal := decimal.Zero
	result := make([]PeriodAmount, 0, len(breakdown)+4)
	for _, pa := range breakdown {
		if pa.Period.After(nowPeriod) {
			return Result{}, ErrPeriodInFuture
		}
		if !pa.Amount.IsPositive() {
			return Result{}, ErrOverpayPeriod
		}
		bal, ok := balances[pa.Period]
		if !ok || pa.Amount.GreaterThan(bal) {
			return Result{}, ErrOverpayPeriod
		}
		amt := money.Round2(pa.Amount)
		result = append(result, PeriodAmount{Period: pa.Period, Amount: amt})
		breakdownTotal = breakdownTotal.Add(amt)
		balances[pa.Period] = bal.Sub(amt)
	}

	if breakdownTotal.GreaterThan(money.Round2(fallbackAmount)) {
		return Result{}, ErrBreakdownExceedsAmount
	}

	remainder := money.Round2(fallbackAmount.Sub(breakdownTotal))
	if remainder.IsPositive() {
		remainderState := adjustedState(state, balances)
		fifoResult, err := FIFOUntilNow(remainderState, nowPeriod, remainder)
		if err != nil && !errors.Is(err, ErrNothingToAllocate) {
			return Result{}, err
		}
		result = mergeAllocations(result, fifoResult.Allocations)
		remainder = fifoResult.Leftover
	}

	if len(result) == 0 {
		return Result{}, ErrNothingToAllocate
	}
	if remainder.IsPositive() {
		return Result{}, ErrLeftoverNotAllowed
	}

	return Result{Allocations: result, Leftover: remainder}, nil
}

func adjustedState(state debt.MemberDebtState, balances map[period.Period]decimal.Decimal) debt.MemberDebtState {
	adjusted := debt.MemberDebtState{Periods: make([]debt.PeriodState, 0, len(state.Periods))}
	for _, ps := range state.Periods {
		ps.Balance = balances[ps.Period]
		adjusted.Periods = append(adjusted.Periods, ps)
	}
	return adjusted
}

func mergeAllocations(a, b []PeriodAmount) []PeriodAmount {
	index := make(map[period.Period]int, len(a))
	out := make([]PeriodAmount, 0, len(a)+len(b))
	for _, pa := range a {
		index[pa.Period] = len(out)
		out = append(out, pa)
	}
	for _, pa := range b {
		if i, ok := index[pa.Period]; ok {
			out[i].Amount = money.Round2(out[i].Amount.Add(pa.Amount))
			continue
		}
		out = append(out, pa)
	}
	return out
}
