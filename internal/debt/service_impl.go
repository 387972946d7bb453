package debt

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/internal/pricing"
)

// Config records the historical-fee choice (spec §9.1).
type Config struct {
	// UseFeeAtPeriod is not read by the service: every period is charged
	// the member's current effective fee whatever its value, and there is
	// no fee-history store to look up a per-period fee.
	UseFeeAtPeriod bool
}

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Calendar   *period.Calendar
	MemberRepo memberdomain.Repository
	PayRepo    paymentdomain.Repository
	PricingSvc pricing.Service
	Config     Config `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	calendar   *period.Calendar
	memberRepo memberdomain.Repository
	payRepo    paymentdomain.Repository
	pricingSvc pricing.Service
	cfg        Config
}

// NewService constructs DebtEngine.
func NewService(p Params) Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("debt.service"),
		calendar:   p.Calendar,
		memberRepo: p.MemberRepo,
		payRepo:    p.PayRepo,
		pricingSvc: p.PricingSvc,
		cfg:        p.Config,
	}
}

func (s *service) PeriodState(ctx context.Context, memberID snowflake.ID, window Window) (MemberDebtState, error) {
	m, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return MemberDebtState{}, ErrMemberNotFound
	}

	now := s.calendar.Now()
	from := s.calendar.Of(m.JoinedAt)
	if window.From != nil {
		from = *window.From
	}
	to := now
	if window.To != nil {
		to = *window.To
	} else if window.IncludeFuture {
		to = now.AddMonths(12)
	}

	paidByPeriod, err := s.payRepo.PaidByPeriod(ctx, s.db, memberID)
	if err != nil {
		return MemberDebtState{}, err
	}
	paidIndex := make(map[period.Period]decimal.Decimal, len(paidByPeriod))
	for _, pp := range paidByPeriod {
		paidIndex[pp.Period] = pp.Paid
	}

	// charge is today's effective fee for every period, sourced from
	// PricingView rather than the member record directly; fee changes
	// over time are not tracked (see Config.UseFeeAtPeriod).
	fee, err := s.pricingSvc.MemberFee(ctx, memberID)
	if err != nil {
		return MemberDebtState{}, ErrMemberNotFound
	}
	charge := fee.EffectiveFee

	periods := period.Range(from, to)
	states := make([]PeriodState, 0, len(periods))
	totals := GrandTotals{Charge: decimal.Zero, Paid: decimal.Zero, Balance: decimal.Zero}
	for _, p := range periods {
		if p.After(now) && !window.IncludeFuture {
			continue
		}
		paid := paidIndex[p]
		balance := charge.Sub(paid)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		status := StatusDue
		switch {
		case balance.IsZero():
			status = StatusPaid
		case paid.IsPositive():
			status = StatusPartial
		}
		states = append(states, PeriodState{
			Period:  p,
			Charge:  charge,
			Paid:    paid,
			Balance: balance,
			Status:  status,
		})
		totals.Charge = totals.Charge.Add(charge)
		totals.Paid = totals.Paid.Add(paid)
		totals.Balance = totals.Balance.Add(balance)
	}

	return MemberDebtState{Periods: states, GrandTotals: totals}, nil
}

func (s *service) TotalDueUpToNow(ctx context.Context, memberID snowflake.ID) (decimal.Decimal, error) {
	state, err := s.PeriodState(ctx, memberID, Window{})
	if err != nil {
		return decimal.Zero, err
	}
	return state.GrandTotals.Balance, nil
}

func (s *service) ArrearsMonths(ctx context.Context, memberID snowflake.ID) (int, error) {
	state, err := s.PeriodState(ctx, memberID, Window{})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range state.Periods {
		if p.Balance.IsPositive() {
			count++
		}
	}
	return count, nil
}

func (s *service) BalanceAt(ctx context.Context, memberID snowflake.ID, p period.Period) (decimal.Decimal, error) {
	fee, err := s.pricingSvc.MemberFee(ctx, memberID)
	if err != nil {
		return decimal.Zero, ErrMemberNotFound
	}
	paid, err := s.payRepo.PaidForPeriod(ctx, s.db, memberID, p)
	if err != nil {
		return decimal.Zero, err
	}
	balance := fee.EffectiveFee.Sub(paid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	return balance, nil
}
