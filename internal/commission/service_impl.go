package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Calendar   *period.Calendar
	MemberRepo memberdomain.Repository
	PayRepo    paymentdomain.Repository
	LedgerSvc  ledgerdomain.Service
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	calendar   *period.Calendar
	memberRepo memberdomain.Repository
	payRepo    paymentdomain.Repository
	ledgerSvc  ledgerdomain.Service
}

// NewService constructs CommissionCalculator.
func NewService(p Params) Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("commission.service"),
		calendar:   p.Calendar,
		memberRepo: p.MemberRepo,
		payRepo:    p.PayRepo,
		ledgerSvc:  p.LedgerSvc,
	}
}

func (s *service) Calculate(ctx context.Context, agentUserID int64, reportingPeriod period.Period, cfg AgentConfig, currency string) (Report, error) {
	allocations, err := s.payRepo.AllocationsForAgentPeriod(ctx, s.db, agentUserID, reportingPeriod)
	if err != nil {
		return Report{}, fmt.Errorf("load agent allocations: %w", err)
	}

	now := time.Now()
	earned := decimal.Zero
	for _, a := range allocations {
		daysHeld := int(now.Sub(a.PostedAt).Hours() / 24)
		extra := daysHeld - cfg.GraceDays
		if extra < 0 {
			extra = 0
		}
		penalty := cfg.PenaltyPerDay.Mul(decimal.NewFromInt(int64(extra)))
		effRate := cfg.BaseRate.Mul(decimal.NewFromInt(1).Sub(penalty))
		if effRate.IsNegative() {
			effRate = decimal.Zero
		}
		earned = earned.Add(a.AmountApplied.Mul(effRate))
	}
	earned = earned.Round(2)

	members, err := s.memberRepo.FindActiveByAgentID(ctx, s.db, agentUserID)
	if err != nil {
		return Report{}, fmt.Errorf("load agent members: %w", err)
	}
	feesTotal := decimal.Zero
	for _, m := range members {
		feesTotal = feesTotal.Add(m.EffectiveFee())
	}
	expected := feesTotal.Mul(cfg.BaseRate).Round(2)

	start, end := s.calendar.Bounds(reportingPeriod)
	alreadyPaid, err := s.alreadyPaid(ctx, agentUserID, currency, start, end)
	if err != nil {
		return Report{}, fmt.Errorf("sum already-paid commission: %w", err)
	}

	return Report{
		AgentUserID: agentUserID,
		Period:      reportingPeriod,
		Earned:      earned,
		Expected:    expected,
		AlreadyPaid: alreadyPaid,
		Outstanding: earned.Sub(alreadyPaid),
	}, nil
}

func (s *service) alreadyPaid(ctx context.Context, agentUserID int64, currency string, from, to time.Time) (decimal.Decimal, error) {
	entries, err := s.ledgerSvc.List(ctx, ledgerdomain.ListFilter{
		OwnerUserID: &agentUserID,
		AccountCode: account.ComisionCobrador,
		Currency:    currency,
		Kind:        ledgerdomain.KindCommissionPayout,
		Window:      ledgerdomain.BalanceWindow{From: &from, To: &to},
	}, ledgerdomain.Page{Limit: 10000})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range entries {
		if e.Side == ledgerdomain.SideDebit {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}
