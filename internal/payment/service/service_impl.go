// Package service implements PaymentPoster (spec §4.7): the collection
// posting pipeline that turns a requested amount into a persisted Payment,
// a set of period Allocations, a balanced ledger pair and a Receipt, all
// inside one transaction. Adapted from the teacher's payment/service
// (webhook event processing) transaction/audit/metrics scaffolding,
// retargeted at direct cash-collection posting.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
	"github.com/sepelio/nucleo/internal/allocator"
	auditdomain "github.com/sepelio/nucleo/internal/audit/domain"
	"github.com/sepelio/nucleo/internal/config"
	"github.com/sepelio/nucleo/internal/debt"
	"github.com/sepelio/nucleo/internal/events"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	obsmetrics "github.com/sepelio/nucleo/internal/observability/metrics"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/internal/pricing"
	receiptdomain "github.com/sepelio/nucleo/internal/receipt/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Calendar   *period.Calendar
	Config     *config.CollectionsConfigHolder `optional:"true"`
	MemberRepo memberdomain.Repository
	Repo       paymentdomain.Repository
	DebtSvc    debt.Service
	PricingSvc pricing.Service
	LedgerSvc  ledgerdomain.Service
	ReceiptSvc receiptdomain.Service
	AuditSvc   auditdomain.Service
	Outbox     *events.Outbox
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	calendar   *period.Calendar
	cfgHolder  *config.CollectionsConfigHolder
	memberRepo memberdomain.Repository
	repo       paymentdomain.Repository
	debtSvc    debt.Service
	pricingSvc pricing.Service
	ledgerSvc  ledgerdomain.Service
	receiptSvc receiptdomain.Service
	auditSvc   auditdomain.Service
	outbox     *events.Outbox
	obsMetrics *obsmetrics.Metrics
}

// NewService constructs PaymentPoster.
func NewService(p Params) paymentdomain.Poster {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		calendar:   p.Calendar,
		cfgHolder:  p.Config,
		memberRepo: p.MemberRepo,
		repo:       p.Repo,
		debtSvc:    p.DebtSvc,
		pricingSvc: p.PricingSvc,
		ledgerSvc:  p.LedgerSvc,
		receiptSvc: p.ReceiptSvc,
		auditSvc:   p.AuditSvc,
		outbox:     p.Outbox,
		obsMetrics: p.ObsMetrics,
	}
}

// cfg returns the current hot-reloaded collections config, falling back
// to the domain defaults if no collections.yaml was found.
func (s *Service) cfg() config.CollectionsConfig {
	if s.cfgHolder == nil {
		return config.DefaultCollectionsConfig()
	}
	return s.cfgHolder.Get()
}

func (s *Service) Post(ctx context.Context, req paymentdomain.PostRequest) (paymentdomain.PostResult, error) {
	cfg := s.cfg()

	// Step 6 (normalize + idempotent replay) happens before opening the
	// transaction so a replay never touches storage beyond one lookup.
	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = s.genID.Generate().String()
	}
	method := paymentdomain.Method(strings.ToLower(strings.TrimSpace(string(req.Method))))

	if existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, idempotencyKey); err == nil && existing != nil {
		return s.replay(ctx, existing)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return paymentdomain.PostResult{}, fmt.Errorf("check idempotency key: %w", err)
	}

	// Step 1: load member, scope check.
	member, err := s.memberRepo.FindByID(ctx, s.db, req.MemberID)
	if err != nil {
		return paymentdomain.PostResult{}, paymentdomain.ErrMemberNotFound
	}
	if req.ActorAgentID != 0 && member.AgentID != req.ActorAgentID {
		return paymentdomain.PostResult{}, paymentdomain.ErrOutOfScope
	}

	fee, err := s.pricingSvc.MemberFee(ctx, req.MemberID)
	if err != nil {
		return paymentdomain.PostResult{}, fmt.Errorf("load pricing view: %w", err)
	}
	memberFee := fee.EffectiveFee

	// Step 2: now_period.
	nowPeriod := s.calendar.Now()

	// Step 3+4: load debt state, check up-to-date / arrears cutoff.
	state, err := s.debtSvc.PeriodState(ctx, req.MemberID, debt.Window{})
	if err != nil {
		return paymentdomain.PostResult{}, fmt.Errorf("load debt state: %w", err)
	}
	if state.GrandTotals.Balance.IsZero() {
		return paymentdomain.PostResult{}, paymentdomain.ErrClientUpToDate
	}
	arrearsMonths := 0
	for _, ps := range state.Periods {
		if ps.Balance.IsPositive() {
			arrearsMonths++
		}
	}
	cutoff := cfg.ArrearsCutoffMonths
	if cutoff <= 0 {
		cutoff = 4
	}
	if arrearsMonths >= cutoff {
		return paymentdomain.PostResult{}, paymentdomain.ErrArrearsCutoff
	}

	// Step 5: resolve final_amount.
	finalAmount := resolveAmount(req, memberFee, state)
	if !finalAmount.IsPositive() {
		return paymentdomain.PostResult{}, paymentdomain.ErrInvalidAmount
	}

	// Step 7: build allocations.
	var allocResult allocator.Result
	if req.Strategy == paymentdomain.StrategyManual {
		breakdown := make([]allocator.PeriodAmount, 0, len(req.Breakdown))
		for _, b := range req.Breakdown {
			breakdown = append(breakdown, allocator.PeriodAmount{Period: b.Period, Amount: b.Amount})
		}
		allocResult, err = allocator.Manual(state, nowPeriod, breakdown, finalAmount)
	} else {
		allocResult, err = allocator.FIFOUntilNow(state, nowPeriod, finalAmount)
	}
	if err != nil {
		return paymentdomain.PostResult{}, err
	}

	currency := req.Currency
	if currency == "" {
		currency = cfg.DefaultCurrency
	}
	postedAt := time.Now()
	if req.CollectedAt != nil {
		postedAt = *req.CollectedAt
	}

	var result paymentdomain.PostResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Step 8: race re-check against the posting transaction's view.
		for _, pa := range allocResult.Allocations {
			paid, err := s.repo.PaidForPeriod(ctx, tx, req.MemberID, pa.Period)
			if err != nil {
				return fmt.Errorf("race recheck: %w", err)
			}
			currentBalance := memberFee.Sub(paid)
			if currentBalance.IsNegative() {
				currentBalance = decimal.Zero
			}
			if pa.Amount.GreaterThan(currentBalance) {
				return paymentdomain.ErrRaceConditionOverpay
			}
		}

		// Step 9: persist Payment draft -> posted.
		paymentID := s.genID.Generate()
		payment := &paymentdomain.Payment{
			ID:             paymentID,
			Kind:           paymentdomain.KindPayment,
			Status:         paymentdomain.StatusDraft,
			MemberID:       req.MemberID,
			GroupID:        member.GroupID,
			AgentID:        member.AgentID,
			AgentUserID:    req.ActorUserID,
			Amount:         finalAmount,
			Currency:       currency,
			Method:         method,
			Channel:        req.Channel,
			Notes:          req.Notes,
			IdempotencyKey: idempotencyKey,
			ExternalRef:    req.ExternalRef,
			CreatedAt:      time.Now(),
		}
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := s.repo.MarkPosted(ctx, tx, paymentID, postedAt); err != nil {
			return fmt.Errorf("mark payment posted: %w", err)
		}
		payment.Status = paymentdomain.StatusPosted
		payment.PostedAt = &postedAt

		allocations := make([]paymentdomain.Allocation, 0, len(allocResult.Allocations))
		periodLabels := make([]string, 0, len(allocResult.Allocations))
		for _, pa := range allocResult.Allocations {
			paidAfter, err := s.repo.PaidForPeriod(ctx, tx, req.MemberID, pa.Period)
			if err != nil {
				return fmt.Errorf("compute status after: %w", err)
			}
			paidAfter = paidAfter.Add(pa.Amount)
			status := paymentdomain.AllocationStatusPartial
			if paidAfter.GreaterThanOrEqual(memberFee) {
				status = paymentdomain.AllocationStatusPaid
			}
			allocations = append(allocations, paymentdomain.Allocation{
				ID:            s.genID.Generate(),
				PaymentID:     paymentID,
				MemberID:      req.MemberID,
				Period:        pa.Period,
				AmountApplied: pa.Amount,
				StatusAfter:   status,
				CreatedAt:     time.Now(),
			})
			periodLabels = append(periodLabels, pa.Period.String())
		}
		if err := s.repo.InsertAllocations(ctx, tx, allocations); err != nil {
			return fmt.Errorf("insert allocations: %w", err)
		}

		// Step 10: post the ledger pair.
		agentUserID := req.ActorUserID
		groupID := member.GroupID
		_, err := s.ledgerSvc.PostPair(ctx, ledgerdomain.PostPairInput{
			PaymentID:   paymentID,
			ActorUserID: req.ActorUserID,
			Currency:    currency,
			Amount:      finalAmount,
			Kind:        ledgerdomain.KindPayment,
			DebitLeg:    ledgerdomain.Leg{AccountCode: account.CajaCobrador, OwnerUserID: &agentUserID},
			CreditLeg:   ledgerdomain.Leg{AccountCode: account.IngresosCuotas, OwnerUserID: nil},
			FromLabel:   req.MemberDisplayName,
			ToLabel:     req.ActorDisplayName,
			Dimensions: ledgerdomain.Dimensions{
				AgentID:       &member.AgentID,
				MemberGroupID: &groupID,
				Channel:       req.Channel,
				Note:          req.Notes,
			},
			PostedAt: postedAt,
		})
		if err != nil {
			return fmt.Errorf("post ledger pair: %w", err)
		}

		// Step 11: receipt serial + render + persist. PDF render failure
		// is recovered locally inside receipt.Service.Issue — it never
		// aborts this transaction.
		rcpt, err := s.receiptSvc.Issue(ctx, tx, receiptdomain.Data{
			PaymentID:  paymentID,
			MemberName: req.MemberDisplayName,
			GroupID:    member.GroupID,
			Amount:     finalAmount.StringFixed(2),
			Currency:   currency,
			Method:     string(method),
			PostedAt:   postedAt,
			Periods:    periodLabels,
		})
		if err != nil {
			return fmt.Errorf("issue receipt: %w", err)
		}

		// Step 12: outbox event.
		if s.outbox != nil {
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventPaymentPosted,
				Payload: map[string]any{
					"payment_id": paymentID.String(),
					"member_id":  req.MemberID.String(),
					"amount":     finalAmount.String(),
					"currency":   currency,
				},
				DedupeKey: paymentID.String(),
			}); err != nil {
				return fmt.Errorf("publish outbox event: %w", err)
			}
		}

		if s.auditSvc != nil {
			paymentIDStr := paymentID.String()
			_ = s.auditSvc.AuditLog(ctx, req.ActorUserID, "payment.posted", "payment", &paymentIDStr, map[string]any{
				"member_id": req.MemberID.String(),
				"amount":    finalAmount.String(),
				"method":    string(method),
			})
		}

		result = paymentdomain.PostResult{Payment: *payment, Allocations: allocations, Receipt: rcpt}
		return nil
	})
	if err != nil {
		return paymentdomain.PostResult{}, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPaymentPosted(ctx, req.Channel)
	}

	return result, nil
}

// List serves spec §6's `GET /payments?filters`.
func (s *Service) List(ctx context.Context, agentUserID int64, filter paymentdomain.ListFilter, page paymentdomain.Page) ([]paymentdomain.Payment, error) {
	return s.repo.ListByAgent(ctx, s.db, agentUserID, filter, page)
}

func (s *Service) replay(ctx context.Context, existing *paymentdomain.Payment) (paymentdomain.PostResult, error) {
	allocations, err := s.repo.FindAllocationsByPaymentID(ctx, s.db, existing.ID)
	if err != nil {
		return paymentdomain.PostResult{}, fmt.Errorf("load allocations for replay: %w", err)
	}
	rcpt, err := s.receiptSvc.FindByPaymentID(ctx, existing.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return paymentdomain.PostResult{}, fmt.Errorf("load receipt for replay: %w", err)
	}
	return paymentdomain.PostResult{
		Payment:     *existing,
		Allocations: allocations,
		Receipt:     rcpt,
		Replayed:    true,
	}, nil
}

// resolveAmount implements spec §4.7 step 5: explicit amount wins; absent
// amount under auto strategy means total due up to now; absent amount
// under manual strategy means the member's effective fee (from
// PricingView, not the member record directly).
func resolveAmount(req paymentdomain.PostRequest, memberFee decimal.Decimal, state debt.MemberDebtState) decimal.Decimal {
	if req.Amount != nil {
		return *req.Amount
	}
	if req.Strategy == paymentdomain.StrategyAuto {
		return state.GrandTotals.Balance
	}
	return memberFee
}
