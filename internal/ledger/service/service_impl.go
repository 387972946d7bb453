// Package service implements LedgerStore: balanced-pair posting with
// payment-scoped and note-scoped idempotency, and balance aggregation.
// Adapted from the teacher's internal/ledger/service (CreateEntry's
// ON CONFLICT-based idempotency) and internal/invoice/service/ledger_posting.go
// (direct-transaction posting of a balanced set of lines).
package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
	auditdomain "github.com/sepelio/nucleo/internal/audit/domain"
	"github.com/sepelio/nucleo/internal/events"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	obsmetrics "github.com/sepelio/nucleo/internal/observability/metrics"
)

// Params are the fx-injected dependencies for the ledger Service.
type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       ledgerdomain.Repository
	AuditSvc   auditdomain.Service `optional:"true"`
	Outbox     *events.Outbox      `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       ledgerdomain.Repository
	auditSvc   auditdomain.Service
	outbox     *events.Outbox
	obsMetrics *obsmetrics.Metrics
}

// NewService constructs the ledger Service.
func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		auditSvc:   p.AuditSvc,
		outbox:     p.Outbox,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) PostPair(ctx context.Context, in ledgerdomain.PostPairInput) (ledgerdomain.PostPairResult, error) {
	if err := validatePostPairInput(in); err != nil {
		return ledgerdomain.PostPairResult{}, err
	}

	var result ledgerdomain.PostPairResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dup, err := s.isDuplicate(ctx, tx, in)
		if err != nil {
			return err
		}
		if dup {
			return ledgerdomain.ErrDuplicatePosting
		}

		now := in.PostedAt
		if now.IsZero() {
			now = time.Now().UTC()
		}
		createdAt := time.Now().UTC()

		debitEntry := &ledgerdomain.Entry{
			ID:              s.genID.Generate(),
			PaymentID:       in.PaymentID,
			OwnerUserID:     in.DebitLeg.OwnerUserID,
			Kind:            in.Kind,
			Side:            ledgerdomain.SideDebit,
			AccountCode:     in.DebitLeg.AccountCode,
			Amount:          in.Amount,
			Currency:        in.Currency,
			PostedAt:        now,
			FromUserLabel:   in.FromLabel,
			ToUserLabel:     in.ToLabel,
			FromAccountCode: in.CreditLeg.AccountCode,
			ToAccountCode:   in.DebitLeg.AccountCode,
			DimAgentID:      in.Dimensions.AgentID,
			DimGroupID:      in.Dimensions.MemberGroupID,
			DimChannel:      in.Dimensions.Channel,
			DimPlan:         in.Dimensions.Plan,
			DimNote:         in.Dimensions.Note,
			CreatedAt:       createdAt,
		}
		creditEntry := &ledgerdomain.Entry{
			ID:              s.genID.Generate(),
			PaymentID:       in.PaymentID,
			OwnerUserID:     in.CreditLeg.OwnerUserID,
			Kind:            in.Kind,
			Side:            ledgerdomain.SideCredit,
			AccountCode:     in.CreditLeg.AccountCode,
			Amount:          in.Amount,
			Currency:        in.Currency,
			PostedAt:        now,
			FromUserLabel:   in.FromLabel,
			ToUserLabel:     in.ToLabel,
			FromAccountCode: in.CreditLeg.AccountCode,
			ToAccountCode:   in.DebitLeg.AccountCode,
			DimAgentID:      in.Dimensions.AgentID,
			DimGroupID:      in.Dimensions.MemberGroupID,
			DimChannel:      in.Dimensions.Channel,
			DimPlan:         in.Dimensions.Plan,
			DimNote:         in.Dimensions.Note,
			CreatedAt:       createdAt,
		}

		// Fixed order: debit leg first, credit leg second (spec §5).
		if err := s.repo.Insert(ctx, tx, debitEntry); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, creditEntry); err != nil {
			return err
		}

		if s.outbox != nil {
			if err := s.outbox.PublishTx(ctx, tx, events.Event{
				Type: events.EventLedgerPairPosted,
				Payload: map[string]any{
					"payment_id": in.PaymentID.String(),
					"kind":       string(in.Kind),
					"amount":     in.Amount.String(),
					"currency":   in.Currency,
				},
				DedupeKey: "ledger_pair:" + in.PaymentID.String(),
			}); err != nil {
				return err
			}
		}

		if s.auditSvc != nil {
			paymentIDStr := in.PaymentID.String()
			_ = s.auditSvc.AuditLog(ctx, in.ActorUserID, "ledger.pair_posted", "payment", &paymentIDStr, map[string]any{
				"kind":     string(in.Kind),
				"amount":   in.Amount.String(),
				"currency": in.Currency,
			})
		}

		result = ledgerdomain.PostPairResult{
			DebitEntryID:  debitEntry.ID,
			CreditEntryID: creditEntry.ID,
		}
		return nil
	})
	if err != nil {
		return ledgerdomain.PostPairResult{}, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordLedgerEntry(ctx, string(in.Kind))
	}
	return result, nil
}

func (s *Service) isDuplicate(ctx context.Context, tx *gorm.DB, in ledgerdomain.PostPairInput) (bool, error) {
	if in.PaymentID != 0 {
		exists, err := s.repo.ExistsByPaymentID(ctx, tx, in.PaymentID)
		if err != nil {
			return false, err
		}
		if exists {
			return true, nil
		}
	}
	if in.Dimensions.Note == "" {
		return false, nil
	}
	var since time.Time
	if in.DedupeWindow > 0 {
		since = time.Now().Add(-in.DedupeWindow)
	}
	return s.repo.ExistsByScope(ctx, tx, in.Kind, in.Currency, in.Dimensions.Note, since)
}

func validatePostPairInput(in ledgerdomain.PostPairInput) error {
	if !account.IsValid(in.DebitLeg.AccountCode) || !account.IsValid(in.CreditLeg.AccountCode) {
		return ledgerdomain.ErrInvalidAccount
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return ledgerdomain.ErrAmountNotPositive
	}
	if in.Currency == "" {
		return ledgerdomain.ErrCurrencyMismatch
	}
	return nil
}

func (s *Service) Balance(ctx context.Context, ownerUserID *int64, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) (decimal.Decimal, error) {
	debits, credits, err := s.repo.SumDebitsCredits(ctx, s.db, ownerUserID, accountCode, currency, window)
	if err != nil {
		return decimal.Zero, err
	}
	return debits.Sub(credits), nil
}

func (s *Service) BalanceByOwner(ctx context.Context, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) ([]ledgerdomain.OwnerBalance, error) {
	return s.repo.SumByOwner(ctx, s.db, accountCode, currency, window)
}

func (s *Service) Exists(ctx context.Context, paymentID snowflake.ID) (bool, error) {
	return s.repo.ExistsByPaymentID(ctx, s.db, paymentID)
}

func (s *Service) List(ctx context.Context, filter ledgerdomain.ListFilter, page ledgerdomain.Page) ([]ledgerdomain.Entry, error) {
	return s.repo.List(ctx, s.db, filter, page)
}
