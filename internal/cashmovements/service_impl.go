package cashmovements

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	"github.com/sepelio/nucleo/internal/ratelimit"
	"github.com/sepelio/nucleo/pkg/money"
)

// lockTTL bounds how long a cash-movement scope lock is held; operations
// here are single-transaction and fast, so a short TTL is sufficient.
const lockTTL = 10 * time.Second

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	LedgerSvc ledgerdomain.Service
	Locker    *ratelimit.Locker `optional:"true"`
}

type service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	ledgerSvc ledgerdomain.Service
	locker    *ratelimit.Locker
}

// NewService constructs CashMovements.
func NewService(p Params) Service {
	return &service{log: p.Log.Named("cashmovements.service"), genID: p.GenID, ledgerSvc: p.LedgerSvc, locker: p.Locker}
}

// withScopeLock runs fn while holding a best-effort lock on scope. Absence
// of a configured Locker (e.g. in tests) degrades to running fn directly;
// correctness still holds via PostPair's own dedupe check, the lock only
// narrows the window where two callers redundantly compute a balance.
func (s *service) withScopeLock(ctx context.Context, scope string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	token, ok, err := s.locker.TryLock(ctx, "cashmovements:"+scope, lockTTL)
	if err != nil || !ok {
		return fn()
	}
	defer s.locker.Release(ctx, "cashmovements:"+scope, token)
	return fn()
}

func minuteBucket(t time.Time) int64 { return t.Truncate(time.Minute).Unix() }

func (s *service) Arqueo(ctx context.Context, req ArqueoRequest) ([]PairPosted, error) {
	accounts := req.Accounts
	if len(accounts) == 0 {
		accounts = []account.Code{account.CajaCobrador, account.ARendirCobrador}
	}
	destination := req.DestinationAccount
	if destination == "" {
		destination = account.CajaAdmin
	}
	if destination == account.CajaCobrador {
		return nil, ErrInvalidAccount
	}

	window := ledgerdomain.BalanceWindow{From: req.From, To: req.To}
	bucket := minuteBucket(time.Now())
	posted := make([]PairPosted, 0, len(accounts))

	for _, acct := range accounts {
		balance, err := s.ledgerSvc.Balance(ctx, &req.AgentUserID, acct, req.Currency, window)
		if err != nil {
			return nil, fmt.Errorf("compute agent balance for %s: %w", acct, err)
		}
		if !balance.IsPositive() || balance.LessThanOrEqual(req.MinAmount) {
			continue
		}

		scope := fmt.Sprintf("arqueo:%d:%s:%s:%d:%s", req.AgentUserID, destination, req.Currency, bucket, acct)
		err = s.withScopeLock(ctx, scope, func() error {
			destOwner := req.ExecutingAdminID
			srcOwner := req.AgentUserID
			_, err := s.ledgerSvc.PostPair(ctx, ledgerdomain.PostPairInput{
				PaymentID:    s.genID.Generate(),
				ActorUserID:  req.ExecutingAdminID,
				Currency:     req.Currency,
				Amount:       balance,
				Kind:         ledgerdomain.KindArqueo,
				DebitLeg:     ledgerdomain.Leg{AccountCode: destination, OwnerUserID: &destOwner},
				CreditLeg:    ledgerdomain.Leg{AccountCode: acct, OwnerUserID: &srcOwner},
				Dimensions:   ledgerdomain.Dimensions{AgentID: &req.AgentUserID, Note: scope},
				PostedAt:     time.Now(),
				DedupeWindow: time.Minute,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		posted = append(posted, PairPosted{SourceAccount: acct, Currency: req.Currency, Amount: balance})
	}
	return posted, nil
}

func (s *service) PettyDeposit(ctx context.Context, req PettyDepositRequest) (PairPosted, error) {
	if req.ActorUserID != req.AdminUserID && !req.ActorIsSuperAdmin {
		return PairPosted{}, ErrNotAuthorized
	}

	balance, err := s.ledgerSvc.Balance(ctx, &req.AdminUserID, account.CajaAdmin, req.Currency, ledgerdomain.BalanceWindow{})
	if err != nil {
		return PairPosted{}, fmt.Errorf("compute admin balance: %w", err)
	}
	if !balance.IsPositive() {
		return PairPosted{}, nil
	}

	scope := fmt.Sprintf("petty_deposit:%d:%s:%d", req.AdminUserID, req.Currency, minuteBucket(time.Now()))
	var result PairPosted
	err = s.withScopeLock(ctx, scope, func() error {
		srcOwner := req.AdminUserID
		_, err := s.ledgerSvc.PostPair(ctx, ledgerdomain.PostPairInput{
			PaymentID:    s.genID.Generate(),
			ActorUserID:  req.ActorUserID,
			Currency:     req.Currency,
			Amount:       balance,
			Kind:         ledgerdomain.KindPettyDeposit,
			DebitLeg:     ledgerdomain.Leg{AccountCode: account.CajaChica, OwnerUserID: nil},
			CreditLeg:    ledgerdomain.Leg{AccountCode: account.CajaAdmin, OwnerUserID: &srcOwner},
			Dimensions:   ledgerdomain.Dimensions{Note: scope},
			PostedAt:     time.Now(),
			DedupeWindow: time.Minute,
		})
		if err == nil {
			result = PairPosted{SourceAccount: account.CajaAdmin, Currency: req.Currency, Amount: balance}
		}
		return err
	})
	return result, err
}

func (s *service) VaultIngress(ctx context.Context, req VaultIngressRequest) ([]PairPosted, error) {
	owners, err := s.ledgerSvc.BalanceByOwner(ctx, account.CajaChica, req.Currency, ledgerdomain.BalanceWindow{})
	if err != nil {
		return nil, fmt.Errorf("list caja chica balances: %w", err)
	}

	remaining := req.Amount
	posted := make([]PairPosted, 0, len(owners))
	for _, ob := range owners {
		if ob.OwnerUserID == nil || !ob.Balance.IsPositive() {
			continue
		}
		if !req.MoveAll && !remaining.IsPositive() {
			break
		}
		take := ob.Balance
		if !req.MoveAll {
			take = money.Min(remaining, ob.Balance)
		}
		if !take.IsPositive() {
			continue
		}

		scope := fmt.Sprintf("chica_to_grande:%d:%s:%s:%d", req.SuperAdminUserID, req.Currency, take.String(), *ob.OwnerUserID)
		adminID := *ob.OwnerUserID
		err := s.withScopeLock(ctx, scope, func() error {
			_, err := s.ledgerSvc.PostPair(ctx, ledgerdomain.PostPairInput{
				PaymentID:    s.genID.Generate(),
				ActorUserID:  req.SuperAdminUserID,
				Currency:     req.Currency,
				Amount:       take,
				Kind:         ledgerdomain.KindVaultIngress,
				DebitLeg:     ledgerdomain.Leg{AccountCode: account.CajaGrande, OwnerUserID: nil},
				CreditLeg:    ledgerdomain.Leg{AccountCode: account.CajaChica, OwnerUserID: &adminID},
				Dimensions:   ledgerdomain.Dimensions{Note: scope},
				PostedAt:     time.Now(),
				DedupeWindow: time.Minute,
			})
			return err
		})
		if err != nil {
			return nil, err
		}
		posted = append(posted, PairPosted{SourceAccount: account.CajaChica, Currency: req.Currency, Amount: take})
		if !req.MoveAll {
			remaining = remaining.Sub(take)
		}
	}
	return posted, nil
}

func (s *service) VaultEgress(ctx context.Context, req VaultEgressRequest) (PairPosted, error) {
	balance, err := s.ledgerSvc.Balance(ctx, nil, account.CajaGrande, req.Currency, ledgerdomain.BalanceWindow{})
	if err != nil {
		return PairPosted{}, fmt.Errorf("compute vault balance: %w", err)
	}
	if req.Amount.GreaterThan(balance) {
		return PairPosted{}, ErrInsufficientFunds
	}

	scope := fmt.Sprintf("grande_to_superadmin:%d:%s:%s", req.SuperAdminUserID, req.Currency, req.Amount.String())
	var result PairPosted
	err = s.withScopeLock(ctx, scope, func() error {
		destOwner := req.SuperAdminUserID
		_, err := s.ledgerSvc.PostPair(ctx, ledgerdomain.PostPairInput{
			PaymentID:    s.genID.Generate(),
			ActorUserID:  req.SuperAdminUserID,
			Currency:     req.Currency,
			Amount:       req.Amount,
			Kind:         ledgerdomain.KindVaultEgress,
			DebitLeg:     ledgerdomain.Leg{AccountCode: account.CajaSuperAdmin, OwnerUserID: &destOwner},
			CreditLeg:    ledgerdomain.Leg{AccountCode: account.CajaGrande, OwnerUserID: nil},
			Dimensions:   ledgerdomain.Dimensions{Note: scope},
			PostedAt:     time.Now(),
			DedupeWindow: time.Minute,
		})
		if err == nil {
			result = PairPosted{SourceAccount: account.CajaGrande, Currency: req.Currency, Amount: req.Amount}
		}
		return err
	})
	return result, err
}

func (s *service) CommissionPayout(ctx context.Context, req CommissionPayoutRequest) (PairPosted, error) {
	if req.SourceAccount != account.CajaAdmin && req.SourceAccount != account.CajaChica && req.SourceAccount != account.CajaGrande {
		return PairPosted{}, ErrInvalidAccount
	}

	var sourceOwner *int64
	if req.SourceAccount == account.CajaAdmin {
		sourceOwner = &req.ActorUserID
	}

	balance, err := s.ledgerSvc.Balance(ctx, sourceOwner, req.SourceAccount, req.Currency, ledgerdomain.BalanceWindow{})
	if err != nil {
		return PairPosted{}, fmt.Errorf("compute source balance: %w", err)
	}
	if req.Amount.GreaterThan(balance) {
		return PairPosted{}, ErrInsufficientFunds
	}

	scope := fmt.Sprintf("commission_payout:%d:%s:%s:%s:%s", req.AgentUserID, req.Period, req.SourceAccount, req.Currency, req.Amount.String())
	var result PairPosted
	err = s.withScopeLock(ctx, scope, func() error {
		agentOwner := req.AgentUserID
		_, err := s.ledgerSvc.PostPair(ctx, ledgerdomain.PostPairInput{
			PaymentID:    s.genID.Generate(),
			ActorUserID:  req.ActorUserID,
			Currency:     req.Currency,
			Amount:       req.Amount,
			Kind:         ledgerdomain.KindCommissionPayout,
			DebitLeg:     ledgerdomain.Leg{AccountCode: account.ComisionCobrador, OwnerUserID: &agentOwner},
			CreditLeg:    ledgerdomain.Leg{AccountCode: req.SourceAccount, OwnerUserID: sourceOwner},
			Dimensions:   ledgerdomain.Dimensions{AgentID: &req.AgentUserID, Note: scope},
			PostedAt:     time.Now(),
			DedupeWindow: time.Minute,
		})
		if err == nil {
			result = PairPosted{SourceAccount: req.SourceAccount, Currency: req.Currency, Amount: req.Amount}
		}
		return err
	})
	return result, err
}
