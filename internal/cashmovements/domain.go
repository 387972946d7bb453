// Package cashmovements implements CashMovements (spec §4.8): arqueo,
// petty-cash deposit, vault ingress/egress and commission payout. Every
// operation posts one or more balanced ledger pairs idempotent on a
// deterministic scope string, guarded by a best-effort distributed lock
// adapted from the teacher's internal/ratelimit.Locker.
package cashmovements

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/account"
)

// Failure modes (spec §7).
var (
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrInvalidAccount    = errors.New("invalid_account")
	ErrNotAuthorized     = errors.New("not_authorized")
)

// ArqueoRequest sweeps an agent's cash-box balances to a destination
// account (spec §4.8 "Arqueo").
type ArqueoRequest struct {
	AgentUserID        int64
	Accounts           []account.Code // defaults to [CAJA_COBRADOR, A_RENDIR_COBRADOR]
	Currency           string
	From, To           *time.Time
	DestinationAccount account.Code // defaults to CAJA_ADMIN
	MinAmount          decimal.Decimal
	ExecutingAdminID   int64
}

// PettyDepositRequest moves an admin's entire CAJA_ADMIN balance into the
// global CAJA_CHICA.
type PettyDepositRequest struct {
	AdminUserID       int64
	Currency          string
	ActorUserID       int64
	ActorIsSuperAdmin bool
}

// VaultIngressRequest drains CAJA_CHICA balances owned by admins into
// CAJA_GRANDE. Super-admin only.
type VaultIngressRequest struct {
	SuperAdminUserID int64
	Currency         string
	Amount           decimal.Decimal // ignored when MoveAll; zero without MoveAll posts nothing
	MoveAll          bool
}

// VaultEgressRequest moves CAJA_GRANDE into the super-admin's personal
// wallet. Super-admin only.
type VaultEgressRequest struct {
	SuperAdminUserID int64
	Currency         string
	Amount           decimal.Decimal
}

// CommissionPayoutRequest pays an agent's earned commission out of a
// configurable source account.
type CommissionPayoutRequest struct {
	AgentUserID   int64
	Period        string
	SourceAccount account.Code // CAJA_ADMIN | CAJA_CHICA | CAJA_GRANDE
	Currency      string
	Amount        decimal.Decimal
	ActorUserID   int64
}

// PairPosted describes one ledger pair this package posted, for the
// caller's response.
type PairPosted struct {
	SourceAccount account.Code
	Currency      string
	Amount        decimal.Decimal
}

// Service is CashMovements' public contract.
type Service interface {
	Arqueo(ctx context.Context, req ArqueoRequest) ([]PairPosted, error)
	PettyDeposit(ctx context.Context, req PettyDepositRequest) (PairPosted, error)
	VaultIngress(ctx context.Context, req VaultIngressRequest) ([]PairPosted, error)
	VaultEgress(ctx context.Context, req VaultEgressRequest) (PairPosted, error)
	CommissionPayout(ctx context.Context, req CommissionPayoutRequest) (PairPosted, error)
}
