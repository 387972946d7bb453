// Package accounting implements AccountingQueries (spec §4.10): cash-box
// listing and raw ledger movement detail, built directly on LedgerStore's
// Balance/BalanceByOwner/List rather than a separate user directory — an
// owner's role is implied by which account codes they hold balances on
// (spec §1 treats the user/member directory as an external collaborator).
package accounting

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
)

// ErrNotAuthorized is returned when a non-super-admin viewer requests a
// super-admin-only account.
var ErrNotAuthorized = errors.New("not_authorized")

// BoxFilter narrows ListBoxesByUser.
type BoxFilter struct {
	Currency string
	Window   ledgerdomain.BalanceWindow
}

// UserBox is one (owner, account, currency) balance row. OwnerUserID is
// nil for the super-admin-only virtual global rows (CAJA_CHICA,
// CAJA_GRANDE, bank placeholders).
type UserBox struct {
	OwnerUserID *int64
	AccountCode account.Code
	Currency    string
	Balance     decimal.Decimal
}

// MovementFilter narrows MovementDetail.
type MovementFilter struct {
	Currency string
	Kind     ledgerdomain.Kind
	Window   ledgerdomain.BalanceWindow
}

// MovementTotals summarizes a movement_detail query.
type MovementTotals struct {
	Debits       decimal.Decimal
	Credits      decimal.Decimal
	Balance      decimal.Decimal
	LastMovement *time.Time
	PaymentCount int
}

// MovementDetail is one account's raw entries plus their totals.
type MovementDetail struct {
	Entries []ledgerdomain.Entry
	Totals  MovementTotals
}

// Service is AccountingQueries' public contract.
type Service interface {
	// ListBoxesByUser lists cash-box balances the viewer role may see:
	// super-admin sees admin + agent boxes, their own CAJA_SUPERADMIN
	// wallet rows, plus the global virtual rows;
	// admin sees agent boxes only.
	ListBoxesByUser(ctx context.Context, viewerRole account.Role, filter BoxFilter) ([]UserBox, error)

	// MovementDetail lists raw entries for owner (nil for a global
	// account) on accountCode, with totals. Returns ErrNotAuthorized if a
	// non-super-admin viewer requests CAJA_SUPERADMIN; credit-side entries
	// on CAJA_GRANDE are silently excluded for non-super-admin viewers.
	MovementDetail(ctx context.Context, viewerRole account.Role, ownerUserID *int64, accountCode account.Code, filter MovementFilter, page ledgerdomain.Page) (MovementDetail, error)
}
