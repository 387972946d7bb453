package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/account"
)

// Leg describes one side of a balanced pair to be posted.
type Leg struct {
	AccountCode account.Code
	OwnerUserID *int64 // nil for global accounts (CAJA_CHICA, CAJA_GRANDE, banks)
}

// PostPairInput is the argument to PostPair (spec §4.3).
type PostPairInput struct {
	PaymentID   snowflake.ID
	ActorUserID int64
	Currency    string
	Amount      decimal.Decimal
	Kind        Kind
	DebitLeg    Leg
	CreditLeg   Leg
	FromLabel   string
	ToLabel     string
	Dimensions  Dimensions
	PostedAt    time.Time
	// DedupeWindow bounds how far back the (kind, currency, dimensions.note)
	// synthetic-transfer dedupe check looks; zero means "no time bound".
	DedupeWindow time.Duration
}

// PostPairResult is returned by a successful PostPair.
type PostPairResult struct {
	DebitEntryID  snowflake.ID
	CreditEntryID snowflake.ID
}

// BalanceWindow optionally bounds a balance query to [From, To].
type BalanceWindow struct {
	From *time.Time
	To   *time.Time
}

// ListFilter narrows List to a subset of entries.
type ListFilter struct {
	OwnerUserID   *int64
	AccountCode   account.Code
	Currency      string
	Kind          Kind
	AgentID       *int64
	MemberGroupID *int64
	Window        BalanceWindow
}

// Page is a simple offset/limit page request.
type Page struct {
	Offset int
	Limit  int
}

// Service is LedgerStore's public contract (spec §4.3).
type Service interface {
	// PostPair writes a balanced debit/credit pair atomically, keyed for
	// idempotency by PaymentID (natural payments) or by
	// (Kind, Currency, Dimensions.Note) within DedupeWindow (synthetic
	// transfers). A repeat attempt returns ErrDuplicatePosting.
	PostPair(ctx context.Context, in PostPairInput) (PostPairResult, error)

	// Balance returns Σdebits − Σcredits for ownerUserID (nil = global
	// account) on accountCode/currency, optionally windowed.
	Balance(ctx context.Context, ownerUserID *int64, accountCode account.Code, currency string, window BalanceWindow) (decimal.Decimal, error)

	// BalanceByOwner returns every owner's balance on accountCode/currency,
	// sorted descending by balance.
	BalanceByOwner(ctx context.Context, accountCode account.Code, currency string, window BalanceWindow) ([]OwnerBalance, error)

	// Exists reports whether a pair has already been posted for paymentID.
	Exists(ctx context.Context, paymentID snowflake.ID) (bool, error)

	// List returns entries matching filter, newest first, paginated.
	List(ctx context.Context, filter ListFilter, page Page) ([]Entry, error)
}

// Failure modes, per spec §4.3.
var (
	ErrInvalidAccount     = errors.New("invalid_account")
	ErrAmountNotPositive  = errors.New("amount_not_positive")
	ErrCurrencyMismatch   = errors.New("currency_mismatch")
	ErrDuplicatePosting   = errors.New("duplicate_posting")
	ErrStorageUnavailable = errors.New("storage_unavailable")
)
