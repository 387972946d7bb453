package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/period"
)

// PeriodPaid is the (period, Σamount_applied) projection DebtEngine reads.
type PeriodPaid struct {
	Period period.Period
	Paid   decimal.Decimal
}

// Repository is the storage port PaymentPoster and DebtEngine drive.
type Repository interface {
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*Payment, error)
	Insert(ctx context.Context, tx *gorm.DB, payment *Payment) error
	MarkPosted(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID, postedAt time.Time) error
	InsertAllocations(ctx context.Context, tx *gorm.DB, allocations []Allocation) error

	// PaidByPeriod returns, for memberID, the sum of amount_applied per
	// period across allocations whose parent payment is posted or settled.
	PaidByPeriod(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]PeriodPaid, error)

	// PaidForPeriod returns the sum of amount_applied for a single period,
	// used by the race re-check (spec §4.7 step 8).
	PaidForPeriod(ctx context.Context, tx *gorm.DB, memberID snowflake.ID, p period.Period) (decimal.Decimal, error)

	ListByAgent(ctx context.Context, db *gorm.DB, agentUserID int64, filter ListFilter, page Page) ([]Payment, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindAllocationsByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]Allocation, error)

	// AllocationsForAgentPeriod supports CommissionCalculator (spec §4.9):
	// every allocation for a posting by agentUserID whose period equals
	// reportingPeriod, paired with the parent payment's posted_at.
	AllocationsForAgentPeriod(ctx context.Context, db *gorm.DB, agentUserID int64, reportingPeriod period.Period) ([]AgentAllocation, error)
}

// AgentAllocation pairs one allocation with its parent payment's posted_at,
// for CommissionCalculator's per-payment day-held computation.
type AgentAllocation struct {
	AmountApplied decimal.Decimal
	PostedAt      time.Time
}

// ListFilter narrows ListByAgent.
type ListFilter struct {
	Status     Status
	Method     Method
	Query      string
	DateFrom   *time.Time
	DateTo     *time.Time
	SortColumn string
	SortDesc   bool
}

// Page is a simple offset/limit page request.
type Page struct {
	Offset int
	Limit  int
}
