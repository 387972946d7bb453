package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	receiptdomain "github.com/sepelio/nucleo/internal/receipt/domain"
	"github.com/sepelio/nucleo/internal/period"
)

// Strategy selects how PostRequest.Amount is spread across due periods.
type Strategy string

const (
	StrategyAuto   Strategy = "auto"
	StrategyManual Strategy = "manual"
)

// BreakdownItem is one caller-specified (period, amount) placement for a
// manual-strategy post.
type BreakdownItem struct {
	Period period.Period
	Amount decimal.Decimal
}

// PostRequest is PaymentPoster's input (spec §4.7). Actor fields are
// explicit capability arguments rather than ambient session state, per
// spec §9's re-architecture guidance.
type PostRequest struct {
	MemberID             snowflake.ID
	MemberLegacyGroupID  *int64
	Amount               *decimal.Decimal
	Method               Method
	Notes                string
	IdempotencyKey       string
	Channel              string
	IntendedPeriod       string
	ExternalRef          string
	Strategy             Strategy
	Breakdown            []BreakdownItem
	CollectedAt          *time.Time
	Metadata             map[string]any

	ActorUserID      int64
	ActorAgentID     int64
	ActorDisplayName string
	MemberDisplayName string
	Currency         string
}

// PostResult is PaymentPoster's output.
type PostResult struct {
	Payment     Payment
	Allocations []Allocation
	Receipt     *receiptdomain.Receipt
	Replayed    bool
}

// Poster is PaymentPoster's public contract.
type Poster interface {
	Post(ctx context.Context, req PostRequest) (PostResult, error)

	// List serves spec §6's `GET /payments?filters`: an agent's own
	// payments, filterable and sortable per ListFilter's whitelist.
	List(ctx context.Context, agentUserID int64, filter ListFilter, page Page) ([]Payment, error)
}
