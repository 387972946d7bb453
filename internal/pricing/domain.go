// Package pricing implements PricingView (spec §4.4): a read-only
// projection of each active member's effective fee. Ideal-fee computation
// itself is delegated to an external pricing service invoked on member
// mutation (spec §1 Non-goals) — this package only reads the persisted
// result, grounded on the teacher's thin read-service convention
// (billingcycle/domain.Service).
package pricing

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
)

// MemberFee is one active member's fee view.
type MemberFee struct {
	MemberID      snowflake.ID
	EffectiveFee  decimal.Decimal
	HistoricalFee decimal.Decimal
	IdealFee      decimal.Decimal
	UseIdeal      bool
}

// Service is PricingView's public contract.
type Service interface {
	// GroupFees returns the effective-fee view of every active member in
	// groupID.
	GroupFees(ctx context.Context, groupID int64) ([]MemberFee, error)

	// MemberFee returns the effective-fee view of a single member.
	MemberFee(ctx context.Context, memberID snowflake.ID) (MemberFee, error)
}

var ErrMemberNotFound = errors.New("member_not_found")

func feeOf(m memberdomain.Member) MemberFee {
	return MemberFee{
		MemberID:      m.ID,
		EffectiveFee:  m.EffectiveFee(),
		HistoricalFee: m.HistoricalFee,
		IdealFee:      m.IdealFee,
		UseIdeal:      m.UseIdeal,
	}
}
