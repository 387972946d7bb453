package pricing

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	MemberRepo memberdomain.Repository
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	memberRepo memberdomain.Repository
}

// NewService constructs PricingView.
func NewService(p Params) Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("pricing.service"),
		memberRepo: p.MemberRepo,
	}
}

func (s *service) GroupFees(ctx context.Context, groupID int64) ([]MemberFee, error) {
	members, err := s.memberRepo.FindActiveByGroupID(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	fees := make([]MemberFee, 0, len(members))
	for _, m := range members {
		fees = append(fees, feeOf(m))
	}
	return fees, nil
}

func (s *service) MemberFee(ctx context.Context, memberID snowflake.ID) (MemberFee, error) {
	m, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return MemberFee{}, ErrMemberNotFound
	}
	if !m.IsActive() {
		return MemberFee{}, ErrMemberNotFound
	}
	return feeOf(*m), nil
}
