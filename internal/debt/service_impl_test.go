package debt

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/clock"
	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/internal/pricing"
)

type fakeMemberRepo struct {
	member *memberdomain.Member
}

func (f fakeMemberRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Member, error) {
	if f.member == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.member, nil
}

func (f fakeMemberRepo) FindByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]memberdomain.Member, error) {
	return nil, nil
}

func (f fakeMemberRepo) FindActiveByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]memberdomain.Member, error) {
	return nil, nil
}

func (f fakeMemberRepo) FindActiveByAgentID(ctx context.Context, db *gorm.DB, agentID int64) ([]memberdomain.Member, error) {
	return nil, nil
}

type fakePayRepo struct {
	paidByPeriod map[period.Period]decimal.Decimal
}

func (f fakePayRepo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*paymentdomain.Payment, error) {
	return nil, nil
}

func (f fakePayRepo) Insert(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	return nil
}

func (f fakePayRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	return nil, nil
}

func (f fakePayRepo) MarkPosted(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID, postedAt time.Time) error {
	return nil
}

func (f fakePayRepo) InsertAllocations(ctx context.Context, tx *gorm.DB, allocations []paymentdomain.Allocation) error {
	return nil
}

func (f fakePayRepo) PaidByPeriod(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]paymentdomain.PeriodPaid, error) {
	out := make([]paymentdomain.PeriodPaid, 0, len(f.paidByPeriod))
	for p, amt := range f.paidByPeriod {
		out = append(out, paymentdomain.PeriodPaid{Period: p, Paid: amt})
	}
	return out, nil
}

func (f fakePayRepo) PaidForPeriod(ctx context.Context, tx *gorm.DB, memberID snowflake.ID, p period.Period) (decimal.Decimal, error) {
	if amt, ok := f.paidByPeriod[p]; ok {
		return amt, nil
	}
	return decimal.Zero, nil
}

func (f fakePayRepo) ListByAgent(ctx context.Context, db *gorm.DB, agentUserID int64, filter paymentdomain.ListFilter, page paymentdomain.Page) ([]paymentdomain.Payment, error) {
	return nil, nil
}

func (f fakePayRepo) FindAllocationsByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]paymentdomain.Allocation, error) {
	return nil, nil
}

func (f fakePayRepo) AllocationsForAgentPeriod(ctx context.Context, db *gorm.DB, agentUserID int64, reportingPeriod period.Period) ([]paymentdomain.AgentAllocation, error) {
	return nil, nil
}

type fakePricingSvc struct {
	member *memberdomain.Member
}

func (f fakePricingSvc) GroupFees(ctx context.Context, groupID int64) ([]pricing.MemberFee, error) {
	return nil, nil
}

func (f fakePricingSvc) MemberFee(ctx context.Context, memberID snowflake.ID) (pricing.MemberFee, error) {
	if f.member == nil || !f.member.IsActive() {
		return pricing.MemberFee{}, pricing.ErrMemberNotFound
	}
	return pricing.MemberFee{
		MemberID:      f.member.ID,
		EffectiveFee:  f.member.EffectiveFee(),
		HistoricalFee: f.member.HistoricalFee,
		IdealFee:      f.member.IdealFee,
		UseIdeal:      f.member.UseIdeal,
	}, nil
}

func newTestCalendar(t *testing.T, now string) *period.Calendar {
	t.Helper()
	// Mid-month, midday UTC so conversion to the Mendoza (UTC-3) civil
	// timezone never crosses a month boundary.
	base, err := time.Parse("2006-01", now)
	require.NoError(t, err)
	midMonth := base.AddDate(0, 0, 14).Add(12 * time.Hour)
	cal, err := period.NewCalendar("America/Argentina/Mendoza", clock.NewFakeClock(midMonth))
	require.NoError(t, err)
	return cal
}

func newService(t *testing.T, member *memberdomain.Member, paid map[period.Period]decimal.Decimal, nowPeriod string) *service {
	return &service{
		db:         nil,
		log:        zap.NewNop(),
		calendar:   newTestCalendar(t, nowPeriod),
		memberRepo: fakeMemberRepo{member: member},
		payRepo:    fakePayRepo{paidByPeriod: paid},
		pricingSvc: fakePricingSvc{member: member},
	}
}

func TestPeriodStateFreshMemberNoPayments(t *testing.T) {
	joined := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	member := &memberdomain.Member{
		ID:            1,
		Active:        true,
		JoinedAt:      joined,
		HistoricalFee: decimal.RequireFromString("1000"),
	}
	s := newService(t, member, nil, "2024-03")

	state, err := s.PeriodState(context.Background(), 1, Window{})
	require.NoError(t, err)
	require.Len(t, state.Periods, 3)
	require.Equal(t, period.MustNormalize("2024-01"), state.Periods[0].Period)
	require.Equal(t, period.MustNormalize("2024-03"), state.Periods[2].Period)
	for _, p := range state.Periods {
		require.True(t, p.Balance.Equal(decimal.RequireFromString("1000")))
		require.Equal(t, StatusDue, p.Status)
	}
	require.True(t, state.GrandTotals.Balance.Equal(decimal.RequireFromString("3000")))
}

func TestPeriodStatePartialPayment(t *testing.T) {
	joined := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	member := &memberdomain.Member{
		ID:            1,
		Active:        true,
		JoinedAt:      joined,
		HistoricalFee: decimal.RequireFromString("1000"),
	}
	paid := map[period.Period]decimal.Decimal{
		period.MustNormalize("2024-01"): decimal.RequireFromString("1000"),
		period.MustNormalize("2024-02"): decimal.RequireFromString("400"),
	}
	s := newService(t, member, paid, "2024-02")

	state, err := s.PeriodState(context.Background(), 1, Window{})
	require.NoError(t, err)
	require.Len(t, state.Periods, 2)
	require.Equal(t, StatusPaid, state.Periods[0].Status)
	require.True(t, state.Periods[0].Balance.IsZero())
	require.Equal(t, StatusPartial, state.Periods[1].Status)
	require.True(t, state.Periods[1].Balance.Equal(decimal.RequireFromString("600")))
}

func TestTotalDueUpToNowAndArrearsMonths(t *testing.T) {
	joined := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	member := &memberdomain.Member{
		ID:            1,
		Active:        true,
		JoinedAt:      joined,
		HistoricalFee: decimal.RequireFromString("1000"),
	}
	s := newService(t, member, nil, "2024-04")

	total, err := s.TotalDueUpToNow(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.RequireFromString("4000")))

	arrears, err := s.ArrearsMonths(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 4, arrears)
}

func TestBalanceAtOverpaidPeriodClampsToZero(t *testing.T) {
	member := &memberdomain.Member{
		ID:            1,
		Active:        true,
		HistoricalFee: decimal.RequireFromString("1000"),
	}
	paid := map[period.Period]decimal.Decimal{
		period.MustNormalize("2024-01"): decimal.RequireFromString("1500"),
	}
	s := newService(t, member, paid, "2024-01")

	balance, err := s.BalanceAt(context.Background(), 1, period.MustNormalize("2024-01"))
	require.NoError(t, err)
	require.True(t, balance.IsZero())
}
