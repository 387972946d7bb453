package commission

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
)

type fakeMemberRepo struct {
	members []memberdomain.Member
}

func (f fakeMemberRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Member, error) {
	return nil, nil
}

func (f fakeMemberRepo) FindByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]memberdomain.Member, error) {
	return nil, nil
}

func (f fakeMemberRepo) FindActiveByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]memberdomain.Member, error) {
	return nil, nil
}

func (f fakeMemberRepo) FindActiveByAgentID(ctx context.Context, db *gorm.DB, agentID int64) ([]memberdomain.Member, error) {
	return f.members, nil
}

type fakePayRepo struct {
	allocations []paymentdomain.AgentAllocation
}

func (f fakePayRepo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*paymentdomain.Payment, error) {
	return nil, nil
}

func (f fakePayRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	return nil, nil
}

func (f fakePayRepo) Insert(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	return nil
}

func (f fakePayRepo) MarkPosted(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID, postedAt time.Time) error {
	return nil
}

func (f fakePayRepo) InsertAllocations(ctx context.Context, tx *gorm.DB, allocations []paymentdomain.Allocation) error {
	return nil
}

func (f fakePayRepo) PaidByPeriod(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]paymentdomain.PeriodPaid, error) {
	return nil, nil
}

func (f fakePayRepo) PaidForPeriod(ctx context.Context, tx *gorm.DB, memberID snowflake.ID, p period.Period) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f fakePayRepo) ListByAgent(ctx context.Context, db *gorm.DB, agentUserID int64, filter paymentdomain.ListFilter, page paymentdomain.Page) ([]paymentdomain.Payment, error) {
	return nil, nil
}

func (f fakePayRepo) FindAllocationsByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]paymentdomain.Allocation, error) {
	return nil, nil
}

func (f fakePayRepo) AllocationsForAgentPeriod(ctx context.Context, db *gorm.DB, agentUserID int64, reportingPeriod period.Period) ([]paymentdomain.AgentAllocation, error) {
	return f.allocations, nil
}

type fakeLedgerSvc struct{}

func (fakeLedgerSvc) PostPair(ctx context.Context, in ledgerdomain.PostPairInput) (ledgerdomain.PostPairResult, error) {
	return ledgerdomain.PostPairResult{}, nil
}

func (fakeLedgerSvc) Balance(ctx context.Context, ownerUserID *int64, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (fakeLedgerSvc) BalanceByOwner(ctx context.Context, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) ([]ledgerdomain.OwnerBalance, error) {
	return nil, nil
}

func (fakeLedgerSvc) Exists(ctx context.Context, paymentID snowflake.ID) (bool, error) {
	return false, nil
}

func (fakeLedgerSvc) List(ctx context.Context, filter ledgerdomain.ListFilter, page ledgerdomain.Page) ([]ledgerdomain.Entry, error) {
	return nil, nil
}

// TestCalculateAppliesGraceDaysAndPenaltyDecay reproduces spec.md §8
// scenario 7: base_rate=0.05, grace_days=7, penalty_per_day=0.1, a 1000
// payment posted 10 days ago yields extra=3, eff_rate=0.035, commission=35.
func TestCalculateAppliesGraceDaysAndPenaltyDecay(t *testing.T) {
	postedAt := time.Now().Add(-10 * 24 * time.Hour)
	cal, err := period.NewCalendar("America/Argentina/Mendoza", nil)
	require.NoError(t, err)

	s := &service{
		log:      zap.NewNop(),
		calendar: cal,
		memberRepo: fakeMemberRepo{},
		payRepo: fakePayRepo{allocations: []paymentdomain.AgentAllocation{
			{AmountApplied: decimal.RequireFromString("1000"), PostedAt: postedAt},
		}},
		ledgerSvc: fakeLedgerSvc{},
	}

	report, err := s.Calculate(context.Background(), 42, cal.Now(), AgentConfig{
		BaseRate:      decimal.RequireFromString("0.05"),
		GraceDays:     7,
		PenaltyPerDay: decimal.RequireFromString("0.1"),
	}, "ARS")
	require.NoError(t, err)
	require.True(t, report.Earned.Equal(decimal.RequireFromString("35")), "expected 35, got %s", report.Earned)
	require.True(t, report.Expected.IsZero())
	require.True(t, report.AlreadyPaid.IsZero())
	require.True(t, report.Outstanding.Equal(decimal.RequireFromString("35")))
}

// TestCalculateWithinGraceDaysHasNoPenalty covers a payment posted inside
// the grace window: extra clamps to 0 so eff_rate stays at base_rate.
func TestCalculateWithinGraceDaysHasNoPenalty(t *testing.T) {
	postedAt := time.Now().Add(-3 * 24 * time.Hour)
	cal, err := period.NewCalendar("America/Argentina/Mendoza", nil)
	require.NoError(t, err)

	s := &service{
		log:      zap.NewNop(),
		calendar: cal,
		memberRepo: fakeMemberRepo{},
		payRepo: fakePayRepo{allocations: []paymentdomain.AgentAllocation{
			{AmountApplied: decimal.RequireFromString("500"), PostedAt: postedAt},
		}},
		ledgerSvc: fakeLedgerSvc{},
	}

	report, err := s.Calculate(context.Background(), 7, cal.Now(), AgentConfig{
		BaseRate:      decimal.RequireFromString("0.05"),
		GraceDays:     7,
		PenaltyPerDay: decimal.RequireFromString("0.1"),
	}, "ARS")
	require.NoError(t, err)
	require.True(t, report.Earned.Equal(decimal.RequireFromString("25")), "expected 25, got %s", report.Earned)
}
