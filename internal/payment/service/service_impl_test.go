package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
	"github.com/sepelio/nucleo/internal/clock"
	"github.com/sepelio/nucleo/internal/debt"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/internal/pricing"
	receiptdomain "github.com/sepelio/nucleo/internal/receipt/domain"
)

type fakeMemberRepo struct{ member *memberdomain.Member }

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

// fakePayRepo tracks inserted payments/allocations in memory and derives
// PaidForPeriod from them, so the race re-check (step 8) observes prior
// postings within the same test.
type fakePayRepo struct {
	byKey       map[string]*paymentdomain.Payment
	allocations map[snowflake.ID][]paymentdomain.Allocation
	paidByMember map[snowflake.ID]map[period.Period]decimal.Decimal
}

func newFakePayRepo() *fakePayRepo {
	return &fakePayRepo{
		byKey:        map[string]*paymentdomain.Payment{},
		allocations:  map[snowflake.ID][]paymentdomain.Allocation{},
		paidByMember: map[snowflake.ID]map[period.Period]decimal.Decimal{},
	}
}

func (f *fakePayRepo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*paymentdomain.Payment, error) {
	if p, ok := f.byKey[key]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakePayRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	return nil, nil
}
func (f *fakePayRepo) Insert(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	cp := *payment
	f.byKey[payment.IdempotencyKey] = &cp
	return nil
}
func (f *fakePayRepo) MarkPosted(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID, postedAt time.Time) error {
	return nil
}
func (f *fakePayRepo) InsertAllocations(ctx context.Context, tx *gorm.DB, allocations []paymentdomain.Allocation) error {
	for _, a := range allocations {
		f.allocations[a.PaymentID] = append(f.allocations[a.PaymentID], a)
		if f.paidByMember[a.MemberID] == nil {
			f.paidByMember[a.MemberID] = map[period.Period]decimal.Decimal{}
		}
		f.paidByMember[a.MemberID][a.Period] = f.paidByMember[a.MemberID][a.Period].Add(a.AmountApplied)
	}
	return nil
}
func (f *fakePayRepo) PaidByPeriod(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]paymentdomain.PeriodPaid, error) {
	out := []paymentdomain.PeriodPaid{}
	for p, amt := range f.paidByMember[memberID] {
		out = append(out, paymentdomain.PeriodPaid{Period: p, Paid: amt})
	}
	return out, nil
}
func (f *fakePayRepo) PaidForPeriod(ctx context.Context, tx *gorm.DB, memberID snowflake.ID, p period.Period) (decimal.Decimal, error) {
	if m, ok := f.paidByMember[memberID]; ok {
		return m[p], nil
	}
	return decimal.Zero, nil
}
func (f *fakePayRepo) ListByAgent(ctx context.Context, db *gorm.DB, agentUserID int64, filter paymentdomain.ListFilter, page paymentdomain.Page) ([]paymentdomain.Payment, error) {
	return nil, nil
}
func (f *fakePayRepo) FindAllocationsByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]paymentdomain.Allocation, error) {
	return f.allocations[paymentID], nil
}
func (f *fakePayRepo) AllocationsForAgentPeriod(ctx context.Context, db *gorm.DB, agentUserID int64, reportingPeriod period.Period) ([]paymentdomain.AgentAllocation, error) {
	return nil, nil
}

type fakeDebtSvc struct {
	repo    *fakePayRepo
	periods []period.Period
}

func defaultFakePeriods() []period.Period {
	return []period.Period{
		period.MustNormalize("2024-01"),
		period.MustNormalize("2024-02"),
		period.MustNormalize("2024-03"),
	}
}

func (f fakeDebtSvc) PeriodState(ctx context.Context, memberID snowflake.ID, window debt.Window) (debt.MemberDebtState, error) {
	fee := decimal.RequireFromString("1000")
	periods := f.periods
	if periods == nil {
		periods = defaultFakePeriods()
	}
	var states []debt.PeriodState
	totals := debt.GrandTotals{}
	for _, p := range periods {
		paid := decimal.Zero
		if f.repo != nil {
			if m, ok := f.repo.paidByMember[memberID]; ok {
				paid = m[p]
			}
		}
		bal := fee.Sub(paid)
		if bal.IsNegative() {
			bal = decimal.Zero
		}
		status := debt.StatusDue
		if bal.IsZero() {
			status = debt.StatusPaid
		} else if paid.IsPositive() {
			status = debt.StatusPartial
		}
		states = append(states, debt.PeriodState{Period: p, Charge: fee, Paid: paid, Balance: bal, Status: status})
		totals.Charge = totals.Charge.Add(fee)
		totals.Paid = totals.Paid.Add(paid)
		totals.Balance = totals.Balance.Add(bal)
	}
	return debt.MemberDebtState{Periods: states, GrandTotals: totals}, nil
}
func (f fakeDebtSvc) TotalDueUpToNow(ctx context.Context, memberID snowflake.ID) (decimal.Decimal, error) {
	s, err := f.PeriodState(ctx, memberID, debt.Window{})
	return s.GrandTotals.Balance, err
}
func (f fakeDebtSvc) ArrearsMonths(ctx context.Context, memberID snowflake.ID) (int, error) {
	s, err := f.PeriodState(ctx, memberID, debt.Window{})
	count := 0
	for _, p := range s.Periods {
		if p.Balance.IsPositive() {
			count++
		}
	}
	return count, err
}
func (f fakeDebtSvc) BalanceAt(ctx context.Context, memberID snowflake.ID, p period.Period) (decimal.Decimal, error) {
	s, err := f.PeriodState(ctx, memberID, debt.Window{})
	for _, ps := range s.Periods {
		if ps.Period == p {
			return ps.Balance, err
		}
	}
	return decimal.Zero, err
}

type fakePricingSvc struct{ member *memberdomain.Member }

func (f fakePricingSvc) GroupFees(ctx context.Context, groupID int64) ([]pricing.MemberFee, error) {
	return nil, nil
}
func (f fakePricingSvc) MemberFee(ctx context.Context, memberID snowflake.ID) (pricing.MemberFee, error) {
	if f.member == nil {
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

type fakeLedgerSvc struct{ posted []ledgerdomain.PostPairInput }

func (f *fakeLedgerSvc) PostPair(ctx context.Context, in ledgerdomain.PostPairInput) (ledgerdomain.PostPairResult, error) {
	f.posted = append(f.posted, in)
	return ledgerdomain.PostPairResult{DebitEntryID: 1, CreditEntryID: 2}, nil
}
func (f *fakeLedgerSvc) Balance(ctx context.Context, ownerUserID *int64, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (f *fakeLedgerSvc) BalanceByOwner(ctx context.Context, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) ([]ledgerdomain.OwnerBalance, error) {
	return nil, nil
}
func (f *fakeLedgerSvc) Exists(ctx context.Context, paymentID snowflake.ID) (bool, error) {
	return false, nil
}
func (f *fakeLedgerSvc) List(ctx context.Context, filter ledgerdomain.ListFilter, page ledgerdomain.Page) ([]ledgerdomain.Entry, error) {
	return nil, nil
}

type fakeReceiptSvc struct{ serial int64 }

func (f *fakeReceiptSvc) Issue(ctx context.Context, tx *gorm.DB, data receiptdomain.Data) (*receiptdomain.Receipt, error) {
	f.serial++
	return &receiptdomain.Receipt{ID: snowflake.ID(f.serial), PaymentID: data.PaymentID, SerialNumber: f.serial}, nil
}
func (f *fakeReceiptSvc) FindByPaymentID(ctx context.Context, paymentID snowflake.ID) (*receiptdomain.Receipt, error) {
	return nil, gorm.ErrRecordNotFound
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func newTestCalendar(t *testing.T, nowPeriod string) *period.Calendar {
	t.Helper()
	base, err := time.Parse("2006-01", nowPeriod)
	require.NoError(t, err)
	mid := base.AddDate(0, 0, 14).Add(12 * time.Hour)
	cal, err := period.NewCalendar("America/Argentina/Mendoza", clock.NewFakeClock(mid))
	require.NoError(t, err)
	return cal
}

func newTestServiceWithPeriods(t *testing.T, member *memberdomain.Member, nowPeriod string, periods []period.Period) (*Service, *fakePayRepo, *fakeLedgerSvc) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	payRepo := newFakePayRepo()
	ledgerSvc := &fakeLedgerSvc{}
	svc := &Service{
		db:         newTestDB(t),
		log:        zap.NewNop(),
		genID:      node,
		calendar:   newTestCalendar(t, nowPeriod),
		memberRepo: fakeMemberRepo{member: member},
		repo:       payRepo,
		debtSvc:    fakeDebtSvc{repo: payRepo, periods: periods},
		pricingSvc: fakePricingSvc{member: member},
		ledgerSvc:  ledgerSvc,
		receiptSvc: &fakeReceiptSvc{},
	}
	return svc, payRepo, ledgerSvc
}

func newTestService(t *testing.T, member *memberdomain.Member, nowPeriod string) (*Service, *fakePayRepo, *fakeLedgerSvc) {
	return newTestServiceWithPeriods(t, member, nowPeriod, nil)
}

func testMember(agentID int64) *memberdomain.Member {
	joined, _ := time.Parse("2006-01", "2024-01")
	return &memberdomain.Member{
		ID:            42,
		GroupID:       99,
		AgentID:       agentID,
		JoinedAt:      joined,
		HistoricalFee: decimal.RequireFromString("1000"),
	}
}

// Scenario 1 (spec.md §8): fresh member, on-time payment, FIFO to the
// oldest due period.
func TestPostFreshMemberOnTimePayment(t *testing.T) {
	member := testMember(5)
	svc, _, ledgerSvc := newTestService(t, member, "2024-01")

	result, err := svc.Post(context.Background(), paymentdomain.PostRequest{
		MemberID:          member.ID,
		Amount:            decPtr("1000"),
		Method:            paymentdomain.MethodCash,
		IdempotencyKey:    "idem-1",
		Strategy:          paymentdomain.StrategyAuto,
		ActorUserID:       5,
		ActorAgentID:      5,
		Currency:          "ARS",
		MemberDisplayName: "Jane Doe",
		ActorDisplayName:  "Agent Smith",
	})
	require.NoError(t, err)
	require.Len(t, result.Allocations, 1)
	require.Equal(t, period.MustNormalize("2024-01"), result.Allocations[0].Period)
	require.Equal(t, paymentdomain.StatusPosted, result.Payment.Status)
	require.NotNil(t, result.Receipt)
	require.EqualValues(t, 1, result.Receipt.SerialNumber)
	require.Len(t, ledgerSvc.posted, 1)
	require.True(t, ledgerSvc.posted[0].Amount.Equal(decimal.RequireFromString("1000")))
}

// Scenario 2: two-month arrears, full sweep with amount omitted.
func TestPostArrearsSweepAmountOmitted(t *testing.T) {
	member := testMember(5)
	svc, _, _ := newTestService(t, member, "2024-03")

	result, err := svc.Post(context.Background(), paymentdomain.PostRequest{
		MemberID:       member.ID,
		Method:         paymentdomain.MethodCash,
		IdempotencyKey: "idem-2",
		Strategy:       paymentdomain.StrategyAuto,
		ActorUserID:    5,
		ActorAgentID:   5,
		Currency:       "ARS",
	})
	require.NoError(t, err)
	require.True(t, result.Payment.Amount.Equal(decimal.RequireFromString("3000")))
	require.Len(t, result.Allocations, 3)
}

// Scenario 6: a member with 5 due periods (>= the default cutoff of 4)
// fails ARREARS_CUTOFF regardless of the requested amount.
func TestPostArrearsCutoffAborts(t *testing.T) {
	member := testMember(5)
	fivePeriods := []period.Period{
		period.MustNormalize("2024-01"),
		period.MustNormalize("2024-02"),
		period.MustNormalize("2024-03"),
		period.MustNormalize("2024-04"),
		period.MustNormalize("2024-05"),
	}
	svc, payRepo, ledgerSvc := newTestServiceWithPeriods(t, member, "2024-05", fivePeriods)

	_, err := svc.Post(context.Background(), paymentdomain.PostRequest{
		MemberID:       member.ID,
		Amount:         decPtr("5000"),
		Method:         paymentdomain.MethodCash,
		IdempotencyKey: "idem-cutoff",
		Strategy:       paymentdomain.StrategyAuto,
		ActorUserID:    5,
		ActorAgentID:   5,
		Currency:       "ARS",
	})
	require.ErrorIs(t, err, paymentdomain.ErrArrearsCutoff)
	require.Empty(t, payRepo.allocations)
	require.Empty(t, ledgerSvc.posted)
}

// A four-period fixture (exactly at the default cutoff of 4) must also
// be rejected — the invariant is "arrears_months >= cutoff", not "> cutoff".
func TestPostArrearsCutoffBoundaryInclusive(t *testing.T) {
	member := testMember(5)
	fourPeriods := []period.Period{
		period.MustNormalize("2024-01"),
		period.MustNormalize("2024-02"),
		period.MustNormalize("2024-03"),
		period.MustNormalize("2024-04"),
	}
	svc, _, _ := newTestServiceWithPeriods(t, member, "2024-04", fourPeriods)

	_, err := svc.Post(context.Background(), paymentdomain.PostRequest{
		MemberID:       member.ID,
		Amount:         decPtr("4000"),
		Method:         paymentdomain.MethodCash,
		IdempotencyKey: "idem-cutoff-boundary",
		Strategy:       paymentdomain.StrategyAuto,
		ActorUserID:    5,
		ActorAgentID:   5,
		Currency:       "ARS",
	})
	require.ErrorIs(t, err, paymentdomain.ErrArrearsCutoff)
}

func TestPostOutOfScopeRejected(t *testing.T) {
	member := testMember(5)
	svc, _, _ := newTestService(t, member, "2024-01")

	_, err := svc.Post(context.Background(), paymentdomain.PostRequest{
		MemberID:       member.ID,
		Amount:         decPtr("1000"),
		Method:         paymentdomain.MethodCash,
		IdempotencyKey: "idem-scope",
		Strategy:       paymentdomain.StrategyAuto,
		ActorUserID:    9,
		ActorAgentID:   9, // mismatched agent
		Currency:       "ARS",
	})
	require.ErrorIs(t, err, paymentdomain.ErrOutOfScope)
}

func TestPostIdempotentReplayReturnsSamePayment(t *testing.T) {
	member := testMember(5)
	svc, _, ledgerSvc := newTestService(t, member, "2024-01")

	req := paymentdomain.PostRequest{
		MemberID:       member.ID,
		Amount:         decPtr("1000"),
		Method:         paymentdomain.MethodCash,
		IdempotencyKey: "idem-replay",
		Strategy:       paymentdomain.StrategyAuto,
		ActorUserID:    5,
		ActorAgentID:   5,
		Currency:       "ARS",
	}
	first, err := svc.Post(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := svc.Post(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Replayed)
	require.Equal(t, first.Payment.ID, second.Payment.ID)
	require.Len(t, ledgerSvc.posted, 1, "replay must not post a second ledger pair")
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
