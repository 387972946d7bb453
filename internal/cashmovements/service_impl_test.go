package cashmovements

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
)

// fakeLedger is a minimal in-memory ledgerdomain.Service: PostPair mutates
// a balance map the same way balance derivation would over real entries,
// so CashMovements' balance checks and pair postings can be exercised
// without a database.
type fakeLedger struct {
	balances map[string]decimal.Decimal
	posted   []ledgerdomain.PostPairInput
	seen     map[snowflake.ID]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[string]decimal.Decimal{}, seen: map[snowflake.ID]bool{}}
}

func balKey(owner *int64, code account.Code, currency string) string {
	o := "GLOBAL"
	if owner != nil {
		o = decimal.NewFromInt(*owner).String()
	}
	return o + "|" + string(code) + "|" + currency
}

func (f *fakeLedger) setBalance(owner *int64, code account.Code, currency string, amt string) {
	f.balances[balKey(owner, code, currency)] = decimal.RequireFromString(amt)
}

func (f *fakeLedger) PostPair(ctx context.Context, in ledgerdomain.PostPairInput) (ledgerdomain.PostPairResult, error) {
	if f.seen[in.PaymentID] {
		return ledgerdomain.PostPairResult{}, ledgerdomain.ErrDuplicatePosting
	}
	f.seen[in.PaymentID] = true
	f.posted = append(f.posted, in)

	debitKey := balKey(in.DebitLeg.OwnerUserID, in.DebitLeg.AccountCode, in.Currency)
	creditKey := balKey(in.CreditLeg.OwnerUserID, in.CreditLeg.AccountCode, in.Currency)
	f.balances[debitKey] = f.balances[debitKey].Add(in.Amount)
	f.balances[creditKey] = f.balances[creditKey].Sub(in.Amount)
	return ledgerdomain.PostPairResult{DebitEntryID: 1, CreditEntryID: 2}, nil
}

func (f *fakeLedger) Balance(ctx context.Context, ownerUserID *int64, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) (decimal.Decimal, error) {
	return f.balances[balKey(ownerUserID, accountCode, currency)], nil
}

func (f *fakeLedger) BalanceByOwner(ctx context.Context, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) ([]ledgerdomain.OwnerBalance, error) {
	var out []ledgerdomain.OwnerBalance
	for k, v := range f.balances {
		// key format "<owner>|<code>|<currency>"
		var owner, code, cur string
		splitKey(k, &owner, &code, &cur)
		if code != string(accountCode) || cur != currency || owner == "GLOBAL" {
			continue
		}
		id := decimal.RequireFromString(owner).IntPart()
		out = append(out, ledgerdomain.OwnerBalance{OwnerUserID: &id, Balance: v})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Balance.GreaterThan(out[i].Balance) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func splitKey(k string, owner, code, cur *string) {
	parts := [3]string{}
	idx := 0
	start := 0
	for i := 0; i < len(k) && idx < 2; i++ {
		if k[i] == '|' {
			parts[idx] = k[start:i]
			idx++
			start = i + 1
		}
	}
	parts[2] = k[start:]
	*owner, *code, *cur = parts[0], parts[1], parts[2]
}

func (f *fakeLedger) Exists(ctx context.Context, paymentID snowflake.ID) (bool, error) {
	return f.seen[paymentID], nil
}

func (f *fakeLedger) List(ctx context.Context, filter ledgerdomain.ListFilter, page ledgerdomain.Page) ([]ledgerdomain.Entry, error) {
	return nil, nil
}

func newTestCashService(t *testing.T) (*service, *fakeLedger) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	ledger := newFakeLedger()
	return &service{log: zap.NewNop(), genID: node, ledgerSvc: ledger}, ledger
}

func TestArqueoSweepsPositiveBalancesPerAccount(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(int64Ptr(7), account.CajaCobrador, "ARS", "1200")
	ledger.setBalance(int64Ptr(7), account.ARendirCobrador, "ARS", "300")

	posted, err := s.Arqueo(context.Background(), ArqueoRequest{
		AgentUserID:      7,
		Currency:         "ARS",
		ExecutingAdminID: 3,
	})
	require.NoError(t, err)
	require.Len(t, posted, 2)

	agentBal, _ := ledger.Balance(context.Background(), int64Ptr(7), account.CajaCobrador, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, agentBal.IsZero())
	adminBal, _ := ledger.Balance(context.Background(), int64Ptr(3), account.CajaAdmin, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, adminBal.Equal(decimal.RequireFromString("1500")))
}

func TestArqueoRejectsSelfDestination(t *testing.T) {
	s, _ := newTestCashService(t)
	_, err := s.Arqueo(context.Background(), ArqueoRequest{
		AgentUserID:        7,
		Currency:           "ARS",
		DestinationAccount: account.CajaCobrador,
		ExecutingAdminID:   3,
	})
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestArqueoSkipsNonPositiveAndBelowMinimum(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(int64Ptr(7), account.CajaCobrador, "ARS", "50")

	posted, err := s.Arqueo(context.Background(), ArqueoRequest{
		AgentUserID:      7,
		Currency:         "ARS",
		MinAmount:        decimal.RequireFromString("100"),
		ExecutingAdminID: 3,
	})
	require.NoError(t, err)
	require.Empty(t, posted)
}

func TestPettyDepositRequiresOwnerOrSuperAdmin(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(int64Ptr(3), account.CajaAdmin, "ARS", "500")

	_, err := s.PettyDeposit(context.Background(), PettyDepositRequest{
		AdminUserID: 3,
		Currency:    "ARS",
		ActorUserID: 99, // not the admin, not super-admin
	})
	require.ErrorIs(t, err, ErrNotAuthorized)

	result, err := s.PettyDeposit(context.Background(), PettyDepositRequest{
		AdminUserID: 3,
		Currency:    "ARS",
		ActorUserID: 3,
	})
	require.NoError(t, err)
	require.True(t, result.Amount.Equal(decimal.RequireFromString("500")))

	chicaBal, _ := ledger.Balance(context.Background(), nil, account.CajaChica, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, chicaBal.Equal(decimal.RequireFromString("500")))
}

func TestVaultIngressDrainsDescendingUntilAmountSatisfied(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(int64Ptr(11), account.CajaChica, "ARS", "300")
	ledger.setBalance(int64Ptr(22), account.CajaChica, "ARS", "900")

	posted, err := s.VaultIngress(context.Background(), VaultIngressRequest{
		SuperAdminUserID: 1,
		Currency:         "ARS",
		Amount:           decimal.RequireFromString("1000"),
	})
	require.NoError(t, err)
	require.Len(t, posted, 2)
	require.True(t, posted[0].Amount.Equal(decimal.RequireFromString("900")), "descending: admin 22 drained first")
	require.True(t, posted[1].Amount.Equal(decimal.RequireFromString("100")), "remainder capped at requested amount")

	vaultBal, _ := ledger.Balance(context.Background(), nil, account.CajaGrande, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, vaultBal.Equal(decimal.RequireFromString("1000")))
}

func TestVaultIngressMoveAllDrainsEverything(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(int64Ptr(11), account.CajaChica, "ARS", "300")
	ledger.setBalance(int64Ptr(22), account.CajaChica, "ARS", "900")

	posted, err := s.VaultIngress(context.Background(), VaultIngressRequest{
		SuperAdminUserID: 1,
		Currency:         "ARS",
		MoveAll:          true,
	})
	require.NoError(t, err)
	require.Len(t, posted, 2)

	vaultBal, _ := ledger.Balance(context.Background(), nil, account.CajaGrande, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, vaultBal.Equal(decimal.RequireFromString("1200")))
}

func TestVaultEgressInsufficientFunds(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(nil, account.CajaGrande, "ARS", "100")

	_, err := s.VaultEgress(context.Background(), VaultEgressRequest{
		SuperAdminUserID: 1,
		Currency:         "ARS",
		Amount:           decimal.RequireFromString("500"),
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestVaultEgressMovesIntoWallet(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(nil, account.CajaGrande, "ARS", "1000")

	result, err := s.VaultEgress(context.Background(), VaultEgressRequest{
		SuperAdminUserID: 1,
		Currency:         "ARS",
		Amount:           decimal.RequireFromString("400"),
	})
	require.NoError(t, err)
	require.True(t, result.Amount.Equal(decimal.RequireFromString("400")))

	walletBal, _ := ledger.Balance(context.Background(), int64Ptr(1), account.CajaSuperAdmin, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, walletBal.Equal(decimal.RequireFromString("400")))
}

func TestCommissionPayoutRejectsInvalidSourceAccount(t *testing.T) {
	s, _ := newTestCashService(t)
	_, err := s.CommissionPayout(context.Background(), CommissionPayoutRequest{
		AgentUserID:   7,
		SourceAccount: account.CajaCobrador,
		Currency:      "ARS",
		Amount:        decimal.RequireFromString("10"),
	})
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestCommissionPayoutDebitsAgentCreditsSource(t *testing.T) {
	s, ledger := newTestCashService(t)
	ledger.setBalance(nil, account.CajaGrande, "ARS", "1000")

	result, err := s.CommissionPayout(context.Background(), CommissionPayoutRequest{
		AgentUserID:   7,
		Period:        "2024-03",
		SourceAccount: account.CajaGrande,
		Currency:      "ARS",
		Amount:        decimal.RequireFromString("200"),
		ActorUserID:   1,
	})
	require.NoError(t, err)
	require.True(t, result.Amount.Equal(decimal.RequireFromString("200")))

	agentCommission, _ := ledger.Balance(context.Background(), int64Ptr(7), account.ComisionCobrador, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, agentCommission.Equal(decimal.RequireFromString("200")))
	vaultBal, _ := ledger.Balance(context.Background(), nil, account.CajaGrande, "ARS", ledgerdomain.BalanceWindow{})
	require.True(t, vaultBal.Equal(decimal.RequireFromString("800")))
}

func int64Ptr(v int64) *int64 { return &v }
