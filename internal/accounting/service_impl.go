package accounting

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	LedgerSvc ledgerdomain.Service
}

type service struct {
	log       *zap.Logger
	ledgerSvc ledgerdomain.Service
}

// NewService constructs AccountingQueries.
func NewService(p Params) Service {
	return &service{log: p.Log.Named("accounting.service"), ledgerSvc: p.LedgerSvc}
}

var (
	agentAccounts  = []account.Code{account.CajaCobrador, account.ARendirCobrador}
	adminAccounts  = []account.Code{account.CajaAdmin}
	globalAccounts = []account.Code{account.CajaChica, account.CajaGrande, account.BancoPrincipal, account.BancoSecundario}
)

func (s *service) ListBoxesByUser(ctx context.Context, viewerRole account.Role, filter BoxFilter) ([]UserBox, error) {
	accounts := agentAccounts
	if viewerRole == account.RoleSuperAdmin {
		// Super-admin sees admins + agents + themselves (spec §4.10): their
		// own CAJA_SUPERADMIN wallet is a per-user box like the others, not
		// one of the global vaults appended below.
		accounts = append(append(append([]account.Code{}, agentAccounts...), adminAccounts...), account.CajaSuperAdmin)
	}

	boxes := make([]UserBox, 0, 16)
	for _, acct := range accounts {
		owners, err := s.ledgerSvc.BalanceByOwner(ctx, acct, filter.Currency, filter.Window)
		if err != nil {
			return nil, fmt.Errorf("balances for %s: %w", acct, err)
		}
		for _, ob := range owners {
			if ob.OwnerUserID == nil {
				continue
			}
			boxes = append(boxes, UserBox{OwnerUserID: ob.OwnerUserID, AccountCode: acct, Currency: filter.Currency, Balance: ob.Balance})
		}
	}

	if viewerRole != account.RoleSuperAdmin {
		return boxes, nil
	}

	for _, acct := range globalAccounts {
		balance, err := s.ledgerSvc.Balance(ctx, nil, acct, filter.Currency, filter.Window)
		if err != nil {
			return nil, fmt.Errorf("global balance for %s: %w", acct, err)
		}
		boxes = append(boxes, UserBox{OwnerUserID: nil, AccountCode: acct, Currency: filter.Currency, Balance: balance})
	}
	return boxes, nil
}

func (s *service) MovementDetail(ctx context.Context, viewerRole account.Role, ownerUserID *int64, accountCode account.Code, filter MovementFilter, page ledgerdomain.Page) (MovementDetail, error) {
	if viewerRole != account.RoleSuperAdmin && accountCode == account.CajaSuperAdmin {
		return MovementDetail{}, ErrNotAuthorized
	}

	entries, err := s.ledgerSvc.List(ctx, ledgerdomain.ListFilter{
		OwnerUserID: ownerUserID,
		AccountCode: accountCode,
		Currency:    filter.Currency,
		Kind:        filter.Kind,
		Window:      filter.Window,
	}, page)
	if err != nil {
		return MovementDetail{}, fmt.Errorf("list entries: %w", err)
	}

	totals := MovementTotals{}
	payments := make(map[int64]struct{}, len(entries))
	visible := entries[:0]
	for _, e := range entries {
		if viewerRole != account.RoleSuperAdmin && accountCode == account.CajaGrande && e.Side == ledgerdomain.SideCredit {
			continue
		}
		visible = append(visible, e)
		switch e.Side {
		case ledgerdomain.SideDebit:
			totals.Debits = totals.Debits.Add(e.Amount)
		case ledgerdomain.SideCredit:
			totals.Credits = totals.Credits.Add(e.Amount)
		}
		if totals.LastMovement == nil || e.PostedAt.After(*totals.LastMovement) {
			t := e.PostedAt
			totals.LastMovement = &t
		}
		payments[int64(e.PaymentID)] = struct{}{}
	}
	totals.Balance = totals.Debits.Sub(totals.Credits)
	totals.PaymentCount = len(payments)

	return MovementDetail{Entries: visible, Totals: totals}, nil
}
