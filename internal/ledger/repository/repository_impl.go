package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
)

type repo struct{}

// Provide returns the gorm-backed ledgerdomain.Repository.
func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) ExistsByPaymentID(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) (bool, error) {
	var count int64
	if err := tx.WithContext(ctx).
		Table("ledger_entries").
		Where("payment_id = ?", paymentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) ExistsByScope(ctx context.Context, tx *gorm.DB, kind ledgerdomain.Kind, currency, note string, since time.Time) (bool, error) {
	q := tx.WithContext(ctx).
		Table("ledger_entries").
		Where("kind = ? AND currency = ? AND dim_note = ?", kind, currency, note)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, entry *ledgerdomain.Entry) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_entries (
			id, payment_id, owner_user_id, kind, side, account_code, amount, currency,
			posted_at, from_user_label, to_user_label, from_account_code, to_account_code,
			dim_agent_id, dim_member_group_id, dim_channel, dim_plan, dim_note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.PaymentID,
		entry.OwnerUserID,
		string(entry.Kind),
		string(entry.Side),
		string(entry.AccountCode),
		entry.Amount,
		entry.Currency,
		entry.PostedAt.UTC(),
		entry.FromUserLabel,
		entry.ToUserLabel,
		string(entry.FromAccountCode),
		string(entry.ToAccountCode),
		entry.DimAgentID,
		entry.DimGroupID,
		entry.DimChannel,
		entry.DimPlan,
		entry.DimNote,
		entry.CreatedAt.UTC(),
	).Error
}

func windowClause(q *gorm.DB, window ledgerdomain.BalanceWindow) *gorm.DB {
	if window.From != nil {
		q = q.Where("posted_at >= ?", window.From.UTC())
	}
	if window.To != nil {
		q = q.Where("posted_at <= ?", window.To.UTC())
	}
	return q
}

func (r *repo) SumDebitsCredits(ctx context.Context, tx *gorm.DB, ownerUserID *int64, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) (decimal.Decimal, decimal.Decimal, error) {
	type row struct {
		Side string
		Sum  decimal.Decimal
	}

	q := tx.WithContext(ctx).
		Table("ledger_entries").
		Select("side, COALESCE(SUM(amount), 0) AS sum").
		Where("account_code = ? AND currency = ?", string(accountCode), currency)
	if ownerUserID == nil {
		q = q.Where("owner_user_id IS NULL")
	} else {
		q = q.Where("owner_user_id = ?", *ownerUserID)
	}
	q = windowClause(q, window).Group("side")

	var rows []row
	if err := q.Find(&rows).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, rr := range rows {
		switch rr.Side {
		case string(ledgerdomain.SideDebit):
			debits = rr.Sum
		case string(ledgerdomain.SideCredit):
			credits = rr.Sum
		}
	}
	return debits, credits, nil
}

func (r *repo) SumByOwner(ctx context.Context, tx *gorm.DB, accountCode account.Code, currency string, window ledgerdomain.BalanceWindow) ([]ledgerdomain.OwnerBalance, error) {
	type row struct {
		OwnerUserID *int64
		Side        string
		Sum         decimal.Decimal
	}

	q := tx.WithContext(ctx).
		Table("ledger_entries").
		Select("owner_user_id, side, COALESCE(SUM(amount), 0) AS sum").
		Where("account_code = ? AND currency = ?", string(accountCode), currency)
	q = windowClause(q, window).Group("owner_user_id, side")

	var rows []row
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	balances := map[int64]*ledgerdomain.OwnerBalance{}
	var globalBalance *ledgerdomain.OwnerBalance
	ownerKey := func(id *int64) int64 {
		if id == nil {
			return 0
		}
		return *id
	}
	for _, rr := range rows {
		var ob *ledgerdomain.OwnerBalance
		if rr.OwnerUserID == nil {
			if globalBalance == nil {
				globalBalance = &ledgerdomain.OwnerBalance{OwnerUserID: nil}
			}
			ob = globalBalance
		} else {
			key := ownerKey(rr.OwnerUserID)
			if balances[key] == nil {
				owner := *rr.OwnerUserID
				balances[key] = &ledgerdomain.OwnerBalance{OwnerUserID: &owner}
			}
			ob = balances[key]
		}
		switch rr.Side {
		case string(ledgerdomain.SideDebit):
			ob.Balance = ob.Balance.Add(rr.Sum)
		case string(ledgerdomain.SideCredit):
			ob.Balance = ob.Balance.Sub(rr.Sum)
		}
	}

	out := make([]ledgerdomain.OwnerBalance, 0, len(balances)+1)
	if globalBalance != nil {
		out = append(out, *globalBalance)
	}
	for _, ob := range balances {
		out = append(out, *ob)
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

func (r *repo) List(ctx context.Context, tx *gorm.DB, filter ledgerdomain.ListFilter, page ledgerdomain.Page) ([]ledgerdomain.Entry, error) {
	q := tx.WithContext(ctx).Table("ledger_entries")
	if filter.OwnerUserID != nil {
		q = q.Where("owner_user_id = ?", *filter.OwnerUserID)
	}
	if filter.AccountCode != "" {
		q = q.Where("account_code = ?", string(filter.AccountCode))
	}
	if filter.Currency != "" {
		q = q.Where("currency = ?", filter.Currency)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", string(filter.Kind))
	}
	if filter.AgentID != nil {
		q = q.Where("dim_agent_id = ?", *filter.AgentID)
	}
	if filter.MemberGroupID != nil {
		q = q.Where("dim_member_group_id = ?", *filter.MemberGroupID)
	}
	q = windowClause(q, filter.Window)

	limit := page.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	var entries []ledgerdomain.Entry
	if err := q.Order("posted_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
