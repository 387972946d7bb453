// Package domain defines LedgerStore's persisted shapes: append-only
// double-entry postings keyed by payment_id, generalized from the
// teacher's internal/ledger/domain (LedgerEntry/LedgerEntryLine) into the
// owner/account/dimensions shape spec §3 requires.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/account"
)

// Side is one leg's direction within a balanced pair.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Kind tags what business event produced a ledger pair.
type Kind string

const (
	KindPayment          Kind = "payment"
	KindRefund           Kind = "refund"
	KindReversal         Kind = "reversal"
	KindAdjustment       Kind = "adjustment"
	KindArqueo           Kind = "arqueo"
	KindPettyDeposit     Kind = "petty_deposit"
	KindVaultIngress     Kind = "vault_ingress"
	KindVaultEgress      Kind = "vault_egress"
	KindCommissionPayout Kind = "commission_payout"
)

// Dimensions carries the analytic tags every entry is filterable by,
// per spec §3 ("dimensions: {agent_id, member_group_id, channel, plan, note}").
type Dimensions struct {
	AgentID       *int64 `json:"agent_id,omitempty"`
	MemberGroupID *int64 `json:"member_group_id,omitempty"`
	Channel       string `json:"channel,omitempty"`
	Plan          string `json:"plan,omitempty"`
	Note          string `json:"note,omitempty"`
}

// Entry is one immutable leg of a balanced ledger pair.
type Entry struct {
	ID              snowflake.ID    `gorm:"primaryKey"`
	PaymentID       snowflake.ID    `gorm:"not null;index:ix_ledger_entries_payment_id"`
	OwnerUserID     *int64          `gorm:"index:ix_ledger_entries_owner"`
	Kind            Kind            `gorm:"type:text;not null;index"`
	Side            Side            `gorm:"type:text;not null"`
	AccountCode     account.Code    `gorm:"type:text;not null;index:ix_ledger_entries_account_posted"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Currency        string          `gorm:"type:text;not null"`
	PostedAt        time.Time       `gorm:"not null;index:ix_ledger_entries_account_posted"`
	FromUserLabel   string          `gorm:"type:text"`
	ToUserLabel     string          `gorm:"type:text"`
	FromAccountCode account.Code    `gorm:"type:text"`
	ToAccountCode   account.Code    `gorm:"type:text"`
	DimAgentID      *int64          `gorm:"column:dim_agent_id;index:ix_ledger_entries_dim_agent"`
	DimGroupID      *int64          `gorm:"column:dim_member_group_id"`
	DimChannel      string          `gorm:"column:dim_channel;type:text"`
	DimPlan         string          `gorm:"column:dim_plan;type:text"`
	DimNote         string          `gorm:"column:dim_note;type:text"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "ledger_entries" }

// Dims reconstructs the Dimensions value from the flattened columns.
func (e Entry) Dims() Dimensions {
	return Dimensions{
		AgentID:       e.DimAgentID,
		MemberGroupID: e.DimGroupID,
		Channel:       e.DimChannel,
		Plan:          e.DimPlan,
		Note:          e.DimNote,
	}
}

// OwnerBalance pairs an owner with their derived balance, returned by
// BalanceByOwner sorted descending by Balance per spec §4.3.
type OwnerBalance struct {
	OwnerUserID *int64
	Balance     decimal.Decimal
}
