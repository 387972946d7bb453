// Package domain defines Payment and Allocation: the collection posting
// pipeline's persisted shapes (spec §3), generalized from the teacher's
// payment/domain (EventRecord/PaymentEvent webhook shapes, now dropped —
// this core posts payments directly, it does not ingest provider webhooks).
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/sepelio/nucleo/internal/period"
)

// Kind tags the business nature of a Payment.
type Kind string

const (
	KindPayment    Kind = "payment"
	KindRefund     Kind = "refund"
	KindReversal   Kind = "reversal"
	KindAdjustment Kind = "adjustment"
)

// Status is a Payment's lifecycle stage.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPosted   Status = "posted"
	StatusSettled  Status = "settled"
	StatusReversed Status = "reversed"
)

// Method is how cash changed hands.
type Method string

const (
	MethodCash     Method = "cash"
	MethodTransfer Method = "transfer"
	MethodCard     Method = "card"
	MethodQR       Method = "qr"
	MethodOther    Method = "other"
)

// Payment is a proposed-then-posted collection (spec §3).
type Payment struct {
	ID             snowflake.ID      `gorm:"primaryKey"`
	Kind           Kind              `gorm:"type:text;not null;default:'payment'"`
	Status         Status            `gorm:"type:text;not null;default:'draft'"`
	MemberID       snowflake.ID      `gorm:"not null;index"`
	GroupID        int64             `gorm:"not null;index"`
	AgentID        int64             `gorm:"not null;index"`
	AgentUserID    int64             `gorm:"not null;index:ix_payments_agent_posted"`
	Amount         decimal.Decimal   `gorm:"type:numeric(18,2);not null"`
	Currency       string            `gorm:"type:text;not null"`
	Method         Method            `gorm:"type:text;not null"`
	Channel        string            `gorm:"type:text"`
	Notes          string            `gorm:"type:text"`
	IdempotencyKey string            `gorm:"type:text;not null;uniqueIndex"`
	ExternalRef    string            `gorm:"type:text"`
	Meta           datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	PostedAt       *time.Time        `gorm:"index:ix_payments_agent_posted"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// AllocationStatus is a period's fill state after an allocation applies.
type AllocationStatus string

const (
	AllocationStatusPaid    AllocationStatus = "paid"
	AllocationStatusPartial AllocationStatus = "partial"
)

// Allocation is the portion of a Payment assigned to one billing period.
// Immutable once its parent payment is posted (spec §3).
type Allocation struct {
	ID            snowflake.ID     `gorm:"primaryKey"`
	PaymentID     snowflake.ID     `gorm:"not null;index"`
	MemberID      snowflake.ID     `gorm:"not null;index:ix_allocations_member_period"`
	Period        period.Period    `gorm:"type:text;not null;index:ix_allocations_member_period"`
	AmountApplied decimal.Decimal  `gorm:"type:numeric(18,2);not null"`
	StatusAfter   AllocationStatus `gorm:"type:text;not null"`
	CreatedAt     time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Allocation) TableName() string { return "allocations" }
