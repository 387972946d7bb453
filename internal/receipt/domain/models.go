// Package domain defines Receipt and Counter (spec §4.7 step 11): a
// payment's printed proof and the atomic serial-number source it draws
// from, modeled after the teacher's entity/TableName convention
// (internal/payment/domain/model.go pre-transform).
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Receipt is the durable record of a payment's printed/QR receipt.
type Receipt struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	PaymentID    snowflake.ID `gorm:"uniqueIndex"`
	SerialNumber int64
	QRPayload    string
	PDFURI       string
	Voided       bool
	CreatedAt    time.Time
}

func (Receipt) TableName() string { return "receipts" }

// Counter is one named monotonic sequence, persisted as a single row that
// every increment races on via an atomic UPDATE ... RETURNING.
type Counter struct {
	Key   string `gorm:"primaryKey"`
	Value int64
}

func (Counter) TableName() string { return "counters" }

// ReceiptSerialCounterKey returns the Counter row this year's receipt
// serials draw from: `Counter{key}` for monotonic serials "(per-year
// receipt numbers)" per spec §3, allocated via `receipt:<year>` per spec
// §4.7 step 11.
func ReceiptSerialCounterKey(year int) string {
	return fmt.Sprintf("receipt:%d", year)
}
