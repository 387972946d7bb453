package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Data is everything a Renderer needs to produce a receipt document; it
// carries no storage handles so renderers stay pure functions of their
// input.
type Data struct {
	ReceiptID    snowflake.ID
	PaymentID    snowflake.ID
	SerialNumber int64
	MemberName   string
	GroupID      int64
	Amount       string
	Currency     string
	Method       string
	PostedAt     time.Time
	Periods      []string
	QRPayload    string
}

// Renderer produces the printable artifact for a receipt (spec §4.7 step
// 12). The default implementation is maroto-based (internal/pdfreceipt);
// this port lets it be swapped in tests or for alternate output formats.
type Renderer interface {
	Render(ctx context.Context, data Data) (pdfURI string, err error)
}

// Service issues receipts for posted payments.
type Service interface {
	// Issue allocates the next serial, renders the document and persists
	// the Receipt row, all within the caller-supplied transaction so it
	// commits atomically with the payment it proves.
	Issue(ctx context.Context, tx *gorm.DB, data Data) (*Receipt, error)

	FindByPaymentID(ctx context.Context, paymentID snowflake.ID) (*Receipt, error)
}
