// Package repository implements receipt storage with raw parameterized SQL,
// mirroring the teacher's repository_impl.go convention.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/receipt/domain"
)

type repo struct{}

// Provide constructs the receipt Repository.
func Provide() domain.Repository {
	return &repo{}
}

// NextSerial locks the named counter row for update, creating it at 0 first
// if absent, then increments and returns the new value. Must run inside the
// caller's posting transaction so the serial and the receipt it numbers
// commit or abort together.
func (r *repo) NextSerial(ctx context.Context, tx *gorm.DB, key string) (int64, error) {
	var value int64
	res := tx.WithContext(ctx).Exec(`INSERT INTO counters (key, value) VALUES (?, 0) ON CONFLICT (key) DO NOTHING`, key)
	if res.Error != nil {
		return 0, res.Error
	}

	if err := tx.WithContext(ctx).Raw(
		`UPDATE counters SET value = value + 1 WHERE key = ? RETURNING value`, key,
	).Scan(&value).Error; err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, errors.New("counter_not_found")
	}
	return value, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, rcpt *domain.Receipt) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO receipts (id, payment_id, serial_number, qr_payload, pdf_uri, voided, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rcpt.ID, rcpt.PaymentID, rcpt.SerialNumber, rcpt.QRPayload, rcpt.PDFURI, rcpt.Voided, rcpt.CreatedAt,
	).Error
}

func (r *repo) FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (*domain.Receipt, error) {
	var rcpt domain.Receipt
	err := db.WithContext(ctx).Raw(
		`SELECT id, payment_id, serial_number, qr_payload, pdf_uri, voided, created_at
		 FROM receipts WHERE payment_id = ?`, paymentID,
	).Scan(&rcpt).Error
	if err != nil {
		return nil, err
	}
	if rcpt.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rcpt, nil
}

func (r *repo) Void(ctx context.Context, tx *gorm.DB, receiptID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(`UPDATE receipts SET voided = true WHERE id = ?`, receiptID).Error
}
