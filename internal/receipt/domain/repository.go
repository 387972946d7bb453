package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage port the receipt service drives.
type Repository interface {
	// NextSerial atomically increments and returns the named Counter's
	// value, creating the row at 0 first if it does not yet exist.
	NextSerial(ctx context.Context, tx *gorm.DB, key string) (int64, error)

	Insert(ctx context.Context, tx *gorm.DB, r *Receipt) error
	FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) (*Receipt, error)
	Void(ctx context.Context, tx *gorm.DB, receiptID snowflake.ID) error
}
