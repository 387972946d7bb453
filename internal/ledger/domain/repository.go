package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/account"
)

// Repository is the storage port LedgerStore's service drives; the
// concrete implementation issues the parameterized SQL, mirroring the
// teacher's repository_impl.go convention.
type Repository interface {
	ExistsByPaymentID(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) (bool, error)
	ExistsByScope(ctx context.Context, tx *gorm.DB, kind Kind, currency, note string, since time.Time) (bool, error)
	Insert(ctx context.Context, tx *gorm.DB, entry *Entry) error
	SumDebitsCredits(ctx context.Context, tx *gorm.DB, ownerUserID *int64, accountCode account.Code, currency string, window BalanceWindow) (debits, credits decimal.Decimal, err error)
	SumByOwner(ctx context.Context, tx *gorm.DB, accountCode account.Code, currency string, window BalanceWindow) ([]OwnerBalance, error)
	List(ctx context.Context, tx *gorm.DB, filter ListFilter, page Page) ([]Entry, error)
}
