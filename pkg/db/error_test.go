package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErrNil(t *testing.T) {
	require.False(t, IsDuplicateKeyErr(nil))
}

func TestIsDuplicateKeyErrGormSentinel(t *testing.T) {
	require.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	require.True(t, IsDuplicateKeyErr(fmt.Errorf("wrapped: %w", gorm.ErrDuplicatedKey)))
}

func TestIsDuplicateKeyErrPostgres(t *testing.T) {
	err := errors.New(`pq: duplicate key value violates unique constraint "payments_idempotency_key_key"`)
	require.True(t, IsDuplicateKeyErr(err))
}

func TestIsDuplicateKeyErrMySQL(t *testing.T) {
	err := errors.New("Error 1062: Duplicate entry '1' for key 'PRIMARY'")
	require.True(t, IsDuplicateKeyErr(err))
}

func TestIsDuplicateKeyErrSQLite(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: payments.idempotency_key")
	require.True(t, IsDuplicateKeyErr(err))
}

func TestIsDuplicateKeyErrUnrelatedError(t *testing.T) {
	require.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}
