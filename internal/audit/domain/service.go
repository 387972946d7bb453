package domain

import (
	"context"
	"errors"
)

// Repository is the storage port audit's Service drives.
type Repository interface {
	Insert(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

// Service records the independent mutating-operation trail (spec §4.0).
type Service interface {
	// AuditLog records one mutating operation. Failures are logged by the
	// implementation and never block the caller's own transaction.
	AuditLog(ctx context.Context, actorUserID int64, action string, targetType string, targetID *string, metadata map[string]any) error

	List(ctx context.Context, filter ListFilter) ([]AuditLog, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
