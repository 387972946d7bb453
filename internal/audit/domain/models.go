// Package domain defines the independent audit trail every mutating
// operation writes to, generalized from the teacher's internal/audit/domain
// (AuditLog/Service) by dropping its multi-tenant org scoping: this system
// has a single cooperative, so entries are scoped by actor user instead.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is one immutable record of a mutating operation.
type AuditLog struct {
	ID          snowflake.ID        `gorm:"primaryKey"`
	ActorUserID int64               `gorm:"not null;index"`
	Action      string              `gorm:"type:text;not null;index"`
	TargetType  string              `gorm:"type:text;not null"`
	TargetID    *string             `gorm:"type:text;index"`
	Metadata    datatypes.JSONMap   `gorm:"type:jsonb"`
	CreatedAt   time.Time           `gorm:"not null;index"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// ListFilter narrows List to a subset of entries.
type ListFilter struct {
	ActorUserID *int64
	Action      string
	TargetType  string
	TargetID    string
	StartAt     *time.Time
	EndAt       *time.Time
	Offset      int
	Limit       int
}
