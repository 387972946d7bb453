package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the storage port for Member reads PricingView and
// DebtEngine drive; mutation beyond the fields the core reads is out of
// scope (spec §1 Non-goals).
type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	FindByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]Member, error)
	FindActiveByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]Member, error)
	FindActiveByAgentID(ctx context.Context, db *gorm.DB, agentID int64) ([]Member, error)
}
