package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
)

type repo struct{}

// Provide returns the gorm-backed memberdomain.Repository.
func Provide() memberdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Member, error) {
	var m memberdomain.Member
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repo) FindByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]memberdomain.Member, error) {
	var members []memberdomain.Member
	if err := db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("position ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) FindActiveByGroupID(ctx context.Context, db *gorm.DB, groupID int64) ([]memberdomain.Member, error) {
	var members []memberdomain.Member
	if err := db.WithContext(ctx).
		Where("group_id = ? AND cancelled_at IS NULL AND active = true", groupID).
		Order("position ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) FindActiveByAgentID(ctx context.Context, db *gorm.DB, agentID int64) ([]memberdomain.Member, error) {
	var members []memberdomain.Member
	if err := db.WithContext(ctx).
		Where("agent_id = ? AND cancelled_at IS NULL AND active = true", agentID).
		Order("group_id ASC, position ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
