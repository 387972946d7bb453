// Package domain defines Member: a natural person within a group (policy),
// generalized from the teacher's billingcycle/domain model conventions
// (gorm-tagged struct, TableName, package-scoped errors) into the
// group/titular/dependent shape spec §3 requires.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Role tags a member's position within its group.
type Role string

const (
	RoleTitular   Role = "titular"
	RoleDependent Role = "dependent"
	RoleOther     Role = "other"
)

// Member is a natural person within a group (policy).
type Member struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	GroupID       int64           `gorm:"not null;index:ix_members_group"`
	Position      int             `gorm:"not null"` // 0 = titular, >=1 = dependents, gapless
	Name          string          `gorm:"type:text;not null"`
	Role          Role            `gorm:"type:text;not null"`
	BirthDate     *time.Time
	Cremation     bool            `gorm:"not null;default:false"`
	Plot          bool            `gorm:"not null;default:false"`
	AgentID       int64           `gorm:"not null;index"`
	JoinedAt      time.Time       `gorm:"not null"`
	CancelledAt   *time.Time
	Active        bool            `gorm:"not null;default:true"`
	HistoricalFee decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	IdealFee      decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	UseIdeal      bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

// IsActive reports whether m counts toward group fee and debt computation.
func (m Member) IsActive() bool {
	return m.CancelledAt == nil && m.Active
}

// EffectiveFee is the fee currently billable to the member.
func (m Member) EffectiveFee() decimal.Decimal {
	if m.UseIdeal {
		return m.IdealFee
	}
	return m.HistoricalFee
}

// Group is a derived view over the members sharing GroupID; it is never
// itself persisted.
type Group struct {
	GroupID int64
	Members []Member
}

// EffectiveFee sums every active member's effective fee.
func (g Group) EffectiveFee() decimal.Decimal {
	total := decimal.Zero
	for _, m := range g.Members {
		if m.IsActive() {
			total = total.Add(m.EffectiveFee())
		}
	}
	return total
}

// Titular returns the group's current head member, if any.
func (g Group) Titular() (Member, bool) {
	for _, m := range g.Members {
		if m.Position == 0 && m.IsActive() {
			return m, true
		}
	}
	return Member{}, false
}
