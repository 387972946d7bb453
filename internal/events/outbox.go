// Package events implements the transactional outbox every posting
// operation writes alongside its ledger rows, so a downstream consumer
// (notifications, rollups) can poll outbox_events without ever observing a
// ledger write that wasn't also recorded as an event. Adapted from the
// teacher's internal/organization/event.outboxPublisher, generalized from
// a single hardcoded topic to the Kind-tagged event types this domain needs.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event types this system emits.
const (
	EventLedgerPairPosted    = "ledger.pair_posted"
	EventPaymentPosted       = "payment.posted"
	EventCashMovementPosted  = "cashmovement.posted"
	EventCommissionPaidOut   = "commission.paid_out"
)

// Event is one fact published to the outbox.
type Event struct {
	Type    string
	Payload map[string]any
	// DedupeKey, if set, is stored so a consumer (or a future republish
	// guard) can recognize the same logical fact across retries.
	DedupeKey string
}

// Params are the fx-injected dependencies for the Outbox.
type Params struct {
	fx.In

	DB    *gorm.DB
	GenID *snowflake.Node
}

// Outbox appends events to outbox_events inside the caller's transaction.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

// NewOutbox constructs the Outbox.
func NewOutbox(p Params) *Outbox {
	return &Outbox{db: p.DB, genID: p.GenID}
}

// PublishTx writes ev to outbox_events using tx, so the event is committed
// atomically with whatever else tx does.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, ev Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}

	var dedupeKey *string
	if ev.DedupeKey != "" {
		dedupeKey = &ev.DedupeKey
	}

	return tx.WithContext(ctx).Exec(
		`INSERT INTO outbox_events (id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, false, ?)`,
		o.genID.Generate(),
		ev.Type,
		datatypes.JSON(payload),
		dedupeKey,
		time.Now().UTC(),
	).Error
}

// PendingRecord is one unpublished outbox row, as read by a relay worker.
type PendingRecord struct {
	ID        snowflake.ID
	EventType string
	Payload   datatypes.JSON
	CreatedAt time.Time
}

// TableName sets the database table name.
func (PendingRecord) TableName() string { return "outbox_events" }

// Pending returns up to limit unpublished events, oldest first.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]PendingRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []PendingRecord
	if err := o.db.WithContext(ctx).
		Table("outbox_events").
		Where("published = false").
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// MarkPublished flags ids as published so Pending no longer returns them.
func (o *Outbox) MarkPublished(ctx context.Context, ids []snowflake.ID) error {
	if len(ids) == 0 {
		return nil
	}
	return o.db.WithContext(ctx).
		Table("outbox_events").
		Where("id IN ?", ids).
		Update("published", true).Error
}
