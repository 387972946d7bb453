package events

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const outboxEventsSchema = `
CREATE TABLE IF NOT EXISTS outbox_events (
    id          BIGINT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    payload     JSONB NOT NULL,
    dedupe_key  TEXT,
    published   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(outboxEventsSchema).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewOutbox(Params{DB: db, GenID: node})
}

func TestPublishTxThenPendingReturnsUnpublishedOldestFirst(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	require.NoError(t, o.db.Transaction(func(tx *gorm.DB) error {
		return o.PublishTx(ctx, tx, Event{Type: EventPaymentPosted, Payload: map[string]any{"payment_id": 1}})
	}))
	require.NoError(t, o.db.Transaction(func(tx *gorm.DB) error {
		return o.PublishTx(ctx, tx, Event{Type: EventLedgerPairPosted, Payload: map[string]any{"pair": "a"}, DedupeKey: "dk-1"})
	}))

	pending, err := o.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, EventPaymentPosted, pending[0].EventType)
	require.Equal(t, EventLedgerPairPosted, pending[1].EventType)
}

func TestMarkPublishedRemovesFromPending(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()

	require.NoError(t, o.db.Transaction(func(tx *gorm.DB) error {
		return o.PublishTx(ctx, tx, Event{Type: EventCashMovementPosted, Payload: map[string]any{"x": 1}})
	}))

	pending, err := o.Pending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, o.MarkPublished(ctx, []snowflake.ID{pending[0].ID}))

	pending, err = o.Pending(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestMarkPublishedNoopOnEmptyIDs(t *testing.T) {
	o := newTestOutbox(t)
	require.NoError(t, o.MarkPublished(context.Background(), nil))
}

func TestPendingClampsOutOfRangeLimit(t *testing.T) {
	o := newTestOutbox(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, o.db.Transaction(func(tx *gorm.DB) error {
			return o.PublishTx(ctx, tx, Event{Type: EventCommissionPaidOut, Payload: map[string]any{"i": i}})
		}))
	}

	pending, err := o.Pending(ctx, -1)
	require.NoError(t, err)
	require.Len(t, pending, 3)

	pending, err = o.Pending(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, pending, 3)
}
