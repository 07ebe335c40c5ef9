package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termyx/internal/platform/kafka/producer"
)

type recordingProducer struct {
	msgs []*producer.Message
	err  error
}

func (p *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestStreamStoreForwardsEvents(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	prod := &recordingProducer{}
	store := NewStreamStore(inner, prod, "termyx.audit", nil)

	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Append(ctx, Event{
		Timestamp: at,
		Action:    ActionCreditsGranted,
		UserID:    "user-1",
		Reason:    "purchase",
		IPPrefix:  "203.0.113.0",
	}))

	events, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "termyx.audit", msg.Topic)
	assert.Equal(t, []byte("user-1"), msg.Key)
	assert.Equal(t, "credits_granted", msg.Headers["action"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "credits_granted", body["action"])
	assert.Equal(t, "203.0.113.0", body["ip_prefix"])
	assert.NotContains(t, body, "subject")
}

func TestStreamStoreToleratesBrokerFailure(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	store := NewStreamStore(inner, &recordingProducer{err: errors.New("broker down")}, "termyx.audit", nil)

	require.NoError(t, store.Append(ctx, Event{Action: ActionSignupDenied, Subject: "mailinator.com"}))

	events, err := inner.ListByAction(ctx, ActionSignupDenied)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestStreamStoreSkipsStreamWhenPersistFails(t *testing.T) {
	prod := &recordingProducer{}
	store := NewStreamStore(failingStore{NewInMemoryStore()}, prod, "termyx.audit", nil)

	assert.Error(t, store.Append(context.Background(), Event{Action: ActionDocumentDenied}))
	assert.Empty(t, prod.msgs)
}
