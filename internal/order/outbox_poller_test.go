package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_market/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOutboxRepo struct {
	m         sync.Mutex
	events    []*OutboxEvent
	processed []int64
}

func (m *mockOutboxRepo) Create(context.Context, *domain.Order) error { return nil }

func (m *mockOutboxRepo) GetByID(context.Context, string) (*domain.Order, error) {
	return nil, ErrOrderNotFound
}

func (m *mockOutboxRepo) ListByBuyer(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOutboxRepo) ListBySeller(context.Context, string) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOutboxRepo) MarkPaid(context.Context, string, string) (*domain.Order, error) {
	return nil, ErrOrderNotFound
}

func (m *mockOutboxRepo) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*OutboxEvent
	for _, e := range m.events {
		if len(out) == limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockOutboxRepo) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.processed = append(m.processed, id)
	for i, e := range m.events {
		if e.ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			break
		}
	}
	return nil
}

type recordingWriter struct {
	m        sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func newTestPoller(repo Repository, writer messageWriter) *OutboxPoller {
	return &OutboxPoller{
		tick:      time.Second,
		batchSize: 100,
		repo:      repo,
		writer:    writer,
	}
}

func TestOutboxPoller_PublishesAndMarksProcessed(t *testing.T) {
	repo := &mockOutboxRepo{events: []*OutboxEvent{
		{ID: 1, AggregateID: "order-1", EventType: "order.created", Payload: []byte(`{"id":"order-1"}`)},
		{ID: 2, AggregateID: "order-2", EventType: "order.confirmed", Payload: []byte(`{"id":"order-2"}`)},
	}}
	writer := &recordingWriter{}
	p := newTestPoller(repo, writer)

	p.processUnpublishedEvents(context.Background())

	require.Len(t, writer.messages, 2)
	assert.Equal(t, []byte("order-1"), writer.messages[0].Key)
	assert.JSONEq(t, `{"id":"order-1"}`, string(writer.messages[0].Value))
	require.Len(t, writer.messages[0].Headers, 1)
	assert.Equal(t, "event_type", writer.messages[0].Headers[0].Key)
	assert.Equal(t, []byte("order.created"), writer.messages[0].Headers[0].Value)

	assert.Equal(t, []int64{1, 2}, repo.processed)
	assert.Empty(t, repo.events)
}

func TestOutboxPoller_FailedPublishLeavesEventUnprocessed(t *testing.T) {
	repo := &mockOutboxRepo{events: []*OutboxEvent{
		{ID: 1, AggregateID: "order-1", EventType: "order.created", Payload: []byte(`{}`)},
	}}
	writer := &recordingWriter{err: errors.New("broker unreachable")}
	p := newTestPoller(repo, writer)

	p.processUnpublishedEvents(context.Background())

	assert.Empty(t, repo.processed, "event stays in the outbox until publish succeeds")
	assert.Len(t, repo.events, 1)
}

func TestOutboxPoller_RespectsBatchSize(t *testing.T) {
	repo := &mockOutboxRepo{}
	for i := int64(1); i <= 5; i++ {
		repo.events = append(repo.events, &OutboxEvent{ID: i, AggregateID: "order", EventType: "order.created", Payload: []byte(`{}`)})
	}
	writer := &recordingWriter{}
	p := newTestPoller(repo, writer)
	p.batchSize = 2

	p.processUnpublishedEvents(context.Background())
	assert.Len(t, writer.messages, 2)
}
