package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/port"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey string
	msg        amqp.Publishing
}

type fakePublisher struct {
	mu    sync.Mutex
	out   []published
	err   error
	block chan struct{}
}

func (f *fakePublisher) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, published{routingKey: routingKey, msg: msg})
	return f.err
}

func TestFavoriteEventsPublisherPublishesOnlyFavoriteEvents(t *testing.T) {
	producer := &fakePublisher{}
	p, err := NewFavoriteEventsPublisher(producer, FavoriteEventsConfig{
		RoutingPrefix: "favorites",
		UserID:        func() string { return "42" },
	}, contextkeys.NoopLogger())
	require.NoError(t, err)

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-7")
	p.Notify(ctx, port.StateEvent{Type: port.EventListingsChanged, View: "all"})
	p.Notify(ctx, port.StateEvent{Type: port.EventFavoriteAdded, ListingID: "a", Data: "fav-1"})
	p.Notify(ctx, port.StateEvent{Type: port.EventFavoriteRemoved, ListingID: "a"})
	p.Close()

	require.Len(t, producer.out, 2)
	assert.Equal(t, "favorites.favorite.added", producer.out[0].routingKey)
	assert.Equal(t, "favorites.favorite.removed", producer.out[1].routingKey)

	first := producer.out[0].msg
	assert.Equal(t, "application/json", first.ContentType)
	assert.Equal(t, "trace-7", first.Headers["x-trace-id"])

	var dto FavoriteEventDTO
	require.NoError(t, json.Unmarshal(first.Body, &dto))
	assert.Equal(t, "a", dto.ListingID)
	assert.Equal(t, "fav-1", dto.FavoriteRecordID)
	assert.Equal(t, "42", dto.UserID)
	assert.Equal(t, first.MessageId, dto.EventID)
}

func TestFavoriteEventsPublisherDropsWhenQueueIsFull(t *testing.T) {
	producer := &fakePublisher{block: make(chan struct{}), err: errors.New("broker down")}
	p, err := NewFavoriteEventsPublisher(producer, FavoriteEventsConfig{RoutingPrefix: "favorites", QueueSize: 1}, contextkeys.NoopLogger())
	require.NoError(t, err)

	// Первое событие забирает фоновая горутина и ждет брокера, второе ложится в очередь,
	// остальные отбрасываются, Notify при этом не блокируется
	for i := 0; i < 10; i++ {
		p.Notify(context.Background(), port.StateEvent{Type: port.EventFavoriteRolledBack, ListingID: "a"})
	}
	close(producer.block)
	p.Close()

	assert.LessOrEqual(t, len(producer.out), 2)
	assert.NotEmpty(t, producer.out)
}

func TestFavoriteEventsPublisherNotifyAfterCloseIsDropped(t *testing.T) {
	producer := &fakePublisher{}
	p, err := NewFavoriteEventsPublisher(producer, FavoriteEventsConfig{RoutingPrefix: "favorites"}, contextkeys.NoopLogger())
	require.NoError(t, err)

	p.Notify(context.Background(), port.StateEvent{Type: port.EventFavoriteAdded, ListingID: "a"})
	p.Close()

	// Запрос, переживший остановку сервера, может прислать событие уже после Close
	assert.NotPanics(t, func() {
		p.Notify(context.Background(), port.StateEvent{Type: port.EventFavoriteAdded, ListingID: "b"})
	})
	assert.NotPanics(t, p.Close)

	require.Len(t, producer.out, 1)
	assert.Equal(t, "favorites.favorite.added", producer.out[0].routingKey)
}

func TestNewFavoriteEventsPublisherValidation(t *testing.T) {
	_, err := NewFavoriteEventsPublisher(nil, FavoriteEventsConfig{RoutingPrefix: "favorites"}, contextkeys.NoopLogger())
	assert.Error(t, err)

	_, err = NewFavoriteEventsPublisher(&fakePublisher{}, FavoriteEventsConfig{}, contextkeys.NoopLogger())
	assert.Error(t, err)
}

func TestPkgLoggerBridgeFields(t *testing.T) {
	bridge := &PkgLoggerBridge{internalLogger: contextkeys.NoopLogger()}
	fields := bridge.toFields("name", "favorites.events", "type", "topic", "dangling")
	assert.Equal(t, port.Fields{"name": "favorites.events", "type": "topic", "extra": "dangling"}, fields)
}

func TestPkgLoggerBridgeStringifiesErrors(t *testing.T) {
	bridge := &PkgLoggerBridge{internalLogger: contextkeys.NoopLogger()}
	fields := bridge.toFields("reason", &amqp.Error{Code: 320, Reason: "CONNECTION_FORCED"}, "attempt", 3)
	assert.Equal(t, port.Fields{"reason": `Exception (320) Reason: "CONNECTION_FORCED"`, "attempt": 3}, fields)
}
