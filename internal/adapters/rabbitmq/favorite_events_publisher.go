package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/port"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultQueueSize      = 256
	defaultPublishTimeout = 10 * time.Second
)

// Publisher - то, что нужно адаптеру от rabbitmq_producer.Publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

type queuedEvent struct {
	ctx context.Context
	dto FavoriteEventDTO
}

// FavoriteEventsPublisher реализует NotifierPort: события избранного уходят в RabbitMQ
// для аналитики. Остальные события игнорируются.
// Notify не ждет брокера: события складываются в очередь, публикует одна фоновая горутина.
// При переполненной очереди событие отбрасывается с предупреждением в лог.
type FavoriteEventsPublisher struct {
	producer       Publisher
	routingPrefix  string
	userID         func() string
	publishTimeout time.Duration
	logger         port.LoggerPort

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent
	done   chan struct{}
}

type FavoriteEventsConfig struct {
	// RoutingPrefix: итоговый ключ - <prefix>.<тип события>, например "favorites.favorite.added"
	RoutingPrefix  string
	QueueSize      int
	PublishTimeout time.Duration
	// UserID - текущий пользователь сессии, может быть nil
	UserID func() string
}

func NewFavoriteEventsPublisher(producer Publisher, cfg FavoriteEventsConfig, logger port.LoggerPort) (*FavoriteEventsPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("rabbitmq adapter: producer cannot be nil")
	}
	if cfg.RoutingPrefix == "" {
		return nil, fmt.Errorf("rabbitmq adapter: routing prefix cannot be empty")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	if cfg.UserID == nil {
		cfg.UserID = func() string { return "" }
	}

	p := &FavoriteEventsPublisher{
		producer:       producer,
		routingPrefix:  cfg.RoutingPrefix,
		userID:         cfg.UserID,
		publishTimeout: cfg.PublishTimeout,
		logger:         logger.WithFields(port.Fields{"component": "FavoriteEventsPublisher"}),
		queue:          make(chan queuedEvent, cfg.QueueSize),
		done:           make(chan struct{}),
	}
	go p.run()
	return p, nil
}

func isFavoriteEvent(eventType string) bool {
	switch eventType {
	case port.EventFavoriteAdded, port.EventFavoriteRemoved, port.EventFavoriteRolledBack:
		return true
	}
	return false
}

func (p *FavoriteEventsPublisher) Notify(ctx context.Context, event port.StateEvent) {
	if !isFavoriteEvent(event.Type) {
		return
	}

	dto := FavoriteEventDTO{
		EventID:    uuid.New().String(),
		Event:      event.Type,
		ListingID:  event.ListingID,
		UserID:     p.userID(),
		OccurredAt: time.Now().UTC(),
	}
	if recordID, ok := event.Data.(string); ok {
		dto.FavoriteRecordID = recordID
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("Publisher is closed, dropping favorite event", port.Fields{
			"event":      event.Type,
			"listing_id": event.ListingID,
		})
		return
	}

	select {
	case p.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), dto: dto}:
	default:
		p.logger.Warn("Favorite events queue is full, dropping event", port.Fields{
			"event":      event.Type,
			"listing_id": event.ListingID,
		})
	}
}

func (p *FavoriteEventsPublisher) run() {
	defer close(p.done)
	for e := range p.queue {
		if err := p.publish(e.ctx, e.dto); err != nil {
			p.logger.Error("Failed to publish favorite event", err, port.Fields{"event": e.dto.Event})
		}
	}
}

func (p *FavoriteEventsPublisher) publish(ctx context.Context, dto FavoriteEventDTO) error {
	body, err := json.Marshal(dto)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    dto.EventID,
		Timestamp:    dto.OccurredAt,
		Headers:      make(amqp.Table),
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		msg.Headers["x-trace-id"] = traceID
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	routingKey := p.routingPrefix + "." + dto.Event
	if err := p.producer.Publish(publishCtx, routingKey, msg); err != nil {
		return fmt.Errorf("rabbitmq adapter: failed to publish %s for listing %s: %w", dto.Event, dto.ListingID, err)
	}

	p.logger.Debug("Favorite event published", port.Fields{"routing_key": routingKey, "listing_id": dto.ListingID})
	return nil
}

// Close дожидается публикации событий, уже стоящих в очереди. Notify после Close ничего не делает.
func (p *FavoriteEventsPublisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
}
