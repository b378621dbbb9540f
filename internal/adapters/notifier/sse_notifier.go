package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/port"
	"sync"

	"github.com/google/uuid"
)

// ClientChannel - канал событий одного SSE-подключения (одного экрана UI)
type ClientChannel chan []byte

type eventWithContext struct {
	ctx   context.Context
	event port.StateEvent
}

type client struct {
	ch ClientChannel
	// view - подписка только на события этого экрана; события без view получают все
	view string
}

// SSENotifier - реализация NotifierPort для локального UI.
// Use cases бросают события во внутренний канал, диспетчер рассылает их подключенным клиентам.
type SSENotifier struct {
	mu      sync.RWMutex
	clients map[string]client
	closed  bool

	eventChan chan eventWithContext
	done      chan struct{}
	closeOnce sync.Once

	logger port.LoggerPort
}

func NewSSENotifier(baseLogger port.LoggerPort) *SSENotifier {
	n := &SSENotifier{
		clients:   make(map[string]client),
		eventChan: make(chan eventWithContext, 100),
		done:      make(chan struct{}),
		logger:    baseLogger.WithFields(port.Fields{"component": "SSENotifier"}),
	}
	go n.dispatcher()
	return n
}

// FormatEvent форматирует событие в кадр SSE
func FormatEvent(event port.StateEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state event: %w", err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, data)), nil
}

func (n *SSENotifier) dispatcher() {
	defer close(n.done)
	n.logger.Debug("Notifier dispatcher started", nil)

	for pkg := range n.eventChan {
		eventLogger := contextkeys.LoggerFromContext(pkg.ctx).WithFields(port.Fields{
			"component":  "SSENotifier.dispatcher",
			"event_type": pkg.event.Type,
			"view":       pkg.event.View,
		})

		message, err := FormatEvent(pkg.event)
		if err != nil {
			eventLogger.Error("Failed to format event", err, nil)
			continue
		}

		n.mu.RLock()
		delivered := 0
		for id, c := range n.clients {
			if c.view != "" && pkg.event.View != "" && c.view != pkg.event.View {
				continue
			}
			// Медленный клиент не должен тормозить остальных
			select {
			case c.ch <- message:
				delivered++
			default:
				eventLogger.Warn("Client channel is full, skipping", port.Fields{"client_id": id})
			}
		}
		n.mu.RUnlock()

		eventLogger.Debug("Event dispatched", port.Fields{"delivered": delivered})
	}
}

// Notify не блокирует: при переполненном буфере событие отбрасывается.
// UI все равно перечитывает полный снимок состояния, поэтому потеря промежуточного события не страшна.
func (n *SSENotifier) Notify(ctx context.Context, event port.StateEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}

	select {
	case n.eventChan <- eventWithContext{ctx: ctx, event: event}:
	default:
		n.logger.Warn("Event buffer is full, dropping event", port.Fields{"event_type": event.Type})
	}
}

// AddClient регистрирует новое SSE-подключение. view может быть пустым (все события).
func (n *SSENotifier) AddClient(view string) (string, ClientChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New().String()
	ch := make(ClientChannel, 100)
	n.clients[id] = client{ch: ch, view: view}

	n.logger.Info("Client connected", port.Fields{
		"client_id":         id,
		"view":              view,
		"total_connections": len(n.clients),
	})
	return id, ch
}

// RemoveClient вызывается из HTTP-хендлера, когда клиент закрывает соединение
func (n *SSENotifier) RemoveClient(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.clients[id]; !ok {
		return
	}
	delete(n.clients, id)
	n.logger.Info("Client disconnected", port.Fields{
		"client_id":             id,
		"remaining_connections": len(n.clients),
	})
}

// Close останавливает диспетчер. Notify после Close безопасен и ничего не делает.
func (n *SSENotifier) Close() {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		close(n.eventChan)
		n.mu.Unlock()
	})
	<-n.done
}
