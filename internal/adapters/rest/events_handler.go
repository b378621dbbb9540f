package rest

import (
	"fmt"
	"listings-agent/internal/adapters/notifier"
	"listings-agent/internal/contextkeys"
	"listings-agent/internal/core/port"
	"net/http"
	"time"
)

// EventsSource - источник SSE-событий (реализован notifier.SSENotifier)
type EventsSource interface {
	AddClient(view string) (string, notifier.ClientChannel)
	RemoveClient(id string)
}

type EventsHandler struct {
	source    EventsSource
	keepAlive time.Duration
}

func NewEventsHandler(source EventsSource) *EventsHandler {
	return &EventsHandler{source: source, keepAlive: 15 * time.Second}
}

// Subscribe - GET /api/v1/events?view=all
func (h *EventsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{
		"handler": "SubscribeToEvents",
		"view":    view,
	})

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteJSONError(w, http.StatusInternalServerError, "Streaming is not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientID, clientChan := h.source.AddClient(view)
	defer h.source.RemoveClient(clientID)

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case data := <-clientChan:
			if _, err := w.Write(data); err != nil {
				logger.Error("Error writing to client, closing SSE connection", err, nil)
				return
			}
			flusher.Flush()

		case <-ticker.C:
			// Строки с ":" - комментарии SSE, EventSource их игнорирует
			if _, err := fmt.Fprintf(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			logger.Info("SSE client disconnected", nil)
			return
		}
	}
}
