package notifier

import (
	"context"
	"listings-agent/internal/core/port"
)

// Multi рассылает событие всем включенным нотификаторам (SSE, RabbitMQ).
type Multi []port.NotifierPort

func NewMulti(notifiers ...port.NotifierPort) Multi {
	out := make(Multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (m Multi) Notify(ctx context.Context, event port.StateEvent) {
	for _, n := range m {
		n.Notify(ctx, event)
	}
}
