package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/arsava/scenarios/internal/events"
)

// Exchange is the single topology entry this Broadcaster publishes to —
// one durable topic exchange, routed by topic name, rather than
// internal/mq/topology.go's per-domain exchange-per-concept layout. There
// is only one message shape here (an Event), so one exchange suffices.
const Exchange = "scenarios.events"

// Broadcaster publishes every Event Stream event to RabbitMQ as a
// JSON-encoded message, routed by topic. It never feeds anything back into
// the engine (§6: "no return path into the engine"); a publish failure is
// logged and swallowed, never propagated to the driver.
type Broadcaster struct {
	conn   *Connection
	logger *slog.Logger
}

// New builds a Broadcaster and declares its exchange.
func New(conn *Connection, logger *slog.Logger) (*Broadcaster, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ch := conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("broadcast: no channel available")
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("broadcast: declare exchange: %w", err)
	}
	return &Broadcaster{conn: conn, logger: logger}, nil
}

// Subscribe registers b as an Event Stream subscriber.
func (b *Broadcaster) Subscribe(stream *events.Stream) {
	stream.Subscribe(b.publish)
}

func (b *Broadcaster) publish(ev events.Event) {
	ch := b.conn.Channel()
	if ch == nil {
		b.logger.Warn("broadcast: dropped event, no channel", "topic", ev.Topic)
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("broadcast: failed to encode event", "topic", ev.Topic, "error", err)
		return
	}

	err = ch.PublishWithContext(context.Background(), Exchange, string(ev.Topic), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		b.logger.Warn("broadcast: publish failed", "topic", ev.Topic, "error", err)
	}
}
