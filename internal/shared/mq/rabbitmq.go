package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"campus-rickshaw/internal/event"
	"campus-rickshaw/internal/shared/config"
	"campus-rickshaw/internal/shared/util"
)

// EventsExchange is the fanout exchange every domain event is mirrored to.
// External consumers (dashboards, analytics) bind their own queues; nothing
// in this service consumes from it.
const EventsExchange = "campus.events"

const (
	connectAttempts = 10
	connectBackoff  = 3 * time.Second
)

// Connect dials RabbitMQ with retries. The broker often comes up slower than
// the service in compose environments, so we wait for it instead of failing.
func Connect(cfg config.RabbitMQConfig, logger *util.Logger) (*amqp091.Connection, *amqp091.Channel, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.User, cfg.Password, cfg.Host, cfg.Port)

	var conn *amqp091.Connection
	var ch *amqp091.Channel
	var err error

	for i := 0; i < connectAttempts; i++ {
		conn, err = amqp091.Dial(dsn)
		if err == nil {
			ch, err = conn.Channel()
			if err == nil {
				if err = ch.ExchangeDeclare(EventsExchange, "fanout", true, false, false, false, nil); err != nil {
					conn.Close()
					return nil, nil, fmt.Errorf("declare exchange: %w", err)
				}
				return conn, ch, nil
			}
			conn.Close()
		}
		logger.Warn("mq.Connect", fmt.Sprintf("broker not ready, retrying (%d/%d)", i+1, connectAttempts))
		time.Sleep(connectBackoff)
	}
	return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
}

// Mirror republishes domain events to the fanout exchange. It implements
// event.Bus; delivery is best effort, the user-facing websocket path never
// depends on it.
type Mirror struct {
	mu     sync.Mutex
	ch     *amqp091.Channel
	logger *util.Logger
}

func NewMirror(ch *amqp091.Channel, logger *util.Logger) *Mirror {
	return &Mirror{ch: ch, logger: logger}
}

type mirrorEnvelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func (m *Mirror) Publish(e event.Event) {
	body, err := json.Marshal(mirrorEnvelope{Type: e.Name(), OccurredAt: time.Now().UTC(), Data: e})
	if err != nil {
		m.logger.Error("Mirror.Publish", fmt.Errorf("marshal %q: %v", e.Name(), err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	m.mu.Lock()
	defer m.mu.Unlock()
	err = m.ch.PublishWithContext(ctx, EventsExchange, "", false, false, amqp091.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	})
	if err != nil {
		m.logger.Warn("Mirror.Publish", fmt.Sprintf("publish %q failed: %v", e.Name(), err))
	}
}
