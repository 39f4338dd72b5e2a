// Package queue_publisher delivers scheduling notifications to RabbitMQ.
// Failures are logged and returned; the scheduling services treat them as
// best-effort and never roll back because of them.
package queue_publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	q "github.com/iliyamo/coach-scheduler/internal/queue"
	"github.com/iliyamo/coach-scheduler/internal/scheduling"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func() (channel, io.Closer, error)

// Publisher implements scheduling.Notifier over a single long-lived AMQP
// channel.  The channel is opened lazily and reopened after a failure.
type Publisher struct {
	dial dialFunc
	log  *zap.Logger

	mu   sync.Mutex
	ch   channel
	conn io.Closer
}

var _ scheduling.Notifier = (*Publisher)(nil)

// NewPublisher returns a Publisher for the broker at url.  No connection is
// made until the first notification.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{dial: amqpDialer(url), log: log.Named("publisher")}
}

func amqpDialer(url string) dialFunc {
	return func() (channel, io.Closer, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("channel open: %w", err)
		}
		// Durable so messages survive broker restarts.
		if _, err := ch.QueueDeclare(q.LifecycleQueue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("queue declare: %w", err)
		}
		return ch, conn, nil
	}
}

// Notify publishes n as a persistent LifecycleEvent on the lifecycle queue.
// A failed publish drops the channel and is retried once on a fresh one.
func (p *Publisher) Notify(ctx context.Context, n scheduling.Notification) error {
	ev := q.NewLifecycleEvent(n.UserID, n.SessionID, string(n.Category), n.Title, n.Message, n.Link)
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Category,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := p.ensureLocked(); err != nil {
			lastErr = err
			continue
		}
		if err := p.ch.PublishWithContext(ctx, "", q.LifecycleQueue, false, false, pub); err != nil {
			lastErr = err
			p.resetLocked()
			continue
		}
		return nil
	}
	p.log.Warn("publish failed", zap.String("event_id", ev.ID), zap.String("category", ev.Category), zap.Error(lastErr))
	return lastErr
}

func (p *Publisher) ensureLocked() error {
	if p.ch != nil {
		return nil
	}
	ch, conn, err := p.dial()
	if err != nil {
		return err
	}
	p.ch, p.conn = ch, conn
	return nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
	return nil
}
