package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds connecting to the broker and the AMQP handshake.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends DecisionEvents to RabbitMQ.  A connection is dialled per
// batch; decisions are infrequent compared to reads and this keeps the
// publisher free of reconnect state.
type Publisher struct {
	url         string
	dialTimeout time.Duration
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dialTimeout: DefaultDialTimeout}
}

// dial connects within the dial timeout, shortened to ctx's deadline when
// that comes first.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := p.dialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// PublishDecisions publishes events as persistent messages on
// DecisionQueue.  Failures are logged and returned; callers treat them as
// best effort because the decision is already committed.
func (p *Publisher) PublishDecisions(ctx context.Context, events []DecisionEvent) error {
	if len(events) == 0 {
		return nil
	}
	conn, err := p.dial(ctx)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(DecisionQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	for _, ev := range events {
		if ev.MessageID == "" {
			ev.MessageID = uuid.NewString()
		}
		body, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		pub := amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.MessageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		}
		if err := ch.PublishWithContext(ctx, "", DecisionQueue, false, false, pub); err != nil {
			log.Printf("rabbitmq: publish failed: %v", err)
			return err
		}
	}
	return nil
}
