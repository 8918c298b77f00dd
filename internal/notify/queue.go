package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// welcomeMessage is the queued form of a Welcome.
type welcomeMessage struct {
	Welcome
	Timestamp time.Time `json:"timestamp"`
}

// QueueConfig identifies the RabbitMQ exchange and queue carrying welcome messages.
type QueueConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Queue publishes and consumes welcome messages on RabbitMQ.
// The exchange is direct and the queue is bound with its own name as routing key.
type Queue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     QueueConfig
}

// NewQueue dials RabbitMQ and declares the exchange, queue and binding.
func NewQueue(cfg QueueConfig) (*Queue, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q := &Queue{conn: conn, channel: channel, cfg: cfg}
	if err := q.setup(); err != nil {
		q.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return q, nil
}

func (q *Queue) setup() error {
	err := q.channel.ExchangeDeclare(
		q.cfg.Exchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		q.cfg.Queue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := q.channel.QueueBind(q.cfg.Queue, q.cfg.Queue, q.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// SendWelcome publishes w for the mailer worker. It implements Notifier.
func (q *Queue) SendWelcome(ctx context.Context, w Welcome) error {
	body, err := encodeWelcome(w, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = q.channel.PublishWithContext(
		ctx,
		q.cfg.Exchange, // exchange
		q.cfg.Queue,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish welcome message: %w", err)
	}

	return nil
}

// Deliveries starts a manual-ack consumer on the welcome queue.
func (q *Queue) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	msgs, err := q.channel.ConsumeWithContext(
		ctx,
		q.cfg.Queue, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	return msgs, nil
}

// Close closes the channel and the connection.
func (q *Queue) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func encodeWelcome(w Welcome, at time.Time) ([]byte, error) {
	body, err := json.Marshal(welcomeMessage{Welcome: w, Timestamp: at.UTC()})
	if err != nil {
		return nil, fmt.Errorf("marshal welcome message: %w", err)
	}
	return body, nil
}

func decodeWelcome(body []byte) (Welcome, error) {
	var msg welcomeMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return Welcome{}, fmt.Errorf("unmarshal welcome message: %w", err)
	}
	if msg.Email == "" {
		return Welcome{}, fmt.Errorf("welcome message has no email")
	}
	return msg.Welcome, nil
}
