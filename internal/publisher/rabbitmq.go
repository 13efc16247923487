package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"mail_loader/internal/domain"
)

const (
	EventLoadCompleted    = "load_completed"
	EventScoringCompleted = "scoring_completed"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "publisher"),
	}, nil
}

// declareTopology sets up a durable direct exchange with one bound queue.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// EventMessage announces the end of a load cycle or of its scoring pass.
type EventMessage struct {
	Event      string    `json:"event"`
	CycleID    string    `json:"cycleId"`
	Loaded     int       `json:"loaded,omitempty"`
	Total      int       `json:"total,omitempty"`
	Requests   int       `json:"requests,omitempty"`
	Scored     int       `json:"scored,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

func (r *RabbitMQ) PublishLoadCompleted(ctx context.Context, stats domain.LoadStats) error {
	return r.publish(ctx, EventMessage{
		Event:      EventLoadCompleted,
		CycleID:    stats.CycleID,
		Loaded:     stats.Loaded,
		Total:      stats.Total,
		Requests:   stats.Requests,
		DurationMs: stats.Duration.Milliseconds(),
	})
}

func (r *RabbitMQ) PublishScoringCompleted(ctx context.Context, stats domain.ScoringStats) error {
	return r.publish(ctx, EventMessage{
		Event:      EventScoringCompleted,
		CycleID:    stats.CycleID,
		Scored:     stats.Scored,
		DurationMs: stats.Duration.Milliseconds(),
	})
}

func (r *RabbitMQ) publish(ctx context.Context, msg EventMessage) error {
	msg.Timestamp = time.Now().UTC()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         msg.Event,
			MessageId:    msg.CycleID,
			Body:         body,
			Timestamp:    msg.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Event, err)
	}

	r.logger.Debug("published event", "event", msg.Event, "cycle_id", msg.CycleID)
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
