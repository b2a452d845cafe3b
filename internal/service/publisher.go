package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/stage-planner/internal/queue"
)

// AMQPPublisher publishes plan events to RabbitMQ.  Each publish dials its
// own connection.
type AMQPPublisher struct {
	url string
	log *slog.Logger
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, log *slog.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log}
}

// PublishPlanCompleted sends ev to the plan.completed queue as a persistent
// JSON message.  Errors are logged and returned so the caller can decide to
// ignore them.
func (p *AMQPPublisher) PublishPlanCompleted(ctx context.Context, ev queue.PlanCompletedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", slog.Any("error", err))
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", slog.Any("error", err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queue.PlanCompletedQueue, // name
		true,                     // durable
		false,                    // autoDelete
		false,                    // exclusive
		false,                    // noWait
		nil,                      // args
	); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", slog.Any("error", err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.PlanID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",                       // default exchange
		queue.PlanCompletedQueue, // routing key = queue name
		false,                    // mandatory
		false,                    // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq: publish failed", slog.Any("error", err))
		return err
	}
	p.log.Debug("rabbitmq: published plan.completed", slog.String("plan_id", ev.PlanID))
	return nil
}
