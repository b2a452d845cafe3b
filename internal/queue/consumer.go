package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// PlanLogFile is the file, inside the consumer's log directory, that
// receives one line per completed plan.
const PlanLogFile = "plans.log"

// Consumer reads plan.completed events and appends them to
// <LogDir>/plans.log.
type Consumer struct {
	URL    string
	LogDir string
	Log    *slog.Logger

	mu sync.Mutex
}

// NewConsumer returns a consumer for the broker at url.
func NewConsumer(url, logDir string, log *slog.Logger) *Consumer {
	return &Consumer{URL: url, LogDir: logDir, Log: log}
}

// Run connects to RabbitMQ, declares the plan.completed queue (durable) and
// consumes it until ctx is cancelled.  Lost connections are redialled with
// exponential backoff capped at 30s.  A message that cannot be handled is
// rejected without requeue so one bad payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("plan consumer: dial failed", slog.Any("error", err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("plan consumer: consume loop ended, reconnecting", slog.Any("error", err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("plan consumer: set QoS failed", slog.Any("error", err))
	}
	if _, err := ch.QueueDeclare(PlanCompletedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, PlanCompletedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Log.Info("plan consumer: consuming", slog.String("queue", PlanCompletedQueue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.HandleMessage(d.Body); err != nil {
				c.Log.Error("plan consumer: handle message failed", slog.Any("error", err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event body and appends its line to the plan log.
func (c *Consumer) HandleMessage(body []byte) error {
	var ev PlanCompletedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.PlanID == "" {
		return errors.New("event without plan_id")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, PlanLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(ev.Line()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	c.Log.Debug("plan consumer: recorded plan", slog.String("plan_id", ev.PlanID))
	return nil
}
