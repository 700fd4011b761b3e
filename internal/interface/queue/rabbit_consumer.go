package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"railbook-service/internal/domain/entity"
	"railbook-service/internal/domain/repository"
	"railbook-service/internal/usecase"
	"railbook-service/pkg/logger"
	"railbook-service/pkg/metrics"
)

// RabbitConsumer consumes booking requests from the queue and drives
// the pipeline. Acknowledgment policy: resolved and legitimate "no
// result" outcomes ack; only internal faults nack with requeue, so a
// transient provider outage retries instead of losing the message.
type RabbitConsumer struct {
	url      string
	queue    string
	prefetch int
	pipeline *usecase.Pipeline
	notifier repository.OrderNotifier
	logger   logger.Logger
	metrics  *metrics.Metrics
}

// NewRabbitConsumer creates a new consumer
func NewRabbitConsumer(url, queue string, prefetch int, pipeline *usecase.Pipeline, notifier repository.OrderNotifier, m *metrics.Metrics, log logger.Logger) *RabbitConsumer {
	return &RabbitConsumer{
		url:      url,
		queue:    queue,
		prefetch: prefetch,
		pipeline: pipeline,
		notifier: notifier,
		logger:   log,
		metrics:  m,
	}
}

// Run consumes deliveries until the context is canceled or the broker
// connection drops.
func (c *RabbitConsumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %q: %w", c.queue, err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("consuming booking requests", "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, delivery)
		}
	}
}

func (c *RabbitConsumer) handle(ctx context.Context, delivery amqp.Delivery) {
	start := time.Now()
	defer func() {
		c.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}()
	c.metrics.RequestsProcessed.Inc()

	var req entity.BookingRequest
	if err := json.Unmarshal(delivery.Body, &req); err != nil {
		c.logger.Error("malformed booking request", "error", err)
		c.metrics.ErrorsCount.WithLabelValues("decode").Inc()
		delivery.Reject(false)
		return
	}

	result, err := c.pipeline.Process(ctx, &req)
	if err != nil {
		c.logger.Error("booking failed", "userId", req.UserID, "error", err)
		c.metrics.ErrorsCount.WithLabelValues("process").Inc()
		delivery.Nack(false, true)
		return
	}

	switch result.Status {
	case usecase.StatusExpired:
		c.logger.Warn("booking window expired", "userId", req.UserID)
		delivery.Ack(false)
	case usecase.StatusNoBooking:
		c.logger.Info("no booking possible", "userId", req.UserID)
		delivery.Ack(false)
	default:
		c.logger.Info("order created", "userId", req.UserID, "orders", len(result.Orders))
		c.forward(ctx, result.Orders)
		delivery.Ack(false)
	}
}

// forward hands all booked orders to the backoffice concurrently.
// Failures are logged, never retried and never fatal to the pipeline.
func (c *RabbitConsumer) forward(ctx context.Context, orders []*entity.BookingResult) {
	g := new(errgroup.Group)
	for _, order := range orders {
		g.Go(func() error {
			if err := c.notifier.SaveNewOrder(ctx, order); err != nil {
				c.logger.Error("failed to hand over order", "orderId", order.OrderID, "error", err)
				c.metrics.ErrorsCount.WithLabelValues("notify").Inc()
			}
			return nil
		})
	}
	g.Wait()
}
