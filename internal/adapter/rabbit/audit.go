package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/Temutjin2k/ride-bidding/pkg/rabbit"
)

const (
	QueueRideEvents = "ride_events"
	BindingRideAll  = "ride.status.*"

	auditPrefetch = 16
	reconnectWait = 2 * time.Second
)

// AuditHandler stores one ride event. id is the broker message id, used for deduplication.
type AuditHandler func(ctx context.Context, id string, event models.RideStatusEvent, raw json.RawMessage) error

type AuditConsumer struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewAuditConsumer(client *rabbit.RabbitMQ, l logger.Logger) *AuditConsumer {
	return &AuditConsumer{client: client, l: l}
}

// Consume слушает ride.status.* и передаёт события в handler до отмены ctx.
// After a broker failure it reconnects and subscribes again.
func (c *AuditConsumer) Consume(ctx context.Context, handler AuditHandler) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_ride_events")

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "ride events consumer stopped by context")
			return nil
		}

		msgs, err := c.subscribe(ctx)
		if err != nil {
			c.l.Error(ctx, "subscribe failed", err)
			if !sleepCtx(ctx, reconnectWait) {
				return nil
			}
			continue
		}

		c.l.Info(ctx, "start consuming ride events", "queue", QueueRideEvents)
		if done := c.drain(ctx, msgs, handler); done {
			return nil
		}

		c.l.Warn(ctx, "message channel closed, reconnecting")
		if !sleepCtx(ctx, reconnectWait) {
			return nil
		}
	}
}

func (c *AuditConsumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	if err := c.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	if err := c.client.DeclareTopic(RideExchange); err != nil {
		return nil, err
	}
	if err := c.client.BindQueue(QueueRideEvents, RideExchange, BindingRideAll); err != nil {
		return nil, err
	}

	ch, err := c.client.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(auditPrefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return ch.Consume(QueueRideEvents, "", false, false, false, false, nil)
}

// drain handles deliveries with at most auditPrefetch in flight.
// Returns true when ctx is done, false when the channel closed.
func (c *AuditConsumer) drain(ctx context.Context, msgs <-chan amqp.Delivery, handler AuditHandler) bool {
	var g errgroup.Group
	g.SetLimit(auditPrefetch)
	defer g.Wait()

	for {
		select {
		case <-ctx.Done():
			c.l.Info(ctx, "ride events consumer shutting down")
			return true
		case d, ok := <-msgs:
			if !ok {
				return false
			}
			g.Go(func() error {
				c.handle(ctx, d, handler)
				return nil
			})
		}
	}
}

func (c *AuditConsumer) handle(ctx context.Context, d amqp.Delivery, handler AuditHandler) {
	ctx = wrap.WithRequestID(ctx, d.CorrelationId)

	var event models.RideStatusEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.l.Error(ctx, "failed to decode ride event", err)
		metrics.RecordRabbitMQConsume(string(types.AuditService), QueueRideEvents, err)
		_ = d.Nack(false, false)
		return
	}
	ctx = wrap.WithRideID(ctx, event.RideID.String())

	// обработка не должна обрываться на shutdown посреди записи
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	err := handler(hctx, d.MessageId, event, d.Body)
	metrics.RecordRabbitMQConsume(string(types.AuditService), QueueRideEvents, err)
	if err != nil {
		c.l.Error(wrap.ErrorCtx(ctx, err), "failed to store ride event", err)
		_ = d.Nack(false, isRecoverableError(err))
		return
	}

	if err := d.Ack(false); err != nil {
		c.l.Warn(ctx, "ack failed", "error", err.Error())
	}
}
