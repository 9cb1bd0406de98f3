package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/Temutjin2k/ride-bidding/pkg/rabbit"
	"github.com/google/uuid"
)

const (
	RideExchange = "ride_topic"

	publishRetries = 3
	publishBackoff = 500 * time.Millisecond
)

type RideBroker struct {
	client       *rabbit.RabbitMQ
	RideExchange string

	l logger.Logger
}

func NewRideBroker(client *rabbit.RabbitMQ, log logger.Logger) *RideBroker {
	return &RideBroker{
		client:       client,
		RideExchange: RideExchange,
		l:            log,
	}
}

// Setup declares the exchange, called once on start.
func (r *RideBroker) Setup() error {
	return r.client.DeclareTopic(r.RideExchange)
}

// PublishRideStatus публикует событие поездки в exchange 'ride_topic' с ключом 'ride.status.{status}'.
func (r *RideBroker) PublishRideStatus(ctx context.Context, msg models.RideStatusEvent) (err error) {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_ride_status")

	key := RoutingKey(msg)
	defer func() {
		metrics.RecordRabbitMQPublish(string(types.RideService), key, err)
	}()

	if err := r.client.EnsureConnection(ctx); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrPublishFailed, err))
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal message: %w", err))
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		MessageId:     uuid.NewString(),
		CorrelationId: msg.CorrelationID,
		Type:          msg.EventType.String(),
		Body:          body,
		Timestamp:     msg.Timestamp,
	}

	err = retry(ctx, publishRetries, publishBackoff, func() error {
		ch, err := r.client.Channel()
		if err != nil {
			return err
		}
		return ch.PublishWithContext(ctx, r.RideExchange, key, false, false, publishing)
	})
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%w: %w", types.ErrPublishFailed, err))
	}

	r.l.Debug(ctx, "ride status published", "routing_key", key)
	return nil
}

// RoutingKey: status changes go by the new status, other events by their type,
// e.g. ride.status.ACCEPTED, ride.status.RIDE_CANCELED.
func RoutingKey(msg models.RideStatusEvent) string {
	if msg.Status != "" && types.EventForStatus(msg.Status) == msg.EventType {
		return "ride.status." + msg.Status.String()
	}
	return "ride.status." + msg.EventType.String()
}
