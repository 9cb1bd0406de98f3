package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/models"
	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// LocationStream mirrors driver location pings to a Kafka topic, keyed by driver id
// so one driver's pings stay ordered within a partition.
// Writes are async: a slow broker never blocks the websocket handler.
type LocationStream struct {
	writer *kafka.Writer
	topic  string
	l      logger.Logger
}

func NewLocationStream(brokers []string, topic string, l logger.Logger) *LocationStream {
	s := &LocationStream{topic: topic, l: l}
	s.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion:   s.completed,
	}
	return s
}

func (s *LocationStream) PublishLocation(ctx context.Context, ping models.LocationPing) error {
	value, err := json.Marshal(ping)
	if err != nil {
		return fmt.Errorf("location stream: encode: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ping.DriverID),
		Value: value,
		Time:  ping.Timestamp,
	})
	if err != nil {
		metrics.RecordKafkaProduce(string(types.RideService), s.topic, err)
		return fmt.Errorf("location stream: write: %w", err)
	}
	return nil
}

// completed is called by the writer for every flushed batch.
func (s *LocationStream) completed(messages []kafka.Message, err error) {
	for range messages {
		metrics.RecordKafkaProduce(string(types.RideService), s.topic, err)
	}
	if err != nil {
		ctx := wrap.WithAction(context.Background(), types.ActionExternalServiceFailed)
		s.l.Warn(ctx, "location batch not delivered", "topic", s.topic, "messages", len(messages), "error", err.Error())
	}
}

func (s *LocationStream) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}
