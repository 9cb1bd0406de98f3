package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Temutjin2k/ride-bidding/internal/domain/types"
	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/atomic"
)

const (
	heartbeat        = 10 * time.Second
	reconnectRetries = 5
)

var ErrClosed = errors.New("rabbitmq connection is closed")

// RabbitMQ is one connection with one channel. After a broker failure
// EnsureConnection dials again.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  *atomic.Bool
	mu      sync.Mutex
	dsn     string

	log logger.Logger
}

// New creates rabbitMQ client
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		closed: atomic.NewBool(true),
		dsn:    dsn,
		log:    log,
	}

	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	log.Info(wrap.WithAction(ctx, types.ActionRabbitMQConnected), "connected to rabbitMQ")
	return r, nil
}

// connect dials and opens the channel. Caller holds mu or owns r exclusively.
func (r *RabbitMQ) connect(ctx context.Context) error {
	conn, err := amqp.DialConfig(r.dsn, amqp.Config{Heartbeat: heartbeat})
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	r.conn = conn
	r.channel = ch
	r.closed.Store(false)

	go r.monitor(ctx, connClosed, chClosed)
	return nil
}

// monitor marks the client closed as soon as the connection or the channel goes away.
func (r *RabbitMQ) monitor(ctx context.Context, connClosed, chClosed <-chan *amqp.Error) {
	var closeErr *amqp.Error
	select {
	case closeErr = <-connClosed:
	case closeErr = <-chClosed:
	}
	r.closed.Store(true)

	ctx = wrap.WithAction(context.WithoutCancel(ctx), types.ActionRabbitConnectionClosed)
	if closeErr != nil {
		r.log.Error(ctx, "RabbitMQ connection closed with error", closeErr)
		return
	}
	r.log.Debug(ctx, "RabbitMQ connection closed gracefully")
}

// IsConnectionClosed checks if the connection is closed
func (r *RabbitMQ) IsConnectionClosed() bool {
	return r.closed.Load()
}

// Channel returns the current channel, or ErrClosed.
func (r *RabbitMQ) Channel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() || r.channel == nil || r.channel.IsClosed() {
		return nil, ErrClosed
	}
	return r.channel, nil
}

// DeclareTopic declares a durable topic exchange.
func (r *RabbitMQ) DeclareTopic(exchange string) error {
	ch, err := r.Channel()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return nil
}

// BindQueue declares a durable queue and binds it to exchange with every key.
func (r *RabbitMQ) BindQueue(queue, exchange string, keys ...string) error {
	ch, err := r.Channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range keys {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s with %s: %w", queue, exchange, key, err)
		}
	}
	return nil
}

// Close closes rabbit connection
func (r *RabbitMQ) Close(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionRabbitConnectionClosing)

	r.mu.Lock()
	ch, conn := r.channel, r.conn
	r.channel, r.conn = nil, nil
	r.closed.Store(true)
	r.mu.Unlock()

	if ch != nil {
		if err := closeWithCtxFunc(ctx, ch.Close); err != nil && ctx.Err() == nil && !errors.Is(err, amqp.ErrClosed) {
			r.log.Error(ctx, "error closing channel", err)
		}
	}

	if conn != nil {
		if err := closeWithCtxFunc(ctx, conn.Close); err != nil && !errors.Is(err, amqp.ErrClosed) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}

	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitConnectionClosed), "rabbitMQ closed")
	return nil
}

// closeWithCtxFunc stops waiting for fn when ctx is done, fn itself keeps running.
func closeWithCtxFunc(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconnect dials again with linear backoff.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed.Load() && r.channel != nil && !r.channel.IsClosed() {
		return nil
	}

	var err error
	for i := range reconnectRetries {
		if err = r.connect(ctx); err == nil {
			r.log.Info(wrap.WithAction(ctx, types.ActionRabbitReconnected), "RabbitMQ reconnected successfully")
			return nil
		}

		wait := time.Duration(i+1) * 2 * time.Second
		r.log.Debug(ctx, "reconnect attempt failed", "attempt", i+1, "retry_in", wait.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
}

func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	if !r.IsConnectionClosed() {
		return nil
	}

	r.log.Warn(ctx, "rabbit connection closed, reconnecting")
	return r.Reconnect(ctx)
}
