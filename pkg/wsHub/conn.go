package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	PingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var ErrConnClosed = errors.New("connection is closed")

// Message is an inbound client frame: {"event": "...", "data": {...}}
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is the read view of a connection that domain code gets in broadcasts.
type Client interface {
	ID() string
	UserID() uuid.UUID
	Role() string
	Value(key string) (any, bool)
	SetValue(key string, v any)
}

type Conn struct {
	id     string
	userID uuid.UUID
	role   string

	conn    *websocket.Conn
	doneCtx context.Context
	cancel  context.CancelFunc

	writeMu   sync.Mutex
	valuesMu  sync.RWMutex
	values    map[string]any
	closeOnce sync.Once
}

func NewConn(ctx context.Context, userID uuid.UUID, role string, conn *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(ctx)

	return &Conn{
		id:      uuid.NewString(),
		userID:  userID,
		role:    role,
		conn:    conn,
		doneCtx: ctx,
		cancel:  cancel,
		values:  make(map[string]any),
	}
}

func (c *Conn) ID() string        { return c.id }
func (c *Conn) UserID() uuid.UUID { return c.userID }
func (c *Conn) Role() string      { return c.role }

// Context is cancelled when the connection is closed
func (c *Conn) Context() context.Context { return c.doneCtx }

func (c *Conn) Value(key string) (any, bool) {
	c.valuesMu.RLock()
	defer c.valuesMu.RUnlock()

	v, ok := c.values[key]
	return v, ok
}

func (c *Conn) SetValue(key string, v any) {
	c.valuesMu.Lock()
	defer c.valuesMu.Unlock()

	c.values[key] = v
}

func (c *Conn) Health() error {
	if c.conn == nil {
		return errors.New("connection is nil")
	}

	select {
	case <-c.doneCtx.Done():
		return ErrConnClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Send writes single event to the client
func (c *Conn) Send(event string, data any) error {
	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	return c.write(payload)
}

func (c *Conn) write(payload []byte) error {
	select {
	case <-c.doneCtx.Done():
		return ErrConnClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

// Listen reads frames until the connection breaks or is closed.
// Malformed frames are reported to onInvalid and skipped.
func (c *Conn) Listen(handler func(ctx context.Context, msg Message), onInvalid func(err error)) error {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.doneCtx.Done():
				return ErrConnClosed
			default:
			}
			return fmt.Errorf("read failed: %w", err)
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Event == "" {
			if onInvalid != nil {
				if err == nil {
					err = errors.New("event name is required")
				}
				onInvalid(err)
			}
			continue
		}

		handler(c.doneCtx, msg)
	}
}

// KeepAlive pings the client until the connection is closed
func (c *Conn) KeepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.doneCtx.Done():
			return
		case <-ticker.C:
			if err := c.Health(); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
