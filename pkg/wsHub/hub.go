package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Temutjin2k/ride-bidding/pkg/logger"
	wrap "github.com/Temutjin2k/ride-bidding/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-bidding/pkg/metrics"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// Hub хранит все активные WebSocket соединения и комнаты.
// Комната - именованное множество соединений, сообщение в комнату получает каждый участник.
type Hub struct {
	clients map[string]*Conn
	rooms   map[string]map[string]*Conn
	member  map[string]map[string]struct{} // conn id -> rooms

	service string
	l       logger.Logger
	mu      sync.RWMutex
}

func NewHub(l logger.Logger, service string) *Hub {
	return &Hub{
		clients: make(map[string]*Conn),
		rooms:   make(map[string]map[string]*Conn),
		member:  make(map[string]map[string]struct{}),
		service: service,
		l:       l,
	}
}

// Add регистрирует новое соединение
func (h *Hub) Add(c *Conn) error {
	if c == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.member[c.id] = make(map[string]struct{})
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnectionsGauge.WithLabelValues(h.service).Set(float64(n))
	return nil
}

// Remove удаляет соединение из хаба и всех комнат, затем закрывает его
func (h *Hub) Remove(connID string) error {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if !ok {
		h.mu.Unlock()
		return ErrConnIsNotFound
	}
	for room := range h.member[connID] {
		h.leaveLocked(connID, room)
	}
	delete(h.member, connID)
	delete(h.clients, connID)
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnectionsGauge.WithLabelValues(h.service).Set(float64(n))

	if err := c.Close(); err != nil {
		ctx := wrap.WithAction(context.Background(), "ws_connection_delete")
		h.l.Debug(ctx, "failed to close conn", "conn_id", connID, "err", err.Error())
	}
	return nil
}

func (h *Hub) Get(connID string) (*Conn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[connID]
	if !ok {
		return nil, ErrConnIsNotFound
	}
	return c, nil
}

// Join adds the connection to a room. Joining twice is a no-op.
func (h *Hub) Join(connID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return ErrConnIsNotFound
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Conn)
		h.rooms[room] = members
	}
	members[connID] = c
	h.member[connID][room] = struct{}{}
	return nil
}

func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(connID, room)
}

func (h *Hub) leaveLocked(connID, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if rooms, ok := h.member[connID]; ok {
		delete(rooms, room)
	}
}

// InRoom reports whether the connection is a member of the room
func (h *Hub) InRoom(connID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.rooms[room][connID]
	return ok
}

// Publish sends the event to every member of the room and returns the number of deliveries.
func (h *Hub) Publish(room, event string, data any) int {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	payload, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		h.l.Error(wrap.WithAction(context.Background(), "ws_publish"), "failed to marshal event", err, "event", event)
		return 0
	}

	return h.deliver(targets, payload, event)
}

// SendTo отправляет сообщение определённому соединению
func (h *Hub) SendTo(connID, event string, data any) error {
	c, err := h.Get(connID)
	if err != nil {
		return err
	}
	return c.Send(event, data)
}

// Broadcast walks every connection. build decides per client whether and what to send.
func (h *Hub) Broadcast(build func(c Client) (event string, data any, ok bool)) int {
	h.mu.RLock()
	all := make([]*Conn, 0, len(h.clients))
	for _, c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range all {
		event, data, ok := build(c)
		if !ok {
			continue
		}
		if err := c.Send(event, data); err != nil {
			h.logSendFailure(c.id, event, err)
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) deliver(targets []*Conn, payload []byte, event string) int {
	sent := 0
	for _, c := range targets {
		if err := c.write(payload); err != nil {
			h.logSendFailure(c.id, event, err)
			continue
		}
		sent++
	}
	return sent
}

// a failed write is not fatal, the read loop of that connection will notice and clean up
func (h *Hub) logSendFailure(connID, event string, err error) {
	ctx := wrap.WithAction(context.Background(), "ws_send")
	h.l.Debug(ctx, "failed to deliver event", "conn_id", connID, "event", event, "err", err.Error())
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Close закрывает каждое websocket соединение
func (h *Hub) Close() {
	ctx := wrap.WithAction(context.Background(), "hub_close")

	// копируем id под локом, закрываем вне локов
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		_ = h.Remove(id)
	}

	h.l.Info(ctx, "all websocket connections closed gracefully")
}
