// Package realtime pushes booking changes to connected calendar clients over WebSocket.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"labbook/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// Message is what a subscribed client receives for every booking change in its months.
type Message struct {
	Type      events.Type `json:"type"`
	BookingID string      `json:"booking_id"`
	Day       string      `json:"day"`
	Month     string      `json:"month"`
}

// ClientCommand is sent by clients to change their month subscriptions.
type ClientCommand struct {
	Type  string `json:"type"` // subscribe | unsubscribe
	Month string `json:"month"`
}

type connection struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	months map[string]bool
}

// Hub tracks open connections and the months each one watches.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		connections: make(map[*connection]struct{}),
		log:         log,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Connections returns the number of open connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish fans a booking event out to every connection watching the event's month.
func (h *Hub) Publish(_ context.Context, e events.Event) error {
	month := monthOf(e.Day)
	data, err := json.Marshal(Message{Type: e.Type, BookingID: e.BookingID, Day: e.Day, Month: month})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections {
		if !c.months[month] {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn("realtime client too slow, dropping event",
				zap.String("user_id", c.userID), zap.String("booking_id", e.BookingID))
		}
	}
	return nil
}

// ServeWS registers conn and runs its read and write loops until it disconnects.
func (h *Hub) ServeWS(conn *websocket.Conn, userID string, months []string) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		months: make(map[string]bool),
	}
	for _, m := range months {
		c.months[m] = true
	}

	h.register(c)
	h.log.Debug("realtime client connected", zap.String("user_id", userID), zap.Strings("months", months))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Debug("realtime client disconnected", zap.String("user_id", c.userID))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Info("realtime read failed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}

		var cmd ClientCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			continue
		}

		switch cmd.Type {
		case "subscribe":
			h.mu.Lock()
			c.months[cmd.Month] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.months, cmd.Month)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// monthOf returns the "YYYY-MM" prefix of a "YYYY-MM-DD" day.
func monthOf(day string) string {
	if len(day) < 7 {
		return day
	}
	return day[:7]
}
