package kds

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/store"
)

// Event types
const (
	EventOrdersSnapshot = "orders_snapshot"
	EventOrderUpdate    = "order_update"
	EventOrderRemoved   = "order_removed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 4
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type Role string

const (
	// RoleAdmin receives every order of the business day plus the summary.
	RoleAdmin Role = "admin"
	// RoleTracker follows a single order.
	RoleTracker Role = "tracker"
)

// Client is one websocket connection registered with the hub.
type Client struct {
	conn    *websocket.Conn
	role    Role
	orderID string
	send    chan []byte
}

// Hub pushes order state to dashboards and tracking pages. It folds every
// snapshot it receives into an OrderView and renders a message per client.
type Hub struct {
	view  *services.OrderView
	clock cycle.Clock
	log   logrus.FieldLogger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

func NewHub(clock cycle.Clock, log logrus.FieldLogger) *Hub {
	return &Hub{
		view:    services.NewOrderView(),
		clock:   clock,
		log:     log,
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) View() *services.OrderView { return h.view }

// Run applies snapshots from sub until it closes or ctx ends.
func (h *Hub) Run(ctx context.Context, sub *store.Subscription) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case snap, ok := <-sub.C:
			if !ok {
				h.closeAll()
				return
			}
			if h.view.Apply(snap) {
				h.broadcast()
			}
		}
	}
}

// Serve registers conn and blocks until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, role Role, orderID string) {
	client := &Client{conn: conn, role: role, orderID: orderID, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"role": role, "order_id": orderID, "clients": count}).Info("Websocket client connected")

	go h.writePump(client)
	if h.view.Loaded() {
		h.sendTo(client)
	}
	h.readPump(client)
}

// ClientCount is the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.sendTo(c)
	}
}

// Render builds the message a client with role and orderID would receive now.
func (h *Hub) Render(role Role, orderID string) Message {
	now := h.clock.Now()
	switch role {
	case RoleAdmin:
		w := cycle.Compute(now)
		// Orders from closed days stay in the view until the sweeper removes them.
		orders := lifecycle.InWindow(h.view.Orders(), w)
		if orders == nil {
			orders = []models.Order{}
		}
		return Message{
			Event: EventOrdersSnapshot,
			Data: map[string]interface{}{
				"orders":  orders,
				"summary": h.view.Summary(w),
				"seq":     h.view.Seq(),
			},
		}
	default:
		order, ok := h.view.Find(orderID)
		if !ok {
			return Message{Event: EventOrderRemoved, Data: map[string]string{"id": orderID}}
		}
		return Message{Event: EventOrderUpdate, Data: services.NewTracking(&order, now)}
	}
}

func (h *Hub) sendTo(c *Client) {
	data, err := json.Marshal(h.Render(c.role, c.orderID))
	if err != nil {
		h.log.WithError(err).Error("Error marshaling message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.WithField("role", c.role).Warn("Websocket client too slow, disconnecting")
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) readPump(c *Client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.WithError(err).Debug("Error sending message to client")
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
