package notify

import (
	"encoding/json"
	"strconv"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ahmedev192/skill-swap-sub000/internal/services"
)

// Hub fans session events out to the websocket connections of the two
// session parties. Delivery is best-effort: a slow client is dropped,
// never waited on.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan services.SessionEvent
	log        *logrus.Logger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan services.SessionEvent, 64),
		log:        log,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event without blocking the caller; under
// backpressure the event is dropped and logged.
func (h *Hub) Broadcast(event services.SessionEvent) {
	select {
	case h.events <- event:
	default:
		h.log.WithField("session_id", event.Session.ID).
			Warn("notification hub backlog full, dropping event")
	}
}

func (h *Hub) deliver(event services.SessionEvent) {
	encoded, err := json.Marshal(event)
	if err != nil {
		h.log.WithError(err).Error("encode session event")
		return
	}

	h.sendToUser(strconv.FormatInt(event.Session.TeacherID, 10), encoded)
	h.sendToUser(strconv.FormatInt(event.Session.StudentID, 10), encoded)
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump drains the connection until the client goes away. Clients
// only listen; inbound frames are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
