package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"elephant-quiz/internal/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Message is the envelope exchanged over the socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type answerPayload struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// SessionService is the part of the quiz service the hub needs.
type SessionService interface {
	OwnsSession(userID uint, sessionID string) bool
	SubmitAnswer(ctx context.Context, userID uint, sessionID string, index int, label models.OptionLabel) (models.SessionDTO, error)
}

// Identify extracts the authenticated user from a request.
type Identify func(r *http.Request) (uint, bool)

type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	service    SessionService
	identify   Identify
	upgrader   websocket.Upgrader
}

func NewHub(identify Identify, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		identify:   identify,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

func (h *Hub) SetSessionService(service SessionService) {
	h.service = service
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	userID    uint

	mu     sync.Mutex
	closed bool
}

// close shuts the send channel once. Sends after it are dropped by trySend.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Run processes client registration until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[client.sessionID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[client.sessionID] = room
	}
	room[client] = true
	log.Printf("Client %p joined session %s (%d connected)", client, client.sessionID, len(room))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[client.sessionID]; ok {
		if _, member := room[client]; member {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, client.sessionID)
			}
			log.Printf("Client %p left session %s", client, client.sessionID)
		}
	}
	h.mu.Unlock()
	client.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[*Client]bool)
	h.mu.Unlock()
	for _, room := range rooms {
		for client := range room {
			client.close()
		}
	}
}

// ClientCount reports how many sockets watch a session.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// BroadcastMessage sends a typed message to every socket watching sessionID.
// Clients whose buffer is full are dropped.
func (h *Hub) BroadcastMessage(sessionID string, messageType string, data interface{}) {
	messageBytes, err := json.Marshal(Message{Type: messageType, Data: data})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", messageType, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[sessionID]))
	for client := range h.rooms[sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.trySend(messageBytes) {
			log.Printf("Send buffer full for client %p; dropping it", client)
			h.removeClient(client)
		}
	}
}

// HandleWebSocket upgrades the request and subscribes it to the session in the path.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	if sessionID == "" {
		http.Error(w, "Missing session id", http.StatusBadRequest)
		return
	}
	userID, ok := h.identify(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if h.service != nil && !h.service.OwnsSession(userID, sessionID) {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
		userID:    userID,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected close: %v", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.reply("error", map[string]string{"message": "malformed message"})
		return
	}

	switch msg.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			c.reply("error", map[string]string{"message": "malformed answer"})
			return
		}
		label, err := models.ParseOptionLabel(payload.Label)
		if err != nil {
			c.reply("error", map[string]string{"message": err.Error()})
			return
		}
		if c.hub.service == nil {
			c.reply("error", map[string]string{"message": "service unavailable"})
			return
		}
		session, err := c.hub.service.SubmitAnswer(context.Background(), c.userID, c.sessionID, payload.Index, label)
		if err != nil {
			c.reply("error", map[string]string{"message": err.Error()})
			return
		}
		c.reply("session", session)
	case "ping":
		c.reply("pong", nil)
	default:
		log.Printf("Ignoring message type %q from client %p", msg.Type, c)
	}
}

func (c *Client) reply(messageType string, data interface{}) {
	messageBytes, err := json.Marshal(Message{Type: messageType, Data: data})
	if err != nil {
		log.Printf("Error marshaling reply: %v", err)
		return
	}
	if !c.trySend(messageBytes) {
		log.Printf("Dropped %s reply to client %p", messageType, c)
	}
}

// trySend queues message without blocking. It reports false when the buffer
// is full or the hub has already closed the client.
func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error writing to client %p: %v", c, err)
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
