package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/middleware"
	"telecasino-dice/internal/models"
)

const (
	MessageRoundResolved = "ROUND_RESOLVED"
	MessagePing          = "PING"
	MessagePong          = "PONG"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientBuffer   = 16
	broadcastQueue = 100
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub *WebSocketHub
	log *slog.Logger
}

// WebSocketHub fans round results out to the connections of the session
// that played them. Only run touches the client set.
type WebSocketHub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	log        *slog.Logger
}

type Client struct {
	SessionID int64
	Conn      *websocket.Conn
	send      chan *Message
}

type Message struct {
	Type      string      `json:"type"`
	SessionID int64       `json:"session_id,omitempty"`
	RoundID   string      `json:"round_id,omitempty"`
	Data      interface{} `json:"data"`
}

func NewWebSocketHandler(log *slog.Logger) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, broadcastQueue),
		done:       make(chan struct{}),
		log:        log,
	}

	go hub.run()

	return &WebSocketHandler{
		hub: hub,
		log: log,
	}
}

// Close stops the hub and drops every connection.
func (h *WebSocketHandler) Close() {
	close(h.hub.done)
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	sessionID, ok := middleware.SessionID(c)
	if !ok {
		id, err := strconv.ParseInt(c.Query("gameSessionId"), 10, 64)
		if err != nil || id < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gameSessionId"})
			return
		}
		sessionID = id
	}
	// Rounds played without a session are never broadcast, so there is
	// nothing to subscribe to.
	if sessionID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gameSessionId required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade to websocket", sl.Err(err))
		return
	}

	client := &Client{
		SessionID: sessionID,
		Conn:      conn,
		send:      make(chan *Message, clientBuffer),
	}

	if !h.hub.enqueue(h.hub.register, client) {
		conn.Close()
		return
	}

	done := make(chan struct{})
	go client.writePump(done)

	defer func() {
		close(done)
		h.hub.enqueue(h.hub.unregister, client)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket error", slog.Int64("session_id", sessionID), sl.Err(err))
			}
			return
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case MessagePing:
		client.trySend(&Message{
			Type: MessagePong,
			Data: gin.H{
				"timestamp": time.Now().Unix(),
			},
		})
	}
}

// BroadcastRoundResolved queues result for the connections of its session.
// Rounds without a session are not broadcast. It never blocks; when the
// queue is full the message is dropped.
func (h *WebSocketHandler) BroadcastRoundResolved(result *models.RoundResult) {
	if result.GameSessionID == 0 {
		return
	}

	msg := &Message{
		Type:      MessageRoundResolved,
		SessionID: result.GameSessionID,
		RoundID:   result.ID,
		Data:      result,
	}

	select {
	case h.hub.broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, dropping round result", slog.String("round_id", result.ID))
	}
}

func (hub *WebSocketHub) enqueue(ch chan *Client, client *Client) bool {
	select {
	case ch <- client:
		return true
	case <-hub.done:
		return false
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			set, ok := hub.clients[client.SessionID]
			if !ok {
				set = make(map[*Client]struct{})
				hub.clients[client.SessionID] = set
			}
			set[client] = struct{}{}
			hub.log.Debug("client registered", slog.Int64("session_id", client.SessionID))

		case client := <-hub.unregister:
			hub.remove(client)

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)

		case <-hub.done:
			for _, set := range hub.clients {
				for client := range set {
					client.Conn.Close()
				}
			}
			hub.clients = nil
			return
		}
	}
}

func (hub *WebSocketHub) remove(client *Client) {
	set, ok := hub.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}

	delete(set, client)
	if len(set) == 0 {
		delete(hub.clients, client.SessionID)
	}
	hub.log.Debug("client unregistered", slog.Int64("session_id", client.SessionID))
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	for client := range hub.clients[message.SessionID] {
		if !client.trySend(message) {
			// Too slow to keep up. Closing the connection ends its read
			// loop, which unregisters it.
			hub.log.Warn("dropping slow websocket client", slog.Int64("session_id", client.SessionID))
			hub.remove(client)
			client.Conn.Close()
		}
	}
}

func (c *Client) trySend(msg *Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Conn.Close()
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.Conn.Close()
				return
			}

		case <-done:
			return
		}
	}
}
