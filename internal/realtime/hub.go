// Package realtime broadcasts entity-change events to WebSocket clients
// grouped into per-project rooms. Delivery is fire-and-forget: a failed or
// slow client is dropped and never affects the mutation that produced the
// event.
package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/claro-app/claro-server/internal/access"
	pkgauth "github.com/claro-app/claro-server/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventTaskUpdated    = "task-updated"
	EventProjectUpdated = "project-updated"
	EventCommentAdded   = "comment-added"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBuffer = 32
)

// Event is what goes over the wire to every room member except the actor.
type Event struct {
	Name      string      `json:"event"`
	ProjectID uint        `json:"project_id"`
	ActorID   uint        `json:"actor_id"`
	Payload   interface{} `json:"payload"`
}

// Broadcaster is what handlers depend on; both the Hub and the Redis
// bridge satisfy it.
type Broadcaster interface {
	Broadcast(event Event)
}

// clientMessage is the control frame clients send to manage their rooms.
type clientMessage struct {
	Type      string `json:"type"`
	ProjectID uint   `json:"project_id"`
}

type roomChange struct {
	client    *client
	projectID uint
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uint
	send   chan []byte
	// rooms is owned by the hub loop; pumps never touch it.
	rooms map[uint]bool
}

type Hub struct {
	logger         *zap.Logger
	guard          *access.Guard
	jwtManager     *pkgauth.JWTManager
	allowedOrigins []string

	register   chan *client
	unregister chan *client
	join       chan roomChange
	leave      chan roomChange
	broadcast  chan Event

	clients map[*client]bool
}

func NewHub(guard *access.Guard, jwtManager *pkgauth.JWTManager, allowedOrigins []string, logger *zap.Logger) *Hub {
	return &Hub{
		logger:         logger,
		guard:          guard,
		jwtManager:     jwtManager,
		allowedOrigins: allowedOrigins,
		register:       make(chan *client),
		unregister:     make(chan *client),
		join:           make(chan roomChange),
		leave:          make(chan roomChange),
		broadcast:      make(chan Event, 64),
		clients:        make(map[*client]bool),
	}
}

// Run owns all room state. It must be started exactly once.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case rc := <-h.join:
			rc.client.rooms[rc.projectID] = true
		case rc := <-h.leave:
			delete(rc.client.rooms, rc.projectID)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Broadcast queues an event for room delivery. It never blocks the caller;
// if the hub is saturated the event is dropped and logged.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("realtime broadcast dropped, hub saturated",
			zap.String("event", event.Name),
			zap.Uint("project_id", event.ProjectID))
	}
}

func (h *Hub) deliver(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("realtime event marshal failed", zap.Error(err))
		return
	}
	for c := range h.clients {
		if !c.rooms[event.ProjectID] || c.userID == event.ActorID {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Slow consumer: drop the connection rather than block delivery.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", zap.String("origin", origin))
			return false
		},
	}
}

// ServeWS authenticates the connection with the same JWT used by the REST
// API (passed as a query parameter) and starts the read/write pumps.
func (h *Hub) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Access token required"})
		return
	}

	claims, err := h.jwtManager.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		hub:    h,
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBuffer),
		rooms:  make(map[uint]bool),
	}
	h.register <- cl

	go cl.writePump()
	go cl.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "join-project":
			// Room membership follows the same visibility rule as the API.
			ok, err := c.hub.guard.CanView(c.userID, msg.ProjectID)
			if err != nil || !ok {
				continue
			}
			c.hub.join <- roomChange{client: c, projectID: msg.ProjectID}
		case "leave-project":
			c.hub.leave <- roomChange{client: c, projectID: msg.ProjectID}
		}
	}
}

func (c *client) writePump() {
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
