package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"projecthub-api/internal/middleware"
	"projecthub-api/internal/realtime"
	"projecthub-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait    = 5 * time.Second
	pingInterval = 30 * time.Second
	readWait     = 60 * time.Second
	sendBuffer   = 64
)

// wsClient implements realtime.Client. Messages are queued and written by
// writePump so a slow socket never blocks the hub. A client may be
// subscribed before its connection is attached; changes queue until then.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient() *wsClient {
	return &wsClient{
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

// attach hands over the upgraded connection. It reports false when the hub
// already dropped the client.
func (c *wsClient) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return false
	default:
	}
	c.conn = conn
	return true
}

// Send queues message and reports false when the buffer is full or the
// client is closed.
func (c *wsClient) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *wsClient) Close() {
	c.once.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
	})
}

// writePump writes queued messages and the heartbeat pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is handled in front of gin; the token authenticates the upgrade
		return true
	},
}

// authorizeFilter decides whether userID may follow the rows selected by f.
func authorizeFilter(ctx context.Context, userID, email string, f realtime.Filter) error {
	switch f.Column {
	case "":
		if f.Table == "user_profiles" {
			return nil
		}
		return store.ErrForbidden
	case "userId", "assigneeId", "createdBy":
		if f.Value != userID {
			return store.ErrForbidden
		}
		return nil
	case "email":
		if email == "" || f.Value != email {
			return store.ErrForbidden
		}
		return nil
	case "projectId":
		_, err := store.ProjectAccess(ctx, f.Value, userID)
		return err
	case "teamId":
		role, err := store.TeamRoleOf(ctx, f.Value, userID)
		if err != nil {
			return err
		}
		// invitations carry emails and tokens
		if f.Table == "team_invitations" && !role.CanManage() {
			return store.ErrForbidden
		}
		return nil
	case "taskId":
		task, err := store.GetTask(ctx, f.Value)
		if err != nil {
			return err
		}
		_, err = store.ProjectAccess(ctx, task.ProjectID, userID)
		return err
	case "id":
		switch f.Table {
		case "user_profiles":
			return nil
		case "projects":
			_, err := store.ProjectAccess(ctx, f.Value, userID)
			return err
		case "teams":
			_, err := store.TeamRoleOf(ctx, f.Value, userID)
			return err
		case "tasks":
			return authorizeFilter(ctx, userID, email, realtime.Filter{Table: f.Table, Column: "taskId", Value: f.Value})
		}
	}
	return store.ErrForbidden
}

// WebSocketHandler handles GET /api/realtime?table=&filter=
// It upgrades the connection and subscribes it to the hub for the rows the
// caller may see. The JWT middleware must have run.
func WebSocketHandler(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter, err := realtime.ParseFilter(c.Query("table"), c.Query("filter"))
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := authorizeFilter(c.Request.Context(), userID, c.GetString(middleware.EmailKey), filter); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = store.ErrForbidden
		}
		respondError(c, err, "Subscription")
		return
	}

	// Subscribed before the 101 goes out: a client that refetches right
	// after connecting misses nothing.
	client := newWSClient()
	hub := realtime.GetHub()
	hub.Subscribe(client, filter)
	defer func() {
		hub.Unsubscribe(client)
		client.Close()
	}()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}
	if !client.attach(conn) {
		_ = conn.Close()
		return
	}
	log.Debug().Str("user_id", userID).Str("table", filter.Table).Str("column", filter.Column).Msg("realtime subscriber joined")

	go client.writePump()

	// Reader loop: clients send nothing but control frames
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
