package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"clique/internal/domain"
	"clique/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one websocket connection for one authenticated user.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	logger *slog.Logger
	userID string
	store  *session.Store
	chat   domain.ChatService
	send   chan *ServerMessage
	stop   chan struct{}
	once   sync.Once
}

func NewClient(userID string, snap session.Snapshot, conn *websocket.Conn, hub *Hub, chat domain.ChatService, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		logger: logger,
		userID: userID,
		store:  session.NewStore(snap),
		chat:   chat,
		send:   make(chan *ServerMessage, 256),
		stop:   make(chan struct{}),
	}
}

// Register hands the client to the hub, which seeds it with a state message.
func (c *Client) Register() {
	c.hub.registerChan <- c
}

// Write pumps queued messages to the socket and keeps the connection alive
// with pings.
func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			bytes, err := json.Marshal(msg)
			if err != nil {
				c.logger.Error("serialize message", "err", err)
				continue
			}
			if !c.writeMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

// Read pumps client messages off the socket until the connection drops, then
// deregisters.
func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.deregister()
		c.stopClient()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read", "user_id", c.userID, "err", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.queueMessage(errorMessage("invalid_message", "malformed message"))
			continue
		}

		switch msg.Type {
		case "mark_read":
			c.handleMarkRead(msg.EventID)
		default:
			c.queueMessage(errorMessage("invalid_message", "unknown message type"))
		}
	}
}

func (c *Client) handleMarkRead(eventID string) {
	if eventID == "" {
		c.queueMessage(errorMessage("invalid_message", "event_id is required"))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := c.chat.MarkRead(ctx, eventID, c.userID); err != nil {
		c.logger.Warn("mark read over websocket", "user_id", c.userID, "event_id", eventID, "err", err)
		c.queueMessage(errorMessage("mark_read_failed", "could not mark chat read"))
		return
	}
	snap := c.store.MarkRead(eventID)
	c.queueMessage(stateMessage(snap))
}

// writeMessage writes one frame with a deadline and reports whether the
// connection is still usable.
func (c *Client) writeMessage(messageType int, payload []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		c.logger.Warn("websocket write", "user_id", c.userID, "err", err)
		return false
	}
	return true
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// deregister hands the client back to the hub. After Shutdown the run loop no
// longer drains deregisterChan, so a plain send would park this goroutine
// forever.
func (c *Client) deregister() {
	select {
	case c.hub.deregisterChan <- c:
	case <-c.hub.done:
	}
}

func (c *Client) stopClient() {
	c.once.Do(func() { close(c.stop) })
}
