package web

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ludarena/contract"
	apperrors "ludarena/errors"
	"ludarena/services"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBufferSize = 64
)

// Client is one authenticated websocket connection. The read pump
// drives commands into the arena; the write pump drains the sink the
// hub publishes into.
type Client struct {
	log       *slog.Logger
	conn      *websocket.Conn
	arena     services.IArenaService
	hub       contract.IHub
	accountID string
	connID    string
	sink      *wsSink

	mu       sync.Mutex
	attached map[string]struct{}
}

func NewClient(log *slog.Logger, conn *websocket.Conn, arena services.IArenaService, hub contract.IHub, accountID, connID string) *Client {
	return &Client{
		log:       log,
		conn:      conn,
		arena:     arena,
		hub:       hub,
		accountID: accountID,
		connID:    connID,
		sink:      newWsSink(sendBufferSize),
		attached:  make(map[string]struct{}),
	}
}

// Run blocks until the connection dies, then cleans up: pending
// matchmaking notifications stop, and any session where this account
// holds a seat is forfeited by disconnect.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c.accountID, c.connID, c.sink)

	done := make(chan struct{})
	go c.writePump(done)
	c.readPump(ctx)
	close(done)

	c.hub.Unregister(c.accountID, c.connID)
	c.mu.Lock()
	sessions := make([]string, 0, len(c.attached))
	for sessionID := range c.attached {
		sessions = append(sessions, sessionID)
	}
	c.mu.Unlock()
	for _, sessionID := range sessions {
		c.arena.Detach(sessionID, c.connID)
		c.arena.Disconnect(ctx, sessionID, c.accountID)
	}
	_ = c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Websocket closed unexpectedly", "account", c.accountID, "error", err)
			}
			return
		}
		c.dispatch(ctx, msg)
	}
}

func (c *Client) dispatch(ctx context.Context, msg inboundMessage) {
	switch msg.Type {
	case "attach":
		snapshot, role, err := c.arena.Attach(msg.SessionID, c.accountID, c.connID, c.sink)
		if err != nil {
			c.enqueueError(msg.SessionID, err)
			return
		}
		c.mu.Lock()
		c.attached[msg.SessionID] = struct{}{}
		c.mu.Unlock()
		c.enqueue(outboundMessage{Type: "attached", Payload: toAttachedPayload(snapshot, role)})

	case "move":
		if _, err := c.arena.ProposeMove(ctx, msg.SessionID, c.accountID, msg.Move); err != nil {
			// The acceptance itself arrives through the fanout; only
			// rejections come back on this path.
			c.enqueueError(msg.SessionID, err)
		}

	case "resign":
		if err := c.arena.Resign(ctx, msg.SessionID, c.accountID); err != nil {
			c.enqueueError(msg.SessionID, err)
		}

	case "detach":
		c.arena.Detach(msg.SessionID, c.connID)
		c.mu.Lock()
		delete(c.attached, msg.SessionID)
		c.mu.Unlock()

	default:
		c.enqueue(outboundMessage{Type: "error", Error: "unknown message type"})
	}
}

func (c *Client) enqueue(msg outboundMessage) {
	select {
	case c.sink.send <- msg:
	default:
		c.log.Warn("Outbound buffer full, message lost", "account", c.accountID)
	}
}

func (c *Client) enqueueError(sessionID string, err error) {
	c.enqueue(outboundMessage{
		Type:    "error",
		Payload: map[string]string{"session_id": sessionID},
		Error:   publicError(err),
	})
}

// publicError keeps internal failures out of the wire format.
func publicError(err error) string {
	for _, known := range []error{
		apperrors.ErrNotYourTurn,
		apperrors.ErrIllegalMove,
		apperrors.ErrTimeExpired,
		apperrors.ErrSessionNotFound,
		apperrors.ErrNotAParticipant,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}

func (c *Client) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.sink.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
