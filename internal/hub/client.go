package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/MaryRatiary/back-rise/internal/event"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second       // time allowed to write a message to the peer
	pongWait           = 20 * time.Second       // time allowed to read the next pong message from the peer
	pingInterval       = (pongWait * 9) / 10    // send pings to peer with this period
	maxMessageSize     = 64 * 1024              // max inbound message size (64KB)
	sendBufSize        = 256                    // per-connection outbound buffer size
	workerPoolSize     = 16                     // number of workers to process inbound commands
	sendTimeout        = 2 * time.Second        // timeout for enqueuing outbound messages
	kickOnFull         = true                   // when true, disconnect client when egress is full
	registerTimeout    = 5 * time.Second        // timeout for client registration
	unregisterTimeout  = 5 * time.Second        // timeout for client unregistration
	inboundSendTimeout = 500 * time.Millisecond // timeout for sending to inbound channel
)

// Client is one authenticated websocket connection. A user may hold
// several clients at once (multi-device); presence edges are computed
// per user, not per client.
type Client struct {
	id       string
	userID   string
	userName string
	conn     *websocket.Conn
	hub      *Hub
	egress   chan event.WsEvent
	logger   *zap.Logger

	// conversation rooms this connection explicitly joined
	rooms   map[string]struct{}
	roomsMu sync.RWMutex

	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

func newClient(userID, userName string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:         uuid.New().String(),
		userID:     userID,
		userName:   userName,
		conn:       conn,
		hub:        h,
		egress:     make(chan event.WsEvent, sendBufSize),
		logger:     h.logger,
		rooms:      make(map[string]struct{}),
		cancel:     cancel,
		ctx:        ctx,
		connClosed: make(chan struct{}),
	}
}

// ConnID implements presence.Conn.
func (c *Client) ConnID() string { return c.id }

// UserID implements presence.Conn.
func (c *Client) UserID() string { return c.userID }

// UserName returns the display name resolved at handshake.
func (c *Client) UserName() string { return c.userName }

// RegisterClient hands a freshly upgraded connection to the hub and
// starts its pumps.
func RegisterClient(userID, userName string, conn *websocket.Conn, h *Hub) *Client {
	client := newClient(userID, userName, conn, h)

	select {
	case h.register <- client:
		go client.readMessages()
		go client.writeMessages()
		h.logger.Info("client registered",
			zap.String("client_id", client.id),
			zap.String("user_id", userID),
		)
		return client
	case <-time.After(registerTimeout):
		h.logger.Error("failed to register client: timeout",
			zap.String("client_id", client.id),
		)
		client.cancel()
		conn.Close()
		return nil
	}
}

func (c *Client) readMessages() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.logger.Error("failed to unregister client: timeout",
				zap.String("client_id", c.id),
			)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.logger.Info("client disconnected", zap.String("client_id", c.id))
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					c.logger.Warn("unexpected close",
						zap.String("client_id", c.id),
						zap.Error(err),
					)
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.logger.Info("client timed out, closing connection",
						zap.String("client_id", c.id),
					)
					return
				}

				c.logger.Warn("error reading from client",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
				return
			}

			// Non-blocking send into inbound processing queue to avoid
			// blocking the reader.
			select {
			case c.hub.inbound <- inboundMessage{client: c, event: ev}:
			case <-time.After(inboundSendTimeout):
				c.logger.Warn("inbound send timeout, dropping client",
					zap.String("client_id", c.id),
				)
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) writeMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			// Best-effort close frame; the peer may already be gone.
			if err := c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Debug("connection closed", zap.Error(err))
			}
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Warn("write error",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("ping error",
					zap.String("client_id", c.id),
					zap.Error(err),
				)
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// SafeSend attempts to enqueue an event on the client's egress buffer.
// Delivery is fire-and-forget: it returns false when the client is
// closed or the buffer stays full past the timeout, and the failure is
// never propagated to whoever triggered the event.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		// The egress channel is never closed: broadcasters may still be
		// between the closed check and their enqueue, and a send on a
		// closed channel would kill the process. cancel() stops the
		// pumps; events left in the buffer die with the client.
		c.cancel()

		// Wait for writeMessages to close conn, or force close after a
		// safety timeout.
		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				if c.conn != nil {
					_ = c.conn.Close()
				}
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// trackJoin records a joined room on the connection so disconnect can
// clean up memberships without a leave handshake.
func (c *Client) trackJoin(room string) {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	c.rooms[room] = struct{}{}
}

func (c *Client) trackLeave(room string) {
	c.roomsMu.Lock()
	defer c.roomsMu.Unlock()
	delete(c.rooms, room)
}

// joinedRooms returns a snapshot of the rooms this connection is in.
func (c *Client) joinedRooms() []string {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
