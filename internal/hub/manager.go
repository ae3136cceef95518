package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/MaryRatiary/back-rise/internal/event"
	"github.com/MaryRatiary/back-rise/internal/presence"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

// RoomTag builds the room name scoping broadcasts to one conversation.
func RoomTag(conversationID string) string {
	return "conversation-" + conversationID
}

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

type roomBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client // room -> clientID -> client
}

// Hub owns every live connection: it registers them with the presence
// registry, tracks room membership in sharded buckets and fans events
// out to rooms. Inbound commands are drained by a bounded worker pool
// so a slow persistence call never blocks a reader pump.
type Hub struct {
	shards     [shardCount]*roomBucket
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	presence   *presence.Registry
	commands   *CommandHandler
	logger     *zap.Logger
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewHub(registry *presence.Registry, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		presence:   registry,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &roomBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// SetCommandHandler attaches the command dispatcher. Must be called
// before the first connection is served.
func (h *Hub) SetCommandHandler(commands *CommandHandler) {
	h.commands = commands
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	if h.commands == nil {
		h.logger.Error("no command handler attached, dropping event",
			zap.String("event", ev.Event),
		)
		return
	}
	h.commands.Handle(ev, c)
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	if h.presence.Register(c) {
		// First connection of this user: exactly one online event for
		// everyone else.
		h.broadcastPresence(event.NewEvent(event.EventUserOnline, event.PresencePayload{UserID: c.userID}), c.userID)
	}
	h.logger.Info("client online",
		zap.String("client_id", c.id),
		zap.String("user_id", c.userID),
	)
}

func (h *Hub) removeClient(c *Client) {
	for _, room := range c.joinedRooms() {
		h.leaveRoom(c, room)
	}

	if h.presence.Unregister(c) {
		// Last connection gone: exactly one offline event.
		h.broadcastPresence(event.NewEvent(event.EventUserOffline, event.PresencePayload{UserID: c.userID}), c.userID)
	}

	c.Close()
	h.logger.Info("client removed",
		zap.String("client_id", c.id),
		zap.String("user_id", c.userID),
	)
}

func getShard(room string) uint32 {
	if room == "" {
		return 0
	}

	sum := sha1.Sum([]byte(room))
	return binary.BigEndian.Uint32(sum[:4]) % shardCount
}

func (h *Hub) joinRoom(c *Client, room string) {
	sh := getShard(room)
	b := h.shards[sh]
	b.Lock()
	members, ok := b.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		b.rooms[room] = members
	}
	members[c.id] = c
	b.Unlock()

	c.trackJoin(room)
	h.logger.Debug("client joined room",
		zap.String("client_id", c.id),
		zap.String("room", room),
		zap.Uint32("shard", sh),
	)
}

func (h *Hub) leaveRoom(c *Client, room string) {
	sh := getShard(room)
	b := h.shards[sh]
	b.Lock()
	if members, ok := b.rooms[room]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(b.rooms, room)
		}
	}
	b.Unlock()

	c.trackLeave(room)
	h.logger.Debug("client left room",
		zap.String("client_id", c.id),
		zap.String("room", room),
	)
}

// publishToRoom delivers an event to every member of a room, skipping
// except when non-nil. Delivery is at-most-once: members whose egress
// stays full are dropped (and kicked under the kickOnFull policy)
// without any effect on the triggering command.
func (h *Hub) publishToRoom(ev event.WsEvent, room string, except *Client) {
	sh := getShard(room)
	b := h.shards[sh]

	// collect clients while holding RLock
	b.RLock()
	members, ok := b.rooms[room]
	if !ok || len(members) == 0 {
		b.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(members))
	for _, c := range members {
		if except != nil && c.id == except.id {
			continue
		}
		clients = append(clients, c)
	}
	b.RUnlock()

	// deliver without holding the lock
	for _, c := range clients {
		if !c.SafeSend(ev, sendTimeout) {
			h.logger.Warn("egress full, dropping delivery",
				zap.String("client_id", c.id),
				zap.String("room", room),
			)
			if kickOnFull {
				select {
				case h.unregister <- c:
				default:
				}
			}
		}
	}
}

// broadcastPresence delivers a presence edge to every connection of
// every other user.
func (h *Hub) broadcastPresence(ev event.WsEvent, aboutUserID string) {
	for _, conn := range h.presence.ConnectionsExcept(aboutUserID) {
		if c, ok := conn.(*Client); ok {
			c.SafeSend(ev, sendTimeout)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	for _, conn := range h.presence.Connections() {
		if c, ok := conn.(*Client); ok {
			c.Close()
		}
	}

	// inbound stays open: reader pumps may still be enqueueing while
	// they wind down. Workers exit through the cancelled context and
	// whatever is still buffered is dropped.
	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	switch origin {
	case "", "http://localhost:4200":
		return true
	case "https://rise.mg":
		return true
	default:
		return false
	}
}

// ServeWS upgrades an already-authenticated request and registers the
// connection under the resolved identity.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID, userName string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, userName, conn, h)
}

// requestContext derives a bounded context for one command's
// persistence calls.
func (h *Hub) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(h.ctx, 10*time.Second)
}
