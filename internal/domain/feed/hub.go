package feed

import (
	"context"
	"encoding/json"
	"expvar"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/photostream/photostream-api/internal/domain/photo"
)

// Channel fans photo events out to every API instance.
const Channel = "photos:feed"

const sendBuffer = 256

var (
	feedConnectionsGauge   = expvar.NewInt("feed_connections")
	feedEventsSentTotal    = expvar.NewInt("feed_events_sent_total")
	feedEventsDroppedTotal = expvar.NewInt("feed_events_dropped_total")
)

// Connection is one live feed subscriber. A non-nil CreatorID limits the
// stream to that creator's photos.
type Connection struct {
	CreatorID uuid.UUID
	Conn      *websocket.Conn
	Send      chan []byte
}

// NewConnection wraps conn with a buffered send queue.
func NewConnection(conn *websocket.Conn, creatorID uuid.UUID) *Connection {
	return &Connection{CreatorID: creatorID, Conn: conn, Send: make(chan []byte, sendBuffer)}
}

func (c *Connection) wants(event *photo.Event) bool {
	return c.CreatorID == uuid.Nil || c.CreatorID == event.CreatorID
}

// Hub tracks local subscribers and relays events through Redis Pub/Sub so
// every instance sees photos created on any other.
type Hub struct {
	connections map[*Connection]bool

	redis  *redis.Client
	pubsub *redis.PubSub

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub creates a hub. Without Redis events only reach local subscribers.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
	}
	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, Channel)
	}
	return h
}

// Run processes registrations until Shutdown. Call it in a goroutine.
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			h.connections[conn] = true
			h.mu.Unlock()
			feedConnectionsGauge.Add(1)
			log.Debug().Str("creator_id", conn.CreatorID.String()).Msg("Feed subscriber connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				close(conn.Send)
				feedConnectionsGauge.Add(-1)
			}
			h.mu.Unlock()
			log.Debug().Msg("Feed subscriber disconnected")
		}
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event photo.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("Malformed feed event")
				continue
			}
			h.broadcastLocal(&event)
		}
	}
}

// PublishPhotoEvent sends event to subscribers on all instances. It falls
// back to local delivery when Redis is absent or the publish fails.
func (h *Hub) PublishPhotoEvent(ctx context.Context, event *photo.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal feed event")
		return
	}

	if h.redis == nil {
		h.broadcastLocal(event)
		return
	}
	if err := h.redis.Publish(ctx, Channel, data).Err(); err != nil {
		log.Error().Err(err).Str("channel", Channel).Msg("Redis publish failed")
		h.broadcastLocal(event)
	}
}

func (h *Hub) broadcastLocal(event *photo.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections {
		if !conn.wants(event) {
			continue
		}
		select {
		case conn.Send <- data:
			feedEventsSentTotal.Add(1)
		default:
			// Slow reader; drop rather than stall the hub
			feedEventsDroppedTotal.Add(1)
			log.Warn().Msg("Feed send buffer full")
		}
	}
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.ctx.Done():
		close(conn.Send)
	}
}

// Unregister removes a connection and closes its send queue.
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.ctx.Done():
	}
}

// ConnectionCount returns the number of local subscribers.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		delete(h.connections, conn)
		close(conn.Send)
		feedConnectionsGauge.Add(-1)
	}
}

// Shutdown stops the hub and closes every subscriber.
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		_ = h.pubsub.Close()
	}
}
