package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"aether-base-be/internal/dto"
	"aether-base-be/internal/entity"
	"aether-base-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

type Hub struct {
	// Registered clients: SessionID -> every socket open on that session.
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. Nil on a single instance.
	rdb *redis.Client
	// origin tags our own Redis frames so they are not delivered twice.
	origin string

	logger logger.ILogger
}

// clusterFrame is what travels over the Redis channel.
type clusterFrame struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Message         json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Register hands a client to the run loop. After shutdown the client's
// channel is closed straight away.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// remove drops the client and closes its channel exactly once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"session_id": client.SessionID})
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, id)
	}
}

// ClientCount reports how many sockets are open locally for a session.
func (h *Hub) ClientCount(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Send delivers an encoded frame to every socket of the session, here and on
// other instances.
func (h *Hub) Send(sessionID uuid.UUID, payload []byte) {
	h.deliverLocal(sessionID, payload)

	if h.rdb == nil {
		return
	}
	frame, err := h.encodeFrame(sessionID, payload)
	if err != nil {
		h.logger.Error("Hub", "Failed to encode cluster frame", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		return
	}
	if err := h.rdb.Publish(context.Background(), clusterChannel, frame).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// encodeFrame wraps a payload for the Redis channel. The payload must be
// valid JSON.
func (h *Hub) encodeFrame(sessionID uuid.UUID, payload []byte) ([]byte, error) {
	return json.Marshal(clusterFrame{
		Origin:          h.origin,
		TargetSessionID: sessionID.String(),
		Message:         payload,
	})
}

// Notify wraps a notification in the websocket envelope and sends it.
func (h *Hub) Notify(sessionID uuid.UUID, notification entity.Notification) {
	data, err := json.Marshal(dto.WsEnvelope{
		Type: dto.WsTypeNotification,
		Data: notification,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode notification", map[string]interface{}{"error": err.Error()})
		return
	}
	h.Send(sessionID, data)
}

func (h *Hub) deliverLocal(sessionID uuid.UUID, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_id": sessionID})
			// The run loop needs the write lock we hold.
			go h.Unregister(client)
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var frame clusterFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if frame.Origin == h.origin {
				continue
			}

			sessionID, err := uuid.Parse(frame.TargetSessionID)
			if err != nil {
				continue
			}
			h.deliverLocal(sessionID, frame.Message)
		}
	}
}
