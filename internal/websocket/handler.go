package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection, queues the initial frame and pumps until
// the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID uuid.UUID, initial []byte) {
	client := NewClient(hub, c, sessionID)
	if len(initial) > 0 {
		client.Send <- initial
	}
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
