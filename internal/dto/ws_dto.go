package dto

const (
	WsTypeSessionSnapshot = "session_snapshot"
	WsTypeNotification    = "notification"
)

// WsEnvelope is every frame sent over the websocket.
type WsEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
