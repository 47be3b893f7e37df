package websocket

import "encoding/json"

// Message is the envelope for every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
}

type MakeMovePayload struct {
	RoomID string `json:"roomId"`
	Index  int    `json:"index"`
}

type RestartGamePayload struct {
	RoomID string `json:"roomId"`
}
