package gateway

import "github.com/rocketscienceinc/tictactoe-rooms/internal/entity"

// Server-to-client event names, matching the wire contract.
const (
	EventRoomCreated   = "roomCreated"
	EventYourSymbol    = "yourSymbol"
	EventGameStarted   = "gameStarted"
	EventUpdateBoard   = "updateBoard"
	EventGameOver      = "gameOver"
	EventGameRestarted = "gameRestarted"
	EventOpponentLeft  = "opponentLeft"
	EventErrorMessage  = "errorMessage"
)

const (
	ResultWin  = "win"
	ResultDraw = "draw"
)

type RoomCreatedPayload struct {
	RoomID string      `json:"roomId"`
	Symbol entity.Mark `json:"symbol"`
}

type YourSymbolPayload struct {
	Symbol entity.Mark `json:"symbol"`
}

// GameStatePayload carries the board and whose turn it is. It is shared by
// the gameStarted, updateBoard and gameRestarted events.
type GameStatePayload struct {
	Board       entity.Board `json:"board"`
	CurrentTurn entity.Mark  `json:"currentTurn"`
}

type GameOverPayload struct {
	Result string       `json:"result"`
	Winner entity.Mark  `json:"winner,omitempty"`
	Board  entity.Board `json:"board"`
}

type OpponentLeftPayload struct {
	Message string `json:"message"`
}

type ErrorMessagePayload struct {
	Message string `json:"message"`
}

// JoinAck is the direct reply to a joinRoom request.
type JoinAck struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId,omitempty"`
	Error  string `json:"error,omitempty"`
}
