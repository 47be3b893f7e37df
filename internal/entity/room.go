package entity

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	StatusWaiting   = "waiting"
	StatusOngoing   = "ongoing"
	StatusFinished  = "finished"
	StatusAbandoned = "abandoned"
)

const maxPlayers = 2

// Room is one game session between at most two connections.
//
// All mutating operations serialize on the room's own mutex, so two
// near-simultaneous moves can never both observe the same cell as empty.
// Every mutator returns a Snapshot taken after the mutation committed;
// callers broadcast from the snapshot, never from the live room.
type Room struct {
	id string

	mu      sync.Mutex
	players []string
	marks   map[string]Mark
	board   Board
	turn    Mark
	status  string
	winner  Mark
}

// Snapshot is an immutable copy of a room's state at one point in time.
type Snapshot struct {
	ID      string
	Players []string
	Marks   map[string]Mark
	Board   Board
	Turn    Mark
	Status  string
	Winner  Mark
}

func NewRoom(id string) *Room {
	return &Room{
		id:     id,
		marks:  make(map[string]Mark),
		turn:   MarkX,
		status: StatusWaiting,
	}
}

func (that *Room) ID() string {
	return that.id
}

// Join - adds a connection to the room. The first joiner is always X, the
// second is always O. When the second player arrives the board is reset and
// the game transitions to ongoing with X to move. Joining a room the
// connection is already in is a no-op.
func (that *Room) Join(connID string) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.marks[connID]; ok {
		return that.snapshot(), nil
	}

	if len(that.players) >= maxPlayers {
		return that.snapshot(), fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.id)
	}

	// take the mark the current member does not hold, so a player joining
	// an abandoned room never doubles up on the remaining player's mark
	mark := MarkX
	for _, held := range that.marks {
		mark = held.Other()
	}

	that.players = append(that.players, connID)
	that.marks[connID] = mark

	if len(that.players) == maxPlayers {
		that.board = Board{}
		that.turn = MarkX
		that.winner = EmptyCell
		that.status = StatusOngoing
	}

	return that.snapshot(), nil
}

// MakeTurn - validates and applies a move for the given connection.
// On failure the board and turn are left untouched.
func (that *Room) MakeTurn(connID string, cell int) (Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	mark, ok := that.marks[connID]
	if !ok {
		return that.snapshot(), apperror.ErrNotAMember
	}

	switch that.status {
	case StatusAbandoned:
		return that.snapshot(), apperror.ErrRoomAbandoned
	case StatusFinished:
		return that.snapshot(), apperror.ErrGameFinished
	}

	if cell < 0 || cell >= len(that.board) {
		return that.snapshot(), fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.turn != mark {
		return that.snapshot(), apperror.ErrNotYourTurn
	}

	if that.board[cell] != EmptyCell {
		return that.snapshot(), apperror.ErrCellOccupied
	}

	that.board[cell] = mark

	switch result := that.board.Evaluate(); result {
	case MarkX, MarkO:
		that.winner = result
		that.status = StatusFinished
	case MarkTie:
		that.winner = MarkTie
		that.status = StatusFinished
	default:
		that.turn = mark.Other()
	}

	return that.snapshot(), nil
}

// Restart - resets the board and gives the turn back to X, keeping mark
// assignments. Restarting a room that is not finished is allowed and simply
// resets it.
func (that *Room) Restart() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.board = Board{}
	that.turn = MarkX
	that.winner = EmptyCell

	if len(that.players) == maxPlayers {
		that.status = StatusOngoing
	}

	return that.snapshot()
}

// Leave - removes a connection from the room. A room that loses one of two
// joined players becomes abandoned and rejects further moves. The second
// return value reports whether the connection was actually a member.
func (that *Room) Leave(connID string) (Snapshot, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.marks[connID]; !ok {
		return that.snapshot(), false
	}

	delete(that.marks, connID)

	players := that.players[:0]
	for _, id := range that.players {
		if id != connID {
			players = append(players, id)
		}
	}
	that.players = players

	if len(that.players) == 1 && that.status != StatusWaiting {
		that.status = StatusAbandoned
	}

	return that.snapshot(), true
}

// Mark - returns the mark assigned to a connection, if any.
func (that *Room) Mark(connID string) (Mark, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	mark, ok := that.marks[connID]

	return mark, ok
}

// Snapshot - returns a copy of the current state.
func (that *Room) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

// snapshot - must be called with the mutex held.
func (that *Room) snapshot() Snapshot {
	players := make([]string, len(that.players))
	copy(players, that.players)

	marks := make(map[string]Mark, len(that.marks))
	for id, mark := range that.marks {
		marks[id] = mark
	}

	return Snapshot{
		ID:      that.id,
		Players: players,
		Marks:   marks,
		Board:   that.board,
		Turn:    that.turn,
		Status:  that.status,
		Winner:  that.winner,
	}
}

// IsFinished - reports whether the game reached a terminal result.
func (that Snapshot) IsFinished() bool {
	return that.Status == StatusFinished
}

// IsDraw - reports whether the finished game ended without a winner.
func (that Snapshot) IsDraw() bool {
	return that.Winner == MarkTie
}
