package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
)

// Sender delivers one event to one connection. Implemented by the websocket
// connection hub.
type Sender interface {
	Send(connID, action string, payload any) error
}

type resultArchive interface {
	Save(ctx context.Context, record *repository.GameRecord) error
}

// membership is what the gateway remembers about a live connection: which
// room it is in and which mark it holds there.
type membership struct {
	RoomID string
	Mark   entity.Mark
}

// Gateway translates client intents into registry and room operations and
// broadcasts the resulting state. It holds no authoritative game state; the
// connection index only exists so a disconnect can find its room without
// scanning the registry.
type Gateway struct {
	logger  *slog.Logger
	rooms   *registry.Registry
	sender  Sender
	archive resultArchive

	mu          sync.RWMutex
	memberships map[string]membership
}

func New(logger *slog.Logger, rooms *registry.Registry, sender Sender, archive resultArchive) *Gateway {
	return &Gateway{
		logger:      logger,
		rooms:       rooms,
		sender:      sender,
		archive:     archive,
		memberships: make(map[string]membership),
	}
}

// CreateRoom - creates a room with the caller as its first player (always X)
// and tells the caller the room id and its symbol.
func (that *Gateway) CreateRoom(ctx context.Context, connID string) (string, error) {
	log := that.logger.With("method", "CreateRoom", "connID", connID)

	room := that.rooms.CreateRoom()

	snap, err := room.Join(connID)
	if err != nil {
		// can't happen on a fresh room, but don't leave garbage behind
		that.rooms.Remove(room.ID())
		that.sendError(connID, err)

		return "", err
	}

	// only now detach from the previous room: the caller must never lose its
	// old room unless the new one actually admitted it
	that.leaveCurrentRoom(ctx, connID)
	that.setMembership(connID, room.ID(), snap.Marks[connID])

	that.send(connID, EventRoomCreated, RoomCreatedPayload{
		RoomID: room.ID(),
		Symbol: snap.Marks[connID],
	})

	log.Info("room created", "roomID", room.ID())

	return room.ID(), nil
}

// JoinRoom - admits the caller into an existing room as the second player.
// On success every member learns its symbol and the room receives the start
// state. The returned error doubles as the join acknowledgment for the
// transport.
func (that *Gateway) JoinRoom(ctx context.Context, connID, roomID string) error {
	log := that.logger.With("method", "JoinRoom", "connID", connID, "roomID", roomID)

	room, err := that.rooms.Get(roomID)
	if err != nil {
		that.sendError(connID, err)
		return err
	}

	if current, _, ok := that.Membership(connID); ok && current == roomID {
		log.Info("player already in room")
		return nil
	}

	snap, err := room.Join(connID)
	if err != nil {
		that.sendError(connID, err)
		return err
	}

	// only now detach from the previous room: a rejected join must leave the
	// caller's current room untouched
	that.leaveCurrentRoom(ctx, connID)
	that.setMembership(connID, roomID, snap.Marks[connID])

	for _, playerID := range snap.Players {
		that.send(playerID, EventYourSymbol, YourSymbolPayload{Symbol: snap.Marks[playerID]})
	}

	that.broadcast(snap.Players, EventGameStarted, GameStatePayload{
		Board:       snap.Board,
		CurrentTurn: snap.Turn,
	})

	log.Info("player joined room")

	return nil
}

// MakeMove - applies a move and broadcasts either the updated state or the
// terminal result. Failures are reported to the caller only; the rest of the
// room never hears about a rejected move.
func (that *Gateway) MakeMove(ctx context.Context, connID, roomID string, cell int) error {
	log := that.logger.With("method", "MakeMove", "connID", connID, "roomID", roomID)

	room, err := that.rooms.Get(roomID)
	if err != nil {
		that.sendError(connID, err)
		return err
	}

	snap, err := room.MakeTurn(connID, cell)
	if err != nil {
		that.sendError(connID, err)
		return err
	}

	if !snap.IsFinished() {
		that.broadcast(snap.Players, EventUpdateBoard, GameStatePayload{
			Board:       snap.Board,
			CurrentTurn: snap.Turn,
		})

		return nil
	}

	payload := GameOverPayload{Result: ResultWin, Winner: snap.Winner, Board: snap.Board}
	if snap.IsDraw() {
		payload = GameOverPayload{Result: ResultDraw, Board: snap.Board}
	}

	that.broadcast(snap.Players, EventGameOver, payload)
	that.archiveResult(ctx, snap)

	log.Info("game finished", "result", payload.Result, "winner", payload.Winner)

	return nil
}

// RestartGame - resets the room's board and turn. A restart for an unknown
// room is silently ignored.
func (that *Gateway) RestartGame(_ context.Context, roomID string) {
	room, err := that.rooms.Get(roomID)
	if err != nil {
		return
	}

	snap := room.Restart()

	that.broadcast(snap.Players, EventGameRestarted, GameStatePayload{
		Board:       snap.Board,
		CurrentTurn: snap.Turn,
	})
}

// Disconnect - removes the connection from whatever room it occupied. The
// remaining player is told the opponent left; an emptied room is deleted
// from the registry.
func (that *Gateway) Disconnect(ctx context.Context, connID string) {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	if !that.leaveCurrentRoom(ctx, connID) {
		return
	}

	log.Info("player disconnected from room")
}

// leaveCurrentRoom - detaches the connection from its current room, if any,
// and reports whether it was a member anywhere.
func (that *Gateway) leaveCurrentRoom(_ context.Context, connID string) bool {
	that.mu.Lock()
	member, ok := that.memberships[connID]
	delete(that.memberships, connID)
	that.mu.Unlock()

	if !ok {
		return false
	}

	room, err := that.rooms.Get(member.RoomID)
	if err != nil {
		return true
	}

	snap, removed := room.Leave(connID)
	if !removed {
		return true
	}

	if len(snap.Players) == 0 {
		that.rooms.Remove(member.RoomID)
		return true
	}

	that.broadcast(snap.Players, EventOpponentLeft, OpponentLeftPayload{
		Message: "Opponent disconnected.",
	})

	return true
}

func (that *Gateway) archiveResult(ctx context.Context, snap entity.Snapshot) {
	if that.archive == nil {
		return
	}

	record := &repository.GameRecord{
		RoomID:     snap.ID,
		Result:     ResultWin,
		Board:      snap.Board,
		FinishedAt: time.Now().UTC(),
	}

	if snap.IsDraw() {
		record.Result = ResultDraw
	} else {
		record.Winner = snap.Winner
	}

	// best effort: a failed archive write must never reach the players
	if err := that.archive.Save(ctx, record); err != nil {
		that.logger.Error("failed to archive finished game", "roomID", snap.ID, "error", err)
	}
}

func (that *Gateway) setMembership(connID, roomID string, mark entity.Mark) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.memberships[connID] = membership{RoomID: roomID, Mark: mark}
}

// Membership - returns the room and mark currently held by a connection.
func (that *Gateway) Membership(connID string) (roomID string, mark entity.Mark, ok bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	member, ok := that.memberships[connID]

	return member.RoomID, member.Mark, ok
}

func (that *Gateway) send(connID, action string, payload any) {
	if err := that.sender.Send(connID, action, payload); err != nil {
		that.logger.Error("failed to send event", "connID", connID, "action", action, "error", err)
	}
}

func (that *Gateway) broadcast(players []string, action string, payload any) {
	for _, playerID := range players {
		that.send(playerID, action, payload)
	}
}

func (that *Gateway) sendError(connID string, err error) {
	that.send(connID, EventErrorMessage, ErrorMessagePayload{Message: err.Error()})
}
