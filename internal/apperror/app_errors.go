package apperror

import "errors"

var (
	ErrRoomNotFound  = errors.New("room does not exist")
	ErrRoomFull      = errors.New("room is full")
	ErrNotAMember    = errors.New("you are not part of this room")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrGameFinished  = errors.New("game is already finished")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrRoomAbandoned = errors.New("opponent left the room")
)
