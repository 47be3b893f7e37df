package registry

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

// Registry owns every live room, keyed by room id. It is safe for use from
// concurrently running connection handlers; per-room mutation is serialized
// by the rooms themselves.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*entity.Room
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*entity.Room),
	}
}

// CreateRoom - inserts a new empty room under a freshly generated id and
// returns it. The id is re-rolled on the off chance it collides with a live
// room.
func (that *Registry) CreateRoom() *entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	id := pkg.GenerateRoomID()
	for {
		if _, exists := that.rooms[id]; !exists {
			break
		}
		id = pkg.GenerateRoomID()
	}

	room := entity.NewRoom(id)
	that.rooms[id] = room

	return room
}

// Get - looks up a live room by id.
func (that *Registry) Get(id string) (*entity.Room, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	room, ok := that.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, id)
	}

	return room, nil
}

// Remove - deletes a room; removing an absent id is a no-op.
func (that *Registry) Remove(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.rooms, id)
}

// Len - returns the number of live rooms.
func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.rooms)
}
