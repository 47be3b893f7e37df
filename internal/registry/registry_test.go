package registry

import (
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateRoom(t *testing.T) {
	t.Run("Creates rooms with unique ids", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: creating a batch of rooms
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			room := reg.CreateRoom()
			require.NotEmpty(t, room.ID())
			assert.False(t, seen[room.ID()], "duplicate room id %s", room.ID())
			seen[room.ID()] = true
		}

		// Then: every room is retrievable
		assert.Equal(t, 100, reg.Len())
	})
}

func TestRegistry_Get(t *testing.T) {
	t.Run("Returns a created room", func(t *testing.T) {
		// Given: a registry with one room
		reg := New()
		room := reg.CreateRoom()

		// When: looking it up
		got, err := reg.Get(room.ID())

		// Then: the same room comes back
		require.NoError(t, err)
		assert.Same(t, room, got)
	})

	t.Run("Returns ErrRoomNotFound for an unknown id", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: looking up a missing id
		_, err := reg.Get("nope")

		// Then: the lookup fails with the typed error
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRegistry_Remove(t *testing.T) {
	t.Run("Removes a room and is idempotent", func(t *testing.T) {
		// Given: a registry with one room
		reg := New()
		room := reg.CreateRoom()

		// When: removing it twice
		reg.Remove(room.ID())
		reg.Remove(room.ID())

		// Then: the room is gone
		_, err := reg.Get(room.ID())
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Equal(t, 0, reg.Len())
	})
}

func TestRegistry_Concurrency(t *testing.T) {
	t.Run("Concurrent create, get and remove do not race", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: many goroutines create and immediately remove rooms while
		// others look them up
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					room := reg.CreateRoom()
					_, _ = reg.Get(room.ID())
					reg.Remove(room.ID())
				}
			}()
		}
		wg.Wait()

		// Then: no rooms are left behind
		assert.Equal(t, 0, reg.Len())
	})
}
