package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatewayCall struct {
	Op     string
	ConnID string
	RoomID string
	Cell   int
}

type stubGateway struct {
	mu      sync.Mutex
	calls   []gatewayCall
	joinErr error
}

func (that *stubGateway) record(call gatewayCall) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.calls = append(that.calls, call)
}

func (that *stubGateway) callsByOp(op string) []gatewayCall {
	that.mu.Lock()
	defer that.mu.Unlock()

	var matched []gatewayCall
	for _, call := range that.calls {
		if call.Op == op {
			matched = append(matched, call)
		}
	}

	return matched
}

func (that *stubGateway) CreateRoom(_ context.Context, connID string) (string, error) {
	that.record(gatewayCall{Op: "create", ConnID: connID})
	return "room-1", nil
}

func (that *stubGateway) JoinRoom(_ context.Context, connID, roomID string) error {
	that.record(gatewayCall{Op: "join", ConnID: connID, RoomID: roomID})
	return that.joinErr
}

func (that *stubGateway) MakeMove(_ context.Context, connID, roomID string, cell int) error {
	that.record(gatewayCall{Op: "move", ConnID: connID, RoomID: roomID, Cell: cell})
	return nil
}

func (that *stubGateway) RestartGame(_ context.Context, roomID string) {
	that.record(gatewayCall{Op: "restart", RoomID: roomID})
}

func (that *stubGateway) Disconnect(_ context.Context, connID string) {
	that.record(gatewayCall{Op: "disconnect", ConnID: connID})
}

func newTestServer(t *testing.T, stub *stubGateway) *websocket.Conn {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := New(logger, NewHub(), stub)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		server.serveConnection(r.Context(), w, r)
	}))
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func waitForCalls(t *testing.T, stub *stubGateway, op string, want int) []gatewayCall {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if calls := stub.callsByOp(op); len(calls) >= want {
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("expected %d %q calls, got %d", want, op, len(stub.callsByOp(op)))

	return nil
}

func TestServer_Dispatch(t *testing.T) {
	t.Run("createRoom reaches the gateway with the connection id", func(t *testing.T) {
		// Given: a connected client
		stub := &stubGateway{}
		conn := newTestServer(t, stub)

		// When: sending a createRoom message
		require.NoError(t, conn.WriteJSON(Message{Action: "createRoom"}))

		// Then: the gateway is invoked for this connection
		calls := waitForCalls(t, stub, "create", 1)
		assert.NotEmpty(t, calls[0].ConnID)
	})

	t.Run("joinRoom is acked with ok true on success", func(t *testing.T) {
		// Given: a connected client
		stub := &stubGateway{}
		conn := newTestServer(t, stub)

		// When: joining a room
		payload, err := json.Marshal(JoinRoomPayload{RoomID: "r1"})
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(Message{Action: "joinRoom", Payload: payload}))

		// Then: the direct ack confirms the join
		msg := readMessage(t, conn)
		assert.Equal(t, "joinRoom", msg.Action)
		assert.JSONEq(t, `{"ok":true,"roomId":"r1"}`, string(msg.Payload))

		calls := waitForCalls(t, stub, "join", 1)
		assert.Equal(t, "r1", calls[0].RoomID)
	})

	t.Run("joinRoom is acked with ok false on failure", func(t *testing.T) {
		// Given: a gateway that rejects joins
		stub := &stubGateway{joinErr: apperror.ErrRoomFull}
		conn := newTestServer(t, stub)

		// When: joining a room
		payload, err := json.Marshal(JoinRoomPayload{RoomID: "r1"})
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(Message{Action: "joinRoom", Payload: payload}))

		// Then: the ack carries the error
		msg := readMessage(t, conn)
		assert.Equal(t, "joinRoom", msg.Action)
		assert.JSONEq(t, `{"ok":false,"error":"room is full"}`, string(msg.Payload))
	})

	t.Run("makeMove carries the room id and cell index", func(t *testing.T) {
		// Given: a connected client
		stub := &stubGateway{}
		conn := newTestServer(t, stub)

		// When: playing cell 4
		payload, err := json.Marshal(MakeMovePayload{RoomID: "r1", Index: 4})
		require.NoError(t, err)
		require.NoError(t, conn.WriteJSON(Message{Action: "makeMove", Payload: payload}))

		// Then: the gateway receives the move
		calls := waitForCalls(t, stub, "move", 1)
		assert.Equal(t, "r1", calls[0].RoomID)
		assert.Equal(t, 4, calls[0].Cell)
	})

	t.Run("unknown action produces an errorMessage", func(t *testing.T) {
		// Given: a connected client
		stub := &stubGateway{}
		conn := newTestServer(t, stub)

		// When: sending an unsupported action
		require.NoError(t, conn.WriteJSON(Message{Action: "teleport"}))

		// Then: the client is told, the connection stays open
		msg := readMessage(t, conn)
		assert.Equal(t, "errorMessage", msg.Action)
		assert.Contains(t, string(msg.Payload), "unknown action")
	})

	t.Run("closing the connection triggers a gateway disconnect", func(t *testing.T) {
		// Given: a connected client
		stub := &stubGateway{}
		conn := newTestServer(t, stub)

		// When: the client goes away
		require.NoError(t, conn.Close())

		// Then: the gateway is told to clean up
		calls := waitForCalls(t, stub, "disconnect", 1)
		assert.NotEmpty(t, calls[0].ConnID)
	})
}

func TestHub_Send(t *testing.T) {
	t.Run("Sending to an unknown connection fails", func(t *testing.T) {
		// Given: an empty hub
		hub := NewHub()

		// When: sending to a connection that never registered
		err := hub.Send("ghost", "updateBoard", nil)

		// Then: the typed error comes back
		assert.ErrorIs(t, err, ErrConnectionNotFound)
	})
}
