package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/gateway"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

// Client-to-server action names.
const (
	actionCreateRoom  = "createRoom"
	actionJoinRoom    = "joinRoom"
	actionMakeMove    = "makeMove"
	actionRestartGame = "restartGame"
)

type roomGateway interface {
	CreateRoom(ctx context.Context, connID string) (string, error)
	JoinRoom(ctx context.Context, connID, roomID string) error
	MakeMove(ctx context.Context, connID, roomID string, cell int) error
	RestartGame(ctx context.Context, roomID string)
	Disconnect(ctx context.Context, connID string)
}

type Server struct {
	logger  *slog.Logger
	hub     *Hub
	gateway roomGateway

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, connID string, payload json.RawMessage) error
}

func New(logger *slog.Logger, hub *Hub, gw roomGateway) *Server {
	server := &Server{
		logger:  logger,
		hub:     hub,
		gateway: gw,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(context.Context, string, json.RawMessage) error),
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionRestartGame] = server.handleRestartGame

	return server
}

// Start - starts the WebSocket server and shuts it down when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades the request and pumps inbound messages until the
// client goes away. Disconnect cleanup runs no matter how the loop exits.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	connID := pkg.GenerateConnectionID()
	that.hub.Add(connID, ws)

	log = log.With("connID", connID)
	log.Info("connection established")

	defer func() {
		that.hub.Remove(connID)
		that.gateway.Disconnect(ctx, connID)

		if err = ws.Close(); err != nil {
			log.Error("failed to close connection", "error", err)
		}

		log.Info("connection closed")
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("unexpected close", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			that.sendError(connID, "invalid message")

			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			log.Error("unknown action", "action", msg.Action)
			that.sendError(connID, fmt.Sprintf("unknown action: %s", msg.Action))

			continue
		}

		if err = handler(ctx, connID, msg.Payload); err != nil {
			log.Error("failed to process message", "action", msg.Action, "error", err)
		}
	}
}

func (that *Server) handleCreateRoom(ctx context.Context, connID string, _ json.RawMessage) error {
	if _, err := that.gateway.CreateRoom(ctx, connID); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

// handleJoinRoom - joins a room and always replies with a direct ack; the
// gateway separately notifies the room on success and the caller on failure.
func (that *Server) handleJoinRoom(ctx context.Context, connID string, payload json.RawMessage) error {
	var req JoinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		that.sendError(connID, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	ack := gateway.JoinAck{OK: true, RoomID: req.RoomID}
	if err := that.gateway.JoinRoom(ctx, connID, req.RoomID); err != nil {
		ack = gateway.JoinAck{OK: false, Error: err.Error()}
	}

	if err := that.hub.Send(connID, actionJoinRoom, ack); err != nil {
		return fmt.Errorf("failed to send join ack: %w", err)
	}

	return nil
}

func (that *Server) handleMakeMove(ctx context.Context, connID string, payload json.RawMessage) error {
	var req MakeMovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		that.sendError(connID, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	// the gateway reports move failures to the caller itself
	_ = that.gateway.MakeMove(ctx, connID, req.RoomID, req.Index)

	return nil
}

func (that *Server) handleRestartGame(ctx context.Context, connID string, payload json.RawMessage) error {
	var req RestartGamePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		that.sendError(connID, "invalid payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	that.gateway.RestartGame(ctx, req.RoomID)

	return nil
}

func (that *Server) sendError(connID, message string) {
	err := that.hub.Send(connID, gateway.EventErrorMessage, gateway.ErrorMessagePayload{Message: message})
	if err != nil {
		that.logger.Error("failed to send error message", "connID", connID, "error", err)
	}
}
