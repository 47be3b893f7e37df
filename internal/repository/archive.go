package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var ErrRecordNotFound = errors.New("game record not found")

// GameRecord is the archived result of one finished game. Live room state is
// never persisted; only terminal outcomes are written.
type GameRecord struct {
	RoomID     string       `json:"room_id"`
	Result     string       `json:"result"`
	Winner     entity.Mark  `json:"winner,omitempty"`
	Board      entity.Board `json:"board"`
	FinishedAt time.Time    `json:"finished_at"`
}

type ArchiveRepository interface {
	Save(ctx context.Context, record *GameRecord) error
	GetByRoomID(ctx context.Context, roomID string) (*GameRecord, error)
}

type dbArchive struct {
	client *redis.Client
}

func NewArchiveRepository(client *redis.Client) ArchiveRepository {
	return &dbArchive{
		client: client,
	}
}

func (that *dbArchive) Save(ctx context.Context, record *GameRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal game record: %w", err)
	}

	recordKey := "archive:game:" + record.RoomID
	if err = that.client.Set(ctx, recordKey, recordJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set game record: %w", err)
	}

	return nil
}

func (that *dbArchive) GetByRoomID(ctx context.Context, roomID string) (*GameRecord, error) {
	recordKey := "archive:game:" + roomID

	response, err := that.client.Get(ctx, recordKey).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrRecordNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game record: %w", err)
	}

	var record GameRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game record: %w", err)
	}

	return &record, nil
}
