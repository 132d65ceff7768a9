package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexredboyPRO/Synkim/internal/config"
	"github.com/alexredboyPRO/Synkim/internal/domain"
)

// RedisRoomStore is a Redis-backed implementation of RoomStore.
// Suitable for deployments where room state must survive relay restarts.
// A room must still be pinned to a single relay instance; the store only
// shares state, not the serialization point.
type RedisRoomStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisRoomStore(cfg config.RedisConfig) (*RedisRoomStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRoomStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}, nil
}

func (s *RedisRoomStore) key(roomID string) string {
	return s.keyPrefix + roomID
}

func (s *RedisRoomStore) Save(ctx context.Context, state *domain.RoomState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal room state: %w", err)
	}

	if err := s.client.Set(ctx, s.key(state.RoomID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save room state to redis: %w", err)
	}
	return nil
}

func (s *RedisRoomStore) Get(ctx context.Context, roomID string) (*domain.RoomState, error) {
	data, err := s.client.Get(ctx, s.key(roomID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get room state from redis: %w", err)
	}

	var state domain.RoomState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room state: %w", err)
	}
	return &state, nil
}

func (s *RedisRoomStore) Delete(ctx context.Context, roomID string) error {
	if err := s.client.Del(ctx, s.key(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete room state from redis: %w", err)
	}
	return nil
}

func (s *RedisRoomStore) List(ctx context.Context) ([]*domain.RoomState, error) {
	keys, err := s.client.Keys(ctx, s.keyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list room keys: %w", err)
	}
	if len(keys) == 0 {
		return []*domain.RoomState{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get room states: %w", err)
	}

	result := make([]*domain.RoomState, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		str, ok := val.(string)
		if !ok {
			continue
		}
		var state domain.RoomState
		if err := json.Unmarshal([]byte(str), &state); err != nil {
			continue
		}
		result = append(result, &state)
	}
	return result, nil
}

// Close releases the underlying Redis connection.
func (s *RedisRoomStore) Close() error {
	return s.client.Close()
}

var _ RoomStore = (*RedisRoomStore)(nil)
