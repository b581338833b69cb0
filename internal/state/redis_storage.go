package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern  = "session:state:%d:%d"
	sessionScanPattern = "session:state:*"
	scanBatchCount     = 100
)

// RedisStorage persists sessions in Redis, letting key TTL handle expiry.
type RedisStorage struct {
	client redis.UniversalClient
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStorage initializes a Redis-backed Storage implementation.
func NewRedisStorage(client redis.UniversalClient, log *slog.Logger, ttl time.Duration) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

func (s *RedisStorage) GetState(ctx context.Context, id SessionID) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to get state from redis", "session", id.String(), "error", err)
		return nil, err
	}

	return s.decode(id, data)
}

func (s *RedisStorage) SetState(ctx context.Context, id SessionID, session *Session) error {
	stored := *session
	stored.ID = id
	stored.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(stored)
	if err != nil {
		s.log.Error("failed to encode session", "session", id.String(), "error", err)
		return err
	}

	if err := s.client.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save state in redis", "session", id.String(), "error", err)
		return err
	}

	return nil
}

func (s *RedisStorage) TakeState(ctx context.Context, id SessionID) (*Session, error) {
	data, err := s.client.GetDel(ctx, sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Error("failed to take state from redis", "session", id.String(), "error", err)
		return nil, err
	}

	return s.decode(id, data)
}

func (s *RedisStorage) ClearState(ctx context.Context, id SessionID) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		s.log.Error("failed to clear session state", "session", id.String(), "error", err)
		return err
	}

	return nil
}

// GetAllStates retrieves every stored session by scanning Redis keys.
func (s *RedisStorage) GetAllStates(ctx context.Context) ([]*Session, error) {
	var (
		cursor uint64
		result []*Session
	)

	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, sessionScanPattern, scanBatchCount).Result()
		if err != nil {
			s.log.Error("failed to scan session states", "error", err)
			return nil, err
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				s.log.Error("failed to fetch session state", "key", key, "error", err)
				return nil, err
			}

			var session Session
			if err := json.Unmarshal([]byte(data), &session); err != nil {
				s.log.Error("failed to decode session state", "key", key, "error", err)
				continue
			}

			result = append(result, &session)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return result, nil
}

func (s *RedisStorage) decode(id SessionID, data string) (*Session, error) {
	var session Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		s.log.Error("failed to decode session state", "session", id.String(), "error", err)
		return nil, err
	}

	return &session, nil
}

func sessionKey(id SessionID) string {
	return fmt.Sprintf(sessionKeyPattern, id.ChatID, id.UserID)
}
