package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/ragbot-core/server/internal/bot/model"
	errx "github.com/ragbot-core/server/internal/core/error"
	logx "github.com/ragbot-core/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisRepository persists conversation histories as Redis lists of
// JSON-encoded messages. RPUSH keeps insertion order and is atomic per key,
// so concurrent appenders for one session cannot lose updates.
type RedisRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisRepository(rdb redis.Cmdable, ttl time.Duration) *RedisRepository {
	return &RedisRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisRepository) sessionKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:messages", sessionID)
}

func (r *RedisRepository) AddMessages(ctx context.Context, sessionID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	vals := make([]any, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal message")
			return fmt.Errorf("marshal message: %w", err)
		}
		vals = append(vals, b)
	}
	key := r.sessionKey(sessionID)

	// single RPUSH keeps the batch contiguous in the list
	if err := r.rdb.RPush(ctx, key, vals...).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push messages to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on conversation key")
		}
	}
	return nil
}

func (r *RedisRepository) LoadHistory(ctx context.Context, sessionID string) (*model.ConversationHistory, error) {
	key := r.sessionKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return &model.ConversationHistory{SessionID: sessionID, Messages: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.ConversationHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *RedisRepository) ClearHistory(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisRepository) MessageCount(ctx context.Context, sessionID string) (int, error) {
	key := r.sessionKey(sessionID)
	n, err := r.rdb.LLen(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.HistoryRepository = (*RedisRepository)(nil)
