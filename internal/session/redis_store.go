package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vansh1925/NexPrep-v2/internal/models"
)

const (
	transcriptKeyPrefix = "nexprep:transcript:"
	sessionKeyPrefix    = "nexprep:session:"
	callKeyPrefix       = "nexprep:call:"
)

// RedisStore persists transcripts as Redis lists and session records as JSON strings,
// so a restart does not lose a live call.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func transcriptKey(interviewID string) string {
	return transcriptKeyPrefix + interviewID
}

func sessionKey(interviewID string) string {
	return sessionKeyPrefix + interviewID
}

func callKey(callID string) string {
	return callKeyPrefix + callID
}

func (rs *RedisStore) Append(ctx context.Context, interviewID string, entry models.TranscriptEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}

	key := transcriptKey(interviewID)
	pipe := rs.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, rs.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append transcript entry: %w", err)
	}
	return nil
}

func (rs *RedisStore) List(ctx context.Context, interviewID string) ([]models.TranscriptEntry, error) {
	raw, err := rs.rdb.LRange(ctx, transcriptKey(interviewID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	entries := make([]models.TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.TranscriptEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (rs *RedisStore) Delete(ctx context.Context, interviewID string) error {
	return rs.rdb.Del(ctx, transcriptKey(interviewID)).Err()
}

func (rs *RedisStore) SaveSession(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	pipe := rs.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(rec.InterviewID), data, rs.ttl)
	if rec.CallID != "" {
		pipe.Set(ctx, callKey(rec.CallID), rec.InterviewID, rs.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

func (rs *RedisStore) LoadSession(ctx context.Context, interviewID string) (*Record, error) {
	data, err := rs.rdb.Get(ctx, sessionKey(interviewID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session record: %w", err)
	}
	return &rec, nil
}

func (rs *RedisStore) InterviewForCall(ctx context.Context, callID string) (string, error) {
	id, err := rs.rdb.Get(ctx, callKey(callID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve call: %w", err)
	}
	return id, nil
}

func (rs *RedisStore) DeleteSession(ctx context.Context, rec Record) error {
	keys := []string{sessionKey(rec.InterviewID)}
	if rec.CallID != "" {
		keys = append(keys, callKey(rec.CallID))
	}
	return rs.rdb.Del(ctx, keys...).Err()
}
