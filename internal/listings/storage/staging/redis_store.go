package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"golistingsync_api/internal/listings/business/models"
)

// RedisStore keeps staged records in redis under staging:<session>:<localID>
// keys, letting redis handle the TTL expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func stagingKey(session, localID string) string {
	return fmt.Sprintf("staging:%s:%s", session, localID)
}

func sessionPattern(session string) string {
	return fmt.Sprintf("staging:%s:*", session)
}

func (s *RedisStore) Put(ctx context.Context, session string, record models.CachedListingRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling staged record %s: %w", record.LocalID, err)
	}
	if err := s.client.Set(ctx, stagingKey(session, record.LocalID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("staging record %s: %w", record.LocalID, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, session string) ([]models.CachedListingRecord, error) {
	var records []models.CachedListingRecord
	iter := s.client.Scan(ctx, 0, sessionPattern(session), 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading staged record: %w", err)
		}
		var record models.CachedListingRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, fmt.Errorf("decoding staged record: %w", err)
		}
		records = append(records, record)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning staged records: %w", err)
	}
	return records, nil
}

func (s *RedisStore) Take(ctx context.Context, session, localID string) (*models.CachedListingRecord, error) {
	key := stagingKey(session, localID)
	payload, err := s.client.GetDel(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("taking staged record %s: %w", localID, err)
	}
	var record models.CachedListingRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decoding staged record %s: %w", localID, err)
	}
	return &record, nil
}

func (s *RedisStore) Discard(ctx context.Context, session string) error {
	iter := s.client.Scan(ctx, 0, sessionPattern(session), 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("discarding staged record: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning staged records: %w", err)
	}
	return nil
}
