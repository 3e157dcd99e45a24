package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"chodewars-server/internal/entity"
	apperrors "chodewars-server/internal/shared/errors"

	"github.com/redis/go-redis/v9"
)

const redisScanBatch = 100

// RedisStore keeps each record as a string key and tracks ids in a set.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisStore(client *redis.Client, prefix string, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "store", "backend", "redis", "prefix", prefix),
	}
}

func (s *RedisStore) entityKey(id string) string {
	return fmt.Sprintf("%s:entity:%s", s.prefix, id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":entities"
}

func (s *RedisStore) markerKey() string {
	return s.prefix + ":initialized"
}

func (s *RedisStore) Exists(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, s.markerKey()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check store marker: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Initialize(ctx context.Context) error {
	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.Set(ctx, s.markerKey(), "1", 0).Err(); err != nil {
			return apperrors.WrapWriteFailure("failed to initialize store", err)
		}
		return nil
	}

	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to count entities: %w", err)
	}
	if n == 0 {
		return s.Reset(ctx)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context) error {
	s.logger.Info("Resetting store", "operation", "reset")

	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Del(ctx, s.entityKey(id))
		}
		pipe.Del(ctx, s.indexKey())
		pipe.Set(ctx, s.markerKey(), "1", 0)
		return nil
	})
	if err != nil {
		return apperrors.WrapWriteFailure("failed to reset store", err)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	data, err := entity.Encode(e)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.entityKey(e.ID), data, 0)
		pipe.SAdd(ctx, s.indexKey(), e.ID)
		return nil
	})
	if err != nil {
		return nil, apperrors.WrapWriteFailure(fmt.Sprintf("failed to save %s", e.ID), err)
	}
	return e, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*entity.Entity, error) {
	if id == "" {
		return nil, nil
	}

	data, err := s.client.Get(ctx, s.entityKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", id, err)
	}

	return decodeRecord(s.logger, id, data), nil
}

func (s *RedisStore) LoadByName(ctx context.Context, name string) (*entity.Entity, error) {
	return findByName(ctx, s, name)
}

// Scan visits records in id order, fetching them in batches.
func (s *RedisStore) Scan(ctx context.Context, fn func(*entity.Entity) error) error {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}
	sort.Strings(ids)

	for start := 0; start < len(ids); start += redisScanBatch {
		end := min(start+redisScanBatch, len(ids))
		batch := ids[start:end]

		keys := make([]string, len(batch))
		for i, id := range batch {
			keys[i] = s.entityKey(id)
		}

		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("failed to fetch entities: %w", err)
		}

		for i, value := range values {
			data, ok := value.(string)
			if !ok {
				s.logger.Warn("Indexed entity has no record", "id", batch[i])
				continue
			}
			e := decodeRecord(s.logger, batch[i], []byte(data))
			if e == nil {
				continue
			}
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
