package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis — основной backend document store.
//
// Optimistic-транзакции ложатся на Redis напрямую: WATCH по ключу,
// чтения, затем MULTI/EXEC. Если ключ изменился между WATCH и EXEC,
// Redis отклоняет транзакцию (TxFailedErr) — это и есть conflict.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis создаёт клиента по URL из переменной окружения REDIS_URL.
func NewRedis(ctx context.Context) (*Redis, error) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", errors.Join(ErrUnavailable, err))
	}

	return &Redis{client: client}, nil
}

// NewRedisWithClient оборачивает готового клиента (standalone или cluster).
func NewRedisWithClient(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// GetJSON читает JSON-документ.
func (s *Redis) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, errors.Join(ErrUnavailable, err))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON пишет JSON-документ целиком.
func (s *Redis) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, errors.Join(ErrUnavailable, err))
	}
	return nil
}

// SetJSONNX пишет документ, только если ключа ещё нет.
func (s *Redis) SetJSONNX(ctx context.Context, key string, val any) (bool, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	created, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", key, errors.Join(ErrUnavailable, err))
	}
	return created, nil
}

// Incr атомарно увеличивает числовой ключ.
func (s *Redis) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	val, err := s.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("incrby %s: %w", key, errors.Join(ErrUnavailable, err))
	}
	return val, nil
}

// RunTransaction выполняет fn под WATCH по watchKey.
func (s *Redis) RunTransaction(ctx context.Context, watchKey string, fn func(tx Txn) error) (CommitResult, error) {
	var fnErr error

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		t := &redisTxn{ctx: ctx, tx: tx}

		if err := fn(t); err != nil {
			fnErr = err
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, w := range t.writes {
				if w.delete {
					pipe.Del(ctx, w.key)
					continue
				}
				pipe.Set(ctx, w.key, w.data, w.ttl)
			}
			return nil
		})
		return err
	}, watchKey)

	switch {
	case err == nil:
		return CommitResult{Committed: true}, nil
	case errors.Is(err, redis.TxFailedErr):
		return CommitResult{Conflict: true}, nil
	case fnErr != nil:
		return CommitResult{}, fnErr
	default:
		return CommitResult{}, fmt.Errorf("transaction %s: %w", watchKey, errors.Join(ErrUnavailable, err))
	}
}

// Ping проверяет доступность Redis.
func (s *Redis) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", errors.Join(ErrUnavailable, err))
	}
	return nil
}

// Close закрывает соединение.
func (s *Redis) Close() error {
	return s.client.Close()
}

// redisTxn — Txn поверх redis.Tx: чтения под WATCH, записи в буфер.
type redisTxn struct {
	ctx    context.Context
	tx     *redis.Tx
	writes []stagedWrite
}

func (t *redisTxn) Get(key string, dst any) (bool, error) {
	data, err := t.tx.Get(t.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, errors.Join(ErrUnavailable, err))
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (t *redisTxn) Stage(key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	t.writes = append(t.writes, stagedWrite{key: key, data: data, ttl: ttl})
	return nil
}

func (t *redisTxn) StageDelete(key string) {
	t.writes = append(t.writes, stagedWrite{key: key, delete: true})
}
