package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// Memory — in-memory fake document store для тестов.
//
// Реализует тот же контракт watch/commit: каждая запись увеличивает
// версию ключа, транзакция фиксируется только если версия watchKey
// не изменилась между стартом и commit'ом.
type Memory struct {
	mu   sync.Mutex
	docs map[string]memoryEntry

	// CommitHook вызывается после fn, но до commit'а транзакции.
	// Тесты используют его, чтобы детерминированно спровоцировать
	// конкурентную модификацию и получить conflict.
	CommitHook func()
}

type memoryEntry struct {
	data      []byte
	version   uint64
	expiresAt time.Time
}

// NewMemory создаёт пустой in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]memoryEntry)}
}

// get возвращает живую запись. Истёкшие по ttl ключи невидимы.
func (s *Memory) get(key string) (memoryEntry, bool) {
	e, ok := s.docs[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return memoryEntry{}, false
	}
	return e, true
}

// put пишет запись, увеличивая версию ключа.
func (s *Memory) put(key string, data []byte, ttl time.Duration) {
	prev := s.docs[key]
	e := memoryEntry{data: data, version: prev.version + 1}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.docs[key] = e
}

// GetJSON читает JSON-документ.
func (s *Memory) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	s.mu.Lock()
	e, ok := s.get(key)
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

// SetJSON пишет JSON-документ целиком.
func (s *Memory) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	s.mu.Lock()
	s.put(key, data, ttl)
	s.mu.Unlock()
	return nil
}

// SetJSONNX пишет документ, только если ключа ещё нет.
func (s *Memory) SetJSONNX(_ context.Context, key string, val any) (bool, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.get(key); exists {
		return false, nil
	}
	s.put(key, data, 0)
	return true, nil
}

// Incr атомарно увеличивает числовой ключ.
func (s *Memory) Incr(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if e, ok := s.get(key); ok {
		v, err := strconv.ParseInt(string(e.data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("incr %s: not a number", key)
		}
		current = v
	}

	current += delta
	s.put(key, []byte(strconv.FormatInt(current, 10)), 0)
	return current, nil
}

// RunTransaction выполняет fn с optimistic-проверкой версии watchKey.
func (s *Memory) RunTransaction(_ context.Context, watchKey string, fn func(tx Txn) error) (CommitResult, error) {
	s.mu.Lock()
	watched := s.docs[watchKey].version
	s.mu.Unlock()

	t := &memoryTxn{store: s}
	if err := fn(t); err != nil {
		return CommitResult{}, err
	}

	if s.CommitHook != nil {
		s.CommitHook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.docs[watchKey].version != watched {
		return CommitResult{Conflict: true}, nil
	}

	for _, w := range t.writes {
		if w.delete {
			delete(s.docs, w.key)
			continue
		}
		s.put(w.key, w.data, w.ttl)
	}
	return CommitResult{Committed: true}, nil
}

// Ping всегда успешен.
func (s *Memory) Ping(context.Context) error {
	return nil
}

// Close — no-op.
func (s *Memory) Close() error {
	return nil
}

// memoryTxn — Txn поверх Memory.
type memoryTxn struct {
	store  *Memory
	writes []stagedWrite
}

func (t *memoryTxn) Get(key string, dst any) (bool, error) {
	return t.store.GetJSON(context.Background(), key, dst)
}

func (t *memoryTxn) Stage(key string, val any, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	t.writes = append(t.writes, stagedWrite{key: key, data: data, ttl: ttl})
	return nil
}

func (t *memoryTxn) StageDelete(key string) {
	t.writes = append(t.writes, stagedWrite{key: key, delete: true})
}
