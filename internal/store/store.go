package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable — транспортная ошибка доступа к store.
// На уровне протокола соответствует store_unavailable.
var ErrUnavailable = errors.New("document store unavailable")

// CommitResult — результат optimistic-транзакции.
type CommitResult struct {
	// Committed — транзакция зафиксирована.
	Committed bool

	// Conflict — ключ изменился между watch и commit.
	// Операцию нужно повторить целиком; это не ошибка транспорта.
	Conflict bool
}

// Txn — операции, доступные внутри optimistic-транзакции.
//
// Чтения выполняются сразу; записи накапливаются и фиксируются
// одним commit'ом. Ошибка из Stage (например, несериализуемый
// payload) прерывает транзакцию до любой мутации.
type Txn interface {
	// Get читает JSON-документ. Возвращает false, если ключа нет.
	Get(key string, dst any) (bool, error)

	// Stage ставит запись JSON-документа в очередь на commit.
	// ttl = 0 — без expiry.
	Stage(key string, val any, ttl time.Duration) error

	// StageDelete ставит удаление ключа в очередь на commit.
	StageDelete(key string)
}

// Client — контракт клиента document store.
//
// Store внедряется как зависимость во все компоненты control-plane,
// поэтому ядро тестируется против in-memory fake с тем же контрактом.
type Client interface {
	// GetJSON читает JSON-документ. Возвращает false, если ключа нет.
	GetJSON(ctx context.Context, key string, dst any) (bool, error)

	// SetJSON пишет JSON-документ целиком. ttl = 0 — без expiry.
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error

	// SetJSONNX пишет документ, только если ключа ещё нет.
	// Возвращает true, если запись произошла.
	SetJSONNX(ctx context.Context, key string, val any) (bool, error)

	// Incr атомарно увеличивает числовой ключ на delta.
	Incr(ctx context.Context, key string, delta int64) (int64, error)

	// RunTransaction выполняет fn внутри optimistic-транзакции
	// по ключу watchKey. Если watchKey изменился до commit'а,
	// возвращает CommitResult{Conflict: true} без ошибки.
	// Ошибка из fn прерывает транзакцию и пробрасывается наружу.
	RunTransaction(ctx context.Context, watchKey string, fn func(tx Txn) error) (CommitResult, error)

	// Ping проверяет доступность store.
	Ping(ctx context.Context) error

	// Close освобождает ресурсы клиента.
	Close() error
}

// stagedWrite — отложенная запись внутри транзакции.
type stagedWrite struct {
	key    string
	data   []byte
	ttl    time.Duration
	delete bool
}
