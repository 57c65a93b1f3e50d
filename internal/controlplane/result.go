package controlplane

import (
	"errors"

	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
)

// ErrKind — вид ошибки протокола.
//
// Каждая операция возвращает не более одного вида ошибки вместе со
// снимком текущего документа, чтобы вызывающий видел причину без
// второго похода в store. Только conflict означает "повтори операцию
// целиком"; остальные виды терминальны для данной попытки.
type ErrKind string

const (
	// KindInvalidDefinition — некорректный граф workflow
	// (или workflow не создан в store).
	KindInvalidDefinition ErrKind = "invalid_definition"

	// KindNotReady — upstream-зависимости не выполнены.
	KindNotReady ErrKind = "not_ready"

	// KindOwnerMismatch — state назначен другому воркеру либо
	// lease принадлежит другому владельцу.
	KindOwnerMismatch ErrKind = "owner_mismatch"

	// KindLeaseHeld — действующий lease другого владельца.
	KindLeaseHeld ErrKind = "lease_held"

	// KindLeaseExpired — lease истёк (при renew с reject_if_expired).
	KindLeaseExpired ErrKind = "lease_expired"

	// KindLeaseMismatch — переданный токен не совпадает с хранимым.
	KindLeaseMismatch ErrKind = "lease_mismatch"

	// KindNoLease — на state нет lease, а операция его требует.
	KindNoLease ErrKind = "no_lease"

	// KindConflict — optimistic-транзакция прервана конкурентной
	// модификацией. Всегда retryable.
	KindConflict ErrKind = "conflict"

	// KindInvalidStatus — нераспознанное значение статуса.
	KindInvalidStatus ErrKind = "invalid_status"

	// KindStoreUnavailable — транспортная ошибка доступа к store.
	KindStoreUnavailable ErrKind = "store_unavailable"
)

// Retryable возвращает true, если операцию имеет смысл повторить
// без изменения условий.
func (k ErrKind) Retryable() bool {
	return k == KindConflict
}

// kindFromStoreErr переводит транспортную ошибку store в вид протокола.
// Для прочих ошибок (marshal и т.п.) вид не назначается.
func kindFromStoreErr(err error) ErrKind {
	if errors.Is(err, store.ErrUnavailable) {
		return KindStoreUnavailable
	}
	return ""
}

// CreateResult — результат создания workflow.
type CreateResult struct {
	// Created — ключи, записанные этим вызовом.
	Created []string

	// Existing — ключи, которые уже существовали. Для хореографии
	// это успех: несколько воркеров могут наперегонки создавать
	// один workflow.
	Existing []string

	// Meta — meta-документ workflow (созданный или прочитанный).
	Meta *domain.Meta
}

// AcquireResult — результат попытки захвата lease.
type AcquireResult struct {
	// Acquired — lease захвачен этим вызовом.
	Acquired bool

	// AlreadyHeld — lease уже принадлежал этому владельцу,
	// мутации не было (идемпотентный повторный вход).
	AlreadyHeld bool

	// Stolen — захвачен истёкший lease другого владельца.
	Stolen bool

	// Token — токен действующего lease (нового или существующего).
	Token string

	// Kind — вид ошибки. Пуст при успехе.
	Kind ErrKind

	// State — снимок документа state на момент операции.
	State *domain.StateDoc
}

// OK возвращает true, если владение получено или подтверждено.
func (r *AcquireResult) OK() bool {
	return r.Acquired || r.AlreadyHeld
}

// RenewResult — результат продления lease.
type RenewResult struct {
	// Renewed — timestamp lease обновлён.
	Renewed bool

	// Kind — вид ошибки. Пуст при успехе.
	Kind ErrKind

	// State — снимок документа state на момент операции.
	State *domain.StateDoc
}

// UpdateResult — результат перехода статуса.
type UpdateResult struct {
	// Updated — документ зафиксирован.
	Updated bool

	// Kind — вид ошибки. Пуст при успехе.
	Kind ErrKind

	// State — снимок документа state после применения изменений
	// (или текущий, если операция отклонена).
	State *domain.StateDoc
}

// ReadyResult — результат проверки готовности.
type ReadyResult struct {
	// Ready — state готов.
	Ready bool

	// Unmet — upstream states, которые ещё не завершились.
	Unmet []string

	// Kind — вид ошибки. Пуст при успехе.
	Kind ErrKind
}
