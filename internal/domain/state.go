package domain

import "time"

// Lease — временное эксклюзивное право на выполнение state.
//
// Lease — не отдельная сущность, а запись внутри StateDoc: владение
// представлено парой token + owner_agent_id. Инвариант: непустой Token
// означает, что OwnerAgentID и TS тоже заполнены.
type Lease struct {
	// Token — уникальный токен lease (uuid).
	Token string `json:"token"`

	// OwnerAgentID — идентификатор воркера-владельца.
	OwnerAgentID string `json:"owner_agent_id"`

	// TS — время последнего подтверждения (acquire или renew).
	TS string `json:"ts"`

	// TTLSeconds — время жизни lease в секундах от TS.
	TTLSeconds int `json:"ttl_s"`
}

// ExpiresAt возвращает время истечения lease.
// Нулевое время — TS не парсится (повреждённый документ).
func (l *Lease) ExpiresAt() time.Time {
	ts, err := ParseTime(l.TS)
	if err != nil {
		return time.Time{}
	}
	return ts.Add(time.Duration(l.TTLSeconds) * time.Second)
}

// Expired возвращает true, если lease истёк на момент now.
// Lease с нечитаемым TS считается истёкшим: его можно перехватить.
func (l *Lease) Expired(now time.Time) bool {
	exp := l.ExpiresAt()
	if exp.IsZero() {
		return true
	}
	return now.After(exp)
}

// StateDoc — control-plane документ state (ключ cp:wf:{id}:state:{name}).
//
// Создаётся со статусом pending и без lease при создании workflow.
// Мутируется исключительно через Lease Manager и Transition Manager,
// всегда внутри optimistic-транзакции по своему ключу.
type StateDoc struct {
	// Status — каноничный статус.
	Status Status `json:"status"`

	// Attempts — число попыток выполнения. Только растёт в рамках run.
	Attempts int `json:"attempts"`

	// Lease — текущий lease. Nil — state никем не занят.
	Lease *Lease `json:"lease"`

	// StartedAt — время первого перехода в running.
	StartedAt string `json:"started_at,omitempty"`

	// FinishedAt — время перехода в терминальный статус.
	FinishedAt string `json:"finished_at,omitempty"`

	// LastError — текст последней ошибки выполнения.
	LastError string `json:"last_error,omitempty"`
}

// NewStateDoc возвращает документ для только что созданного state.
func NewStateDoc() *StateDoc {
	return &StateDoc{
		Status:   StatusPending,
		Attempts: 0,
		Lease:    nil,
	}
}

// HasLease возвращает true, если на state есть lease с токеном.
func (d *StateDoc) HasLease() bool {
	return d.Lease != nil && d.Lease.Token != ""
}

// Clone возвращает глубокую копию документа.
// Используется для snapshot в результатах операций.
func (d *StateDoc) Clone() *StateDoc {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Lease != nil {
		lease := *d.Lease
		cp.Lease = &lease
	}
	return &cp
}
