package controlplane

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
	"github.com/shaiso/Chorus/internal/telemetry"
)

// DefaultLeaseTTLSeconds — ttl lease по умолчанию.
const DefaultLeaseTTLSeconds = 60

// LeaseManager реализует протокол владения state.
//
// Модель кооперативная: нет внешнего fencing — упавший воркер просто
// перестаёт продлевать lease, и после истечения ttl его может
// перехватить любой другой. Optimistic-транзакция гарантирует, что
// два конкурентных перехвата не пройдут оба.
type LeaseManager struct {
	store  store.Client
	eval   *Evaluator
	logger *slog.Logger
	now    func() time.Time
}

// NewLeaseManager создаёт новый LeaseManager.
func NewLeaseManager(st store.Client, logger *slog.Logger) *LeaseManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaseManager{
		store:  st,
		eval:   NewEvaluator(st),
		logger: logger,
		now:    time.Now,
	}
}

// AcquireRequest — запрос на захват lease.
//
// Нулевое значение опций — полный протокол: проверка готовности и
// назначения, перехват истёкших lease, переход pending → running
// с attempts += 1.
type AcquireRequest struct {
	// WorkflowID — идентификатор workflow.
	WorkflowID string

	// State — имя state.
	State string

	// Owner — идентификатор воркера-претендента.
	Owner string

	// Token — токен lease. Пусто — сгенерировать новый.
	Token string

	// TTLSeconds — время жизни lease. 0 — DefaultLeaseTTLSeconds.
	TTLSeconds int

	// AttemptsDelta — на сколько увеличить attempts при переходе
	// в running. 0 — на единицу.
	AttemptsDelta int

	// SkipReadyCheck — не проверять готовность по upstream.
	SkipReadyCheck bool

	// SkipAssignmentCheck — не проверять назначение воркера.
	SkipAssignmentCheck bool

	// NoSteal — не перехватывать истёкшие lease.
	NoSteal bool

	// NoRunningTransition — не переводить pending → running.
	NoRunningTransition bool
}

// Acquire пытается захватить эксклюзивный lease на state.
//
// Протокол:
//  1. Готовность: каждый upstream в success-like статусе
//     (state без upstream готов всегда). Иначе not_ready.
//  2. Назначение: если в meta state закреплён за другим воркером —
//     owner_mismatch.
//  3. В транзакции по документу state:
//     нет токена → захват; тот же владелец → already_held без мутации;
//     чужой действующий lease → lease_held; чужой истёкший → перехват.
//  4. При захвате: новый lease, и если статус был pending —
//     переход в running, started_at, attempts += delta.
//  5. Конкурентная модификация → conflict, вызывающий повторяет сам.
func (m *LeaseManager) Acquire(ctx context.Context, req AcquireRequest) (*AcquireResult, error) {
	meta, kind, err := loadMeta(ctx, m.store, req.WorkflowID)
	if kind != "" || err != nil {
		return m.acquireDone(req, &AcquireResult{Kind: kind}), err
	}
	if !meta.HasState(req.State) {
		return m.acquireDone(req, &AcquireResult{Kind: KindInvalidDefinition}), nil
	}

	if !req.SkipAssignmentCheck {
		if assigned := meta.AssignedAgent(req.State); assigned != "" && assigned != req.Owner {
			return m.acquireDone(req, &AcquireResult{Kind: KindOwnerMismatch}), nil
		}
	}

	if !req.SkipReadyCheck {
		ready := m.eval.readyForLease(ctx, meta, req.WorkflowID, req.State)
		if !ready.Ready {
			return m.acquireDone(req, &AcquireResult{Kind: KindNotReady}), nil
		}
	}

	ttl := req.TTLSeconds
	if ttl <= 0 {
		ttl = DefaultLeaseTTLSeconds
	}
	delta := req.AttemptsDelta
	if delta == 0 {
		delta = 1
	}

	result := &AcquireResult{}
	stateKey := StateKey(req.WorkflowID, req.State)

	commit, err := m.store.RunTransaction(ctx, stateKey, func(tx store.Txn) error {
		var doc domain.StateDoc
		ok, err := tx.Get(stateKey, &doc)
		if err != nil {
			return err
		}
		if !ok {
			result.Kind = KindInvalidDefinition
			return nil
		}
		result.State = doc.Clone()

		if doc.HasLease() {
			lease := doc.Lease

			if lease.OwnerAgentID == req.Owner && (req.Token == "" || req.Token == lease.Token) {
				// Идемпотентный повторный вход: мутации нет.
				result.AlreadyHeld = true
				result.Token = lease.Token
				return nil
			}

			if !lease.Expired(m.now()) || req.NoSteal {
				result.Kind = KindLeaseHeld
				return nil
			}
			// Истёкший чужой lease: перехватываем.
			result.Stolen = true
		}

		token := req.Token
		if token == "" {
			token = uuid.NewString()
		}

		doc.Lease = &domain.Lease{
			Token:        token,
			OwnerAgentID: req.Owner,
			TS:           domain.Now(),
			TTLSeconds:   ttl,
		}

		if doc.Status == domain.StatusPending && !req.NoRunningTransition {
			doc.Status = domain.StatusRunning
			if doc.StartedAt == "" {
				doc.StartedAt = domain.Now()
			}
			doc.Attempts += delta
			if doc.Attempts < 0 {
				doc.Attempts = 0
			}
		}

		if err := tx.Stage(stateKey, &doc, 0); err != nil {
			return err
		}

		result.Acquired = true
		result.Token = token
		result.State = doc.Clone()
		return nil
	})

	if err != nil {
		result.Kind = kindFromStoreErr(err)
		return m.acquireDone(req, result), err
	}
	if commit.Conflict {
		// Никогда не перезаписываем молча: проигравший повторяет сам.
		return m.acquireDone(req, &AcquireResult{Kind: KindConflict, State: result.State}), nil
	}

	return m.acquireDone(req, result), nil
}

// acquireDone логирует исход и обновляет метрики.
func (m *LeaseManager) acquireDone(req AcquireRequest, result *AcquireResult) *AcquireResult {
	outcome := string(result.Kind)
	switch {
	case result.Acquired:
		outcome = "acquired"
	case result.AlreadyHeld:
		outcome = "already_held"
	}
	telemetry.LeaseAcquireTotal.WithLabelValues(outcome).Inc()
	if result.Acquired && result.Stolen {
		telemetry.LeaseStealTotal.Inc()
	}

	m.logger.Debug("lease acquire",
		"workflow_id", req.WorkflowID,
		"state", req.State,
		"owner", req.Owner,
		"outcome", outcome,
	)
	return result
}

// RenewRequest — запрос на продление lease.
type RenewRequest struct {
	// WorkflowID — идентификатор workflow.
	WorkflowID string

	// State — имя state.
	State string

	// Token — токен действующего lease. Обязателен.
	Token string

	// Owner — владелец. Если задан, должен совпасть с хранимым.
	Owner string

	// TTLSeconds — новый ttl. 0 — оставить прежний.
	TTLSeconds int

	// RejectIfExpired — отказать, если lease уже истёк.
	RejectIfExpired bool

	// TouchOnly — обновить только timestamp, ttl не трогать.
	TouchOnly bool
}

// Renew атомарно продлевает lease: timestamp обновляется всегда,
// ttl — если передан и не TouchOnly.
func (m *LeaseManager) Renew(ctx context.Context, req RenewRequest) (*RenewResult, error) {
	result := &RenewResult{}
	stateKey := StateKey(req.WorkflowID, req.State)

	commit, err := m.store.RunTransaction(ctx, stateKey, func(tx store.Txn) error {
		var doc domain.StateDoc
		ok, err := tx.Get(stateKey, &doc)
		if err != nil {
			return err
		}
		if !ok {
			result.Kind = KindInvalidDefinition
			return nil
		}
		result.State = doc.Clone()

		if !doc.HasLease() {
			result.Kind = KindNoLease
			return nil
		}
		if doc.Lease.Token != req.Token {
			result.Kind = KindLeaseMismatch
			return nil
		}
		if req.Owner != "" && doc.Lease.OwnerAgentID != req.Owner {
			result.Kind = KindOwnerMismatch
			return nil
		}
		if req.RejectIfExpired && doc.Lease.Expired(m.now()) {
			result.Kind = KindLeaseExpired
			return nil
		}

		doc.Lease.TS = domain.Now()
		if req.TTLSeconds > 0 && !req.TouchOnly {
			doc.Lease.TTLSeconds = req.TTLSeconds
		}

		if err := tx.Stage(stateKey, &doc, 0); err != nil {
			return err
		}

		result.Renewed = true
		result.State = doc.Clone()
		return nil
	})

	if err != nil {
		result.Kind = kindFromStoreErr(err)
		return result, err
	}
	if commit.Conflict {
		return &RenewResult{Kind: KindConflict, State: result.State}, nil
	}

	m.logger.Debug("lease renew",
		"workflow_id", req.WorkflowID,
		"state", req.State,
		"renewed", result.Renewed,
		"kind", string(result.Kind),
	)
	return result, nil
}
