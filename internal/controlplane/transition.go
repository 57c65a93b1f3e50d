package controlplane

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
	"github.com/shaiso/Chorus/internal/telemetry"
)

// TransitionManager выполняет атомарные переходы статусов state.
type TransitionManager struct {
	store  store.Client
	logger *slog.Logger
}

// NewTransitionManager создаёт новый TransitionManager.
func NewTransitionManager(st store.Client, logger *slog.Logger) *TransitionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransitionManager{store: st, logger: logger}
}

// LeaseSpec — установка или обновление lease внутри update.
type LeaseSpec struct {
	// Token — токен lease.
	Token string

	// Owner — владелец.
	Owner string

	// TTLSeconds — время жизни. 0 — DefaultLeaseTTLSeconds.
	TTLSeconds int
}

// UpdateRequest — запрос на переход статуса.
type UpdateRequest struct {
	// WorkflowID — идентификатор workflow.
	WorkflowID string

	// State — имя state.
	State string

	// Status — новый статус: каноничное значение или синоним,
	// без учёта регистра. Пусто — статус не менять.
	Status string

	// LeaseToken — защита от чужой записи: если задан, хранимый
	// токен lease должен быть пуст или совпасть, иначе lease_mismatch.
	LeaseToken string

	// AttemptsDelta — знаковое изменение attempts.
	AttemptsDelta int

	// SetLease — установить или обновить lease в той же транзакции.
	SetLease *LeaseSpec

	// ClearLease — снять lease (например, при терминальном статусе).
	ClearLease bool

	// LastError — текст ошибки выполнения. Пусто — не менять.
	LastError string

	// Output — payload для data-plane документа. Nil — не писать.
	Output any

	// OutputTTL — expiry output-документа. 0 — без expiry.
	OutputTTL time.Duration
}

// Update атомарно применяет изменения к документу state.
//
// Нормализация статуса и сериализация output выполняются до любой
// мутации: invalid_status и непригодный payload прерывают операцию,
// не оставляя частичной записи. Control-документ и output-документ
// фиксируются одним commit'ом транзакции по ключу state.
func (m *TransitionManager) Update(ctx context.Context, req UpdateRequest) (*UpdateResult, error) {
	var newStatus domain.Status
	if req.Status != "" {
		status, ok := domain.NormalizeStatus(req.Status)
		if !ok {
			return &UpdateResult{Kind: KindInvalidStatus}, nil
		}
		newStatus = status
	}

	result := &UpdateResult{}
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

		if req.LeaseToken != "" && doc.HasLease() && doc.Lease.Token != req.LeaseToken {
			result.Kind = KindLeaseMismatch
			return nil
		}

		// Output сериализуется до изменения control-документа:
		// ошибка payload прерывает транзакцию без мутаций.
		if req.Output != nil {
			if err := tx.Stage(OutputKey(req.WorkflowID, req.State), req.Output, req.OutputTTL); err != nil {
				return err
			}
		}

		if newStatus != "" {
			doc.Status = newStatus
			now := domain.Now()
			if newStatus == domain.StatusRunning && doc.StartedAt == "" {
				doc.StartedAt = now
			}
			if newStatus.IsTerminal() {
				doc.FinishedAt = now
			}
		}

		if req.AttemptsDelta != 0 {
			doc.Attempts += req.AttemptsDelta
			if doc.Attempts < 0 {
				doc.Attempts = 0
			}
		}

		switch {
		case req.ClearLease:
			doc.Lease = nil
		case req.SetLease != nil:
			ttl := req.SetLease.TTLSeconds
			if ttl <= 0 {
				ttl = DefaultLeaseTTLSeconds
			}
			doc.Lease = &domain.Lease{
				Token:        req.SetLease.Token,
				OwnerAgentID: req.SetLease.Owner,
				TS:           domain.Now(),
				TTLSeconds:   ttl,
			}
		}

		if req.LastError != "" {
			doc.LastError = req.LastError
		}

		if err := tx.Stage(stateKey, &doc, 0); err != nil {
			return err
		}

		result.Updated = true
		result.State = doc.Clone()
		return nil
	})

	if err != nil {
		result.Kind = kindFromStoreErr(err)
		return result, err
	}
	if commit.Conflict {
		return &UpdateResult{Kind: KindConflict, State: result.State}, nil
	}

	if result.Updated && newStatus != "" {
		telemetry.TransitionTotal.WithLabelValues(string(newStatus)).Inc()
	}

	m.logger.Debug("state update",
		"workflow_id", req.WorkflowID,
		"state", req.State,
		"status", string(newStatus),
		"updated", result.Updated,
		"kind", string(result.Kind),
	)
	return result, nil
}
