package controlplane

import (
	"context"

	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
)

// Множества success-like статусов.
//
// Асимметрия намеренная и зафиксирована протоколом: для захвата lease
// upstream должен реально завершиться успехом (succeeded либо legacy
// "done" из документов, записанных до нормализации), а для fan-out
// уведомлений skipped тоже не должен блокировать downstream.
var (
	// leaseSuccess — статусы upstream, открывающие захват lease.
	leaseSuccess = map[string]bool{
		string(domain.StatusSucceeded): true,
		"done":                         true,
	}

	// notifySuccess — статусы upstream, открывающие уведомление.
	notifySuccess = map[string]bool{
		string(domain.StatusSucceeded): true,
		"done":                         true,
		string(domain.StatusSkipped):   true,
	}
)

// Evaluator — проверка готовности state.
//
// Evaluator только читает: его можно звать вне транзакций и из любого
// количества горутин. Отсутствующий или повреждённый документ соседа
// трактуется как "не готов", а не как ошибка.
type Evaluator struct {
	store store.Client
}

// NewEvaluator создаёт новый Evaluator.
func NewEvaluator(st store.Client) *Evaluator {
	return &Evaluator{store: st}
}

// Ready проверяет готовность state для уведомления.
//
// State без upstream готов, пока его собственный статус pending
// (источники "готовы стартовать", а не "готовы по входам").
// State с upstream готов, когда каждый upstream в notifySuccess.
func (e *Evaluator) Ready(ctx context.Context, workflowID, state string) (*ReadyResult, error) {
	meta, kind, err := loadMeta(ctx, e.store, workflowID)
	if kind != "" || err != nil {
		return &ReadyResult{Kind: kind}, err
	}
	if !meta.HasState(state) {
		return &ReadyResult{Kind: KindInvalidDefinition}, nil
	}

	upstream := meta.Upstream(state)
	if len(upstream) == 0 {
		doc := e.readState(ctx, workflowID, state)
		ready := doc != nil && doc.Status == domain.StatusPending
		return &ReadyResult{Ready: ready}, nil
	}

	return e.upstreamSatisfied(ctx, workflowID, upstream, notifySuccess), nil
}

// readyForLease проверяет готовность state для захвата lease.
// State без upstream всегда готов; иначе каждый upstream в leaseSuccess.
func (e *Evaluator) readyForLease(ctx context.Context, meta *domain.Meta, workflowID, state string) *ReadyResult {
	upstream := meta.Upstream(state)
	if len(upstream) == 0 {
		return &ReadyResult{Ready: true}
	}
	return e.upstreamSatisfied(ctx, workflowID, upstream, leaseSuccess)
}

// upstreamSatisfied проверяет, что каждый upstream в успешном множестве.
func (e *Evaluator) upstreamSatisfied(ctx context.Context, workflowID string, upstream []string, success map[string]bool) *ReadyResult {
	result := &ReadyResult{Ready: true}

	for _, dep := range upstream {
		doc := e.readState(ctx, workflowID, dep)
		if doc == nil || !success[string(doc.Status)] {
			result.Ready = false
			result.Unmet = append(result.Unmet, dep)
		}
	}

	return result
}

// readState читает документ state. Nil — документа нет или он
// не парсится; для readiness это равнозначно "не готов".
func (e *Evaluator) readState(ctx context.Context, workflowID, state string) *domain.StateDoc {
	var doc domain.StateDoc
	ok, err := e.store.GetJSON(ctx, StateKey(workflowID, state), &doc)
	if err != nil || !ok {
		return nil
	}
	return &doc
}

// loadMeta читает meta-документ workflow.
func loadMeta(ctx context.Context, st store.Client, workflowID string) (*domain.Meta, ErrKind, error) {
	var meta domain.Meta
	ok, err := st.GetJSON(ctx, MetaKey(workflowID), &meta)
	if err != nil {
		return nil, kindFromStoreErr(err), err
	}
	if !ok {
		return nil, KindInvalidDefinition, nil
	}
	return &meta, "", nil
}
