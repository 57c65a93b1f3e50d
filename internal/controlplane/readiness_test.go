package controlplane

import (
	"context"
	"testing"

	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
)

// setStatus напрямую пишет статус state в store, минуя протокол.
func setStatus(t *testing.T, st store.Client, workflowID, state string, status domain.Status) {
	t.Helper()
	ctx := context.Background()

	var doc domain.StateDoc
	if _, err := st.GetJSON(ctx, StateKey(workflowID, state), &doc); err != nil {
		t.Fatalf("read state %s: %v", state, err)
	}
	doc.Status = status
	if err := st.SetJSON(ctx, StateKey(workflowID, state), &doc, 0); err != nil {
		t.Fatalf("write state %s: %v", state, err)
	}
}

func TestEvaluator_Ready_Chain(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "A", "B", "C")
	eval := NewEvaluator(st)

	// Источник в pending — готов стартовать
	result, err := eval.Ready(ctx, "wf1", "A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Ready {
		t.Error("A should be ready while pending")
	}

	// B ждёт A
	result, err = eval.Ready(ctx, "wf1", "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ready {
		t.Error("B should not be ready while A is pending")
	}
	if len(result.Unmet) != 1 || result.Unmet[0] != "A" {
		t.Errorf("expected unmet [A], got %v", result.Unmet)
	}

	// A завершился — B готов, C всё ещё нет
	setStatus(t, st, "wf1", "A", domain.StatusSucceeded)

	result, _ = eval.Ready(ctx, "wf1", "B")
	if !result.Ready {
		t.Error("B should be ready after A succeeded")
	}
	result, _ = eval.Ready(ctx, "wf1", "C")
	if result.Ready {
		t.Error("C should not be ready while B is pending")
	}

	// Источник после завершения больше не «готов»
	result, _ = eval.Ready(ctx, "wf1", "A")
	if result.Ready {
		t.Error("A should not be ready once it left pending")
	}
}

func TestEvaluator_Ready_SkippedUpstream(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "A", "B")
	eval := NewEvaluator(st)

	// skipped upstream не блокирует уведомление downstream
	setStatus(t, st, "wf1", "A", domain.StatusSkipped)

	result, err := eval.Ready(ctx, "wf1", "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Ready {
		t.Error("B should be notify-ready after A was skipped")
	}
}

func TestEvaluator_Ready_FailedUpstream(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "A", "B")
	eval := NewEvaluator(st)

	setStatus(t, st, "wf1", "A", domain.StatusFailed)

	result, _ := eval.Ready(ctx, "wf1", "B")
	if result.Ready {
		t.Error("B should not be ready after A failed")
	}
}

func TestEvaluator_Ready_LegacyDone(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "A", "B")
	eval := NewEvaluator(st)

	// Документы, записанные до нормализации, могут содержать "done"
	setStatus(t, st, "wf1", "A", domain.Status("done"))

	result, _ := eval.Ready(ctx, "wf1", "B")
	if !result.Ready {
		t.Error("legacy done should count as success")
	}
}

func TestEvaluator_Ready_UnknownWorkflow(t *testing.T) {
	eval := NewEvaluator(store.NewMemory())

	result, err := eval.Ready(context.Background(), "nope", "A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Ready || result.Kind != KindInvalidDefinition {
		t.Errorf("expected invalid_definition, got %+v", result)
	}
}

func TestEvaluator_Ready_UnknownState(t *testing.T) {
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "A")

	result, err := NewEvaluator(st).Ready(context.Background(), "wf1", "ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Kind != KindInvalidDefinition {
		t.Errorf("expected invalid_definition, got %+v", result)
	}
}

func TestEvaluator_Ready_MissingUpstreamDoc(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "A", "B")

	// Удаляем документ A: отсутствующий сосед трактуется как «не готов»
	if _, err := st.RunTransaction(ctx, StateKey("wf1", "A"), func(tx store.Txn) error {
		tx.StageDelete(StateKey("wf1", "A"))
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, _ := NewEvaluator(st).Ready(ctx, "wf1", "B")
	if result.Ready {
		t.Error("B should not be ready when upstream doc is missing")
	}
	if len(result.Unmet) != 1 || result.Unmet[0] != "A" {
		t.Errorf("expected unmet [A], got %v", result.Unmet)
	}
}
