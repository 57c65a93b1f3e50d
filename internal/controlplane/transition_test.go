package controlplane

import (
	"context"
	"testing"

	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
)

func TestTransitionManager_Update_Status(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "running",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Updated {
		t.Fatalf("expected update, got %+v", result)
	}
	if result.State.Status != domain.StatusRunning {
		t.Errorf("expected running, got %s", result.State.Status)
	}
	if result.State.StartedAt == "" {
		t.Error("transition to running should stamp started_at")
	}
	if result.State.FinishedAt != "" {
		t.Error("running is not terminal, finished_at should be empty")
	}

	// Терминальный статус ставит finished_at
	result, err = mgr.Update(ctx, UpdateRequest{WorkflowID: "wf1", State: "S1", Status: "succeeded"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.FinishedAt == "" {
		t.Error("terminal status should stamp finished_at")
	}
}

func TestTransitionManager_Update_Synonyms(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mgr := NewTransitionManager(st, nil)

	cases := map[string]domain.Status{
		"done":  domain.StatusSucceeded,
		"ERROR": domain.StatusFailed,
		"Fail":  domain.StatusFailed,
	}

	for raw, want := range cases {
		seedWorkflow(t, st, "wf-"+raw, "S1")

		result, err := mgr.Update(ctx, UpdateRequest{WorkflowID: "wf-" + raw, State: "S1", Status: raw})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Updated {
			t.Fatalf("synonym %q should be accepted, got %+v", raw, result)
		}

		// В store лежит каноничное значение
		var doc domain.StateDoc
		if _, err := st.GetJSON(ctx, StateKey("wf-"+raw, "S1"), &doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if doc.Status != want {
			t.Errorf("synonym %q should be stored as %q, got %q", raw, want, doc.Status)
		}
	}
}

func TestTransitionManager_Update_InvalidStatus(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{WorkflowID: "wf1", State: "S1", Status: "finished"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated || result.Kind != KindInvalidStatus {
		t.Fatalf("expected invalid_status, got %+v", result)
	}

	// Документ не тронут
	var doc domain.StateDoc
	if _, err := st.GetJSON(ctx, StateKey("wf1", "S1"), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != domain.StatusPending {
		t.Errorf("invalid_status must not mutate the document, got %s", doc.Status)
	}
}

func TestTransitionManager_Update_AttemptsDelta(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{WorkflowID: "wf1", State: "S1", AttemptsDelta: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Attempts != 3 {
		t.Errorf("expected attempts 3, got %d", result.State.Attempts)
	}

	// Знаковая дельта, с отсечкой на нуле
	result, err = mgr.Update(ctx, UpdateRequest{WorkflowID: "wf1", State: "S1", AttemptsDelta: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Attempts != 2 {
		t.Errorf("expected attempts 2, got %d", result.State.Attempts)
	}

	result, err = mgr.Update(ctx, UpdateRequest{WorkflowID: "wf1", State: "S1", AttemptsDelta: -10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.Attempts != 0 {
		t.Errorf("attempts should clamp at 0, got %d", result.State.Attempts)
	}
}

func TestTransitionManager_Update_LeaseGuard(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")

	lease, err := NewLeaseManager(st, nil).Acquire(ctx, AcquireRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Owner:      "w1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mgr := NewTransitionManager(st, nil)

	// Чужой токен отклоняется
	denied, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "failed",
		LeaseToken: "stale-token",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if denied.Updated || denied.Kind != KindLeaseMismatch {
		t.Fatalf("expected lease_mismatch, got %+v", denied)
	}

	// Верный токен проходит
	allowed, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "succeeded",
		LeaseToken: lease.Token,
		ClearLease: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed.Updated {
		t.Fatalf("holder update should commit, got %+v", allowed)
	}
	if allowed.State.HasLease() {
		t.Error("clear_lease should remove the lease")
	}
}

func TestTransitionManager_Update_LeaseGuard_NoStoredLease(t *testing.T) {
	// Guard с токеном проходит, если на документе lease нет вовсе
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "skipped",
		LeaseToken: "whatever",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Updated {
		t.Fatalf("guard against empty lease should pass, got %+v", result)
	}
}

func TestTransitionManager_Update_SetLease(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "running",
		SetLease:   &LeaseSpec{Token: "tok", Owner: "w1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.State.HasLease() || result.State.Lease.Token != "tok" {
		t.Fatalf("set_lease should install the lease, got %+v", result.State)
	}
	if result.State.Lease.TTLSeconds != DefaultLeaseTTLSeconds {
		t.Errorf("zero ttl should default, got %d", result.State.Lease.TTLSeconds)
	}
}

func TestTransitionManager_Update_LastError(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "failed",
		LastError:  "upstream api returned 500",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State.LastError != "upstream api returned 500" {
		t.Errorf("last_error should be recorded, got %q", result.State.LastError)
	}
}

func TestTransitionManager_Update_OutputAborts(t *testing.T) {
	// Несериализуемый payload прерывает операцию без частичной записи
	ctx := context.Background()
	st := store.NewMemory()
	seedWorkflow(t, st, "wf1", "S1")
	mgr := NewTransitionManager(st, nil)

	_, err := mgr.Update(ctx, UpdateRequest{
		WorkflowID: "wf1",
		State:      "S1",
		Status:     "succeeded",
		Output:     make(chan int),
	})
	if err == nil {
		t.Fatal("expected error for unmarshalable output")
	}

	var doc domain.StateDoc
	if _, err := st.GetJSON(ctx, StateKey("wf1", "S1"), &doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != domain.StatusPending {
		t.Errorf("aborted update must leave the document untouched, got %s", doc.Status)
	}

	var output any
	ok, _ := st.GetJSON(ctx, OutputKey("wf1", "S1"), &output)
	if ok {
		t.Error("no output document should be written")
	}
}

func TestTransitionManager_Update_MissingDoc(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	mgr := NewTransitionManager(st, nil)

	result, err := mgr.Update(ctx, UpdateRequest{WorkflowID: "nope", State: "S1", Status: "running"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Updated || result.Kind != KindInvalidDefinition {
		t.Errorf("expected invalid_definition, got %+v", result)
	}
}

func TestErrKind_Retryable(t *testing.T) {
	if !KindConflict.Retryable() {
		t.Error("conflict must be retryable")
	}
	for _, k := range []ErrKind{
		KindInvalidDefinition, KindNotReady, KindOwnerMismatch,
		KindLeaseHeld, KindLeaseExpired, KindLeaseMismatch,
		KindNoLease, KindInvalidStatus, KindStoreUnavailable,
	} {
		if k.Retryable() {
			t.Errorf("%s must not be retryable", k)
		}
	}
}
