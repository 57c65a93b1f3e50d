package domain

import (
	"testing"
	"time"
)

func TestNormalizeStatus_Canonical(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusRunning, StatusSucceeded, StatusFailed, StatusSkipped} {
		got, ok := NormalizeStatus(string(s))
		if !ok {
			t.Errorf("canonical %q should be accepted", s)
		}
		if got != s {
			t.Errorf("canonical %q should map to itself, got %q", s, got)
		}
	}
}

func TestNormalizeStatus_Synonyms(t *testing.T) {
	cases := map[string]Status{
		"done":    StatusSucceeded,
		"success": StatusSucceeded,
		"succeed": StatusSucceeded,
		"fail":    StatusFailed,
		"error":   StatusFailed,
	}

	for raw, want := range cases {
		got, ok := NormalizeStatus(raw)
		if !ok {
			t.Errorf("synonym %q should be accepted", raw)
		}
		if got != want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeStatus_CaseInsensitive(t *testing.T) {
	for raw, want := range map[string]Status{
		"DONE":      StatusSucceeded,
		"Succeeded": StatusSucceeded,
		"  Error  ": StatusFailed,
		"PENDING":   StatusPending,
	} {
		got, ok := NormalizeStatus(raw)
		if !ok || got != want {
			t.Errorf("NormalizeStatus(%q) = %q/%v, want %q", raw, got, ok, want)
		}
	}
}

func TestNormalizeStatus_Unknown(t *testing.T) {
	for _, raw := range []string{"", "finished", "ok", "in_progress"} {
		if _, ok := NormalizeStatus(raw); ok {
			t.Errorf("%q should be rejected", raw)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	if StatusPending.IsTerminal() || StatusRunning.IsTerminal() {
		t.Error("pending and running are not terminal")
	}
	if !StatusSucceeded.IsTerminal() || !StatusFailed.IsTerminal() || !StatusSkipped.IsTerminal() {
		t.Error("succeeded, failed, skipped are terminal")
	}
}

func TestLease_Expired(t *testing.T) {
	now := time.Now().UTC()

	fresh := &Lease{Token: "t", OwnerAgentID: "w1", TS: now.Format(TimeFormat), TTLSeconds: 60}
	if fresh.Expired(now) {
		t.Error("fresh lease should not be expired")
	}
	if !fresh.Expired(now.Add(61 * time.Second)) {
		t.Error("lease should expire after ttl")
	}

	// Нечитаемый TS — lease считается истёкшим и перехватываемым
	broken := &Lease{Token: "t", OwnerAgentID: "w1", TS: "not-a-time", TTLSeconds: 60}
	if !broken.Expired(now) {
		t.Error("lease with unparseable ts should be expired")
	}
}

func TestStateDoc_Clone(t *testing.T) {
	doc := &StateDoc{
		Status:   StatusRunning,
		Attempts: 2,
		Lease:    &Lease{Token: "t", OwnerAgentID: "w1", TS: Now(), TTLSeconds: 60},
	}

	cp := doc.Clone()
	cp.Lease.Token = "other"
	cp.Attempts = 9

	if doc.Lease.Token != "t" {
		t.Error("clone should not share lease with original")
	}
	if doc.Attempts != 2 {
		t.Error("clone should not share fields with original")
	}

	var nilDoc *StateDoc
	if nilDoc.Clone() != nil {
		t.Error("clone of nil should be nil")
	}
}

func TestNewStateDoc(t *testing.T) {
	doc := NewStateDoc()
	if doc.Status != StatusPending {
		t.Errorf("new state doc should be pending, got %s", doc.Status)
	}
	if doc.Attempts != 0 || doc.HasLease() {
		t.Error("new state doc should have no attempts and no lease")
	}
}
