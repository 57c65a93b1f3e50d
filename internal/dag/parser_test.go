package dag

import (
	"errors"
	"testing"
)

func TestParseDefinition(t *testing.T) {
	data := []byte(`{
		"name": "etl",
		"schema_version": "1",
		"start_at": "extract",
		"states": [
			{"name": "extract", "next": "transform"},
			{"name": "transform", "branches": [
				{"when": "rows > 0", "target": "load"}
			], "default": "finish"},
			{"name": "load", "next": "finish"},
			{"name": "finish", "end": true}
		]
	}`)

	def, err := ParseDefinition(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.Name != "etl" {
		t.Errorf("expected name etl, got %s", def.Name)
	}
	if def.StartAt != "extract" {
		t.Errorf("expected start_at extract, got %s", def.StartAt)
	}
	if len(def.States) != 4 {
		t.Fatalf("expected 4 states, got %d", len(def.States))
	}

	transform := def.States[1]
	if len(transform.Branches) != 1 || transform.Branches[0].Target != "load" {
		t.Error("transform should branch to load")
	}
	if transform.Default != "finish" {
		t.Errorf("expected default finish, got %s", transform.Default)
	}

	if !def.States[3].IsTerminalType() {
		t.Error("finish should be terminal type")
	}
}

func TestParseDefinition_InvalidJSON(t *testing.T) {
	_, err := ParseDefinition([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestParseDefinition_NoStates(t *testing.T) {
	_, err := ParseDefinition([]byte(`{"name": "x", "start_at": "a", "states": []}`))
	if !errors.Is(err, ErrEmptyStates) {
		t.Errorf("expected ErrEmptyStates, got %v", err)
	}
}

func TestParseDefinition_NoStart(t *testing.T) {
	_, err := ParseDefinition([]byte(`{"name": "x", "states": [{"name": "a"}]}`))
	if !errors.Is(err, ErrMissingStart) {
		t.Errorf("expected ErrMissingStart, got %v", err)
	}
}

func TestParseDefinition_EmptyStateName(t *testing.T) {
	_, err := ParseDefinition([]byte(`{"name": "x", "start_at": "a", "states": [{"name": "a"}, {"next": "a"}]}`))
	if !errors.Is(err, ErrEmptyStateName) {
		t.Errorf("expected ErrEmptyStateName, got %v", err)
	}
}

func TestLinearDefinition(t *testing.T) {
	def, err := LinearDefinition("wf", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if def.StartAt != "a" {
		t.Errorf("expected start a, got %s", def.StartAt)
	}
	if def.States[0].Next != "b" || def.States[1].Next != "c" {
		t.Error("steps should chain a -> b -> c")
	}
	if def.States[2].Next != "" {
		t.Error("last step should have no transition")
	}
}

func TestLinearDefinition_Dedup(t *testing.T) {
	// Дубликаты и пустые имена отбрасываются, выигрывает первое вхождение
	def, err := LinearDefinition("wf", []string{"a", "", "b", "a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(def.States) != 2 {
		t.Fatalf("expected 2 states after dedup, got %d", len(def.States))
	}
	if def.States[0].Name != "a" || def.States[1].Name != "b" {
		t.Errorf("expected [a b], got %v", def.States)
	}
}

func TestLinearDefinition_Empty(t *testing.T) {
	_, err := LinearDefinition("wf", []string{"", ""})
	if !errors.Is(err, ErrEmptyStates) {
		t.Errorf("expected ErrEmptyStates, got %v", err)
	}
}

func TestStateSpec_IsTerminalType(t *testing.T) {
	cases := []struct {
		spec StateSpec
		want bool
	}{
		{StateSpec{Name: "a"}, false},
		{StateSpec{Name: "a", Type: "task"}, false},
		{StateSpec{Name: "a", End: true}, true},
		{StateSpec{Name: "a", Type: "terminal"}, true},
		{StateSpec{Name: "a", Type: "succeed"}, true},
		{StateSpec{Name: "a", Type: "fail"}, true},
	}

	for _, c := range cases {
		if got := c.spec.IsTerminalType(); got != c.want {
			t.Errorf("IsTerminalType(%+v) = %v, want %v", c.spec, got, c.want)
		}
	}
}
