package dag

import (
	"encoding/json"
	"fmt"
)

// Transition — ветвящийся переход из state.
// Core не интерпретирует условие When — ветвление выбирает воркер;
// для графа важно только множество возможных целей.
type Transition struct {
	// When — условие перехода (непрозрачное выражение для core).
	When string `json:"when,omitempty"`

	// Target — имя целевого state.
	Target string `json:"target"`
}

// StateSpec — определение одного state.
type StateSpec struct {
	// Name — имя state, уникально в рамках workflow.
	Name string `json:"name"`

	// Type — тип state ("task" по умолчанию, "terminal" — явно конечный).
	Type string `json:"type,omitempty"`

	// Next — безусловный переход к следующему state.
	Next string `json:"next,omitempty"`

	// Branches — ветвящиеся переходы.
	Branches []Transition `json:"branches,omitempty"`

	// Default — переход по умолчанию, если ни одна ветка не сработала.
	Default string `json:"default,omitempty"`

	// End — явная пометка терминального state.
	End bool `json:"end,omitempty"`
}

// IsTerminalType возвращает true, если state явно помечен терминальным.
func (s *StateSpec) IsTerminalType() bool {
	return s.End || s.Type == "terminal" || s.Type == "succeed" || s.Type == "fail"
}

// Definition — определение workflow в виде конечного автомата.
type Definition struct {
	// Name — имя workflow.
	Name string `json:"name"`

	// SchemaVersion — версия схемы определения.
	SchemaVersion string `json:"schema_version,omitempty"`

	// StartAt — имя стартового state.
	StartAt string `json:"start_at"`

	// States — определения states в порядке объявления.
	// Порядок значим: он определяет порядок states в meta-документе.
	States []StateSpec `json:"states"`
}

// ParseDefinition парсит Definition из JSON и валидирует его.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &def, nil
}

// Validate проверяет структурную корректность определения.
// Полная проверка переходов выполняется при построении графа.
func (d *Definition) Validate() error {
	if len(d.States) == 0 {
		return NewDefinitionError("", "definition has no states", ErrEmptyStates)
	}

	if d.StartAt == "" {
		return NewDefinitionError("", "start_at is required", ErrMissingStart)
	}

	for i := range d.States {
		if d.States[i].Name == "" {
			return NewDefinitionError("", fmt.Sprintf("state #%d has empty name", i), ErrEmptyStateName)
		}
	}

	return nil
}

// LinearDefinition строит Definition из плоского списка шагов.
//
// Список интерпретируется как линейная цепочка: каждый шаг переходит
// к следующему, последний — терминальный. Дубликаты отбрасываются,
// выигрывает первое вхождение.
func LinearDefinition(name string, steps []string) (*Definition, error) {
	seen := make(map[string]bool, len(steps))
	ordered := make([]string, 0, len(steps))
	for _, s := range steps {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		ordered = append(ordered, s)
	}

	if len(ordered) == 0 {
		return nil, NewDefinitionError("", "step list is empty", ErrEmptyStates)
	}

	def := &Definition{
		Name:    name,
		StartAt: ordered[0],
		States:  make([]StateSpec, 0, len(ordered)),
	}

	for i, s := range ordered {
		spec := StateSpec{Name: s}
		if i < len(ordered)-1 {
			spec.Next = ordered[i+1]
		}
		def.States = append(def.States, spec)
	}

	return def, nil
}
