package domain

// EventType — тип события в канале уведомлений.
type EventType string

// Типы событий.
const (
	// EventStateReady — state готов к выполнению: все upstream завершены.
	EventStateReady EventType = "state.ready"

	// EventStateCompleted — state перешёл в терминальный статус.
	EventStateCompleted EventType = "state.completed"
)

// ControlPlaneRefs — ключи документов, относящихся к целевому state.
// Передаются в событии, чтобы воркер не вычислял layout ключей сам.
type ControlPlaneRefs struct {
	MetaKey   string `json:"meta_key"`
	StateKey  string `json:"state_key"`
	OutputKey string `json:"output_key"`
}

// Event — конверт события для канала уведомлений.
//
// Core только формирует события и вычисляет адресатов (через Readiness
// Evaluator); доставка — забота канала, её успех не влияет на протокол.
type Event struct {
	// ID — уникальный идентификатор события.
	ID string `json:"id"`

	// Type — тип события.
	Type EventType `json:"type"`

	// WorkflowID — workflow, к которому относится событие.
	WorkflowID string `json:"workflow_id"`

	// TargetState — state-адресат события.
	TargetState string `json:"target_state"`

	// SourceState — state, завершение которого породило событие.
	// Пусто для событий, созданных sweep'ом.
	SourceState string `json:"source_state,omitempty"`

	// Reason — причина отправки ("upstream_succeeded", "sweep" и т.д.).
	Reason string `json:"reason,omitempty"`

	// Payload — произвольные данные события.
	Payload map[string]any `json:"payload,omitempty"`

	// TS — время формирования события.
	TS string `json:"ts"`

	// ControlPlane — ключи документов целевого state.
	ControlPlane ControlPlaneRefs `json:"control_plane"`
}
