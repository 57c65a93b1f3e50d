package domain

import "time"

// TimeFormat — формат всех timestamps в документах: ISO-8601 UTC.
const TimeFormat = time.RFC3339

// Now возвращает текущее время в формате документов.
func Now() string {
	return time.Now().UTC().Format(TimeFormat)
}

// ParseTime парсит timestamp документа.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// Adjacency — прямые соседи state в графе workflow.
//
// Порядок внутри списков не имеет значения; индекс строится один раз
// при создании workflow и больше не изменяется.
type Adjacency struct {
	// Upstream — прямые предшественники (зависимости).
	Upstream []string `json:"upstream"`

	// Downstream — прямые последователи.
	Downstream []string `json:"downstream"`
}

// Meta — meta-документ workflow (ключ cp:wf:{id}:meta).
//
// Создаётся один раз при bootstrap workflow и неизменяем, за исключением
// карты Agents, которая может быть заполнена при создании или позже.
// Запись идёт строго через create-if-absent, поэтому повторные создания
// одного workflow — идемпотентные no-op.
type Meta struct {
	// WorkflowID — идентификатор workflow (непрозрачная строка).
	WorkflowID string `json:"workflow_id"`

	// WorkflowName — человекочитаемое имя.
	WorkflowName string `json:"workflow_name"`

	// SchemaVersion — версия схемы документов.
	SchemaVersion string `json:"schema_version"`

	// CreatedAt — время создания meta-документа.
	CreatedAt string `json:"created_at"`

	// StartAt — имя стартового state.
	StartAt string `json:"start_at"`

	// TerminalStates — имена терминальных states.
	TerminalStates []string `json:"terminal_states"`

	// States — все имена states в порядке первого появления в определении.
	States []string `json:"states"`

	// Agents — назначение state → идентификатор воркера.
	// Может быть пустым: тогда любой воркер вправе взять lease.
	Agents map[string]string `json:"agents,omitempty"`

	// Deps — индекс зависимостей: state → прямые соседи.
	Deps map[string]Adjacency `json:"deps"`
}

// AssignedAgent возвращает назначенного воркера для state.
// Пустая строка — назначения нет, state свободен для любого воркера.
func (m *Meta) AssignedAgent(state string) string {
	if m.Agents == nil {
		return ""
	}
	return m.Agents[state]
}

// Upstream возвращает прямых предшественников state.
func (m *Meta) Upstream(state string) []string {
	return m.Deps[state].Upstream
}

// Downstream возвращает прямых последователей state.
func (m *Meta) Downstream(state string) []string {
	return m.Deps[state].Downstream
}

// HasState проверяет, принадлежит ли state этому workflow.
func (m *Meta) HasState(state string) bool {
	_, ok := m.Deps[state]
	return ok
}
