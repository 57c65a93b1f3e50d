package domain

import "strings"

// Status — каноничный статус state в control-plane документе.
//
// Жизненный цикл:
//
//	pending → running → succeeded
//	                  ↘ failed
//	pending → skipped (state пропущен, работа не выполнялась)
//
// В документах хранятся только каноничные значения. Синонимы
// ("done", "error" и т.д.) принимаются на записи и нормализуются
// через NormalizeStatus.
type Status string

const (
	// StatusPending — state создан, ожидает выполнения.
	StatusPending Status = "pending"

	// StatusRunning — state выполняется воркером под lease.
	StatusRunning Status = "running"

	// StatusSucceeded — state успешно завершён.
	StatusSucceeded Status = "succeeded"

	// StatusFailed — state завершился с ошибкой.
	StatusFailed Status = "failed"

	// StatusSkipped — state пропущен (например, ветка не выбрана).
	StatusSkipped Status = "skipped"
)

// statusSynonyms — таблица синонимов, принимаемых на записи.
// Ключи в нижнем регистре.
var statusSynonyms = map[string]Status{
	"done":    StatusSucceeded,
	"success": StatusSucceeded,
	"succeed": StatusSucceeded,
	"fail":    StatusFailed,
	"error":   StatusFailed,
}

// NormalizeStatus приводит строку к каноничному статусу.
//
// Принимает пять каноничных значений и синонимы из statusSynonyms,
// без учёта регистра. Возвращает false, если значение не распознано.
func NormalizeStatus(raw string) (Status, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))

	switch Status(s) {
	case StatusPending, StatusRunning, StatusSucceeded, StatusFailed, StatusSkipped:
		return Status(s), true
	}

	if canonical, ok := statusSynonyms[s]; ok {
		return canonical, true
	}

	return "", false
}

// IsTerminal возвращает true, если статус финальный.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление Status.
func (s Status) String() string {
	return string(s)
}
