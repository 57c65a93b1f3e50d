package dag

import "errors"

// Ошибки валидации определения workflow.
// Все они означают invalid_definition на уровне протокола.
var (
	// ErrEmptyStates — определение не содержит states.
	ErrEmptyStates = errors.New("definition has no states")

	// ErrEmptyStateName — state без имени.
	ErrEmptyStateName = errors.New("state has empty name")

	// ErrMissingStart — стартовый state не указан.
	ErrMissingStart = errors.New("definition has no start state")

	// ErrUnknownStart — стартовый state отсутствует в списке states.
	ErrUnknownStart = errors.New("start state is not declared")

	// ErrUnknownTarget — переход ссылается на необъявленный state.
	ErrUnknownTarget = errors.New("transition targets unknown state")

	// ErrCyclicDependency — обнаружен цикл в графе.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)

// DefinitionError — ошибка валидации с контекстом.
type DefinitionError struct {
	State   string // имя state, где произошла ошибка (может быть пустым)
	Message string // описание
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *DefinitionError) Error() string {
	if e.State != "" {
		return "state " + e.State + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// NewDefinitionError создаёт новую ошибку валидации определения.
func NewDefinitionError(state, message string, err error) *DefinitionError {
	return &DefinitionError{
		State:   state,
		Message: message,
		Err:     err,
	}
}
