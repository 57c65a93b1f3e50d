// Package cli — команды chorus CLI.
//
// Структура:
//   - store.go  — подключение к document store по переменным окружения
//   - output.go — форматирование вывода (таблица или JSON)
//   - wf.go     — команды управления workflows
//   - lease.go  — команды протокола lease
//   - state.go  — команды переходов статусов и просмотра states
//
// CLI работает со store напрямую, без промежуточного API: в
// хореографической модели CLI — такой же участник протокола,
// как любой воркер.
package cli
