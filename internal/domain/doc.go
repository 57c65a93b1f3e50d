// Package domain содержит основные модели данных Chorus.
//
// Включает:
//   - status.go   — каноничные статусы state и нормализация синонимов
//   - workflow.go — meta-документ workflow (граф + назначения агентов)
//   - state.go    — control-plane документ state и lease
//   - event.go    — конверт события для канала уведомлений
//
// Модели соответствуют JSON-документам в document store один в один:
// все timestamps хранятся как строки ISO-8601 в UTC, чтобы документы
// оставались совместимыми с другими реализациями протокола.
package domain
