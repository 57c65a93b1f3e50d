// Package dag строит граф workflow из определения.
//
// Включает:
//   - parser.go — парсинг Definition из JSON и валидация
//   - dag.go    — вывод графа: список states, зависимости, терминальные states
//   - errors.go — ошибки валидации определения
//
// Построение графа — чистая детерминированная функция: для одного
// определения два вызова всегда дают одинаковый порядок states
// (порядок первого появления). На этот порядок полагаются клиенты,
// которым нужна стабильная итерация.
package dag
