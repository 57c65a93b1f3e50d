// Package telemetry — логирование и метрики Chorus.
//
// Включает:
//   - logging.go — настройка slog (LOG_LEVEL, LOG_FORMAT) и хелперы
//   - metrics.go — prometheus-счётчики протокола
//
// Метрики регистрируются в default registry и отдаются через
// promhttp в main демона.
package telemetry
