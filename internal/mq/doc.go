// Package mq — канал уведомлений поверх RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — объявление exchange, queues, bindings
//   - publisher.go  — публикация событий
//   - consumer.go   — потребление событий
//
// События:
//   - state.completed — state перешёл в терминальный статус
//   - state.ready     — state готов к выполнению (адресовано агенту)
//
// Канал — внешний коллаборатор протокола: core вычисляет адресатов,
// но не зависит от успеха доставки. Документы в store — единственный
// источник истины; потерянное событие компенсируется sweep'ом.
package mq
