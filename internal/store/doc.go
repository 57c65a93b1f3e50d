// Package store — транзакционный доступ к document store.
//
// Включает:
//   - store.go    — контракт клиента: JSON get/set, create-if-absent,
//     инкремент, optimistic-транзакция (watch/commit)
//   - redis.go    — основной backend поверх Redis (WATCH/MULTI/EXEC)
//   - postgres.go — альтернативный backend поверх Postgres
//     (версионируемые строки, commit с проверкой версии)
//   - memory.go   — in-memory fake для тестов с тем же контрактом
//
// Optimistic-транзакция — единственная гарантия упорядочивания в
// системе: два конкурентных коммита по одному ключу никогда не
// проходят оба, проигравший получает conflict и повторяет операцию.
package store
