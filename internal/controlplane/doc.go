// Package controlplane реализует протокол координации workflow.
//
// Включает:
//   - keys.go       — layout ключей документов в store
//   - result.go     — виды ошибок протокола и результаты операций
//   - schema.go     — идемпотентное создание документов workflow
//   - lease.go      — acquire/renew: эксклюзивное владение state
//   - transition.go — атомарные переходы статусов и запись output
//   - readiness.go  — проверка готовности state по upstream-зависимостям
//
// Протокол хореографический: нет центрального планировщика, воркеры
// координируются только через документы в store. Единица взаимного
// исключения — документ state; все мутации идут через optimistic-
// транзакцию по его ключу. Ошибки протокола — это данные: операции
// возвращают результат с видом ошибки и снимком документа, а не
// пробрасывают ошибку наружу.
package controlplane
