// Package notify — fan-out уведомлений о готовности states.
//
// Notifier слушает события state.completed, проверяет готовность
// downstream states через Readiness Evaluator и публикует адресные
// события state.ready назначенным агентам. Дополнительно умеет
// периодический sweep по cron-расписанию: перепроверяет известные
// workflows и повторно рассылает готовность, потерянную, пока
// notifier был выключен.
//
// Notifier не мутирует control-plane документы — он только читает
// store и публикует события. Доставка best-effort: протокол не
// зависит от её успеха.
package notify
