package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики протокола control-plane.
var (
	// LeaseAcquireTotal — попытки захвата lease по исходам
	// (acquired, already_held, lease_held, not_ready, conflict, ...).
	LeaseAcquireTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "lease",
		Name:      "acquire_total",
		Help:      "Lease acquire attempts by outcome.",
	}, []string{"outcome"})

	// LeaseStealTotal — перехваты истёкших lease.
	LeaseStealTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "lease",
		Name:      "steal_total",
		Help:      "Expired leases taken over by a different owner.",
	})

	// TransitionTotal — зафиксированные переходы статусов.
	TransitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "state",
		Name:      "transition_total",
		Help:      "Committed status transitions by canonical status.",
	}, []string{"status"})

	// NotifyPublishedTotal — отправленные события готовности.
	NotifyPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chorus",
		Subsystem: "notify",
		Name:      "published_total",
		Help:      "Readiness events published by type.",
	}, []string{"type"})
)
