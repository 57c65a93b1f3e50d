package notify

import (
	"github.com/google/uuid"

	"github.com/shaiso/Chorus/internal/controlplane"
	"github.com/shaiso/Chorus/internal/domain"
)

// Причины отправки событий готовности.
const (
	// ReasonUpstreamSucceeded — upstream state завершился успехом.
	ReasonUpstreamSucceeded = "upstream_succeeded"

	// ReasonSweep — событие отправлено периодическим sweep'ом.
	ReasonSweep = "sweep"
)

// NewReadyEvent строит событие state.ready для целевого state.
func NewReadyEvent(workflowID, target, source, reason string, payload map[string]any) *domain.Event {
	return &domain.Event{
		ID:          uuid.NewString(),
		Type:        domain.EventStateReady,
		WorkflowID:  workflowID,
		TargetState: target,
		SourceState: source,
		Reason:      reason,
		Payload:     payload,
		TS:          domain.Now(),
		ControlPlane: domain.ControlPlaneRefs{
			MetaKey:   controlplane.MetaKey(workflowID),
			StateKey:  controlplane.StateKey(workflowID, target),
			OutputKey: controlplane.OutputKey(workflowID, target),
		},
	}
}

// NewCompletedEvent строит событие state.completed.
// Его публикует воркер после фиксации терминального статуса.
func NewCompletedEvent(workflowID, state, status string) *domain.Event {
	return &domain.Event{
		ID:          uuid.NewString(),
		Type:        domain.EventStateCompleted,
		WorkflowID:  workflowID,
		TargetState: state,
		Reason:      status,
		TS:          domain.Now(),
		ControlPlane: domain.ControlPlaneRefs{
			MetaKey:   controlplane.MetaKey(workflowID),
			StateKey:  controlplane.StateKey(workflowID, state),
			OutputKey: controlplane.OutputKey(workflowID, state),
		},
	}
}
