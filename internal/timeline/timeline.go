// Package timeline records an append-only audit trail of workflow events.
// Recording is best-effort everywhere: a failed write is logged and never
// fails the mutation that produced the event.
package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event kinds emitted by the services.
const (
	KindCaseCreated        = "case.created"
	KindCaseTransitioned   = "case.transitioned"
	KindSceneApproved      = "case.scene_approved"
	KindSuspectMarked      = "case.suspect_marked"
	KindComplaintSubmitted = "complaint.submitted"
	KindComplaintReviewed  = "complaint.reviewed"
	KindComplaintResubmit  = "complaint.resubmitted"
	KindVerdictRecorded    = "verdict.recorded"
	KindOrderIssued        = "order.issued"
	KindScoreSubmitted     = "assessment.score_submitted"
	KindWantedPromoted     = "wanted.promoted"
	KindTipReviewed        = "tip.reviewed"
	KindPaymentSettled     = "payment.settled"
)

// Event is one timeline entry.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Kind       string            `json:"kind"`
	CaseID     *uuid.UUID        `json:"case_id,omitempty"`
	ActorID    *uuid.UUID        `json:"actor_id,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEvent builds an event with a fresh id and timestamp.
func NewEvent(kind string, caseID, actorID *uuid.UUID, detail map[string]string) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		CaseID:     caseID,
		ActorID:    actorID,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}

// Recorder accepts events after successful mutations.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Nop is a Recorder that drops everything; the default collaborator.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
