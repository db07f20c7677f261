// Package statemachine holds the canonical case status graph.
//
// Flow: submitted → under_review → active_investigation →
// suspect_assessment → referral_ready → in_trial → closed.
// Terminal states: closed, final_invalid (reached when a complaint is
// terminally invalidated).
//
// No role knowledge lives here; role gating is layered on top by the case
// lifecycle service.
package statemachine

import "casefile/internal/cases/models"

var transitions = map[models.Status][]models.Status{
	models.StatusSubmitted:           {models.StatusUnderReview},
	models.StatusUnderReview:         {models.StatusActiveInvestigation, models.StatusFinalInvalid},
	models.StatusActiveInvestigation: {models.StatusSuspectAssessment},
	models.StatusSuspectAssessment:   {models.StatusReferralReady},
	models.StatusReferralReady:       {models.StatusInTrial},
	models.StatusInTrial:             {models.StatusClosed},
	models.StatusClosed:              {},
	models.StatusFinalInvalid:        {},
}

// AllStatuses lists every status in flow order, terminals last.
var AllStatuses = []models.Status{
	models.StatusSubmitted,
	models.StatusUnderReview,
	models.StatusActiveInvestigation,
	models.StatusSuspectAssessment,
	models.StatusReferralReady,
	models.StatusInTrial,
	models.StatusClosed,
	models.StatusFinalInvalid,
}

// AllowedNext returns the statuses reachable from the given status.
func AllowedNext(from models.Status) []models.Status {
	next, ok := transitions[from]
	if !ok {
		return nil
	}
	out := make([]models.Status, len(next))
	copy(out, next)
	return out
}

// IsValidTransition reports whether from → to is an edge of the graph.
func IsValidTransition(from, to models.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing edges.
func IsTerminal(status models.Status) bool {
	return status == models.StatusClosed || status == models.StatusFinalInvalid
}
