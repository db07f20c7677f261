package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"casefile/internal/cases/models"
)

func TestGraphClosure(t *testing.T) {
	// For every pair (S, T): IsValidTransition(S, T) iff T ∈ AllowedNext(S).
	for _, from := range AllStatuses {
		allowed := map[models.Status]bool{}
		for _, next := range AllowedNext(from) {
			allowed[next] = true
		}
		for _, to := range AllStatuses {
			assert.Equal(t, allowed[to], IsValidTransition(from, to),
				"transition %s -> %s", from, to)
		}
	}
}

func TestFlowEdges(t *testing.T) {
	assert.True(t, IsValidTransition(models.StatusSubmitted, models.StatusUnderReview))
	assert.True(t, IsValidTransition(models.StatusUnderReview, models.StatusActiveInvestigation))
	assert.True(t, IsValidTransition(models.StatusUnderReview, models.StatusFinalInvalid))
	assert.True(t, IsValidTransition(models.StatusActiveInvestigation, models.StatusSuspectAssessment))
	assert.True(t, IsValidTransition(models.StatusSuspectAssessment, models.StatusReferralReady))
	assert.True(t, IsValidTransition(models.StatusReferralReady, models.StatusInTrial))
	assert.True(t, IsValidTransition(models.StatusInTrial, models.StatusClosed))

	assert.False(t, IsValidTransition(models.StatusSubmitted, models.StatusClosed))
	assert.False(t, IsValidTransition(models.StatusActiveInvestigation, models.StatusFinalInvalid))
	assert.False(t, IsValidTransition(models.StatusClosed, models.StatusInTrial))
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	for _, terminal := range []models.Status{models.StatusClosed, models.StatusFinalInvalid} {
		assert.True(t, IsTerminal(terminal))
		assert.Empty(t, AllowedNext(terminal))
	}
	for _, status := range AllStatuses {
		if status == models.StatusClosed || status == models.StatusFinalInvalid {
			continue
		}
		assert.False(t, IsTerminal(status))
		assert.NotEmpty(t, AllowedNext(status))
	}
}
