// Package wanted maintains the wanted list. Entries appear automatically
// when a suspect is marked on a case and age into most_wanted after thirty
// days without resolution.
package wanted

import (
	"time"

	"github.com/google/uuid"
)

// Status of a wanted entry.
type Status string

const (
	StatusWanted     Status = "wanted"
	StatusMostWanted Status = "most_wanted"
)

// PromotionAge is how long an entry stays plain wanted before the sweep
// promotes it.
const PromotionAge = 30 * 24 * time.Hour

// Entry is one wanted listing, unique per (case, participant).
type Entry struct {
	ID            uuid.UUID
	CaseID        uuid.UUID
	ParticipantID uuid.UUID
	FullName      string
	Status        Status
	MarkedAt      time.Time
	PromotedAt    *time.Time
}
