package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"

	casemodels "casefile/internal/cases/models"
	"casefile/internal/wanted"
	derrors "casefile/pkg/domain-errors"
)

// levelDi maps a case level to its crime score Di.
func levelDi(level casemodels.Level) int {
	switch level {
	case casemodels.Level3:
		return 1
	case casemodels.Level2:
		return 2
	case casemodels.Level1:
		return 3
	case casemodels.LevelCritical:
		return 4
	}
	return 0
}

// daysUnderSurveillance computes Lj for one wanted entry: whole days from
// marked_at until the case closed, or until now for open cases. Never
// negative.
func daysUnderSurveillance(entry *wanted.Entry, c *casemodels.Case, now time.Time) int {
	end := now
	if c.ClosedAt != nil {
		end = *c.ClosedAt
	}
	if !end.After(entry.MarkedAt) {
		return 0
	}
	return int(end.Sub(entry.MarkedAt).Hours() / 24)
}

// personEntry pairs a wanted entry with its resolved case and participant.
type personEntry struct {
	entry       *wanted.Entry
	c           *casemodels.Case
	participant *casemodels.CaseParticipant
}

// computePerson reduces one person's wanted entries to a snapshot:
// ranking = max(Lj) x max(Di), reward = ranking x 20,000,000 rials.
func computePerson(entries []personEntry, now time.Time) *Snapshot {
	if len(entries) == 0 {
		return nil
	}
	maxLj, maxDi := 0, 0
	for _, e := range entries {
		if lj := daysUnderSurveillance(e.entry, e.c, now); lj > maxLj {
			maxLj = lj
		}
		if di := levelDi(e.c.Level); di > maxDi {
			maxDi = di
		}
	}
	ranking := maxLj * maxDi
	return &Snapshot{
		ID:                uuid.New(),
		NationalID:        entries[0].participant.NationalID,
		FullName:          entries[0].participant.FullName,
		MaxDaysLj:         maxLj,
		MaxCrimeLevelDi:   maxDi,
		RankingScore:      ranking,
		RewardAmountRials: int64(ranking) * RewardMultiplierRials,
		ComputedAt:        now,
	}
}

// ComputeSnapshots recomputes the ranking for every wanted person, grouped
// by national_id, and appends one snapshot per person. Participants
// without a national_id are grouped individually.
func (s *Service) ComputeSnapshots(ctx context.Context, now time.Time) ([]*Snapshot, error) {
	entries, err := s.wanted.List(ctx, "")
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list wanted entries")
	}

	groups := make(map[string][]personEntry)
	var order []string
	for _, entry := range entries {
		c, err := s.cases.GetCase(ctx, entry.CaseID)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve wanted case")
		}
		participant, err := s.cases.GetParticipant(ctx, entry.ParticipantID)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve wanted participant")
		}
		key := participant.NationalID
		if key == "" {
			key = "_participant_" + participant.ID.String()
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], personEntry{entry: entry, c: c, participant: participant})
	}

	var snapshots []*Snapshot
	for _, key := range order {
		snapshot := computePerson(groups[key], now)
		if snapshot == nil {
			continue
		}
		if snapshot.NationalID == "" {
			snapshot.NationalID = key
		}
		if err := s.store.AppendSnapshot(ctx, snapshot); err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to persist snapshot")
		}
		snapshots = append(snapshots, snapshot)
	}
	if s.metrics != nil && len(snapshots) > 0 {
		s.metrics.RewardSnapshots.Add(float64(len(snapshots)))
	}
	return snapshots, nil
}

// SnapshotsFor returns the computation history for one national_id.
func (s *Service) SnapshotsFor(ctx context.Context, nationalID string) ([]*Snapshot, error) {
	snapshots, err := s.store.ListSnapshots(ctx, nationalID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list snapshots")
	}
	return snapshots, nil
}
