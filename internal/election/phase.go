package election

import (
	"time"

	"votebyte/internal/model"
)

// DerivePhase computes the phase of an election at a given instant. It is a
// pure function of the time window except for CANCELLED, which is absorbing:
// once stored, no amount of time progression changes it. The window is
// inclusive on both ends.
func DerivePhase(start, end time.Time, stored model.Phase, now time.Time) model.Phase {
	if stored == model.PhaseCancelled {
		return model.PhaseCancelled
	}
	switch {
	case now.Before(start):
		return model.PhaseUpcoming
	case now.After(end):
		return model.PhaseCompleted
	default:
		return model.PhaseOngoing
	}
}
