package regression

import (
	"github.com/okian/battrend/internal/domain/model"
)

// EvidenceState says whether batted-ball quality can corroborate a power gain.
type EvidenceState string

// Evidence states. Absent and Inapplicable are unknowns, never negatives.
const (
	EvidenceAbsent       EvidenceState = "absent"
	EvidenceInapplicable EvidenceState = "inapplicable"
	EvidencePresent      EvidenceState = "present"
)

// Evidence compares current batted-ball quality with the career baseline.
// Deltas are set only when State is EvidencePresent.
type Evidence struct {
	State             EvidenceState `json:"state" yaml:"state"`
	ExitVelocityDelta *float64      `json:"exit_velocity_delta,omitempty" yaml:"exit_velocity_delta,omitempty"`
	HardHitDelta      *float64      `json:"hard_hit_delta,omitempty" yaml:"hard_hit_delta,omitempty"`
	BarrelDelta       *float64      `json:"barrel_delta,omitempty" yaml:"barrel_delta,omitempty"`
	Reason            string        `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Assess builds the evidence for current against the career quality baseline.
// A sample of fewer than minBattedBalls tracked balls is inapplicable; a zero
// count means the source did not report one and is accepted.
func Assess(current, career *model.BattedBallQuality, minBattedBalls int) Evidence {
	switch {
	case current == nil:
		return Evidence{State: EvidenceAbsent, Reason: "no batted-ball data this season"}
	case career == nil:
		return Evidence{State: EvidenceAbsent, Reason: "no batted-ball history to compare against"}
	case current.BattedBalls > 0 && current.BattedBalls < minBattedBalls:
		return Evidence{State: EvidenceInapplicable, Reason: "too few tracked batted balls"}
	}
	ev := current.ExitVelocity - career.ExitVelocity
	hh := current.HardHitPct - career.HardHitPct
	br := current.BarrelPct - career.BarrelPct
	return Evidence{State: EvidencePresent, ExitVelocityDelta: &ev, HardHitDelta: &hh, BarrelDelta: &br}
}

// Unsupported reports whether present evidence contradicts a power gain: exit
// velocity and barrel rate both fell. Unknown evidence is never unsupported.
func (e Evidence) Unsupported() bool {
	if e.State != EvidencePresent || e.ExitVelocityDelta == nil || e.BarrelDelta == nil {
		return false
	}
	return *e.ExitVelocityDelta < 0 && *e.BarrelDelta < 0
}
