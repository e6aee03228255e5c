package main

import (
	"math"
	"time"
)

// The pill animation is a four-phase state machine driven exclusively by
// ticks. Width is a fraction in [0,1]; the projection scales it to pixels.
//
//	Idle -> Expanding -> Holding -> Collapsing -> Idle
//
// A settled audio change during any phase re-enters Expanding from the
// current width, so interrupted ramps resume without snapping.

// AnimPhase identifies the current animation phase.
type AnimPhase int

const (
	PhaseIdle AnimPhase = iota
	PhaseExpanding
	PhaseHolding
	PhaseCollapsing
)

func (p AnimPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseExpanding:
		return "expanding"
	case PhaseHolding:
		return "holding"
	case PhaseCollapsing:
		return "collapsing"
	default:
		return "unknown"
	}
}

// AnimConfig holds the animation timing knobs.
type AnimConfig struct {
	RampDuration time.Duration // expand and collapse ramp length
	HoldDuration time.Duration // time at full width before collapsing
}

// AnimState is the animation machine state. Pure value; stepped by StepAnim
// and mutated by ApplyChange, both of which return the next state.
type AnimState struct {
	Phase AnimPhase

	// What the pill displays. Updated at the moment a settled change enters
	// the machine, so the label is correct before the pill grows.
	DisplayedVolume int
	DisplayedMuted  bool

	// Width fraction in [0,1]. Opacity tracks it.
	Width float64

	// Ramp progress in [0,1] for Expanding/Collapsing.
	Progress float64

	// Time left at full width for Holding.
	HoldRemaining time.Duration
}

// easeOutQuad maps ramp progress to width during expansion: fast start,
// gentle landing at full width.
func easeOutQuad(p float64) float64 {
	return 1 - (1-p)*(1-p)
}

// easeInQuad maps ramp progress to collapsed distance: gentle start,
// fast finish.
func easeInQuad(q float64) float64 {
	return q * q
}

// expandProgressFor returns the expand progress p such that
// easeOutQuad(p) == w. Used to resume an expansion from an arbitrary width.
func expandProgressFor(w float64) float64 {
	if w <= 0 {
		return 0
	}
	if w >= 1 {
		return 1
	}
	return 1 - math.Sqrt(1-w)
}

// collapseProgressFor returns the collapse progress q such that
// 1-easeInQuad(q) == w. Used to start a collapse from an arbitrary width.
func collapseProgressFor(w float64) float64 {
	if w >= 1 {
		return 0
	}
	if w <= 0 {
		return 1
	}
	return math.Sqrt(1 - w)
}

// ApplyChange feeds one settled audio change into the machine. The displayed
// values update immediately; the phase re-enters Expanding from the current
// width so an in-flight collapse reverses continuously and a hold restarts.
func ApplyChange(a AnimState, snap AudioSnapshot) AnimState {
	a.DisplayedVolume = snap.Volume
	a.DisplayedMuted = snap.Muted

	switch a.Phase {
	case PhaseIdle:
		a.Phase = PhaseExpanding
		a.Progress = 0
		a.Width = 0

	case PhaseExpanding:
		// Already on the way up; keep the ramp, only the label changed.

	case PhaseHolding, PhaseCollapsing:
		a.Phase = PhaseExpanding
		a.Progress = expandProgressFor(a.Width)
	}

	return a
}

// StepAnim advances the machine by dt. dt <= 0 returns the state unchanged;
// the caller is responsible for treating negative dt as an error.
func StepAnim(a AnimState, dt time.Duration, cfg AnimConfig) AnimState {
	if dt <= 0 {
		return a
	}

	switch a.Phase {
	case PhaseIdle:
		// Nothing moves.

	case PhaseExpanding:
		a.Progress += float64(dt) / float64(cfg.RampDuration)
		if a.Progress >= 1 {
			a.Progress = 1
			a.Width = 1
			a.Phase = PhaseHolding
			a.HoldRemaining = cfg.HoldDuration
		} else {
			a.Width = easeOutQuad(a.Progress)
		}

	case PhaseHolding:
		a.HoldRemaining -= dt
		if a.HoldRemaining <= 0 {
			a.Phase = PhaseCollapsing
			a.Progress = collapseProgressFor(a.Width)
		}

	case PhaseCollapsing:
		a.Progress += float64(dt) / float64(cfg.RampDuration)
		if a.Progress >= 1 {
			a.Progress = 1
			a.Width = 0
			a.Phase = PhaseIdle
		} else {
			a.Width = 1 - easeInQuad(a.Progress)
		}
	}

	return a
}
