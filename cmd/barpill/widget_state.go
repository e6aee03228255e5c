package main

import "time"

// AudioSnapshot is one observation of the audio service state.
// Immutable per observation; a later snapshot supersedes it atomically.
// SinkID == "" means no sink is bound.
type AudioSnapshot struct {
	Volume int    `json:"volume"`
	Muted  bool   `json:"muted"`
	SinkID string `json:"sink_id"`
}

// Clamped returns the snapshot with volume forced into [0,100]. Applied at
// the ingestion boundary so malformed service output never propagates.
func (s AudioSnapshot) Clamped() AudioSnapshot {
	if s.Volume < minVolumePercent {
		s.Volume = minVolumePercent
	}
	if s.Volume > maxVolumePercent {
		s.Volume = maxVolumePercent
	}
	return s
}

// HasSink reports whether a sink is bound.
func (s AudioSnapshot) HasSink() bool {
	return s.SinkID != ""
}

// AudioObservedState tracks the latest snapshot seen from the audio service.
type AudioObservedState struct {
	Snapshot AudioSnapshot
	Known    bool // false until the first observation arrives
	At       time.Time
}

// DebounceState is the quiet-window change detector. A pending snapshot is
// held until no new change arrives for the quiet window; the last pending
// value always wins. All timing flows through Tick, so there is no timer
// that can fire into a stale phase.
type DebounceState struct {
	Pending     *AudioSnapshot
	Deadline    time.Time
	LastEmitted AudioSnapshot
	Emitted     bool // false until the baseline observation has been recorded
}

// WidgetIntent holds coalesced user input between ticks. Latest wins;
// flushed into commands on the next Tick.
type WidgetIntent struct {
	MuteTogglePending  bool
	DesiredVolume      *int
	MixerLaunchPending bool
}

// WidgetState is the complete daemon-owned state. It is intended to be read
// and mutated only by the daemon goroutine, through Reduce.
type WidgetState struct {
	Audio    AudioObservedState
	Debounce DebounceState
	Anim     AnimState
	Intent   WidgetIntent

	// Last broadcast frame, for change suppression.
	LastFrame      Frame
	LastFrameValid bool
}

// NewWidgetState returns the initial state: no observation, idle animation.
func NewWidgetState() *WidgetState {
	return &WidgetState{}
}

// RequestToggleMute records a mute-toggle intent (latest wins is trivial
// here since the toggle is idempotent within a tick).
func (s *WidgetState) RequestToggleMute() {
	s.Intent.MuteTogglePending = true
}

// RequestVolume records a desired absolute volume, replacing any previous
// unflushed request.
func (s *WidgetState) RequestVolume(percent int) {
	v := percent
	s.Intent.DesiredVolume = &v
}

// RequestMixerLaunch records a mixer launch intent.
func (s *WidgetState) RequestMixerLaunch() {
	s.Intent.MixerLaunchPending = true
}

// ConsumeIntents drains pending intents into commands, in a stable order.
// Called once per Tick by the reducer.
func (s *WidgetState) ConsumeIntents() []Command {
	var cmds []Command
	if s.Intent.MuteTogglePending {
		cmds = append(cmds, CmdToggleMute{})
		s.Intent.MuteTogglePending = false
	}
	if s.Intent.DesiredVolume != nil {
		cmds = append(cmds, CmdSetVolume{Percent: *s.Intent.DesiredVolume})
		s.Intent.DesiredVolume = nil
	}
	if s.Intent.MixerLaunchPending {
		cmds = append(cmds, CmdLaunchMixer{})
		s.Intent.MixerLaunchPending = false
	}
	return cmds
}
