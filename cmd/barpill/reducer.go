package main

// The reducer is the only place widget state changes. It is a pure function
// of (state, event, config): no I/O, no time.Now, no goroutines. The daemon
// loop feeds it events in arrival order and executes the commands it emits.

// ReduceResult is the outcome of one Reduce call.
type ReduceResult struct {
	State      *WidgetState
	Commands   []Command
	Broadcasts []StateBroadcast
}

// Reduce applies one event to the widget state.
//
// Intended to be called only by the daemon goroutine.
func Reduce(s *WidgetState, e Event, cfg WidgetConfig) ReduceResult {
	res := ReduceResult{State: s}

	switch e := e.(type) {
	case Tick:
		return reduceTick(s, e, cfg)

	case TimedEvent:
		return reduceTimed(s, e, cfg)

	case AudioSnapshotObserved:
		return reduceObservation(s, e, cfg)

	case AudioCommandFailed:
		// The push stream self-corrects; keep state as-is.
		return res

	case MixerLaunchFailed:
		// Non-fatal; widget state is unaffected.
		return res

	case RequestStateSnapshot:
		res.Commands = append(res.Commands, CmdPublishStateSnapshot{
			Reply:    e.Reply,
			Snapshot: SnapshotOf(s, cfg),
		})
		return res
	}

	return res
}

// reduceTick advances all time-driven state: the animation machine, the
// debounce deadline, and the intent flush. It is the only event that moves
// time forward, so a zero dt leaves the widget exactly as it was.
func reduceTick(s *WidgetState, t Tick, cfg WidgetConfig) ReduceResult {
	res := ReduceResult{State: s}

	// Negative dt means the clock source is broken. Abort the tick without
	// touching state rather than guessing at a clamp.
	if t.Dt < 0 {
		return res
	}

	s.Anim = StepAnim(s.Anim, t.Dt, cfg.Anim)

	// Settle a pending change once the quiet window has elapsed. The change
	// enters the animation machine in the same call, so it cannot be lost.
	if s.Debounce.Pending != nil && !t.Now.Before(s.Debounce.Deadline) {
		settled := *s.Debounce.Pending
		s.Debounce.Pending = nil
		s.Debounce.LastEmitted = settled
		s.Debounce.Emitted = true
		s.Anim = ApplyChange(s.Anim, settled)
	}

	res.Commands = append(res.Commands, s.ConsumeIntents()...)

	// Broadcast the frame only when it changed since the last broadcast.
	frame := ProjectFrame(s, cfg)
	if !s.LastFrameValid || frame != s.LastFrame {
		s.LastFrame = frame
		s.LastFrameValid = true
		res.Broadcasts = append(res.Broadcasts, BroadcastFrame{
			Frame: frame,
			At:    t.Now,
		})
	}

	return res
}

// reduceTimed handles input actions. Actions only record intents or arm the
// debouncer; commands flow out on the next Tick so bursts coalesce.
func reduceTimed(s *WidgetState, te TimedEvent, cfg WidgetConfig) ReduceResult {
	res := ReduceResult{State: s}

	switch a := te.Event.(type) {
	case PrimaryClick:
		// Mute toggle needs a sink to act on.
		if !s.Audio.Known || !s.Audio.Snapshot.HasSink() {
			return res
		}
		s.RequestToggleMute()

	case SecondaryClick:
		// The mixer is an external program; no sink needed.
		s.RequestMixerLaunch()

	case Scroll:
		if !s.Audio.Known || !s.Audio.Snapshot.HasSink() {
			return res
		}
		base := s.Audio.Snapshot.Volume
		if s.Intent.DesiredVolume != nil {
			base = *s.Intent.DesiredVolume
		}
		s.RequestVolume(clampVolume(base + a.Steps*cfg.StepPercent))

	case SetVolumeAbsolute:
		if !s.Audio.Known || !s.Audio.Snapshot.HasSink() {
			return res
		}
		s.RequestVolume(clampVolume(a.Percent))

	default:
		// Nested non-action events are reduced directly.
		return Reduce(s, te.Event, cfg)
	}

	return res
}

// reduceObservation ingests one audio service snapshot. The first observation
// becomes the displayed baseline without animating; later ones arm or re-arm
// the quiet-window debouncer.
func reduceObservation(s *WidgetState, o AudioSnapshotObserved, cfg WidgetConfig) ReduceResult {
	res := ReduceResult{State: s}

	snap := o.Snapshot.Clamped()

	prev := s.Audio
	s.Audio = AudioObservedState{Snapshot: snap, Known: true, At: o.At}

	// Raw change broadcasts are independent of the debounce window; the WS
	// broadcaster coalesces the bursty ones.
	if !prev.Known || prev.Snapshot.Volume != snap.Volume {
		res.Broadcasts = append(res.Broadcasts, BroadcastVolumeChanged{
			Volume: snap.Volume,
			At:     o.At,
		})
	}
	if !prev.Known || prev.Snapshot.Muted != snap.Muted {
		res.Broadcasts = append(res.Broadcasts, BroadcastMuteChanged{
			Muted: snap.Muted,
			At:    o.At,
		})
	}

	if !s.Debounce.Emitted {
		// Startup baseline: show the right label immediately, don't animate
		// a change the user didn't make.
		s.Debounce.LastEmitted = snap
		s.Debounce.Emitted = true
		s.Anim.DisplayedVolume = snap.Volume
		s.Anim.DisplayedMuted = snap.Muted
		return res
	}

	if snap == s.Debounce.LastEmitted {
		// A burst that returned to the settled value nets out to no change.
		s.Debounce.Pending = nil
		return res
	}

	// Latest wins: replace any pending value and re-arm the deadline.
	s.Debounce.Pending = &snap
	s.Debounce.Deadline = o.At.Add(cfg.QuietWindow)

	return res
}

func clampVolume(v int) int {
	if v < minVolumePercent {
		return minVolumePercent
	}
	if v > maxVolumePercent {
		return maxVolumePercent
	}
	return v
}
