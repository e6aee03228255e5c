package main

import (
	"testing"
	"time"
)

// Tick sizes are chosen so that dt/ramp is exactly representable in binary
// floating point (125ms / 250ms = 0.5), which keeps phase transitions exact.
const testTick = 125 * time.Millisecond

func testAnimConfig() AnimConfig {
	return AnimConfig{
		RampDuration: 250 * time.Millisecond,
		HoldDuration: 2500 * time.Millisecond,
	}
}

func TestAnim_FullCycle(t *testing.T) {
	cfg := testAnimConfig()

	a := AnimState{}
	a = ApplyChange(a, AudioSnapshot{Volume: 40, SinkID: "sink0"})

	if a.Phase != PhaseExpanding {
		t.Fatalf("expected Expanding after change, got %v", a.Phase)
	}
	if a.DisplayedVolume != 40 {
		t.Fatalf("expected displayed volume 40 at transition entry, got %d", a.DisplayedVolume)
	}

	// Expand: 2 ticks of 125ms cover the 250ms ramp.
	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseExpanding {
		t.Fatalf("expected still Expanding mid-ramp, got %v", a.Phase)
	}
	if a.Width != 0.75 { // easeOutQuad(0.5)
		t.Fatalf("expected width 0.75 at half ramp, got %f", a.Width)
	}

	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseHolding {
		t.Fatalf("expected Holding after ramp, got %v", a.Phase)
	}
	if a.Width != 1 {
		t.Fatalf("expected full width in Holding, got %f", a.Width)
	}

	// Hold: 20 ticks cover the 2500ms hold.
	for i := 0; i < 19; i++ {
		a = StepAnim(a, testTick, cfg)
		if a.Phase != PhaseHolding {
			t.Fatalf("expected Holding at hold tick %d, got %v", i, a.Phase)
		}
	}
	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseCollapsing {
		t.Fatalf("expected Collapsing after hold elapsed, got %v", a.Phase)
	}

	// Collapse: 2 ticks back to Idle.
	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseCollapsing {
		t.Fatalf("expected still Collapsing mid-ramp, got %v", a.Phase)
	}
	if a.Width != 0.75 { // 1 - easeInQuad(0.5)
		t.Fatalf("expected width 0.75 at half collapse, got %f", a.Width)
	}

	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseIdle {
		t.Fatalf("expected Idle after collapse, got %v", a.Phase)
	}
	if a.Width != 0 {
		t.Fatalf("expected zero width in Idle, got %f", a.Width)
	}

	// 2 + 20 + 2 ticks of 125ms = 3000ms total cycle.
}

func TestAnim_ExpandMonotonicAndBounded(t *testing.T) {
	cfg := testAnimConfig()

	a := ApplyChange(AnimState{}, AudioSnapshot{Volume: 50, SinkID: "sink0"})

	prev := a.Width
	for i := 0; i < 30; i++ {
		a = StepAnim(a, 10*time.Millisecond, cfg)
		if a.Width < prev {
			t.Fatalf("width decreased during expand at step %d: %f -> %f", i, prev, a.Width)
		}
		if a.Width < 0 || a.Width > 1 {
			t.Fatalf("width out of bounds at step %d: %f", i, a.Width)
		}
		prev = a.Width
	}
	if a.Phase != PhaseHolding {
		t.Fatalf("expected Holding after 300ms of 250ms ramp, got %v", a.Phase)
	}
}

func TestAnim_ChangeDuringHoldRestartsHold(t *testing.T) {
	cfg := testAnimConfig()

	a := ApplyChange(AnimState{}, AudioSnapshot{Volume: 40, SinkID: "sink0"})
	a = StepAnim(a, testTick, cfg)
	a = StepAnim(a, testTick, cfg) // Holding

	// Burn most of the hold.
	for i := 0; i < 18; i++ {
		a = StepAnim(a, testTick, cfg)
	}

	// New change arrives: label updates, hold restarts, width never dips.
	a = ApplyChange(a, AudioSnapshot{Volume: 55, SinkID: "sink0"})
	if a.DisplayedVolume != 55 {
		t.Fatalf("expected displayed volume 55, got %d", a.DisplayedVolume)
	}
	if a.Width != 1 {
		t.Fatalf("expected width to stay at 1 on change during hold, got %f", a.Width)
	}

	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseHolding {
		t.Fatalf("expected fresh Holding after change, got %v", a.Phase)
	}
	if a.HoldRemaining != cfg.HoldDuration {
		t.Fatalf("expected hold timer reset to %v, got %v", cfg.HoldDuration, a.HoldRemaining)
	}

	// The stale hold expiry must not trigger a collapse: the widget holds a
	// full hold duration from the restart.
	for i := 0; i < 19; i++ {
		a = StepAnim(a, testTick, cfg)
		if a.Phase != PhaseHolding {
			t.Fatalf("unexpected phase %v at restarted-hold tick %d", a.Phase, i)
		}
		if a.Width != 1 {
			t.Fatalf("width dipped during restarted hold: %f", a.Width)
		}
	}
	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseCollapsing {
		t.Fatalf("expected Collapsing after restarted hold elapsed, got %v", a.Phase)
	}
}

func TestAnim_ChangeDuringCollapseResumesFromCurrentWidth(t *testing.T) {
	cfg := testAnimConfig()

	a := ApplyChange(AnimState{}, AudioSnapshot{Volume: 40, SinkID: "sink0"})
	a = StepAnim(a, testTick, cfg)
	a = StepAnim(a, testTick, cfg) // Holding
	for i := 0; i < 20; i++ {
		a = StepAnim(a, testTick, cfg)
	}
	if a.Phase != PhaseCollapsing {
		t.Fatalf("expected Collapsing, got %v", a.Phase)
	}

	// Halfway down: width 0.75.
	a = StepAnim(a, testTick, cfg)
	w0 := a.Width
	if w0 != 0.75 {
		t.Fatalf("expected width 0.75 mid-collapse, got %f", w0)
	}

	// Interrupting change reverses direction without snapping.
	a = ApplyChange(a, AudioSnapshot{Volume: 60, SinkID: "sink0"})
	if a.Phase != PhaseExpanding {
		t.Fatalf("expected Expanding after interrupting change, got %v", a.Phase)
	}
	if a.Width != w0 {
		t.Fatalf("width snapped on reversal: %f -> %f", w0, a.Width)
	}

	// From resumed progress p0 = 1-sqrt(1-0.75) = 0.5, one 125ms tick
	// completes the ramp.
	a = StepAnim(a, testTick, cfg)
	if a.Phase != PhaseHolding {
		t.Fatalf("expected Holding after resumed expand, got %v", a.Phase)
	}
	if a.Width != 1 {
		t.Fatalf("expected full width after resumed expand, got %f", a.Width)
	}
}

func TestAnim_CollapseMonotonic(t *testing.T) {
	cfg := testAnimConfig()

	a := AnimState{Phase: PhaseCollapsing, Width: 1, Progress: 0, DisplayedVolume: 40}

	prev := a.Width
	for i := 0; i < 30; i++ {
		a = StepAnim(a, 10*time.Millisecond, cfg)
		if a.Width > prev {
			t.Fatalf("width increased during collapse at step %d: %f -> %f", i, prev, a.Width)
		}
		prev = a.Width
	}
	if a.Phase != PhaseIdle {
		t.Fatalf("expected Idle after 300ms of 250ms collapse, got %v", a.Phase)
	}
}

func TestAnim_ZeroDtIsNoOp(t *testing.T) {
	cfg := testAnimConfig()

	a := ApplyChange(AnimState{}, AudioSnapshot{Volume: 40, SinkID: "sink0"})
	a = StepAnim(a, testTick, cfg)

	before := a
	after := StepAnim(a, 0, cfg)
	if after != before {
		t.Fatalf("zero dt changed animation state: %+v -> %+v", before, after)
	}
}
