package main

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// mockAudioClient is a test double for AudioClient
type mockAudioClient struct {
	snapshot AudioSnapshot

	setVolCalls  []int
	setMuteCalls []bool
	toggleCalls  int
	getCalls     int
}

func newMockAudioClient(initial AudioSnapshot) *mockAudioClient {
	return &mockAudioClient{snapshot: initial}
}

func (m *mockAudioClient) GetDefaultSink() (string, error) {
	return m.snapshot.SinkID, nil
}

func (m *mockAudioClient) GetSnapshot() (AudioSnapshot, error) {
	m.getCalls++
	return m.snapshot, nil
}

func (m *mockAudioClient) SetVolume(percent int) (AudioSnapshot, error) {
	m.setVolCalls = append(m.setVolCalls, percent)
	m.snapshot.Volume = percent
	return m.snapshot, nil
}

func (m *mockAudioClient) SetMute(mute bool) (AudioSnapshot, error) {
	m.setMuteCalls = append(m.setMuteCalls, mute)
	m.snapshot.Muted = mute
	return m.snapshot, nil
}

func (m *mockAudioClient) ToggleMute() (AudioSnapshot, error) {
	m.toggleCalls++
	m.snapshot.Muted = !m.snapshot.Muted
	return m.snapshot, nil
}

func (m *mockAudioClient) Close() error { return nil }

func testWidgetConfig() WidgetConfig {
	return WidgetConfig{
		QuietWindow:  100 * time.Millisecond,
		Anim:         testAnimConfig(),
		StepPercent:  5,
		LowThreshold: 30,
		MaxPillWidth: 58,
		Icons:        IconSet{Muted: "M", Low: "L", High: "H"},
		Colors: ColorSet{
			IconBackground:      "#89b4fa",
			IconBackgroundMuted: "#6c7086",
			PillBackground:      "#313244",
			Label:               "#cdd6f4",
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedBaseline feeds the first observation so the widget has a settled
// starting point without animating.
func seedBaseline(t *testing.T, s *WidgetState, cfg WidgetConfig, snap AudioSnapshot, at time.Time) {
	t.Helper()
	rr := Reduce(s, AudioSnapshotObserved{Snapshot: snap, At: at}, cfg)
	if rr.State.Anim.Phase != PhaseIdle {
		t.Fatalf("baseline observation must not animate, got phase %v", rr.State.Anim.Phase)
	}
	if rr.State.Anim.DisplayedVolume != snap.Volume {
		t.Fatalf("baseline observation must set displayed volume, got %d", rr.State.Anim.DisplayedVolume)
	}
}

func TestReducer_DebounceBurstLatestWins(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 10, SinkID: "sink0"}, t0)

	// Burst: three observations inside 100ms of each other.
	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 20, SinkID: "sink0"}, At: t0.Add(10 * time.Millisecond)}, cfg)
	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 25, SinkID: "sink0"}, At: t0.Add(40 * time.Millisecond)}, cfg)
	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 30, SinkID: "sink0"}, At: t0.Add(80 * time.Millisecond)}, cfg)

	if s.Debounce.Pending == nil || s.Debounce.Pending.Volume != 30 {
		t.Fatalf("expected pending snapshot 30 (latest wins), got %+v", s.Debounce.Pending)
	}

	// A tick before the deadline must not settle anything.
	Reduce(s, Tick{Now: t0.Add(100 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)
	if s.Anim.Phase != PhaseIdle {
		t.Fatalf("change settled before quiet window elapsed, phase %v", s.Anim.Phase)
	}

	// Deadline is 80ms + 100ms = 180ms; the tick crossing it settles once.
	Reduce(s, Tick{Now: t0.Add(190 * time.Millisecond), Dt: 90 * time.Millisecond}, cfg)
	if s.Anim.Phase != PhaseExpanding {
		t.Fatalf("expected Expanding after quiet window, got %v", s.Anim.Phase)
	}
	if s.Anim.DisplayedVolume != 30 {
		t.Fatalf("expected one settled change to 30, got displayed %d", s.Anim.DisplayedVolume)
	}
	if s.Debounce.Pending != nil {
		t.Fatalf("pending not cleared after settle")
	}
	if !s.Debounce.Emitted || s.Debounce.LastEmitted.Volume != 30 {
		t.Fatalf("expected last emitted 30, got %+v", s.Debounce.LastEmitted)
	}
}

func TestReducer_ReturnToBaselineCancelsPending(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 10, SinkID: "sink0"}, t0)

	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 30, SinkID: "sink0"}, At: t0.Add(10 * time.Millisecond)}, cfg)
	if s.Debounce.Pending == nil {
		t.Fatalf("expected pending change")
	}

	// Value returns to the settled one before the window expires: net no change.
	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 10, SinkID: "sink0"}, At: t0.Add(50 * time.Millisecond)}, cfg)
	if s.Debounce.Pending != nil {
		t.Fatalf("pending should be cleared when value returns to baseline")
	}

	Reduce(s, Tick{Now: t0.Add(300 * time.Millisecond), Dt: 300 * time.Millisecond}, cfg)
	if s.Anim.Phase != PhaseIdle {
		t.Fatalf("no animation expected after net no-op burst, got %v", s.Anim.Phase)
	}
}

func TestReducer_ScrollClampsAtMax(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 98, SinkID: "sink0"}, t0)

	Reduce(s, TimedEvent{Event: Scroll{Steps: 1}, At: t0.Add(time.Millisecond)}, cfg)
	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)

	if len(rr.Commands) != 1 {
		t.Fatalf("expected 1 command on tick, got %d", len(rr.Commands))
	}
	cmd, ok := rr.Commands[0].(CmdSetVolume)
	if !ok {
		t.Fatalf("expected CmdSetVolume, got %T", rr.Commands[0])
	}
	if cmd.Percent != 100 {
		t.Fatalf("expected clamp to 100, got %d", cmd.Percent)
	}
}

func TestReducer_ScrollBurstCoalescesLatestWins(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 50, SinkID: "sink0"}, t0)

	// Three detents before the next tick: one command, cumulative target.
	Reduce(s, TimedEvent{Event: Scroll{Steps: 1}, At: t0}, cfg)
	Reduce(s, TimedEvent{Event: Scroll{Steps: 1}, At: t0}, cfg)
	Reduce(s, TimedEvent{Event: Scroll{Steps: -1}, At: t0}, cfg)

	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)
	if len(rr.Commands) != 1 {
		t.Fatalf("expected 1 coalesced command, got %d", len(rr.Commands))
	}
	cmd := rr.Commands[0].(CmdSetVolume)
	if cmd.Percent != 55 {
		t.Fatalf("expected cumulative target 55, got %d", cmd.Percent)
	}
}

func TestReducer_NoSinkActionsAreNoOps(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	// Sink absent: SinkID empty.
	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 0, Muted: true, SinkID: ""}, t0)

	Reduce(s, TimedEvent{Event: PrimaryClick{}, At: t0}, cfg)
	Reduce(s, TimedEvent{Event: Scroll{Steps: 1}, At: t0}, cfg)
	Reduce(s, TimedEvent{Event: SetVolumeAbsolute{Percent: 40}, At: t0}, cfg)

	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)
	if len(rr.Commands) != 0 {
		t.Fatalf("expected no commands without a sink, got %v", rr.Commands)
	}
	if s.Anim.Phase != PhaseIdle {
		t.Fatalf("widget state disturbed by no-op actions: phase %v", s.Anim.Phase)
	}
}

func TestReducer_PrimaryClickEmitsToggleMute(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 50, SinkID: "sink0"}, t0)

	Reduce(s, TimedEvent{Event: PrimaryClick{}, At: t0}, cfg)
	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)

	if len(rr.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(rr.Commands))
	}
	if _, ok := rr.Commands[0].(CmdToggleMute); !ok {
		t.Fatalf("expected CmdToggleMute, got %T", rr.Commands[0])
	}
}

func TestReducer_SecondaryClickLaunchesMixerWithoutSink(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	// The mixer is useful precisely when no sink is bound.
	seedBaseline(t, s, cfg, AudioSnapshot{SinkID: ""}, t0)

	Reduce(s, TimedEvent{Event: SecondaryClick{}, At: t0}, cfg)
	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)

	if len(rr.Commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(rr.Commands))
	}
	if _, ok := rr.Commands[0].(CmdLaunchMixer); !ok {
		t.Fatalf("expected CmdLaunchMixer, got %T", rr.Commands[0])
	}
}

func TestReducer_NegativeDtAbortsTick(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 10, SinkID: "sink0"}, t0)
	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 30, SinkID: "sink0"}, At: t0.Add(10 * time.Millisecond)}, cfg)
	s.RequestToggleMute()

	before := *s
	rr := Reduce(s, Tick{Now: t0.Add(time.Hour), Dt: -time.Second}, cfg)

	if len(rr.Commands) != 0 || len(rr.Broadcasts) != 0 {
		t.Fatalf("negative dt tick produced output: %v %v", rr.Commands, rr.Broadcasts)
	}
	if *s != before {
		t.Fatalf("negative dt tick mutated state")
	}
	if s.Debounce.Pending == nil {
		t.Fatalf("pending change lost on aborted tick")
	}
}

func TestReducer_ZeroDtTickIsIdempotent(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 40, SinkID: "sink0"}, t0)

	// First tick settles nothing but emits the initial frame.
	Reduce(s, Tick{Now: t0, Dt: 10 * time.Millisecond}, cfg)

	before := *s
	rr := Reduce(s, Tick{Now: t0, Dt: 0}, cfg)
	if *s != before {
		t.Fatalf("zero dt tick changed widget state")
	}
	if len(rr.Broadcasts) != 0 {
		t.Fatalf("zero dt tick rebroadcast an unchanged frame")
	}
}

func TestReducer_SetVolumeAbsoluteClamps(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 50, SinkID: "sink0"}, t0)

	Reduce(s, TimedEvent{Event: SetVolumeAbsolute{Percent: 150, Origin: "test"}, At: t0}, cfg)
	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)

	cmd, ok := rr.Commands[0].(CmdSetVolume)
	if !ok {
		t.Fatalf("expected CmdSetVolume, got %T", rr.Commands[0])
	}
	if cmd.Percent != 100 {
		t.Fatalf("expected clamp to 100, got %d", cmd.Percent)
	}
}

func TestReducer_ObservationClampsVolume(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 250, SinkID: "sink0"}, At: t0}, cfg)
	if s.Audio.Snapshot.Volume != 100 {
		t.Fatalf("expected ingestion clamp to 100, got %d", s.Audio.Snapshot.Volume)
	}

	Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: -5, SinkID: "sink0"}, At: t0.Add(time.Millisecond)}, cfg)
	if s.Audio.Snapshot.Volume != 0 {
		t.Fatalf("expected ingestion clamp to 0, got %d", s.Audio.Snapshot.Volume)
	}
}

func TestReducer_FrameBroadcastOnlyOnChange(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 40, SinkID: "sink0"}, t0)

	rr := Reduce(s, Tick{Now: t0, Dt: 10 * time.Millisecond}, cfg)
	if len(rr.Broadcasts) != 1 {
		t.Fatalf("expected initial frame broadcast, got %d", len(rr.Broadcasts))
	}
	if _, ok := rr.Broadcasts[0].(BroadcastFrame); !ok {
		t.Fatalf("expected BroadcastFrame, got %T", rr.Broadcasts[0])
	}

	// Idle widget: subsequent ticks change nothing, broadcast nothing.
	rr = Reduce(s, Tick{Now: t0.Add(10 * time.Millisecond), Dt: 10 * time.Millisecond}, cfg)
	if len(rr.Broadcasts) != 0 {
		t.Fatalf("expected no broadcast for unchanged frame, got %d", len(rr.Broadcasts))
	}
}

func TestReducer_ObservationBroadcastsRawChanges(t *testing.T) {
	cfg := testWidgetConfig()
	s := NewWidgetState()
	t0 := time.Now()

	rr := Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 40, SinkID: "sink0"}, At: t0}, cfg)
	// First observation reports both volume and mute.
	if len(rr.Broadcasts) != 2 {
		t.Fatalf("expected 2 broadcasts on first observation, got %d", len(rr.Broadcasts))
	}

	rr = Reduce(s, AudioSnapshotObserved{Snapshot: AudioSnapshot{Volume: 40, Muted: true, SinkID: "sink0"}, At: t0.Add(time.Millisecond)}, cfg)
	if len(rr.Broadcasts) != 1 {
		t.Fatalf("expected 1 broadcast for mute-only change, got %d", len(rr.Broadcasts))
	}
	mc, ok := rr.Broadcasts[0].(BroadcastMuteChanged)
	if !ok {
		t.Fatalf("expected BroadcastMuteChanged, got %T", rr.Broadcasts[0])
	}
	if !mc.Muted {
		t.Fatalf("expected muted=true broadcast")
	}
}

// TestDaemonFlow_ClickToObservation drives the full reduce/effect cycle the
// daemon loop performs, with a mock audio client standing in for the service.
func TestDaemonFlow_ClickToObservation(t *testing.T) {
	cfg := testWidgetConfig()
	logger := testLogger()
	client := newMockAudioClient(AudioSnapshot{Volume: 50, SinkID: "sink0"})

	s := NewWidgetState()
	t0 := time.Now()
	seedBaseline(t, s, cfg, AudioSnapshot{Volume: 50, SinkID: "sink0"}, t0)

	// Click, then tick to flush the intent.
	Reduce(s, TimedEvent{Event: PrimaryClick{}, At: t0}, cfg)
	rr := Reduce(s, Tick{Now: t0.Add(20 * time.Millisecond), Dt: 20 * time.Millisecond}, cfg)

	if client.toggleCalls != 0 {
		t.Fatalf("side effects ran before command execution")
	}

	// Execute commands the way the daemon loop does.
	var observed []Event
	for _, cmd := range rr.Commands {
		runEffect(client, nil, cmd, logger, func(ev Event) {
			observed = append(observed, ev)
		})
	}

	if client.toggleCalls != 1 {
		t.Fatalf("expected 1 ToggleMute call, got %d", client.toggleCalls)
	}
	if len(observed) != 1 {
		t.Fatalf("expected 1 observation event, got %d", len(observed))
	}

	// Feed the confirmed snapshot back; the mute change arms the debouncer.
	Reduce(s, observed[0], cfg)
	if s.Debounce.Pending == nil || !s.Debounce.Pending.Muted {
		t.Fatalf("expected pending muted snapshot after toggle, got %+v", s.Debounce.Pending)
	}

	// Quiet window elapses: the pill expands showing the muted state.
	Reduce(s, Tick{Now: t0.Add(200 * time.Millisecond), Dt: 180 * time.Millisecond}, cfg)
	if s.Anim.Phase != PhaseExpanding || !s.Anim.DisplayedMuted {
		t.Fatalf("expected Expanding muted widget, got phase %v muted %v", s.Anim.Phase, s.Anim.DisplayedMuted)
	}
}

func TestEffects_CommandFailureWithoutClient(t *testing.T) {
	logger := testLogger()

	var observed []Event
	runEffect(nil, nil, CmdSetVolume{Percent: 40}, logger, func(ev Event) {
		observed = append(observed, ev)
	})

	if len(observed) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(observed))
	}
	if _, ok := observed[0].(AudioCommandFailed); !ok {
		t.Fatalf("expected AudioCommandFailed, got %T", observed[0])
	}
}
