package main

import (
	"fmt"
	"time"
)

// Command is the output of the reducer: a side effect the daemon loop must
// execute. Commands are the only way state reaches the outside world; the
// reducer itself never does I/O.
type Command interface {
	commandMarker()
	String() string
}

// CmdSetVolume sets the sink volume to an absolute percentage.
type CmdSetVolume struct {
	Percent int
}

func (CmdSetVolume) commandMarker() {}
func (c CmdSetVolume) String() string {
	return fmt.Sprintf("CmdSetVolume{%d%%}", c.Percent)
}

// CmdSetMute sets the sink mute state explicitly.
type CmdSetMute struct {
	Muted bool
}

func (CmdSetMute) commandMarker() {}
func (c CmdSetMute) String() string {
	return fmt.Sprintf("CmdSetMute{%v}", c.Muted)
}

// CmdToggleMute flips the sink mute state.
type CmdToggleMute struct{}

func (CmdToggleMute) commandMarker() {}
func (CmdToggleMute) String() string {
	return "CmdToggleMute{}"
}

// CmdGetSnapshot asks the audio service for its current state. The result
// comes back as an AudioSnapshotObserved event. Used for the initial sync.
type CmdGetSnapshot struct{}

func (CmdGetSnapshot) commandMarker() {}
func (CmdGetSnapshot) String() string {
	return "CmdGetSnapshot{}"
}

// CmdLaunchMixer spawns the external mixer application. Non-blocking;
// failure surfaces as a MixerLaunchFailed event.
type CmdLaunchMixer struct{}

func (CmdLaunchMixer) commandMarker() {}
func (CmdLaunchMixer) String() string {
	return "CmdLaunchMixer{}"
}

// CmdPublishStateSnapshot delivers a coherent state snapshot to a waiting
// requester (the state WS server on client connect).
type CmdPublishStateSnapshot struct {
	Reply    chan StateSnapshot
	Snapshot StateSnapshot
}

func (CmdPublishStateSnapshot) commandMarker() {}
func (c CmdPublishStateSnapshot) String() string {
	return "CmdPublishStateSnapshot{}"
}

// StateBroadcast is a reducer output fanned out to state WS clients.
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastFrame carries a new render projection. Emitted only when the frame
// differs from the previously broadcast one.
type BroadcastFrame struct {
	Frame Frame
	At    time.Time
}

func (BroadcastFrame) broadcastMarker() {}

// BroadcastVolumeChanged reports the raw observed volume, independent of the
// debounce window. Bursty; the WS broadcaster coalesces it latest-wins.
type BroadcastVolumeChanged struct {
	Volume int
	At     time.Time
}

func (BroadcastVolumeChanged) broadcastMarker() {}

// BroadcastMuteChanged reports the raw observed mute state.
type BroadcastMuteChanged struct {
	Muted bool
	At    time.Time
}

func (BroadcastMuteChanged) broadcastMarker() {}
