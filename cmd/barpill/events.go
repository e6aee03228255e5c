package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// This file defines the inputs to the reducer:
//
//   - Events: time ticks, audio service observations, command failures
//   - Actions: user input (pointer clicks, scroll, media keys, IPC)
//
// Actions implement the Event marker so they can be reduced directly; the
// daemon loop wraps them in TimedEvent so payload types stay clean.

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// Tick is emitted by the daemon loop at a fixed cadence.
// Dt is the wall-clock delta since the previous tick.
//
// Dt == 0 must leave widget state unchanged; Dt < 0 is a programmer error
// and aborts the tick without touching state.
type Tick struct {
	Now time.Time
	Dt  time.Duration
}

func (Tick) eventMarker() {}

// TimedEvent wraps an Action (or any payload event) with an arrival timestamp.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// AudioSnapshotObserved is emitted whenever the audio service reports state:
// from the push subscription, or as the confirmed result of a command.
type AudioSnapshotObserved struct {
	Snapshot AudioSnapshot
	At       time.Time
}

func (AudioSnapshotObserved) eventMarker() {}

// AudioCommandFailed is emitted when executing a Command against the audio
// service fails. The push stream self-corrects, so no retry state is kept.
type AudioCommandFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (AudioCommandFailed) eventMarker() {}

// MixerLaunchFailed is emitted when launching the external mixer application
// fails, either synchronously (spawn error) or after it exits non-zero.
// Non-fatal; widget state is unaffected.
type MixerLaunchFailed struct {
	Err error
	At  time.Time
}

func (MixerLaunchFailed) eventMarker() {}

// RequestStateSnapshot asks the reducer to publish a coherent snapshot of the
// current widget state to Reply. Used by the state WS server for the initial
// frame on client connect.
type RequestStateSnapshot struct {
	Reply chan StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// ==============================
// Actions (user input)
// ==============================

// Action is a marker interface for input-originated events.
type Action interface {
	eventMarker()
}

// PrimaryClick toggles mute on the bound audio sink.
// No-op when no sink is bound.
type PrimaryClick struct{}

func (PrimaryClick) eventMarker() {}

// SecondaryClick requests launching the external mixer application.
type SecondaryClick struct{}

func (SecondaryClick) eventMarker() {}

// Scroll represents scroll detents over the widget.
// Steps is positive for volume up, negative for down.
type Scroll struct {
	Steps int `json:"steps"`
}

func (Scroll) eventMarker() {}

// SetVolumeAbsolute requests volume to be set to a specific percentage.
type SetVolumeAbsolute struct {
	Percent int    `json:"percent"`
	Origin  string `json:"origin"` // e.g., "ipc", "ctl", "media-keys"
}

func (SetVolumeAbsolute) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// EventEnvelope wraps events for the line-delimited JSON IPC protocol.
// Since Go doesn't have union types, we use a type discriminator.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "primary_click":
		return PrimaryClick{}, nil

	case "secondary_click":
		return SecondaryClick{}, nil

	case "scroll":
		var a Scroll
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal Scroll: %w", err)
		}
		return a, nil

	case "set_volume_absolute":
		var a SetVolumeAbsolute
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetVolumeAbsolute: %w", err)
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	switch e := e.(type) {
	case PrimaryClick:
		env.Type = "primary_click"

	case SecondaryClick:
		env.Type = "secondary_click"

	case Scroll:
		env.Type = "scroll"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal Scroll: %w", err)
		}
		env.Data = data

	case SetVolumeAbsolute:
		env.Type = "set_volume_absolute"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal SetVolumeAbsolute: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	return json.Marshal(env)
}
