package main

import (
	"log/slog"
	"time"
)

// runEffect executes a single reducer-emitted Command (side effect) against
// external systems (the audio service and the mixer launcher) and emits an
// observation Event via onEvent.
//
// Design rules:
// - This function is allowed to perform I/O.
// - It must never call Reduce() directly; it only emits Events to be reduced by the daemon loop.
// - The daemon loop is responsible for sequencing: Reduce -> Commands -> runEffect -> Events -> Reduce.
func runEffect(
	client AudioClientInterface,
	mixer *MixerLauncher,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	if onEvent == nil {
		// No place to report observations/errors; nothing sensible to do.
		return
	}

	now := time.Now()

	switch c := cmd.(type) {
	case CmdSetVolume:
		if client == nil {
			onEvent(AudioCommandFailed{Command: cmd, Err: errNoClient{}, At: now})
			return
		}
		snap, err := client.SetVolume(c.Percent)
		if err != nil {
			logger.Error("audio SetVolume failed", "error", err, "percent", c.Percent)
			onEvent(AudioCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(AudioSnapshotObserved{Snapshot: snap, At: now})

	case CmdSetMute:
		if client == nil {
			onEvent(AudioCommandFailed{Command: cmd, Err: errNoClient{}, At: now})
			return
		}
		snap, err := client.SetMute(c.Muted)
		if err != nil {
			logger.Error("audio SetMute failed", "error", err, "muted", c.Muted)
			onEvent(AudioCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(AudioSnapshotObserved{Snapshot: snap, At: now})

	case CmdToggleMute:
		if client == nil {
			onEvent(AudioCommandFailed{Command: cmd, Err: errNoClient{}, At: now})
			return
		}
		snap, err := client.ToggleMute()
		if err != nil {
			logger.Error("audio ToggleMute failed", "error", err)
			onEvent(AudioCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(AudioSnapshotObserved{Snapshot: snap, At: now})

	case CmdGetSnapshot:
		if client == nil {
			onEvent(AudioCommandFailed{Command: cmd, Err: errNoClient{}, At: now})
			return
		}
		snap, err := client.GetSnapshot()
		if err != nil {
			logger.Error("audio GetSnapshot failed", "error", err)
			onEvent(AudioCommandFailed{Command: cmd, Err: err, At: now})
			return
		}
		onEvent(AudioSnapshotObserved{Snapshot: snap, At: now})

	case CmdLaunchMixer:
		if mixer == nil {
			onEvent(MixerLaunchFailed{Err: errNoMixer{}, At: now})
			return
		}
		if err := mixer.Launch(); err != nil {
			logger.Error("mixer launch failed", "error", err)
			onEvent(MixerLaunchFailed{Err: err, At: now})
		}

	case CmdPublishStateSnapshot:
		// Deliver reducer-produced snapshot to the requester.
		// This keeps the reducer pure by moving the channel send into the effects layer.
		if c.Reply == nil {
			logger.Warn("state snapshot requested with nil reply channel")
			return
		}

		// Never block the effects worker indefinitely.
		select {
		case c.Reply <- c.Snapshot:
			// delivered
		default:
			logger.Warn("state snapshot reply channel not ready; dropping snapshot")
		}

	default:
		// Unknown command: record failure so reducer can react (if desired).
		logger.Warn("unknown command type", "command", cmd.String())
		onEvent(AudioCommandFailed{
			Command: cmd,
			Err:     errUnknownCommand{cmd: cmd},
			At:      now,
		})
	}
}

// errNoClient indicates the daemon was asked to execute a command without an audio client.
type errNoClient struct{}

func (errNoClient) Error() string { return "no audio service client" }

// errNoMixer indicates a mixer launch was requested without a launcher configured.
type errNoMixer struct{}

func (errNoMixer) Error() string { return "no mixer launcher" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string { return "unknown command: " + e.cmd.String() }
