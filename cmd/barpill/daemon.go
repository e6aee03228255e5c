package main

import (
	"context"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop
// ============================================================================
//
// Design rules enforced here:
//   - The reducer performs no I/O and computes: next state + commands + broadcasts.
//   - The daemon loop is the only place that executes side effects (audio
//     service calls, mixer launch).
//   - Audio service responses are turned into Events and fed back into the reducer.
//   - Broadcasts are handed to the state WS layer; a slow consumer never
//     stalls the widget.
//
// The loop uses explicit event and command queues (no nested/re-entrant
// execution); the reducer is pure and owns all state via WidgetState.
// ============================================================================

// runDaemon is the main daemon loop that:
//   - Receives Events from multiple sources (IPC, evdev, audio subscription)
//   - Emits Tick events on a fixed cadence
//   - Reduces events into (state, commands, broadcasts)
//   - Executes commands and feeds observations back into the reducer
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the events channel is closed
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	client AudioClientInterface,
	mixer *MixerLauncher,
	cfg WidgetConfig,
	state *WidgetState,
	updateHz int,
	broadcasts chan<- StateBroadcast,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("widget state is nil")
		return
	}

	// Configure tick cadence.
	updateInterval := time.Second / time.Duration(updateHz)
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	lastTick := time.Now()

	// Explicit queues:
	// - eventQueue holds events awaiting reduction
	// - cmdQueue holds commands awaiting execution
	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}
	enqueueCommands := func(cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		cmdQueue = append(cmdQueue, cmds...)
	}

	publish := func(bs []StateBroadcast) {
		for _, b := range bs {
			select {
			case broadcasts <- b:
			default:
				// The broadcaster coalesces; dropping here only loses an
				// intermediate value that the next tick supersedes.
				logger.Debug("broadcast channel full; dropping")
			}
		}
	}

	// Reduce all queued events, enqueuing any resulting commands.
	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cfg)
			if rr.State != nil {
				state = rr.State
			}
			enqueueCommands(rr.Commands)
			publish(rr.Broadcasts)
		}
	}

	// Execute all queued commands, enqueuing observation events.
	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(client, mixer, cmd, logger, func(obs Event) {
				enqueueEvent(obs)
			})

			// Observations should be reduced promptly to keep state coherent and
			// allow the reducer to emit follow-up commands (if any).
			flushEvents()
		}
	}

	// Main loop
	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			switch ev.(type) {
			case AudioSnapshotObserved, AudioCommandFailed, MixerLaunchFailed, RequestStateSnapshot:
				enqueueEvent(ev)
			default:
				// Input actions carry their arrival time.
				enqueueEvent(TimedEvent{Event: ev, At: time.Now()})
			}
			flushEvents()
			flushCommands()

		case now := <-ticker.C:
			dt := now.Sub(lastTick)
			lastTick = now
			if dt < 0 {
				// Broken clock source; skip the tick rather than corrupt state.
				logger.Error("negative tick delta; skipping", "dt", dt)
				continue
			}
			enqueueEvent(Tick{Now: now, Dt: dt})
			flushEvents()
			flushCommands()
		}
	}
}

// NOTE:
// Command execution is implemented in `effects.go` as `runEffect(...)`.
// This file is only responsible for orchestrating event/command queues and reducer invocation.
