package main

import (
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

// MixerLauncher spawns the external mixer application (pavucontrol by
// default). Launching is non-blocking; a spawn failure is returned
// synchronously, a non-zero exit is reported asynchronously as a
// MixerLaunchFailed event so the daemon loop can log it.
type MixerLauncher struct {
	command string
	args    []string
	events  chan<- Event
	logger  *slog.Logger
}

// NewMixerLauncher builds a launcher for the configured mixer command.
func NewMixerLauncher(cfg MixerConfig, events chan<- Event, logger *slog.Logger) *MixerLauncher {
	return &MixerLauncher{
		command: cfg.Command,
		args:    cfg.Args,
		events:  events,
		logger:  logger,
	}
}

// Launch starts the mixer and returns without waiting for it to exit.
func (m *MixerLauncher) Launch() error {
	cmd := exec.Command(m.command, m.args...)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.command, err)
	}

	m.logger.Info("mixer launched", "command", m.command, "pid", cmd.Process.Pid)

	// Reap the child and report a failed exit. Best effort; the events
	// channel may already be closed during shutdown, so send non-blocking.
	go func() {
		if err := cmd.Wait(); err != nil {
			select {
			case m.events <- MixerLaunchFailed{
				Err: fmt.Errorf("%s exited: %w", m.command, err),
				At:  time.Now(),
			}:
			default:
			}
		}
	}()

	return nil
}
