//go:build !linux

package main

import (
	"context"
	"errors"
	"log/slog"
)

// Media-key input depends on evdev and is only available on Linux.
func runMediaKeyInput(ctx context.Context, devices []string, events chan<- Event, logger *slog.Logger) error {
	if len(devices) == 0 {
		return nil
	}
	return errors.New("media key input is only supported on linux")
}
