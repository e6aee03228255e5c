//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// mediaKeyAction translates an evdev key event into a widget action.
// Volume keys act on press and autorepeat; mute only on press (a held mute
// key should not strobe the sink).
func mediaKeyAction(ev inputEvent) (Event, bool) {
	if ev.Type != EV_KEY {
		return nil, false
	}

	switch ev.Code {
	case KEY_MUTE:
		if ev.Value == evValuePress {
			return PrimaryClick{}, true
		}
	case KEY_VOLUMEUP:
		if ev.Value == evValuePress || ev.Value == evValueRepeat {
			return Scroll{Steps: 1}, true
		}
	case KEY_VOLUMEDOWN:
		if ev.Value == evValuePress || ev.Value == evValueRepeat {
			return Scroll{Steps: -1}, true
		}
	}

	return nil, false
}

// runMediaKeyInput opens the configured evdev devices and feeds media-key
// actions into the daemon event channel until ctx is canceled or a device
// read fails.
func runMediaKeyInput(ctx context.Context, devices []string, events chan<- Event, logger *slog.Logger) error {
	if len(devices) == 0 {
		return nil
	}

	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			return fmt.Errorf("open input device %s: %w", dev, err)
		}
		files = append(files, f)
		logger.Info("media key device opened", "device", dev)
	}

	rawEvents := make(chan inputEvent, 64)
	readErr := make(chan error, 1)

	go readInputEventsEpoll(files, rawEvents, readErr)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			return fmt.Errorf("media key reader: %w", err)

		case raw := <-rawEvents:
			act, ok := mediaKeyAction(raw)
			if !ok {
				continue
			}
			select {
			case events <- act:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
