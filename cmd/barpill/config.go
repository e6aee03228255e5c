package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the barpill daemon.
//
// This is intentionally user-facing and stable-ish. Keep defaults and validation
// centralized so the rest of the code can assume a well-formed config.
//
// Design goals:
// - Make config file the primary configuration surface.
// - Keep flags for small overrides and for environments where a file is awkward.
type Config struct {
	// Audio service bridge configuration
	Audio AudioConfig `yaml:"audio"`

	// Widget timing and behavior
	Widget WidgetFileConfig `yaml:"widget"`

	// Pill geometry (font metrics and padding used to derive max width)
	Pill PillConfig `yaml:"pill"`

	// Icon glyphs per state
	Icons IconSet `yaml:"icons"`

	// Colors passed through to the bar
	Colors ColorSet `yaml:"colors"`

	// External mixer application
	Mixer MixerConfig `yaml:"mixer"`

	// Optional evdev media-key input
	Input InputConfig `yaml:"input"`

	// IPC configuration (used by barpill-ctl and the bar)
	IPC IPCConfig `yaml:"ipc"`

	// State websocket server configuration
	StateWS StateWSConfig `yaml:"state_ws"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type AudioConfig struct {
	WsURL     string `yaml:"ws_url"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

type WidgetFileConfig struct {
	QuietWindowMS int `yaml:"quiet_window_ms"`
	ExpandMS      int `yaml:"expand_ms"`
	HoldMS        int `yaml:"hold_ms"`
	StepPercent   int `yaml:"step_percent"`
	LowThreshold  int `yaml:"low_threshold"`
	UpdateHz      int `yaml:"update_hz"`
}

type PillConfig struct {
	CharWidthPx   float64 `yaml:"char_width_px"`
	HPaddingPx    float64 `yaml:"h_padding_px"`
	IconOverlapPx float64 `yaml:"icon_overlap_px"`
}

// IconSet maps widget icon states to glyph strings (typically Nerd Font).
type IconSet struct {
	Muted string `yaml:"muted"`
	Low   string `yaml:"low"`
	High  string `yaml:"high"`
}

// ColorSet holds color strings passed through to the bar as-is.
type ColorSet struct {
	IconBackground      string `yaml:"icon_background"`
	IconBackgroundMuted string `yaml:"icon_background_muted"`
	PillBackground      string `yaml:"pill_background"`
	Label               string `yaml:"label"`
}

type MixerConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty"` // evdev devices to monitor for media keys; empty disables
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type StateWSConfig struct {
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go defaults and current CLI defaults.
func DefaultConfig() Config {
	return Config{
		Audio: AudioConfig{
			WsURL:     "ws://127.0.0.1:4713",
			TimeoutMS: defaultReadTimeoutMS,
		},
		Widget: WidgetFileConfig{
			QuietWindowMS: defaultQuietWindowMS,
			ExpandMS:      defaultExpandMS,
			HoldMS:        defaultHoldMS,
			StepPercent:   defaultStepPercent,
			LowThreshold:  defaultLowThreshold,
			UpdateHz:      defaultUpdateHz,
		},
		Pill: PillConfig{
			CharWidthPx:   defaultCharWidthPx,
			HPaddingPx:    defaultHPaddingPx,
			IconOverlapPx: defaultIconOverlapPx,
		},
		Icons: IconSet{
			Muted: defaultIconMuted,
			Low:   defaultIconLow,
			High:  defaultIconHigh,
		},
		Colors: ColorSet{
			IconBackground:      defaultIconBackground,
			IconBackgroundMuted: defaultIconBackgroundMuted,
			PillBackground:      defaultPillBackground,
			Label:               defaultLabelColor,
		},
		Mixer: MixerConfig{
			Command: defaultMixerCommand,
		},
		Input: InputConfig{
			Devices: nil, // media keys disabled unless configured
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/barpill.sock",
		},
		StateWS: StateWSConfig{
			Port: 3001,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags should pass pointers; each override is only applied if the pointer is
// non-nil. main.go decides which flags exist; keeping the override mechanism
// separate makes it easy to evolve flags without proliferating conditionals.
type FlagOverrides struct {
	AudioWsURL     *string
	AudioTimeoutMS *int

	QuietWindowMS *int
	ExpandMS      *int
	HoldMS        *int
	StepPercent   *int
	LowThreshold  *int
	UpdateHz      *int

	MixerCommand *string

	InputDevice *string

	IPCSocketPath *string
	StateWSPort   *int

	LogLevel *string
}

// Apply merges the overrides into cfg. If an override pointer is nil, it is ignored.
// If the pointer is non-nil, the value is applied (even if it is a zero value).
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.AudioWsURL != nil {
		cfg.Audio.WsURL = *o.AudioWsURL
	}
	if o.AudioTimeoutMS != nil {
		cfg.Audio.TimeoutMS = *o.AudioTimeoutMS
	}

	if o.QuietWindowMS != nil {
		cfg.Widget.QuietWindowMS = *o.QuietWindowMS
	}
	if o.ExpandMS != nil {
		cfg.Widget.ExpandMS = *o.ExpandMS
	}
	if o.HoldMS != nil {
		cfg.Widget.HoldMS = *o.HoldMS
	}
	if o.StepPercent != nil {
		cfg.Widget.StepPercent = *o.StepPercent
	}
	if o.LowThreshold != nil {
		cfg.Widget.LowThreshold = *o.LowThreshold
	}
	if o.UpdateHz != nil {
		cfg.Widget.UpdateHz = *o.UpdateHz
	}

	if o.MixerCommand != nil {
		cfg.Mixer.Command = *o.MixerCommand
	}

	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StateWSPort != nil {
		cfg.StateWS.Port = *o.StateWSPort
	}

	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// Audio
	if c.Audio.WsURL == "" {
		return errors.New("audio.ws_url must not be empty")
	}
	if c.Audio.TimeoutMS <= 0 {
		return errors.New("audio.timeout_ms must be > 0")
	}

	// Widget
	if c.Widget.QuietWindowMS < 0 {
		return errors.New("widget.quiet_window_ms must be >= 0")
	}
	if c.Widget.ExpandMS <= 0 {
		return errors.New("widget.expand_ms must be > 0")
	}
	if c.Widget.HoldMS <= 0 {
		return errors.New("widget.hold_ms must be > 0")
	}
	if c.Widget.StepPercent <= 0 || c.Widget.StepPercent > maxVolumePercent {
		return fmt.Errorf("widget.step_percent must be between 1 and %d", maxVolumePercent)
	}
	if c.Widget.LowThreshold < minVolumePercent || c.Widget.LowThreshold > maxVolumePercent {
		return fmt.Errorf("widget.low_threshold must be between %d and %d", minVolumePercent, maxVolumePercent)
	}
	if c.Widget.UpdateHz <= 0 || c.Widget.UpdateHz > 1000 {
		return errors.New("widget.update_hz must be between 1 and 1000")
	}

	// Pill geometry
	if c.Pill.CharWidthPx <= 0 {
		return errors.New("pill.char_width_px must be > 0")
	}
	if c.Pill.HPaddingPx < 0 {
		return errors.New("pill.h_padding_px must be >= 0")
	}
	if c.Pill.IconOverlapPx < 0 {
		return errors.New("pill.icon_overlap_px must be >= 0")
	}

	// Icons
	if c.Icons.Muted == "" || c.Icons.Low == "" || c.Icons.High == "" {
		return errors.New("icons.muted, icons.low, and icons.high must not be empty")
	}

	// Colors
	if c.Colors.IconBackground == "" || c.Colors.IconBackgroundMuted == "" {
		return errors.New("colors.icon_background and colors.icon_background_muted must not be empty")
	}
	if c.Colors.PillBackground == "" || c.Colors.Label == "" {
		return errors.New("colors.pill_background and colors.label must not be empty")
	}

	// Mixer
	if c.Mixer.Command == "" {
		return errors.New("mixer.command must not be empty")
	}

	// Input devices may be empty (media keys disabled), but configured entries must be non-empty paths
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// State WS
	if c.StateWS.Port <= 0 || c.StateWS.Port > 65535 {
		return errors.New("state_ws.port must be between 1 and 65535")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ToWidgetConfig converts file config into the internal reducer config.
//
// MaxPillWidth is derived here, once, from the widest expected label and the
// configured font metrics. The reducer and projection never recompute it.
func (c *Config) ToWidgetConfig() WidgetConfig {
	maxWidth := float64(len(widestLabel))*c.Pill.CharWidthPx +
		2*c.Pill.HPaddingPx +
		c.Pill.IconOverlapPx

	return WidgetConfig{
		QuietWindow: time.Duration(c.Widget.QuietWindowMS) * time.Millisecond,
		Anim: AnimConfig{
			RampDuration: time.Duration(c.Widget.ExpandMS) * time.Millisecond,
			HoldDuration: time.Duration(c.Widget.HoldMS) * time.Millisecond,
		},
		StepPercent:  c.Widget.StepPercent,
		LowThreshold: c.Widget.LowThreshold,
		MaxPillWidth: maxWidth,
		Icons:        c.Icons,
		Colors:       c.Colors,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
