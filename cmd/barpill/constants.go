package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_MUTE       = 113
	KEY_VOLUMEDOWN = 114
	KEY_VOLUMEUP   = 115
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Widget timing defaults
const (
	defaultUpdateHz      = 60   // Tick loop frequency (Hz)
	defaultQuietWindowMS = 100  // Debounce quiet window for audio changes (ms)
	defaultExpandMS      = 250  // Pill expand/collapse ramp duration (ms)
	defaultHoldMS        = 2500 // Pill hold duration at full width (ms)
	defaultReadTimeoutMS = 500  // Default timeout for reading websocket responses (ms)
)

// Volume control defaults
const (
	defaultStepPercent  = 5  // Volume change per scroll detent (%)
	defaultLowThreshold = 30 // Below this the "low" icon is shown (%)

	minVolumePercent = 0
	maxVolumePercent = 100
)

// Pill geometry defaults.
//
// The pill must be wide enough for the widest expected label ("100%").
// maxPillWidth = len(widestLabel) * charWidth + 2*hPadding + iconOverlap,
// computed once from config, never per frame.
const (
	widestLabel          = "100%"
	defaultCharWidthPx   = 8.0
	defaultHPaddingPx    = 10.0
	defaultIconOverlapPx = 6.0
)

// Icon glyph defaults (Nerd Font volume glyphs).
const (
	defaultIconMuted = "\U000F075F" // 󰝟
	defaultIconLow   = "\U000F057F" // 󰕿
	defaultIconHigh  = "\U000F057E" // 󰕾
)

// Color defaults (hex strings passed through to the bar as-is).
const (
	defaultIconBackground      = "#89b4fa"
	defaultIconBackgroundMuted = "#6c7086"
	defaultPillBackground      = "#313244"
	defaultLabelColor          = "#cdd6f4"
)

// External mixer defaults
const defaultMixerCommand = "pavucontrol"
