package main

import (
	"fmt"
	"time"
)

// Frame is the render projection the bar consumes. Pure function of widget
// state and config; the daemon broadcasts it whenever it changes.
type Frame struct {
	PillWidth      float64 `json:"pill_width"`   // pixels
	PillOpacity    float64 `json:"pill_opacity"` // 0..1
	IconGlyph      string  `json:"icon_glyph"`
	IconBackground string  `json:"icon_background"`
	LabelText      string  `json:"label_text"`
}

// WidgetConfig is the internal reducer/projection configuration, derived once
// from the file config by ToWidgetConfig.
type WidgetConfig struct {
	QuietWindow  time.Duration
	Anim         AnimConfig
	StepPercent  int
	LowThreshold int
	MaxPillWidth float64
	Icons        IconSet
	Colors       ColorSet
}

// iconName maps displayed volume and mute state to a semantic icon name.
func iconName(volume int, muted bool, lowThreshold int) string {
	if muted || volume == 0 {
		return "muted"
	}
	if volume < lowThreshold {
		return "low"
	}
	return "high"
}

// glyphFor resolves a semantic icon name to the configured glyph string.
func (c WidgetConfig) glyphFor(name string) string {
	switch name {
	case "muted":
		return c.Icons.Muted
	case "low":
		return c.Icons.Low
	default:
		return c.Icons.High
	}
}

// ProjectFrame computes the render projection from the current state.
// Width and opacity share the animation fraction; the label reflects the
// displayed (settled) values, not the raw observed ones.
func ProjectFrame(s *WidgetState, cfg WidgetConfig) Frame {
	name := iconName(s.Anim.DisplayedVolume, s.Anim.DisplayedMuted, cfg.LowThreshold)

	iconBg := cfg.Colors.IconBackground
	if name == "muted" {
		iconBg = cfg.Colors.IconBackgroundMuted
	}

	return Frame{
		PillWidth:      s.Anim.Width * cfg.MaxPillWidth,
		PillOpacity:    s.Anim.Width,
		IconGlyph:      cfg.glyphFor(name),
		IconBackground: iconBg,
		LabelText:      fmt.Sprintf("%d%%", s.Anim.DisplayedVolume),
	}
}

// StateSnapshot is a coherent point-in-time view of the widget, sent to
// state WS clients on connect.
type StateSnapshot struct {
	Frame      Frame     `json:"frame"`
	Volume     int       `json:"volume"`
	Muted      bool      `json:"muted"`
	SinkID     string    `json:"sink_id"`
	SinkKnown  bool      `json:"sink_known"`
	Phase      string    `json:"phase"`
	ObservedAt time.Time `json:"observed_at"`
}

// SnapshotOf builds a StateSnapshot from the current state.
func SnapshotOf(s *WidgetState, cfg WidgetConfig) StateSnapshot {
	return StateSnapshot{
		Frame:      ProjectFrame(s, cfg),
		Volume:     s.Audio.Snapshot.Volume,
		Muted:      s.Audio.Snapshot.Muted,
		SinkID:     s.Audio.Snapshot.SinkID,
		SinkKnown:  s.Audio.Known && s.Audio.Snapshot.HasSink(),
		Phase:      s.Anim.Phase.String(),
		ObservedAt: s.Audio.At,
	}
}
