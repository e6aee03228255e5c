package main

import "testing"

func TestIconName_Mapping(t *testing.T) {
	tests := []struct {
		volume int
		muted  bool
		want   string
	}{
		{0, false, "muted"},
		{0, true, "muted"},
		{80, true, "muted"},
		{1, false, "low"},
		{15, false, "low"},
		{29, false, "low"},
		{30, false, "high"},
		{60, false, "high"},
		{100, false, "high"},
	}

	for _, tt := range tests {
		got := iconName(tt.volume, tt.muted, 30)
		if got != tt.want {
			t.Errorf("iconName(%d, %v) = %q, want %q", tt.volume, tt.muted, got, tt.want)
		}
	}
}

func TestProjectFrame_ScalesWidthAndOpacity(t *testing.T) {
	cfg := testWidgetConfig()

	s := NewWidgetState()
	s.Anim = AnimState{
		Phase:           PhaseExpanding,
		Width:           0.5,
		DisplayedVolume: 60,
	}

	frame := ProjectFrame(s, cfg)

	if frame.PillWidth != 0.5*cfg.MaxPillWidth {
		t.Errorf("expected pill width %f, got %f", 0.5*cfg.MaxPillWidth, frame.PillWidth)
	}
	if frame.PillOpacity != 0.5 {
		t.Errorf("expected opacity 0.5, got %f", frame.PillOpacity)
	}
	if frame.LabelText != "60%" {
		t.Errorf("expected label 60%%, got %q", frame.LabelText)
	}
	if frame.IconGlyph != cfg.Icons.High {
		t.Errorf("expected high glyph, got %q", frame.IconGlyph)
	}
	if frame.IconBackground != cfg.Colors.IconBackground {
		t.Errorf("expected normal icon background, got %q", frame.IconBackground)
	}
}

func TestProjectFrame_MutedUsesMutedStyling(t *testing.T) {
	cfg := testWidgetConfig()

	s := NewWidgetState()
	s.Anim = AnimState{
		Phase:           PhaseHolding,
		Width:           1,
		DisplayedVolume: 60,
		DisplayedMuted:  true,
	}

	frame := ProjectFrame(s, cfg)

	if frame.IconGlyph != cfg.Icons.Muted {
		t.Errorf("expected muted glyph, got %q", frame.IconGlyph)
	}
	if frame.IconBackground != cfg.Colors.IconBackgroundMuted {
		t.Errorf("expected muted icon background, got %q", frame.IconBackground)
	}
	// The label keeps showing the volume; the glyph and color carry the
	// muted signal.
	if frame.LabelText != "60%" {
		t.Errorf("expected label 60%%, got %q", frame.LabelText)
	}
}

func TestToWidgetConfig_MaxPillWidthDerivedOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pill = PillConfig{CharWidthPx: 8, HPaddingPx: 10, IconOverlapPx: 6}

	wcfg := cfg.ToWidgetConfig()

	// "100%" is 4 chars: 4*8 + 2*10 + 6 = 58.
	if wcfg.MaxPillWidth != 58 {
		t.Errorf("expected max pill width 58, got %f", wcfg.MaxPillWidth)
	}
}
