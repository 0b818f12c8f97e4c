package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"slotsight.app/internal/overlay/model"
)

type Tuning struct {
	SlotCount      int `yaml:"slot_count"`
	TickDurationMs int `yaml:"tick_duration_ms"`
	FrameRateHz    int `yaml:"frame_rate_hz"`

	MaxUnmodifiedTicks int `yaml:"max_unmodified_ticks"`
	MinAgeTicks        int `yaml:"min_age_ticks"`
	DebounceWindowMs   int `yaml:"debounce_window_ms"`

	// Opacities are visibility percentages, 100 = fully opaque.
	ChangeOpacity int `yaml:"change_opacity"`
	HideOpacity   int `yaml:"hide_opacity"`

	Debug bool `yaml:"debug"`
}

func Defaults() Tuning {
	return Tuning{
		SlotCount:          28,
		TickDurationMs:     600,
		FrameRateHz:        50,
		MaxUnmodifiedTicks: 1,
		MinAgeTicks:        1,
		DebounceWindowMs:   1200,
		ChangeOpacity:      50,
		HideOpacity:        0,
	}
}

// Load reads a tuning file on top of Defaults. An empty path yields Defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize fills unset values and clamps percentages to [0,100].
func (t *Tuning) Normalize() {
	d := Defaults()
	if t.SlotCount <= 0 {
		t.SlotCount = d.SlotCount
	}
	if t.TickDurationMs <= 0 {
		t.TickDurationMs = d.TickDurationMs
	}
	if t.FrameRateHz <= 0 {
		t.FrameRateHz = d.FrameRateHz
	}
	if t.MaxUnmodifiedTicks <= 0 {
		t.MaxUnmodifiedTicks = d.MaxUnmodifiedTicks
	}
	if t.MinAgeTicks < 0 {
		t.MinAgeTicks = 0
	}
	if t.DebounceWindowMs < 0 {
		t.DebounceWindowMs = 0
	}
	t.ChangeOpacity = clampPercent(t.ChangeOpacity)
	t.HideOpacity = clampPercent(t.HideOpacity)
}

func (t Tuning) Validate() error {
	if t.SlotCount > 1024 {
		return fmt.Errorf("slot_count %d too large", t.SlotCount)
	}
	if t.MinAgeTicks > t.MaxUnmodifiedTicks {
		return errors.New("min_age_ticks must not exceed max_unmodified_ticks")
	}
	return nil
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (t Tuning) TickDuration() time.Duration   { return time.Duration(t.TickDurationMs) * time.Millisecond }
func (t Tuning) DebounceWindow() time.Duration { return time.Duration(t.DebounceWindowMs) * time.Millisecond }

func (t Tuning) FrameInterval() time.Duration {
	return time.Second / time.Duration(t.FrameRateHz)
}

// ChangeOpacityValue is change_opacity on the render surface's scale.
func (t Tuning) ChangeOpacityValue() model.Opacity { return model.OpacityFromPercent(t.ChangeOpacity) }

// HideOpacityValue is hide_opacity on the render surface's scale.
func (t Tuning) HideOpacityValue() model.Opacity { return model.OpacityFromPercent(t.HideOpacity) }
