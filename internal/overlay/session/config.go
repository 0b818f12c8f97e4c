package session

import (
	"time"

	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/tuning"
)

type Config struct {
	SlotCount          int
	MaxUnmodifiedTicks uint64
	MinAgeTicks        uint64
	DebounceWindow     time.Duration
	ChangeOpacity      model.Opacity
	HideOpacity        model.Opacity

	// Debug enables per-operation diagnostic lines.
	Debug bool
}

func FromTuning(t tuning.Tuning) Config {
	t.Normalize()
	return Config{
		SlotCount:          t.SlotCount,
		MaxUnmodifiedTicks: uint64(t.MaxUnmodifiedTicks),
		MinAgeTicks:        uint64(t.MinAgeTicks),
		DebounceWindow:     t.DebounceWindow(),
		ChangeOpacity:      t.ChangeOpacityValue(),
		HideOpacity:        t.HideOpacityValue(),
		Debug:              t.Debug,
	}
}

func (c *Config) applyDefaults() {
	if c.SlotCount <= 0 {
		c.SlotCount = 28
	}
	if c.MaxUnmodifiedTicks == 0 {
		c.MaxUnmodifiedTicks = 1
	}
}
