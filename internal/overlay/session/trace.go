package session

import (
	"time"

	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/toggles"
)

const (
	TraceHeader = "HEADER"
	TraceAction = "ACTION"
	TraceToggle = "TOGGLE"
	TracePreset = "PRESET"
	TraceReset  = "RESET"
	TraceTick   = "TICK"
	TraceStop   = "STOP"
)

// TraceEntry is one line of the diagnostic trace. AtNs is the monotonic time
// since session start, so replays reproduce debounce decisions exactly.
type TraceEntry struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	AtNs      int64  `json:"at_ns"`
	Tick      uint64 `json:"tick"`

	// HEADER
	Config        *TraceConfig `json:"config,omitempty"`
	CatalogDigest string       `json:"catalog_digest,omitempty"`

	// ACTION and RESET (slot only)
	Kind     model.ActionKind `json:"kind,omitempty"`
	Slot     *int             `json:"slot,omitempty"`
	Item     model.ItemID     `json:"item,omitempty"`
	Quantity uint32           `json:"qty,omitempty"`

	// TOGGLE / PRESET
	Toggle model.ToggleID `json:"toggle,omitempty"`
	Preset string         `json:"preset,omitempty"`

	// HEADER (initial mask) and TICK
	ServerTick uint64       `json:"server_tick,omitempty"`
	Items      []model.Item `json:"items,omitempty"`
	Toggles    toggles.Mask `json:"toggles,omitempty"`
	Digest     string       `json:"digest,omitempty"`
}

type TraceConfig struct {
	SlotCount          int    `json:"slot_count"`
	MaxUnmodifiedTicks uint64 `json:"max_unmodified_ticks"`
	MinAgeTicks        uint64 `json:"min_age_ticks"`
	DebounceWindowNs   int64  `json:"debounce_window_ns"`
	ChangeOpacity      uint8  `json:"change_opacity"`
	HideOpacity        uint8  `json:"hide_opacity"`
}

// TraceLogger receives trace entries. Write failures are logged and the
// trace is disabled; they never affect predictions.
type TraceLogger interface {
	WriteEntry(TraceEntry) error
}

func traceConfig(c Config) *TraceConfig {
	return &TraceConfig{
		SlotCount:          c.SlotCount,
		MaxUnmodifiedTicks: c.MaxUnmodifiedTicks,
		MinAgeTicks:        c.MinAgeTicks,
		DebounceWindowNs:   int64(c.DebounceWindow),
		ChangeOpacity:      uint8(c.ChangeOpacity),
		HideOpacity:        uint8(c.HideOpacity),
	}
}

// SessionConfig rebuilds the session config a trace was recorded with.
func (c TraceConfig) SessionConfig() Config {
	return Config{
		SlotCount:          c.SlotCount,
		MaxUnmodifiedTicks: c.MaxUnmodifiedTicks,
		MinAgeTicks:        c.MinAgeTicks,
		DebounceWindow:     time.Duration(c.DebounceWindowNs),
		ChangeOpacity:      model.Opacity(c.ChangeOpacity),
		HideOpacity:        model.Opacity(c.HideOpacity),
	}
}
