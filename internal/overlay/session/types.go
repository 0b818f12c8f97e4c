package session

import (
	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/toggles"
)

// Action is a user action on one slot, reported by the host before the server
// has processed it. Item and Quantity describe the slot's content as the
// action leaves it visible: the leaving item for removals, the resulting item
// otherwise.
type Action struct {
	Kind     model.ActionKind
	Slot     int
	Item     model.ItemID
	Quantity uint32
}

// Snapshot is the authoritative state delivered once per tick.
type Snapshot struct {
	// Tick is the server's own tick number. It is logged and traced; slot
	// staleness is measured on the host tick.
	Tick    uint64
	Items   []model.Item // indexed by slot; missing trailing slots are empty
	Toggles toggles.Mask
}

// ItemAt returns the authoritative item at slot, or nil when it is empty.
func (s Snapshot) ItemAt(slot int) *model.Item {
	if slot < 0 || slot >= len(s.Items) || !s.Items[slot].Present() {
		return nil
	}
	return &s.Items[slot]
}

type Stats struct {
	PredictionsSet    uint64
	ResetsMismatch    uint64
	ResetsTimeout     uint64
	ResetsExplicit    uint64
	ResetsDesync      uint64
	FrameReasserts    uint64
	ToggleClicks      uint64
	TicksValidated    uint64
	TicksDebounced    uint64
	DroppedOperations uint64
}
