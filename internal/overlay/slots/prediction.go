package slots

import (
	"time"

	"slotsight.app/internal/overlay/model"
)

// Kind tags a Prediction.
type Kind uint8

const (
	// KindUnmodified: never predicted since the store was built.
	KindUnmodified Kind = iota
	// KindReset: explicitly cleared, authoritative state re-adopted.
	KindReset
	// KindItem: a live prediction.
	KindItem
)

func (k Kind) String() string {
	switch k {
	case KindUnmodified:
		return "UNMODIFIED"
	case KindReset:
		return "RESET"
	case KindItem:
		return "ITEM"
	default:
		return "UNKNOWN"
	}
}

// Prediction is the predicted state of one slot. It is a value: updates replace
// it wholesale.
type Prediction struct {
	kind        Kind
	changedTick uint64
	changedAt   time.Time
	item        model.ItemID
	quantity    uint32
	opacity     model.Opacity
}

var (
	Unmodified = Prediction{kind: KindUnmodified, item: model.InvalidItem}
	Reset      = Prediction{kind: KindReset, item: model.InvalidItem}
)

func newPrediction(item model.ItemID, quantity uint32, opacity model.Opacity, tick uint64, at time.Time) Prediction {
	return Prediction{
		kind:        KindItem,
		changedTick: tick,
		changedAt:   at,
		item:        item,
		quantity:    quantity,
		opacity:     opacity,
	}
}

func (p Prediction) Kind() Kind             { return p.kind }
func (p Prediction) ItemID() model.ItemID   { return p.item }
func (p Prediction) Quantity() uint32       { return p.quantity }
func (p Prediction) Opacity() model.Opacity { return p.opacity }
func (p Prediction) ChangedAt() time.Time   { return p.changedAt }
func (p Prediction) Active() bool           { return p.kind == KindItem }

// ChangedTick is the tick the prediction was asserted; ok is false for the
// sentinels.
func (p Prediction) ChangedTick() (tick uint64, ok bool) {
	if p.kind != KindItem {
		return 0, false
	}
	return p.changedTick, true
}

// Overrides reports whether the slot should be drawn from this prediction.
// An item prediction with an invalid id falls back to authoritative data.
func (p Prediction) Overrides() bool {
	return p.kind == KindItem && p.item.Valid()
}

// Equal compares every field. Wall time is compared with time.Equal.
func (p Prediction) Equal(o Prediction) bool {
	return p.kind == o.kind &&
		p.changedTick == o.changedTick &&
		p.changedAt.Equal(o.changedAt) &&
		p.item == o.item &&
		p.quantity == o.quantity &&
		p.opacity == o.opacity
}
