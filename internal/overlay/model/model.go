package model

import "strings"

// ItemID identifies an item definition of the host game.
type ItemID int32

// InvalidItem marks "no item here".
const InvalidItem ItemID = -1

func (id ItemID) Valid() bool { return id >= 0 }

type Item struct {
	ID       ItemID `json:"id"`
	Quantity uint32 `json:"qty"`
}

// Present reports whether the item occupies its slot.
func (it Item) Present() bool { return it.ID.Valid() && it.Quantity > 0 }

// Opacity is the render surface's native transparency scale:
// OpacityOpaque draws normally, OpacityTransparent draws nothing.
type Opacity uint8

const (
	OpacityOpaque      Opacity = 0
	OpacityTransparent Opacity = 255
)

// OpacityFromPercent maps a 0-100 visibility percentage onto the native scale.
// Out-of-range input is clamped first.
func OpacityFromPercent(pct int) Opacity {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return Opacity((100 - pct) * int(OpacityTransparent) / 100)
}

// ToggleID names a togglable effect (a prayer, a buff) in the toggle catalog.
type ToggleID string

func NormalizeToggleID(s string) ToggleID {
	return ToggleID(strings.ToUpper(strings.TrimSpace(s)))
}

// ActionKind is the user action that produced a slot prediction.
type ActionKind string

const (
	ActionDrop     ActionKind = "DROP"
	ActionEquip    ActionKind = "EQUIP"
	ActionWithdraw ActionKind = "WITHDRAW"
	ActionDeposit  ActionKind = "DEPOSIT"
	ActionClean    ActionKind = "CLEAN"
)

// Removes reports whether the action takes the item out of the slot.
// Removal predictions keep the leaving item on screen at the hide opacity.
func (k ActionKind) Removes() bool {
	switch k {
	case ActionDrop, ActionEquip, ActionDeposit:
		return true
	default:
		return false
	}
}

func (k ActionKind) Known() bool {
	switch k {
	case ActionDrop, ActionEquip, ActionWithdraw, ActionDeposit, ActionClean:
		return true
	default:
		return false
	}
}
