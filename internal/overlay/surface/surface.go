// Package surface describes the widget layer the engine pushes predictions
// onto. The engine never draws; it only issues these commands.
package surface

import "slotsight.app/internal/overlay/model"

// View is what the render surface currently shows for one slot.
type View struct {
	Item     model.ItemID
	Quantity uint32
	Opacity  model.Opacity
	Hidden   bool
}

// Shows reports whether v already displays the given item at the given opacity.
func (v View) Shows(item model.ItemID, quantity uint32, opacity model.Opacity) bool {
	return !v.Hidden && v.Item == item && v.Quantity == quantity && v.Opacity == opacity
}

// Slots is the slot half of the render surface.
type Slots interface {
	RenderSlot(index int, item model.ItemID, quantity uint32, opacity model.Opacity)
	HideSlot(index int)
	ShowSlotFullyOpaque(index int)
	// SlotView returns what the widget at index shows right now.
	SlotView(index int) (View, bool)
	// AuthoritativeItem returns the server-confirmed content of index, if any.
	AuthoritativeItem(index int) (model.Item, bool)
}

// Toggles is the toggle half of the render surface.
type Toggles interface {
	SetToggleVisual(id model.ToggleID, active bool)
}

type Surface interface {
	Slots
	Toggles
}
