package surface

import "slotsight.app/internal/overlay/model"

// Memory is an in-process Surface. Like a real widget layer it repaints a slot
// from authoritative data whenever SetAuthoritative is called, discarding any
// prediction drawn over it.
type Memory struct {
	authoritative []model.Item
	shown         []View
	toggles       map[model.ToggleID]bool

	Renders       int
	Hides         int
	Reveals       int
	ToggleUpdates int
}

func NewMemory(slots int) *Memory {
	m := &Memory{
		authoritative: make([]model.Item, slots),
		shown:         make([]View, slots),
		toggles:       map[model.ToggleID]bool{},
	}
	for i := range m.authoritative {
		m.authoritative[i] = model.Item{ID: model.InvalidItem}
		m.shown[i] = View{Item: model.InvalidItem}
	}
	return m
}

func (m *Memory) Len() int { return len(m.shown) }

func (m *Memory) inRange(index int) bool { return index >= 0 && index < len(m.shown) }

// SetAuthoritative records server data for index and repaints the widget.
func (m *Memory) SetAuthoritative(index int, it model.Item) {
	if !m.inRange(index) {
		return
	}
	if !it.Present() {
		it = model.Item{ID: model.InvalidItem}
	}
	m.authoritative[index] = it
	m.Revert(index)
}

// Revert repaints index from authoritative data, as the host does on its own
// schedule.
func (m *Memory) Revert(index int) {
	if !m.inRange(index) {
		return
	}
	it := m.authoritative[index]
	m.shown[index] = View{Item: it.ID, Quantity: it.Quantity}
}

func (m *Memory) RenderSlot(index int, item model.ItemID, quantity uint32, opacity model.Opacity) {
	if !m.inRange(index) {
		return
	}
	m.Renders++
	m.shown[index] = View{Item: item, Quantity: quantity, Opacity: opacity}
}

func (m *Memory) HideSlot(index int) {
	if !m.inRange(index) {
		return
	}
	m.Hides++
	m.shown[index].Hidden = true
}

func (m *Memory) ShowSlotFullyOpaque(index int) {
	if !m.inRange(index) {
		return
	}
	m.Reveals++
	m.shown[index].Hidden = false
	m.shown[index].Opacity = model.OpacityOpaque
}

func (m *Memory) SlotView(index int) (View, bool) {
	if !m.inRange(index) {
		return View{}, false
	}
	return m.shown[index], true
}

func (m *Memory) AuthoritativeItem(index int) (model.Item, bool) {
	if !m.inRange(index) {
		return model.Item{}, false
	}
	it := m.authoritative[index]
	if !it.Present() {
		return model.Item{}, false
	}
	return it, true
}

func (m *Memory) SetToggleVisual(id model.ToggleID, active bool) {
	m.ToggleUpdates++
	m.toggles[id] = active
}

// ToggleVisual returns the last visual pushed for id.
func (m *Memory) ToggleVisual(id model.ToggleID) bool { return m.toggles[id] }
