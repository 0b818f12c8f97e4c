// Package simhost is a stand-in for the authoritative game: it accepts the
// same actions the overlay predicts, applies them one tick later, and repaints
// a surface.Memory from server data the way the real client does.
package simhost

import (
	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/session"
	"slotsight.app/internal/overlay/surface"
	"slotsight.app/internal/overlay/toggles"
)

type opKind uint8

const (
	opAction opKind = iota + 1
	opToggle
	opPreset
)

type op struct {
	kind   opKind
	action session.Action
	toggle model.ToggleID
	preset string
}

type Game struct {
	table   *toggles.Table
	surface *surface.Memory

	tick    uint64
	items   []model.Item
	toggles toggles.Mask
	pending []op
	failed  int

	failNext bool
}

func New(slots int, table *toggles.Table, s *surface.Memory) *Game {
	g := &Game{
		table:   table,
		surface: s,
		items:   make([]model.Item, slots),
	}
	for i := range g.items {
		g.items[i] = model.Item{ID: model.InvalidItem}
	}
	return g
}

func (g *Game) Tick() uint64          { return g.tick }
func (g *Game) Toggles() toggles.Mask { return g.toggles }
func (g *Game) Failed() int           { return g.failed }
func (g *Game) Pending() int          { return len(g.pending) }

// Item returns the authoritative content of slot.
func (g *Game) Item(slot int) model.Item {
	if slot < 0 || slot >= len(g.items) {
		return model.Item{ID: model.InvalidItem}
	}
	return g.items[slot]
}

// Put places an item immediately, as if it had always been there.
func (g *Game) Put(slot int, it model.Item) {
	if slot < 0 || slot >= len(g.items) {
		return
	}
	g.items[slot] = it
	if g.surface != nil {
		g.surface.SetAuthoritative(slot, it)
	}
}

// FailNext makes the server silently drop the next submitted operation.
func (g *Game) FailNext() { g.failNext = true }

func (g *Game) enqueue(o op) {
	if g.failNext {
		g.failNext = false
		g.failed++
		return
	}
	g.pending = append(g.pending, o)
}

func (g *Game) Submit(a session.Action)        { g.enqueue(op{kind: opAction, action: a}) }
func (g *Game) SubmitToggle(id model.ToggleID) { g.enqueue(op{kind: opToggle, toggle: id}) }
func (g *Game) SubmitPreset(name string)       { g.enqueue(op{kind: opPreset, preset: name}) }

// Step applies queued operations, advances the tick, repaints the surface and
// returns the new authoritative snapshot.
func (g *Game) Step() session.Snapshot {
	for _, o := range g.pending {
		g.apply(o)
	}
	g.pending = g.pending[:0]
	g.tick++

	if g.surface != nil {
		for i, it := range g.items {
			g.surface.SetAuthoritative(i, it)
		}
	}
	return g.Snapshot()
}

func (g *Game) Snapshot() session.Snapshot {
	items := make([]model.Item, len(g.items))
	copy(items, g.items)
	return session.Snapshot{Tick: g.tick, Items: items, Toggles: g.toggles}
}

func (g *Game) apply(o op) {
	switch o.kind {
	case opAction:
		a := o.action
		if a.Slot < 0 || a.Slot >= len(g.items) {
			return
		}
		if a.Kind.Removes() {
			g.items[a.Slot] = model.Item{ID: model.InvalidItem}
			return
		}
		g.items[a.Slot] = model.Item{ID: a.Item, Quantity: a.Quantity}
	case opToggle:
		if bit, ok := g.table.BitOf(o.toggle); ok {
			g.toggles = g.table.Resolve(g.toggles, g.toggles^bit)
		}
	case opPreset:
		set, ok := g.table.Preset(o.preset)
		if !ok {
			return
		}
		for rest := set; rest != 0; rest &= rest - 1 {
			bit := rest & -rest
			if !g.toggles.Has(bit) {
				g.toggles = g.table.Resolve(g.toggles, g.toggles|bit)
			}
		}
	}
}
