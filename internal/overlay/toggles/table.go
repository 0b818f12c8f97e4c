package toggles

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"slotsight.app/internal/overlay/model"
)

// Mask is a set of toggle bits.
type Mask uint64

// MaxBits is the number of distinct bit positions a Mask can hold.
const MaxBits = 64

func BitMask(pos uint8) Mask { return Mask(1) << pos }

func (m Mask) Count() int        { return bits.OnesCount64(uint64(m)) }
func (m Mask) Has(bit Mask) bool { return m&bit != 0 }
func (m Mask) String() string    { return fmt.Sprintf("%#b", uint64(m)) }

var (
	ErrUnknownToggle = errors.New("unknown toggle")
	ErrUnknownPreset = errors.New("unknown preset")
	ErrBadTable      = errors.New("invalid toggle table")
)

// Entry binds one toggle identity to its bit. Two identities may share a bit
// when the game treats them as the same effect.
type Entry struct {
	ID          model.ToggleID
	Bit         uint8
	DisplaySlot int
}

// Group is a named set of toggles of which at most one may be active.
type Group struct {
	Name    string
	Members []model.ToggleID
}

// Preset is a named set of toggles activated together.
type Preset struct {
	Name    string
	Members []model.ToggleID
}

// Table is the immutable toggle lookup built once per session.
type Table struct {
	entries    []Entry
	byID       map[model.ToggleID]int
	groups     []Mask
	groupNames []string
	presets    map[string]Mask
}

func NewTable(entries []Entry, groups []Group, presets []Preset) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byID:    make(map[model.ToggleID]int, len(entries)),
		presets: make(map[string]Mask, len(presets)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: empty toggle id", ErrBadTable)
		}
		if e.Bit >= MaxBits {
			return nil, fmt.Errorf("%w: %s bit %d exceeds %d", ErrBadTable, e.ID, e.Bit, MaxBits-1)
		}
		if _, dup := t.byID[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate toggle id %s", ErrBadTable, e.ID)
		}
		t.byID[e.ID] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	for _, g := range groups {
		m, err := t.maskOf(g.Members)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		if m.Count() < 2 {
			return nil, fmt.Errorf("%w: group %q has fewer than two distinct bits", ErrBadTable, g.Name)
		}
		t.groups = append(t.groups, m)
		t.groupNames = append(t.groupNames, g.Name)
	}
	for _, p := range presets {
		if _, dup := t.presets[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate preset %q", ErrBadTable, p.Name)
		}
		m, err := t.maskOf(p.Members)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
		if !t.Valid(m) {
			return nil, fmt.Errorf("%w: preset %q activates conflicting toggles", ErrBadTable, p.Name)
		}
		t.presets[p.Name] = m
	}
	return t, nil
}

func (t *Table) maskOf(ids []model.ToggleID) (Mask, error) {
	var m Mask
	for _, id := range ids {
		bit, ok := t.BitOf(id)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownToggle, id)
		}
		m |= bit
	}
	return m, nil
}

// BitOf returns the single-bit mask of id.
func (t *Table) BitOf(id model.ToggleID) (Mask, bool) {
	i, ok := t.byID[id]
	if !ok {
		return 0, false
	}
	return BitMask(t.entries[i].Bit), true
}

func (t *Table) DisplaySlot(id model.ToggleID) (int, bool) {
	i, ok := t.byID[id]
	if !ok {
		return 0, false
	}
	return t.entries[i].DisplaySlot, true
}

func (t *Table) Len() int        { return len(t.entries) }
func (t *Table) At(i int) Entry  { return t.entries[i] }
func (t *Table) GroupCount() int { return len(t.groups) }

// Group returns the i-th conflict group mask and its name.
func (t *Table) Group(i int) (Mask, string) { return t.groups[i], t.groupNames[i] }

func (t *Table) Preset(name string) (Mask, bool) {
	m, ok := t.presets[name]
	return m, ok
}

func (t *Table) PresetNames() []string {
	out := make([]string, 0, len(t.presets))
	for name := range t.presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Known is the union of all bits the table assigns.
func (t *Table) Known() Mask {
	var m Mask
	for _, e := range t.entries {
		m |= BitMask(e.Bit)
	}
	return m
}

// Valid reports whether m sets at most one bit of every conflict group.
func (t *Table) Valid(m Mask) bool {
	for _, g := range t.groups {
		if (m & g).Count() > 1 {
			return false
		}
	}
	return true
}

func (t *Table) Resolve(current, proposed Mask) Mask {
	return Resolve(t.groups, current, proposed)
}

func (t *Table) ResolveChecked(current, proposed Mask) (Mask, error) {
	return ResolveChecked(t.groups, current, proposed)
}
