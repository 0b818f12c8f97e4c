package toggles

import (
	"log"
	"time"

	"slotsight.app/internal/overlay/host"
)

// Tracker owns the live toggle mask. Local clicks are resolved immediately;
// authoritative masks replace them only after the debounce window has passed
// since the last local change.
type Tracker struct {
	table    *Table
	clock    host.Clock
	debounce time.Duration
	log      *log.Logger

	current    Mask
	previous   Mask
	lastManual time.Time
}

func NewTracker(table *Table, clock host.Clock, debounce time.Duration, logger *log.Logger) *Tracker {
	return &Tracker{
		table:    table,
		clock:    clock,
		debounce: debounce,
		log:      logger,
	}
}

func (t *Tracker) Current() Mask               { return t.current }
func (t *Tracker) Previous() Mask              { return t.previous }
func (t *Tracker) LastManualChange() time.Time { return t.lastManual }

// Seed adopts an authoritative mask unconditionally (session start).
func (t *Tracker) Seed(authoritative Mask) {
	t.current = authoritative
	t.previous = authoritative
	t.lastManual = time.Time{}
}

// ApplyLocalToggle flips bit and resolves conflicts.
func (t *Tracker) ApplyLocalToggle(bit Mask) Mask {
	next, err := t.table.ResolveChecked(t.current, t.current^bit)
	if err != nil && t.log != nil {
		t.log.Printf("toggle %s: %v", bit, err)
	}
	t.current = next
	t.lastManual = t.clock.Now()
	return next
}

// ApplyLocalEnableAll activates every bit of set, one bit at a time so each
// step flips a single toggle.
func (t *Tracker) ApplyLocalEnableAll(set Mask) Mask {
	for rest := set; rest != 0; rest &= rest - 1 {
		bit := rest & -rest
		if t.current.Has(bit) {
			continue
		}
		t.current = t.table.Resolve(t.current, t.current|bit)
	}
	t.lastManual = t.clock.Now()
	return t.current
}

// ValidateTick adopts authoritative unless a local change happened within the
// debounce window. It reports whether the mask was adopted.
func (t *Tracker) ValidateTick(authoritative Mask) bool {
	if !t.lastManual.IsZero() && t.clock.Now().Sub(t.lastManual) < t.debounce {
		return false
	}
	if !t.table.Valid(authoritative) && t.log != nil {
		t.log.Printf("authoritative toggle mask %s breaks a conflict group; adopting anyway", authoritative)
	}
	t.previous = t.current
	t.current = authoritative
	return true
}
