package slots

import (
	"errors"
	"fmt"
	"time"

	"slotsight.app/internal/overlay/host"
	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/surface"
)

var ErrOutOfRange = errors.New("slot index out of range")

// Outcome is what Validate did with a slot.
type Outcome uint8

const (
	OutcomeIdle Outcome = iota // sentinel, nothing to validate
	OutcomeTooEarly
	OutcomeKept
	OutcomeResetMismatch
	OutcomeResetTimeout
	// OutcomeResetDesync: the prediction is stamped after the validating tick,
	// so the two sides disagree on tick numbering.
	OutcomeResetDesync
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeTooEarly:
		return "too_early"
	case OutcomeKept:
		return "kept"
	case OutcomeResetMismatch:
		return "reset_mismatch"
	case OutcomeResetTimeout:
		return "reset_timeout"
	case OutcomeResetDesync:
		return "reset_desync"
	default:
		return "unknown"
	}
}

type Config struct {
	Slots int
	// MaxUnmodifiedTicks bounds the lifetime of an unconfirmed prediction.
	MaxUnmodifiedTicks uint64
	// MinAgeTicks: predictions younger than this are not validated, since the
	// authoritative snapshot of the same tick has not caught up yet.
	MinAgeTicks uint64
}

func (c *Config) applyDefaults() {
	if c.Slots <= 0 {
		c.Slots = 28
	}
	if c.MaxUnmodifiedTicks == 0 {
		c.MaxUnmodifiedTicks = 1
	}
}

// Store holds one Prediction per slot. It is not safe for concurrent use; the
// owning session serializes every call onto the host thread.
type Store struct {
	cfg     Config
	slots   []Prediction
	active  int
	surface surface.Slots
	clock   host.Clock
}

func NewStore(cfg Config, s surface.Slots, clock host.Clock) *Store {
	cfg.applyDefaults()
	st := &Store{
		cfg:     cfg,
		slots:   make([]Prediction, cfg.Slots),
		surface: s,
		clock:   clock,
	}
	for i := range st.slots {
		st.slots[i] = Unmodified
	}
	return st
}

func (s *Store) Len() int { return len(s.slots) }

// Active is the number of live item predictions.
func (s *Store) Active() int { return s.active }

func (s *Store) checkIndex(index int) error {
	if index < 0 || index >= len(s.slots) {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, index, len(s.slots))
	}
	return nil
}

func (s *Store) put(index int, p Prediction) {
	if s.slots[index].Active() {
		s.active--
	}
	if p.Active() {
		s.active++
	}
	s.slots[index] = p
}

// Set records a prediction for index at tick. The render surface is not
// touched; the next reconcile pass draws it.
func (s *Store) Set(index int, item model.ItemID, quantity uint32, opacity model.Opacity, tick uint64) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	var at time.Time
	if s.clock != nil {
		at = s.clock.Now()
	}
	s.put(index, newPrediction(item, quantity, opacity, tick, at))
	return nil
}

// Get returns the prediction at index; ok is false only when index is out of
// range.
func (s *Store) Get(index int) (Prediction, bool) {
	if s.checkIndex(index) != nil {
		return Prediction{}, false
	}
	return s.slots[index], true
}

// Reset marks index as RESET and immediately redraws the authoritative item,
// or hides the slot when there is none.
func (s *Store) Reset(index int) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	s.put(index, Reset)
	if s.surface == nil {
		return nil
	}
	// A missing authoritative item means the slot is empty.
	if it, ok := s.surface.AuthoritativeItem(index); ok && it.Present() {
		s.surface.RenderSlot(index, it.ID, it.Quantity, model.OpacityOpaque)
	} else {
		s.surface.HideSlot(index)
	}
	return nil
}

func (s *Store) ResetAll() {
	for i := range s.slots {
		_ = s.Reset(i)
	}
}

// Validate checks the prediction at index against the authoritative content
// observed at nowTick. A nil item means the slot is empty.
func (s *Store) Validate(index int, authoritative *model.Item, nowTick uint64) (Outcome, error) {
	if err := s.checkIndex(index); err != nil {
		return OutcomeIdle, err
	}
	p := s.slots[index]
	changed, ok := p.ChangedTick()
	if !ok {
		return OutcomeIdle, nil
	}
	if nowTick < changed {
		return OutcomeResetDesync, s.Reset(index)
	}
	if nowTick-changed < s.cfg.MinAgeTicks {
		return OutcomeTooEarly, nil
	}

	actualID, actualQty := model.InvalidItem, uint32(0)
	if authoritative != nil && authoritative.Present() {
		actualID, actualQty = authoritative.ID, authoritative.Quantity
	}

	if p.item.Valid() && (p.item != actualID || p.quantity != actualQty) {
		return OutcomeResetMismatch, s.Reset(index)
	}
	if nowTick-changed >= s.cfg.MaxUnmodifiedTicks {
		return OutcomeResetTimeout, s.Reset(index)
	}
	return OutcomeKept, nil
}

// Reconcile re-asserts every overriding prediction the surface no longer
// shows. It returns the number of render commands issued.
func (s *Store) Reconcile() int {
	if s.active == 0 || s.surface == nil {
		return 0
	}
	n := 0
	for i := range s.slots {
		p := s.slots[i]
		if !p.Overrides() {
			continue
		}
		if v, ok := s.surface.SlotView(i); ok && v.Shows(p.item, p.quantity, p.opacity) {
			continue
		}
		s.surface.RenderSlot(i, p.item, p.quantity, p.opacity)
		n++
	}
	return n
}
