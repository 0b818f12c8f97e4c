package session

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"slotsight.app/internal/overlay/host"
	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/slots"
	"slotsight.app/internal/overlay/surface"
	"slotsight.app/internal/overlay/toggles"
)

var (
	ErrNotHostThread = errors.New("called off the host thread")
	ErrNotRunning    = errors.New("session not running")
	ErrUnknownAction = errors.New("unknown action kind")
)

// Session is one overlay session: it owns the slot store and the toggle
// tracker and is driven by the host's action, frame and tick callbacks. Every
// method must be called on the host thread.
type Session struct {
	cfg     Config
	host    host.Host
	surface surface.Surface
	table   *toggles.Table
	log     *log.Logger

	store   *slots.Store
	tracker *toggles.Tracker

	id        string
	startedAt time.Time
	running   bool

	// rendered is the toggle mask last pushed to the surface.
	rendered toggles.Mask
	// lastAuth is the last authoritative toggle mask seen.
	lastAuth toggles.Mask

	trace         TraceLogger
	catalogDigest string

	stats Stats
}

func New(cfg Config, h host.Host, s surface.Surface, table *toggles.Table, logger *log.Logger) (*Session, error) {
	if h == nil || s == nil || table == nil {
		return nil, errors.New("session: host, surface and toggle table are required")
	}
	cfg.applyDefaults()
	return &Session{
		cfg:     cfg,
		host:    h,
		surface: s,
		table:   table,
		log:     logger,
		store: slots.NewStore(slots.Config{
			Slots:              cfg.SlotCount,
			MaxUnmodifiedTicks: cfg.MaxUnmodifiedTicks,
			MinAgeTicks:        cfg.MinAgeTicks,
		}, s, h),
		tracker: toggles.NewTracker(table, h, cfg.DebounceWindow, logger),
		id:      uuid.NewString(),
	}, nil
}

// SetTraceLogger attaches a trace sink. catalogDigest identifies the toggle
// catalog in the trace header.
func (s *Session) SetTraceLogger(l TraceLogger, catalogDigest string) {
	s.trace = l
	s.catalogDigest = catalogDigest
}

func (s *Session) ID() string                { return s.id }
func (s *Session) Config() Config            { return s.cfg }
func (s *Session) Running() bool             { return s.running }
func (s *Session) Stats() Stats              { return s.stats }
func (s *Session) Store() *slots.Store       { return s.store }
func (s *Session) Tracker() *toggles.Tracker { return s.tracker }

func (s *Session) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func (s *Session) debugf(format string, args ...any) {
	if s.cfg.Debug {
		s.logf(format, args...)
	}
}

// guard reports whether an operation may proceed.
func (s *Session) guard(op string) error {
	if !s.host.OnHostThread() {
		s.stats.DroppedOperations++
		s.logf("%s dropped: %v", op, ErrNotHostThread)
		return fmt.Errorf("%s: %w", op, ErrNotHostThread)
	}
	if !s.running {
		s.stats.DroppedOperations++
		s.debugf("%s dropped: %v", op, ErrNotRunning)
		return fmt.Errorf("%s: %w", op, ErrNotRunning)
	}
	return nil
}

// Start seeds the toggle tracker from the authoritative mask and clears every
// slot.
func (s *Session) Start(authoritative toggles.Mask) error {
	if !s.host.OnHostThread() {
		s.logf("start dropped: %v", ErrNotHostThread)
		return fmt.Errorf("start: %w", ErrNotHostThread)
	}
	s.startedAt = s.host.Now()
	s.running = true
	s.tracker.Seed(authoritative)
	s.lastAuth = authoritative
	s.rendered = 0
	s.store.ResetAll()
	s.logf("session %s started tick=%d slots=%d", s.id, s.host.CurrentTick(), s.store.Len())
	s.writeTrace(TraceEntry{
		Type:          TraceHeader,
		SessionID:     s.id,
		Tick:          s.host.CurrentTick(),
		Config:        traceConfig(s.cfg),
		CatalogDigest: s.catalogDigest,
		Toggles:       authoritative,
	})
	return nil
}

// Stop clears every prediction and hands every slot and toggle back to the
// host's own rendering.
func (s *Session) Stop() error {
	if err := s.guard("stop"); err != nil {
		return err
	}
	s.writeTrace(TraceEntry{Type: TraceStop, Tick: s.host.CurrentTick()})
	s.store.ResetAll()
	// Empty slots stay hidden.
	for i := 0; i < s.store.Len(); i++ {
		if it, ok := s.surface.AuthoritativeItem(i); ok && it.Present() {
			s.surface.ShowSlotFullyOpaque(i)
		}
	}
	s.pushToggles(s.lastAuth)
	s.running = false
	s.logf("session %s stopped tick=%d", s.id, s.host.CurrentTick())
	return nil
}

// OnAction records the predicted look of a slot after a user action.
func (s *Session) OnAction(a Action) error {
	if err := s.guard("action"); err != nil {
		return err
	}
	if !a.Kind.Known() {
		s.stats.DroppedOperations++
		s.debugf("action dropped: %v %q", ErrUnknownAction, a.Kind)
		return fmt.Errorf("action: %w: %q", ErrUnknownAction, a.Kind)
	}
	tick := s.host.CurrentTick()
	opacity := s.cfg.ChangeOpacity
	if a.Kind.Removes() {
		opacity = s.cfg.HideOpacity
	}
	if err := s.store.Set(a.Slot, a.Item, a.Quantity, opacity, tick); err != nil {
		s.stats.DroppedOperations++
		s.debugf("action %s dropped: %v", a.Kind, err)
		return err
	}
	s.stats.PredictionsSet++
	s.debugf("predict slot=%d %s item=%d qty=%d tick=%d", a.Slot, a.Kind, a.Item, a.Quantity, tick)
	slot := a.Slot
	s.writeTrace(TraceEntry{Type: TraceAction, Tick: tick, Kind: a.Kind, Slot: &slot, Item: a.Item, Quantity: a.Quantity})
	return nil
}

// ResetSlot drops the prediction at slot and redraws authoritative content.
func (s *Session) ResetSlot(slot int) error {
	if err := s.guard("reset"); err != nil {
		return err
	}
	if err := s.store.Reset(slot); err != nil {
		s.stats.DroppedOperations++
		s.debugf("reset dropped: %v", err)
		return err
	}
	s.stats.ResetsExplicit++
	s.writeTrace(TraceEntry{Type: TraceReset, Tick: s.host.CurrentTick(), Slot: &slot})
	return nil
}

// OnToggleClicked predicts the toggle state after the user flips id.
func (s *Session) OnToggleClicked(id model.ToggleID) error {
	if err := s.guard("toggle"); err != nil {
		return err
	}
	bit, ok := s.table.BitOf(id)
	if !ok {
		s.stats.DroppedOperations++
		s.debugf("toggle dropped: %v %s", toggles.ErrUnknownToggle, id)
		return fmt.Errorf("toggle: %w: %s", toggles.ErrUnknownToggle, id)
	}
	next := s.tracker.ApplyLocalToggle(bit)
	s.stats.ToggleClicks++
	s.debugf("toggle %s -> %s", id, next)
	s.writeTrace(TraceEntry{Type: TraceToggle, Tick: s.host.CurrentTick(), Toggle: id})
	return nil
}

// OnPresetActivated predicts the toggle state after activating a preset.
func (s *Session) OnPresetActivated(name string) error {
	if err := s.guard("preset"); err != nil {
		return err
	}
	set, ok := s.table.Preset(name)
	if !ok {
		s.stats.DroppedOperations++
		s.debugf("preset dropped: %v %q", toggles.ErrUnknownPreset, name)
		return fmt.Errorf("preset: %w: %q", toggles.ErrUnknownPreset, name)
	}
	next := s.tracker.ApplyLocalEnableAll(set)
	s.stats.ToggleClicks++
	s.debugf("preset %s -> %s", name, next)
	s.writeTrace(TraceEntry{Type: TracePreset, Tick: s.host.CurrentTick(), Preset: name})
	return nil
}

// OnFrame re-asserts predictions the surface has lost. It is called once per
// rendered frame and does not allocate.
func (s *Session) OnFrame() int {
	if !s.running || !s.host.OnHostThread() {
		return 0
	}
	n := s.store.Reconcile()
	s.stats.FrameReasserts += uint64(n)

	cur := s.tracker.Current()
	if cur != 0 || s.tracker.Previous() != 0 || s.rendered != 0 {
		s.pushToggles(cur)
	}
	return n
}

func (s *Session) pushToggles(m toggles.Mask) {
	for i := 0; i < s.table.Len(); i++ {
		e := s.table.At(i)
		s.surface.SetToggleVisual(e.ID, m.Has(toggles.BitMask(e.Bit)))
	}
	s.rendered = m
}

// OnTick validates every slot and the toggle mask against the authoritative
// snapshot. Staleness is measured on the host tick, the same clock OnAction
// stamps predictions with.
func (s *Session) OnTick(snap Snapshot) error {
	if err := s.guard("tick"); err != nil {
		return err
	}
	now := s.host.CurrentTick()
	for i := 0; i < s.store.Len(); i++ {
		out, err := s.store.Validate(i, snap.ItemAt(i), now)
		if err != nil {
			s.logf("validate slot %d: %v", i, err)
			continue
		}
		switch out {
		case slots.OutcomeResetMismatch:
			s.stats.ResetsMismatch++
			s.debugf("slot %d reset: authoritative changed tick=%d", i, now)
		case slots.OutcomeResetTimeout:
			s.stats.ResetsTimeout++
			s.debugf("slot %d reset: unconfirmed after %d ticks", i, s.cfg.MaxUnmodifiedTicks)
		case slots.OutcomeResetDesync:
			s.stats.ResetsDesync++
			s.logf("slot %d reset: prediction stamped after tick %d", i, now)
		}
	}

	s.lastAuth = snap.Toggles
	s.stats.TicksValidated++
	if !s.tracker.ValidateTick(snap.Toggles) {
		s.stats.TicksDebounced++
		s.debugf("toggle tick %d debounced", now)
	}

	if s.trace != nil {
		s.writeTrace(TraceEntry{
			Type:       TraceTick,
			Tick:       now,
			ServerTick: snap.Tick,
			Items:      snap.Items,
			Toggles:    snap.Toggles,
			Digest:     s.Digest(),
		})
	}
	return nil
}

func (s *Session) writeTrace(e TraceEntry) {
	if s.trace == nil {
		return
	}
	e.AtNs = int64(s.host.Now().Sub(s.startedAt))
	if err := s.trace.WriteEntry(e); err != nil {
		s.logf("trace disabled: %v", err)
		s.trace = nil
	}
}
