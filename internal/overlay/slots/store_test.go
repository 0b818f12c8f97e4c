package slots

import (
	"errors"
	"testing"
	"time"

	"slotsight.app/internal/overlay/host"
	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/surface"
)

func newTestStore(t *testing.T, cfg Config) (*Store, *surface.Memory, *host.Manual) {
	t.Helper()
	if cfg.Slots == 0 {
		cfg.Slots = 28
	}
	mem := surface.NewMemory(cfg.Slots)
	clk := host.NewManual(time.Unix(1700000000, 0))
	return NewStore(cfg, mem, clk), mem, clk
}

func item(id model.ItemID, qty uint32) *model.Item {
	return &model.Item{ID: id, Quantity: qty}
}

func TestStore_StartsUnmodified(t *testing.T) {
	s, _, _ := newTestStore(t, Config{Slots: 4})
	for i := 0; i < s.Len(); i++ {
		p, ok := s.Get(i)
		if !ok || p.Kind() != KindUnmodified {
			t.Fatalf("slot %d: kind=%s ok=%v", i, p.Kind(), ok)
		}
		if _, ok := p.ChangedTick(); ok {
			t.Fatalf("slot %d: unmodified slot should have no tick", i)
		}
	}
	if s.Active() != 0 {
		t.Fatalf("active=%d want 0", s.Active())
	}
}

func TestStore_SetAndGet(t *testing.T) {
	s, mem, clk := newTestStore(t, Config{})
	if err := s.Set(5, 200, 3, 127, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	p, ok := s.Get(5)
	if !ok {
		t.Fatalf("get failed")
	}
	tick, ok := p.ChangedTick()
	if !ok || tick != 10 {
		t.Fatalf("tick=%d ok=%v", tick, ok)
	}
	if p.ItemID() != 200 || p.Quantity() != 3 || p.Opacity() != 127 {
		t.Fatalf("unexpected prediction %+v", p)
	}
	if !p.ChangedAt().Equal(clk.Now()) {
		t.Fatalf("changed_at=%v want %v", p.ChangedAt(), clk.Now())
	}
	if mem.Renders != 0 {
		t.Fatalf("set must not touch the surface, renders=%d", mem.Renders)
	}
	if s.Active() != 1 {
		t.Fatalf("active=%d want 1", s.Active())
	}
}

func TestStore_OutOfRange(t *testing.T) {
	s, _, _ := newTestStore(t, Config{Slots: 28})
	for _, idx := range []int{-1, 28, 100} {
		if err := s.Set(idx, 1, 1, 0, 0); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("set(%d): err=%v", idx, err)
		}
		if _, ok := s.Get(idx); ok {
			t.Fatalf("get(%d) should fail", idx)
		}
		if err := s.Reset(idx); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("reset(%d): err=%v", idx, err)
		}
		if _, err := s.Validate(idx, nil, 0); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("validate(%d): err=%v", idx, err)
		}
	}
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	s, mem, _ := newTestStore(t, Config{Slots: 4})
	mem.SetAuthoritative(2, model.Item{ID: 995, Quantity: 10})
	_ = s.Set(2, 200, 1, 127, 1)
	_ = s.Set(3, 201, 1, 127, 1)

	if err := s.Reset(2); err != nil {
		t.Fatalf("reset: %v", err)
	}
	_ = s.Reset(3)
	p1, _ := s.Get(2)
	v1, _ := mem.SlotView(2)
	e1, _ := mem.SlotView(3)

	_ = s.Reset(2)
	_ = s.Reset(3)
	p2, _ := s.Get(2)
	v2, _ := mem.SlotView(2)
	e2, _ := mem.SlotView(3)

	if !p1.Equal(p2) || p2.Kind() != KindReset {
		t.Fatalf("prediction changed across resets: %+v vs %+v", p1, p2)
	}
	if v1 != v2 || !v2.Shows(995, 10, model.OpacityOpaque) {
		t.Fatalf("authoritative slot view changed: %+v vs %+v", v1, v2)
	}
	if e1 != e2 || !e2.Hidden {
		t.Fatalf("empty slot should stay hidden: %+v vs %+v", e1, e2)
	}
	if s.Active() != 0 {
		t.Fatalf("active=%d want 0", s.Active())
	}
}

func TestStore_ResetAll(t *testing.T) {
	s, _, _ := newTestStore(t, Config{Slots: 3})
	for i := 0; i < 3; i++ {
		_ = s.Set(i, model.ItemID(i+1), 1, 0, 0)
	}
	s.ResetAll()
	for i := 0; i < 3; i++ {
		if p, _ := s.Get(i); p.Kind() != KindReset {
			t.Fatalf("slot %d kind=%s", i, p.Kind())
		}
	}
}

func TestStore_ValidateSentinelsAreIdle(t *testing.T) {
	s, mem, _ := newTestStore(t, Config{Slots: 2})
	if out, _ := s.Validate(0, nil, 50); out != OutcomeIdle {
		t.Fatalf("unmodified: outcome=%s", out)
	}
	_ = s.Reset(1)
	hides := mem.Hides
	if out, _ := s.Validate(1, item(4, 4), 50); out != OutcomeIdle {
		t.Fatalf("reset: outcome=%s", out)
	}
	if mem.Hides != hides {
		t.Fatalf("idle validation must not touch the surface")
	}
}

// Slot 5 set with item=200,qty=1 at tick 10 and max_unmodified_ticks=1.
func TestStore_ValidateExampleScenario(t *testing.T) {
	s, _, _ := newTestStore(t, Config{MaxUnmodifiedTicks: 1, MinAgeTicks: 1})
	_ = s.Set(5, 200, 1, 127, 10)

	out, err := s.Validate(5, nil, 10)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out == OutcomeResetMismatch || out == OutcomeResetTimeout {
		t.Fatalf("tick 10 should leave the prediction, got %s", out)
	}
	if p, _ := s.Get(5); p.Kind() != KindItem {
		t.Fatalf("prediction cleared too early")
	}

	out, _ = s.Validate(5, nil, 11)
	if out != OutcomeResetMismatch && out != OutcomeResetTimeout {
		t.Fatalf("tick 11 should reset, got %s", out)
	}
	if p, _ := s.Get(5); p.Kind() != KindReset {
		t.Fatalf("kind=%s want RESET", p.Kind())
	}
}

func TestStore_TimeoutBoundaryIsExact(t *testing.T) {
	for _, limit := range []uint64{1, 2, 3, 5} {
		s, _, _ := newTestStore(t, Config{MaxUnmodifiedTicks: limit})
		const start = 100
		for i := 0; i < s.Len(); i++ {
			_ = s.Set(i, 300, 2, 0, start)
		}
		confirmed := item(300, 2)
		for i := 0; i < s.Len(); i++ {
			if out, _ := s.Validate(i, confirmed, start+limit-1); out != OutcomeKept {
				t.Fatalf("max=%d slot=%d at T+max-1: outcome=%s", limit, i, out)
			}
			if out, _ := s.Validate(i, confirmed, start+limit); out != OutcomeResetTimeout {
				t.Fatalf("max=%d slot=%d at T+max: outcome=%s", limit, i, out)
			}
		}
	}
}

func TestStore_MismatchResetsRegardlessOfAge(t *testing.T) {
	cases := []struct {
		name string
		auth *model.Item
	}{
		{name: "different item", auth: item(201, 1)},
		{name: "different quantity", auth: item(200, 7)},
		{name: "slot emptied", auth: nil},
		{name: "invalid id", auth: &model.Item{ID: model.InvalidItem, Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _, _ := newTestStore(t, Config{MaxUnmodifiedTicks: 50})
			_ = s.Set(0, 200, 1, 0, 10)
			out, _ := s.Validate(0, tc.auth, 10)
			if out != OutcomeResetMismatch {
				t.Fatalf("outcome=%s want reset_mismatch", out)
			}
		})
	}
}

func TestStore_MinAgeGuard(t *testing.T) {
	s, _, _ := newTestStore(t, Config{MaxUnmodifiedTicks: 1, MinAgeTicks: 2})
	_ = s.Set(0, 200, 1, 0, 10)
	if out, _ := s.Validate(0, nil, 11); out != OutcomeTooEarly {
		t.Fatalf("outcome=%s want too_early", out)
	}
	if out, _ := s.Validate(0, nil, 12); out != OutcomeResetMismatch {
		t.Fatalf("outcome=%s want reset_mismatch", out)
	}
}

func TestStore_FutureStampedPredictionResets(t *testing.T) {
	s, mem, _ := newTestStore(t, Config{MaxUnmodifiedTicks: 3, MinAgeTicks: 1})
	_ = s.Set(0, 200, 1, 0, 40)
	// Validating at an earlier tick must not keep the prediction alive.
	for tick := uint64(1); tick <= 3; tick++ {
		out, err := s.Validate(0, nil, tick)
		if err != nil {
			t.Fatalf("validate: %v", err)
		}
		if tick == 1 && out != OutcomeResetDesync {
			t.Fatalf("outcome=%s want reset_desync", out)
		}
		if tick > 1 && out != OutcomeIdle {
			t.Fatalf("tick %d outcome=%s want idle", tick, out)
		}
	}
	if p, _ := s.Get(0); p.Kind() != KindReset {
		t.Fatalf("kind=%s want RESET", p.Kind())
	}
	if v, _ := mem.SlotView(0); !v.Hidden {
		t.Fatalf("empty slot should be hidden after reset, got %+v", v)
	}
}

func TestStore_InvalidItemPredictionOnlyTimesOut(t *testing.T) {
	s, _, _ := newTestStore(t, Config{MaxUnmodifiedTicks: 3})
	_ = s.Set(0, model.InvalidItem, 0, 0, 10)
	if out, _ := s.Validate(0, item(5, 5), 11); out != OutcomeKept {
		t.Fatalf("outcome=%s want kept", out)
	}
	if out, _ := s.Validate(0, item(5, 5), 13); out != OutcomeResetTimeout {
		t.Fatalf("outcome=%s want reset_timeout", out)
	}
}

func TestStore_LatestSetWinsWithinTick(t *testing.T) {
	s, _, _ := newTestStore(t, Config{})
	_ = s.Set(1, 10, 1, 0, 4)
	_ = s.Set(1, 11, 2, 0, 4)
	p, _ := s.Get(1)
	if p.ItemID() != 11 || p.Quantity() != 2 {
		t.Fatalf("expected latest prediction, got item=%d qty=%d", p.ItemID(), p.Quantity())
	}
	if s.Active() != 1 {
		t.Fatalf("active=%d want 1", s.Active())
	}
}

func TestStore_ReconcileReassertsAfterRevert(t *testing.T) {
	s, mem, _ := newTestStore(t, Config{Slots: 4})
	mem.SetAuthoritative(1, model.Item{ID: 500, Quantity: 1})
	_ = s.Set(1, 500, 1, 200, 3)

	if n := s.Reconcile(); n != 1 {
		t.Fatalf("first reconcile issued %d renders, want 1", n)
	}
	if n := s.Reconcile(); n != 0 {
		t.Fatalf("reconcile must be idempotent, issued %d", n)
	}
	mem.Revert(1)
	if n := s.Reconcile(); n != 1 {
		t.Fatalf("reconcile after revert issued %d, want 1", n)
	}
	if v, _ := mem.SlotView(1); !v.Shows(500, 1, 200) {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestStore_ReconcileSkipsNonOverriding(t *testing.T) {
	s, mem, _ := newTestStore(t, Config{Slots: 3})
	_ = s.Set(0, model.InvalidItem, 0, 0, 1)
	_ = s.Reset(1)
	renders := mem.Renders
	if n := s.Reconcile(); n != 0 {
		t.Fatalf("reconcile issued %d renders, want 0", n)
	}
	if mem.Renders != renders {
		t.Fatalf("surface touched")
	}
}
