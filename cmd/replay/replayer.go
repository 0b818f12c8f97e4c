package main

import (
	"fmt"
	"time"

	"slotsight.app/internal/overlay/catalogs"
	"slotsight.app/internal/overlay/host"
	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/session"
	"slotsight.app/internal/overlay/surface"
)

// replayer re-drives recorded sessions on a manual host and checks every
// recorded tick digest.
type replayer struct {
	cat    *catalogs.ToggleCatalog
	filter string

	host *host.Manual
	mem  *surface.Memory
	sess *session.Session
	skip bool

	// start is the replay clock origin; entries carry offsets from it.
	start time.Time

	checked  uint64
	sessions int
	entries  uint64
}

func newReplayer(cat *catalogs.ToggleCatalog, filter string) *replayer {
	return &replayer{cat: cat, filter: filter, start: time.Unix(0, 0)}
}

func (r *replayer) apply(e session.TraceEntry) error {
	if e.Type == session.TraceHeader {
		return r.begin(e)
	}
	if r.skip {
		return nil
	}
	if r.sess == nil {
		return fmt.Errorf("%s entry at tick %d before any session header", e.Type, e.Tick)
	}
	r.entries++
	if e.Tick < r.host.Tick {
		return fmt.Errorf("session %s: tick went backwards: %d after %d", r.sess.ID(), e.Tick, r.host.Tick)
	}
	r.host.Tick = e.Tick
	r.host.Clock = r.start.Add(time.Duration(e.AtNs))

	switch e.Type {
	case session.TraceAction:
		if e.Slot == nil {
			return fmt.Errorf("tick %d: action without slot", e.Tick)
		}
		return r.sess.OnAction(session.Action{Kind: e.Kind, Slot: *e.Slot, Item: e.Item, Quantity: e.Quantity})
	case session.TraceReset:
		if e.Slot == nil {
			return fmt.Errorf("tick %d: reset without slot", e.Tick)
		}
		return r.sess.ResetSlot(*e.Slot)
	case session.TraceToggle:
		return r.sess.OnToggleClicked(e.Toggle)
	case session.TracePreset:
		return r.sess.OnPresetActivated(e.Preset)
	case session.TraceTick:
		return r.tick(e)
	case session.TraceStop:
		err := r.sess.Stop()
		r.sess = nil
		return err
	default:
		return fmt.Errorf("tick %d: unknown entry type %q", e.Tick, e.Type)
	}
}

func (r *replayer) begin(e session.TraceEntry) error {
	r.sess = nil
	r.skip = r.filter != "" && e.SessionID != r.filter
	if r.skip {
		return nil
	}
	if e.Config == nil {
		return fmt.Errorf("session %s: header without config", e.SessionID)
	}
	if e.CatalogDigest != "" && e.CatalogDigest != r.cat.Digest {
		return fmt.Errorf("session %s: catalog digest mismatch: trace=%s configs=%s", e.SessionID, e.CatalogDigest, r.cat.Digest)
	}
	cfg := e.Config.SessionConfig()
	r.host = host.NewManual(r.start)
	r.host.Tick = e.Tick
	r.mem = surface.NewMemory(cfg.SlotCount)
	sess, err := session.New(cfg, r.host, r.mem, r.cat.Table, nil)
	if err != nil {
		return err
	}
	if err := sess.Start(e.Toggles); err != nil {
		return err
	}
	r.sess = sess
	r.sessions++
	r.entries++
	return nil
}

func (r *replayer) tick(e session.TraceEntry) error {
	for i := 0; i < r.mem.Len(); i++ {
		it := model.Item{ID: model.InvalidItem}
		if i < len(e.Items) {
			it = e.Items[i]
		}
		r.mem.SetAuthoritative(i, it)
	}
	if err := r.sess.OnTick(session.Snapshot{Tick: e.ServerTick, Items: e.Items, Toggles: e.Toggles}); err != nil {
		return err
	}
	r.checked++
	if got := r.sess.Digest(); got != e.Digest {
		return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", e.Tick, got, e.Digest)
	}
	return nil
}
