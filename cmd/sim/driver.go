package main

import (
	"math/rand"

	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/session"
	"slotsight.app/internal/overlay/simhost"
	"slotsight.app/internal/overlay/toggles"
)

var removals = []model.ActionKind{model.ActionDrop, model.ActionEquip, model.ActionDeposit}

// driver plays a random user against the simulated game. Every input goes to
// the overlay first and then to the server, the way a real client reports
// actions before sending them.
type driver struct {
	sess  *session.Session
	game  *simhost.Game
	table *toggles.Table
	rng   *rand.Rand

	actionsPerTick int
	failPermille   int
	presets        []string

	inputErrors int
}

func newDriver(sess *session.Session, game *simhost.Game, table *toggles.Table, seed int64) *driver {
	return &driver{
		sess:           sess,
		game:           game,
		table:          table,
		rng:            rand.New(rand.NewSource(seed)),
		actionsPerTick: 2,
		presets:        table.PresetNames(),
	}
}

func (d *driver) maybeFail() {
	if d.failPermille > 0 && d.rng.Intn(1000) < d.failPermille {
		d.game.FailNext()
	}
}

func (d *driver) randomAction() session.Action {
	slot := d.rng.Intn(d.sess.Store().Len())
	cur := d.game.Item(slot)
	if !cur.Present() {
		return session.Action{
			Kind:     model.ActionWithdraw,
			Slot:     slot,
			Item:     model.ItemID(100 + d.rng.Intn(50)),
			Quantity: uint32(1 + d.rng.Intn(20)),
		}
	}
	if d.rng.Intn(4) == 0 {
		return session.Action{Kind: model.ActionClean, Slot: slot, Item: cur.ID + 1, Quantity: cur.Quantity}
	}
	return session.Action{Kind: removals[d.rng.Intn(len(removals))], Slot: slot, Item: cur.ID, Quantity: cur.Quantity}
}

// input issues this tick's random user input.
func (d *driver) input() {
	n := d.rng.Intn(d.actionsPerTick + 1)
	for i := 0; i < n; i++ {
		a := d.randomAction()
		if err := d.sess.OnAction(a); err != nil {
			d.inputErrors++
			continue
		}
		d.maybeFail()
		d.game.Submit(a)
	}

	switch r := d.rng.Intn(20); {
	case r < 6:
		e := d.table.At(d.rng.Intn(d.table.Len()))
		if err := d.sess.OnToggleClicked(e.ID); err != nil {
			d.inputErrors++
			return
		}
		d.maybeFail()
		d.game.SubmitToggle(e.ID)
	case r == 6 && len(d.presets) > 0:
		name := d.presets[d.rng.Intn(len(d.presets))]
		if err := d.sess.OnPresetActivated(name); err != nil {
			d.inputErrors++
			return
		}
		d.maybeFail()
		d.game.SubmitPreset(name)
	}
}

// tick advances the server and validates the overlay against it. advance
// moves the host to the new tick before validation.
func (d *driver) tick(advance func()) error {
	snap := d.game.Step()
	advance()
	return d.sess.OnTick(snap)
}
