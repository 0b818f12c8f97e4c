package host

import (
	"sync/atomic"
	"time"
)

// Clock reads wall time. Implementations must return values carrying a
// monotonic reading (time.Now does) so durations survive clock jumps.
type Clock interface {
	Now() time.Time
}

// Host is the capability the engine needs from the host event loop: the
// current authoritative tick and whether the caller is on the loop's thread.
type Host interface {
	Clock
	CurrentTick() uint64
	OnHostThread() bool
}

// Loop is a Host backed by a real ticker loop. The loop advances the tick and
// runs every engine call through Do.
type Loop struct {
	tick   atomic.Uint64
	active atomic.Bool
}

func (l *Loop) Now() time.Time      { return time.Now() }
func (l *Loop) CurrentTick() uint64 { return l.tick.Load() }
func (l *Loop) Advance() uint64     { return l.tick.Add(1) }
func (l *Loop) OnHostThread() bool  { return l.active.Load() }

// Do runs fn as the loop's thread.
func (l *Loop) Do(fn func()) {
	l.active.Store(true)
	defer l.active.Store(false)
	fn()
}

// Manual is a deterministic Host for tests and replays.
type Manual struct {
	Clock   time.Time
	Tick    uint64
	Foreign bool // when set, OnHostThread reports false
}

func NewManual(start time.Time) *Manual { return &Manual{Clock: start} }

func (m *Manual) Now() time.Time          { return m.Clock }
func (m *Manual) CurrentTick() uint64     { return m.Tick }
func (m *Manual) OnHostThread() bool      { return !m.Foreign }
func (m *Manual) Advance(d time.Duration) { m.Clock = m.Clock.Add(d) }

// Step advances n ticks of the given duration.
func (m *Manual) Step(n uint64, tickDuration time.Duration) {
	m.Tick += n
	m.Clock = m.Clock.Add(time.Duration(n) * tickDuration)
}
