package clock

import (
	"sort"
	"time"
)

type virtualEntry struct {
	at      time.Time
	seq     uint64
	fn      func()
	stopped bool
	fired   bool
}

func (e *virtualEntry) Stop() bool {
	if e.stopped || e.fired {
		return false
	}
	e.stopped = true
	return true
}

// Virtual is a manually advanced scheduler. Callbacks run synchronously inside
// Advance, in due-time order, with Now reporting each callback's due time.
type Virtual struct {
	now     time.Time
	seq     uint64
	pending []*virtualEntry
	frame   time.Duration
	queue   []func()
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start, frame: FrameInterval}
}

func (v *Virtual) Now() time.Time { return v.now }

func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	v.seq++
	e := &virtualEntry{at: v.now.Add(d), seq: v.seq, fn: fn}
	v.pending = append(v.pending, e)
	return e
}

func (v *Virtual) RequestFrame(fn func(now time.Time)) Timer {
	return v.AfterFunc(v.frame, func() { fn(v.now) })
}

// Post queues fn to run on the next Advance, ahead of any timers.
func (v *Virtual) Post(fn func()) {
	v.queue = append(v.queue, fn)
}

// Advance moves the clock forward by d, firing everything that falls due.
func (v *Virtual) Advance(d time.Duration) {
	v.drainPosted()
	target := v.now.Add(d)
	for {
		e := v.popDue(target)
		if e == nil {
			break
		}
		v.now = e.at
		e.fired = true
		e.fn()
		v.drainPosted()
	}
	v.now = target
}

// Pending reports how many callbacks are still armed.
func (v *Virtual) Pending() int {
	n := 0
	for _, e := range v.pending {
		if !e.stopped && !e.fired {
			n++
		}
	}
	return n
}

func (v *Virtual) drainPosted() {
	for len(v.queue) > 0 {
		fn := v.queue[0]
		v.queue = v.queue[1:]
		fn()
	}
}

func (v *Virtual) popDue(target time.Time) *virtualEntry {
	live := v.pending[:0]
	for _, e := range v.pending {
		if !e.stopped && !e.fired {
			live = append(live, e)
		}
	}
	v.pending = live
	if len(v.pending) == 0 {
		return nil
	}

	sort.SliceStable(v.pending, func(i, j int) bool {
		if v.pending[i].at.Equal(v.pending[j].at) {
			return v.pending[i].seq < v.pending[j].seq
		}
		return v.pending[i].at.Before(v.pending[j].at)
	})
	e := v.pending[0]
	if e.at.After(target) {
		return nil
	}
	v.pending = v.pending[1:]
	return e
}
