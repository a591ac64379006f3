package clock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a wall-clock scheduler whose callbacks are funnelled through one
// channel. Exactly one consumer must drain Next (or call Run) so callbacks
// never run concurrently. After Close, pending and future callbacks are
// dropped.
type Loop struct {
	ch        chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewLoop(buffer int) *Loop {
	return &Loop{ch: make(chan func(), buffer), done: make(chan struct{})}
}

func (l *Loop) Now() time.Time { return time.Now() }

type loopTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

// Stop also suppresses a callback that already fired but has not yet been
// picked up from the channel.
func (lt *loopTimer) Stop() bool {
	if lt.stopped.Swap(true) {
		return false
	}
	return lt.t.Stop()
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if lt.stopped.Load() {
				return
			}
			lt.stopped.Store(true)
			fn()
		})
	})
	return lt
}

func (l *Loop) RequestFrame(fn func(now time.Time)) Timer {
	return l.AfterFunc(FrameInterval, func() { fn(time.Now()) })
}

// Post queues fn for the consumer. It gives up once the loop is closed so
// timers and pollers firing during shutdown do not block forever.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.ch <- fn:
	case <-l.done:
	}
}

// Close stops accepting callbacks and releases every blocked Post. It is safe
// to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Done is closed by Close.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Next exposes the callback channel to an external event loop.
func (l *Loop) Next() <-chan func() {
	return l.ch
}

// Run drains callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.ch:
			fn()
		}
	}
}
