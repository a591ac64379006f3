// Package clock provides the timers and display-frame callbacks that drive
// the preview state machine and the surface debouncers.
//
// Every callback runs on a single logical thread: either the caller of
// Virtual.Advance in tests or the consumer of a Loop at runtime.
package clock

import "time"

// FrameInterval is the display refresh period used for animation callbacks.
const FrameInterval = time.Second / 60

// Timer cancels a pending callback. Stop reports whether the callback was
// still pending.
type Timer interface {
	Stop() bool
}

type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	// RequestFrame runs fn once on the next display frame.
	RequestFrame(fn func(now time.Time)) Timer
}

// Poster hands a callback to the scheduler's thread.
type Poster interface {
	Post(fn func())
}
