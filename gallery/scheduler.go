package gallery

import (
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop()
}

// Scheduler provides the frame and timer primitives the transitions are built
// on. All callbacks run on the main goroutine.
type Scheduler interface {
	// NextFrame runs fn once, before the next repaint.
	NextFrame(fn func())
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func()) Timer
	// Animate calls tick with eased progress in [0, 1] every frame for d; the
	// last call is always tick(1) unless the animation is stopped first.
	Animate(d time.Duration, tick func(progress float32)) Timer
}

// NewFyneScheduler returns the Scheduler backed by Fyne's animation runner.
func NewFyneScheduler() Scheduler {
	return fyneScheduler{}
}

type fyneScheduler struct{}

type animationTimer struct {
	anim *fyne.Animation
	done atomic.Bool
}

func (a *animationTimer) Stop() {
	if a.done.Swap(true) {
		return
	}
	a.anim.Stop()
}

func (fyneScheduler) NextFrame(fn func()) {
	t := &animationTimer{}
	t.anim = fyne.NewAnimation(time.Millisecond, func(p float32) {
		if p < 1 || t.done.Swap(true) {
			return
		}
		fn()
	})
	t.anim.Curve = fyne.AnimationLinear
	t.anim.Start()
}

type afterTimer struct {
	timer     *time.Timer
	cancelled atomic.Bool
}

func (a *afterTimer) Stop() {
	a.cancelled.Store(true)
	a.timer.Stop()
}

func (fyneScheduler) After(d time.Duration, fn func()) Timer {
	t := &afterTimer{}
	t.timer = time.AfterFunc(d, func() {
		fyne.Do(func() {
			// Stop may have run after the timer fired but before this callback.
			if t.cancelled.Load() {
				return
			}
			fn()
		})
	})
	return t
}

func (fyneScheduler) Animate(d time.Duration, tick func(float32)) Timer {
	t := &animationTimer{}
	t.anim = fyne.NewAnimation(d, func(p float32) {
		if t.done.Load() {
			return
		}
		tick(p)
		if p >= 1 {
			t.done.Store(true)
		}
	})
	t.anim.Curve = fyne.AnimationEaseInOut
	t.anim.Start()
	return t
}
