package gallery

import (
	"time"

	"fyne.io/fyne/v2"
)

// resizeMinInterval is the shortest gap between two resize callbacks.
const resizeMinInterval = 60 * time.Millisecond

// resizeLayout wraps a layout and reports real size changes through onResize,
// coalescing bursts while a window is being dragged.
type resizeLayout struct {
	internal fyne.Layout
	onResize func()
	sched    Scheduler

	lastSize  fyne.Size
	lastFired time.Time
	pending   Timer
}

func (r *resizeLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	r.internal.Layout(objects, size)
	if r.onResize == nil {
		return
	}

	// Layouts also run for reasons other than a size change.
	if abs32(size.Width-r.lastSize.Width) < 0.5 && abs32(size.Height-r.lastSize.Height) < 0.5 {
		return
	}
	r.lastSize = size
	r.scheduleResize()
}

func (r *resizeLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return r.internal.MinSize(objects)
}

// scheduleResize defers the callback out of the layout pass; changing the
// widget tree during layout is not safe.
func (r *resizeLayout) scheduleResize() {
	now := time.Now()
	elapsed := now.Sub(r.lastFired)
	if elapsed >= resizeMinInterval && r.pending == nil {
		r.lastFired = now
		r.sched.NextFrame(r.onResize)
		return
	}

	if r.pending != nil {
		r.pending.Stop()
	}
	delay := max(resizeMinInterval-elapsed, 0)
	r.pending = r.sched.After(delay, func() {
		r.pending = nil
		r.lastFired = time.Now()
		r.onResize()
	})
}
