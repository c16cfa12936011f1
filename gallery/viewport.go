package gallery

import (
	"time"

	"fyne.io/fyne/v2"
	"github.com/alexballas/mediagrid/catalog"
)

// Stacking keys for overlay tiles. Higher is drawn on top.
const (
	zEntering = 1
	zStaying  = 2
	zCurrent  = 3
)

// flight is one tile's interpolation from a First to a Last rectangle.
type flight struct {
	tile       *Tile
	from, to   Rect
	fromO, toO float32
}

// tween drives a set of flights. It is released on the frame after it was
// pinned so the pinned First rectangles are committed before anything moves.
type tween struct {
	flights []flight
	onTick  func(p float32)
	anim    Timer
	stopped bool
}

// stop cancels the tween. With snap, every tile jumps to its Last state.
func (tw *tween) stop(snap bool) {
	if tw == nil || tw.stopped {
		return
	}
	tw.stopped = true
	if tw.anim != nil {
		tw.anim.Stop()
	}
	if !snap {
		return
	}
	for _, f := range tw.flights {
		if f.tile.Destroyed() {
			continue
		}
		f.tile.place(f.to)
		f.tile.SetOpacity(f.toO)
	}
	if tw.onTick != nil {
		tw.onTick(1)
	}
}

// pendingNav is a navigation whose animation window has not elapsed yet.
type pendingNav struct {
	tween   *tween
	timer   Timer
	leaving []*Tile
}

// ViewportController moves tiles between the grid and the immersive layouts.
type ViewportController struct {
	cfg      Config
	sched    Scheduler
	scroller *VirtualScroller
	stage    *tileStage
	media    MediaSource
	events   Events

	active        bool
	transitioning bool
	navSet        []string
	current       int
	mode          ViewMode
	presetFrom    ViewMode
	preset        bool
	details       bool
	savedOffset   float32

	roles map[string]PositionState

	transition Timer
	finishing  func()
	nav        *pendingNav
}

func newViewportController(cfg Config, sched Scheduler, scroller *VirtualScroller, stage *tileStage, media MediaSource) *ViewportController {
	return &ViewportController{
		cfg:      cfg,
		sched:    sched,
		scroller: scroller,
		stage:    stage,
		media:    media,
		mode:     cfg.viewModePreference(),
		current:  -1,
		roles:    make(map[string]PositionState),
	}
}

// SetEvents replaces the notification callbacks.
func (c *ViewportController) SetEvents(e Events) {
	c.events = e
}

// Enter opens the viewport on targetID. navigationSet limits next/previous to
// the given ids; nil uses the full item order.
func (c *ViewportController) Enter(targetID string, navigationSet []string) bool {
	if c.active || c.Transitioning() {
		return false
	}

	set := navigationSet
	if len(set) == 0 {
		set = c.scroller.IDs()
	}
	idx := indexOfID(set, targetID)
	if idx < 0 {
		if c.scroller.IndexOf(targetID) < 0 {
			return false
		}
		set, idx = []string{targetID}, 0
	}

	c.navSet = append([]string(nil), set...)
	c.current = idx
	c.savedOffset = c.stage.surface.ScrollOffset()

	c.scroller.Pause()
	c.scroller.Freeze()
	c.stage.freeze()

	roles := c.tripleRoles()
	type capture struct {
		tile    *Tile
		role    PositionState
		first   Rect
		visible bool
	}
	var caps []capture
	for id, role := range roles {
		c.scroller.Exempt(id)
		t := c.stage.ensureID(id)
		if t == nil {
			fyne.LogError("Viewport enter: "+id, errTileMissing)
			continue
		}
		first := c.stage.screenRect(t)
		caps = append(caps, capture{tile: t, role: role, first: first, visible: c.stage.onScreen(first)})
	}

	c.active = true
	c.transitioning = true
	c.roles = roles

	area := c.stage.area()
	present := c.present()
	flights := make([]flight, 0, len(caps))
	for _, cp := range caps {
		c.stage.lift(cp.tile)
		cp.tile.z = zStaying
		if cp.role == PositionCurrent {
			cp.tile.z = zCurrent
		}
		cp.tile.SetPosition(cp.role)
		last := immersiveRect(c.mode, cp.role, area, present)
		if cp.visible {
			flights = append(flights, flight{tile: cp.tile, from: cp.first, to: last, fromO: 1, toO: 1})
		} else {
			flights = append(flights, flight{tile: cp.tile, from: last, to: last, fromO: 0, toO: 1})
		}
	}
	c.stage.restack()

	tw := c.play(flights, c.cfg.TransitionDuration, c.stage.setBackdrop)
	c.armTransition(c.cfg.TransitionDuration, func() {
		tw.stop(true)
		c.settle()
		c.transitioning = false
	})

	c.preloadNeighbours()

	item := c.CurrentItem()
	c.events.entered(EnteredEvent{ItemID: item.ID, Item: item, Index: c.current, Total: len(c.navSet)})
	return true
}

// Exit returns every immersive tile to its grid cell.
func (c *ViewportController) Exit() bool {
	if !c.active || c.Transitioning() {
		return false
	}
	c.transitioning = true

	lastID := c.currentID()
	restore := c.savedOffset
	if i := c.scroller.IndexOf(lastID); i >= 0 {
		restore = c.scroller.OffsetToReveal(i, c.savedOffset)
	}

	lifted := c.stage.liftedTiles()
	flights := make([]flight, 0, len(lifted))
	for _, t := range lifted {
		first := c.stage.screenRect(t)
		i := c.scroller.IndexOf(t.ID())
		t.SetPosition(PositionGrid)
		if i < 0 {
			flights = append(flights, flight{tile: t, from: first, to: first, fromO: t.Opacity(), toO: 0})
			continue
		}
		last := c.stage.gridRectOnScreen(i, restore)
		flights = append(flights, flight{tile: t, from: first, to: last, fromO: t.Opacity(), toO: 1})
	}

	tw := c.play(flights, c.cfg.TransitionDuration, func(p float32) {
		c.stage.setBackdrop(1 - p)
	})
	c.armTransition(c.cfg.TransitionDuration, func() {
		tw.stop(true)
		for _, t := range lifted {
			if t.Destroyed() {
				continue
			}
			t.unpin()
			if c.scroller.IndexOf(t.ID()) < 0 {
				c.stage.destroy(t)
				continue
			}
			c.stage.lower(t)
		}

		c.active = false
		c.stage.unfreeze()
		c.scroller.Unfreeze()
		c.scroller.Resume()
		c.scroller.ClearExemptions()
		c.stage.surface.SetScrollOffset(restore)
		c.rerender()
		c.stage.setBackdrop(0)

		c.roles = make(map[string]PositionState)
		c.navSet = nil
		c.current = -1
		c.dropPreset()
		c.transitioning = false

		c.events.exited(ExitedEvent{LastItemID: lastID})
	})
	return true
}

// rerender forces the stage to reconcile with the scroller's range, even when
// the range itself did not change.
func (c *ViewportController) rerender() {
	if c.scroller.HandleScroll() {
		return
	}
	start, end := c.scroller.VisibleRange()
	c.stage.render(start, end)
}

// Toggle enters the viewport on id when inactive and exits it when active.
func (c *ViewportController) Toggle(id string) bool {
	if c.active {
		return c.Exit()
	}
	return c.Enter(id, nil)
}

// ToggleDetails flips the details flag.
func (c *ViewportController) ToggleDetails() bool {
	c.details = !c.details
	c.events.detailsToggled(DetailsToggledEvent{Visible: c.details, Item: c.CurrentItem()})
	return c.details
}

// Relayout re-places the immersive tiles after the drawable area changed.
func (c *ViewportController) Relayout() {
	if !c.active || c.transitioning {
		return
	}
	c.flushNav()
	c.settle()
}

// settle puts every triple tile at its natural immersive rectangle.
func (c *ViewportController) settle() {
	area := c.stage.area()
	present := c.present()
	for id, role := range c.roles {
		t := c.stage.tile(id)
		if t == nil {
			fyne.LogError("Viewport settle: "+id, errTileMissing)
			continue
		}
		t.unpin()
		t.place(immersiveRect(c.mode, role, area, present))
	}
	c.stage.restack()
}

// play pins every flight at its First state and releases them on the next frame.
func (c *ViewportController) play(flights []flight, d time.Duration, onTick func(float32)) *tween {
	tw := &tween{flights: flights, onTick: onTick}
	for _, f := range flights {
		f.tile.pin(f.from, f.fromO)
	}
	if onTick != nil {
		onTick(0)
	}
	c.stage.overlay.Refresh()

	c.sched.NextFrame(func() {
		if tw.stopped {
			return
		}
		tw.anim = c.sched.Animate(d, func(p float32) {
			if tw.stopped {
				return
			}
			for _, f := range tw.flights {
				if f.tile.Destroyed() {
					continue
				}
				f.tile.place(f.from.Lerp(f.to, p))
				f.tile.SetOpacity(f.fromO + (f.toO-f.fromO)*p)
			}
			if tw.onTick != nil {
				tw.onTick(p)
			}
		})
	})
	return tw
}

// armTransition schedules fn as the transition cleanup, replacing any cleanup
// still pending.
func (c *ViewportController) armTransition(d time.Duration, fn func()) {
	if c.transition != nil {
		c.transition.Stop()
	}
	done := false
	run := func() {
		if done {
			return
		}
		done = true
		c.transition = nil
		c.finishing = nil
		fn()
	}
	c.finishing = run
	c.transition = c.sched.After(d, run)
}

// completeTransition runs a pending enter or exit cleanup immediately.
func (c *ViewportController) completeTransition() {
	if c.finishing == nil {
		return
	}
	if c.transition != nil {
		c.transition.Stop()
	}
	c.finishing()
}

func (c *ViewportController) preloadNeighbours() {
	for id, role := range c.roles {
		if role == PositionCurrent {
			continue
		}
		if t := c.stage.tile(id); t != nil {
			t.PreloadFull()
		}
	}
	if c.media == nil {
		return
	}
	for _, k := range []int{c.current - 2, c.current + 2} {
		if k < 0 || k >= len(c.navSet) {
			continue
		}
		if item, ok := c.item(c.navSet[k]); ok && item.HasFull() {
			c.media.Preload(item)
		}
	}
}

// tripleRoles derives the role of each id around the current index.
func (c *ViewportController) tripleRoles() map[string]PositionState {
	roles := make(map[string]PositionState, 3)
	if c.current < 0 || c.current >= len(c.navSet) {
		return roles
	}
	if c.current > 0 {
		roles[c.navSet[c.current-1]] = PositionPrev
	}
	if c.current < len(c.navSet)-1 {
		roles[c.navSet[c.current+1]] = PositionNext
	}
	roles[c.navSet[c.current]] = PositionCurrent
	return roles
}

func (c *ViewportController) present() triple {
	return triple{prev: c.HasPrev(), next: c.HasNext()}
}

func (c *ViewportController) item(id string) (catalog.Item, bool) {
	return c.scroller.ItemAt(c.scroller.IndexOf(id))
}

func (c *ViewportController) currentID() string {
	if c.current < 0 || c.current >= len(c.navSet) {
		return ""
	}
	return c.navSet[c.current]
}

func (c *ViewportController) Active() bool {
	return c.active
}

// Transitioning reports whether an enter, exit or navigation animation is
// still within its window.
func (c *ViewportController) Transitioning() bool {
	return c.transitioning || c.nav != nil
}

// CurrentIndex is the position of the current item in the navigation set, or -1.
func (c *ViewportController) CurrentIndex() int {
	if !c.active {
		return -1
	}
	return c.current
}

func (c *ViewportController) CurrentItem() catalog.Item {
	item, _ := c.item(c.currentID())
	return item
}

// NavigationSet returns a copy of the ids next and previous move through.
func (c *ViewportController) NavigationSet() []string {
	return append([]string(nil), c.navSet...)
}

func (c *ViewportController) ViewMode() ViewMode {
	return c.mode
}

func (c *ViewportController) HasNext() bool {
	return c.active && c.current < len(c.navSet)-1
}

func (c *ViewportController) HasPrev() bool {
	return c.active && c.current > 0
}

func (c *ViewportController) DetailsVisible() bool {
	return c.details
}

func indexOfID(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
