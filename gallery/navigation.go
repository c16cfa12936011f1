package gallery

import (
	"fyne.io/fyne/v2"
)

// Next moves to the following item in the navigation set.
func (c *ViewportController) Next() bool {
	return c.navigate(c.current+1, DirectionNext)
}

// Previous moves to the preceding item in the navigation set.
func (c *ViewportController) Previous() bool {
	return c.navigate(c.current-1, DirectionPrevious)
}

// GoToIndex moves to position i of the navigation set.
func (c *ViewportController) GoToIndex(i int) bool {
	return c.navigate(i, DirectionJump)
}

// GoToFile moves to the item with the given id, if it is in the navigation set.
func (c *ViewportController) GoToFile(id string) bool {
	return c.navigate(indexOfID(c.navSet, id), DirectionJump)
}

func (c *ViewportController) GoToFirst() bool {
	return c.navigate(0, DirectionFirst)
}

func (c *ViewportController) GoToLast() bool {
	return c.navigate(len(c.navSet)-1, DirectionLast)
}

func (c *ViewportController) navigate(to int, dir Direction) bool {
	if !c.active || c.transitioning {
		return false
	}
	if to < 0 || to >= len(c.navSet) || to == c.current {
		return false
	}

	c.shift(to)

	item := c.CurrentItem()
	c.events.navigated(NavigatedEvent{
		Direction: dir,
		ItemID:    item.ID,
		Item:      item,
		Index:     c.current,
		Total:     len(c.navSet),
		HasNext:   c.HasNext(),
		HasPrev:   c.HasPrev(),
	})
	return true
}

// shift makes index to current and animates the triple change. It does not
// notify listeners.
func (c *ViewportController) shift(to int) {
	c.flushNav()

	old := c.roles
	c.current = to
	roles := c.tripleRoles()

	type capture struct {
		tile    *Tile
		role    PositionState
		first   Rect
		visible bool
		staying bool
	}
	var entering []capture
	for id, role := range roles {
		c.scroller.Exempt(id)
		t := c.stage.tile(id)
		if t == nil {
			t = c.stage.ensureID(id)
		}
		if t == nil {
			fyne.LogError("Viewport navigate: "+id, errTileMissing)
			continue
		}
		_, staying := old[id]
		first := c.stage.screenRect(t)
		entering = append(entering, capture{
			tile:    t,
			role:    role,
			first:   first,
			visible: staying || c.stage.onScreen(first),
			staying: staying,
		})
	}

	type leave struct {
		tile  *Tile
		first Rect
	}
	var leaving []leave
	for id := range old {
		if _, ok := roles[id]; ok {
			continue
		}
		t := c.stage.tile(id)
		if t == nil {
			continue
		}
		leaving = append(leaving, leave{tile: t, first: c.stage.screenRect(t)})
	}

	// First rectangles are all captured; roles may change from here on.
	c.roles = roles
	area := c.stage.area()
	present := c.present()
	offset := c.stage.surface.ScrollOffset()

	flights := make([]flight, 0, len(entering)+len(leaving))
	for _, e := range entering {
		c.stage.lift(e.tile)
		switch {
		case e.role == PositionCurrent:
			e.tile.z = zCurrent
		case e.staying:
			e.tile.z = zStaying
		default:
			e.tile.z = zEntering
		}
		e.tile.SetPosition(e.role)
		last := immersiveRect(c.mode, e.role, area, present)
		if e.visible {
			flights = append(flights, flight{tile: e.tile, from: e.first, to: last, fromO: e.tile.Opacity(), toO: 1})
		} else {
			flights = append(flights, flight{tile: e.tile, from: last, to: last, fromO: 0, toO: 1})
		}
	}

	pn := &pendingNav{}
	for _, l := range leaving {
		t := l.tile
		t.z = zStaying
		i := c.scroller.IndexOf(t.ID())
		if i >= 0 && c.scroller.InRange(i) {
			t.SetPosition(PositionGrid)
			last := c.stage.gridRectOnScreen(i, offset)
			flights = append(flights, flight{tile: t, from: l.first, to: last, fromO: t.Opacity(), toO: 0})
		} else {
			t.SetPosition(PositionHidden)
			flights = append(flights, flight{tile: t, from: l.first, to: l.first, fromO: t.Opacity(), toO: 0})
		}
		pn.leaving = append(pn.leaving, t)
	}
	c.stage.restack()

	pn.tween = c.play(flights, c.cfg.NavigationDuration, nil)
	pn.timer = c.sched.After(c.cfg.NavigationDuration, func() {
		c.finishNav(pn)
	})
	c.nav = pn

	c.preloadNeighbours()
}

// flushNav cancels a navigation still in flight and applies its end state now.
func (c *ViewportController) flushNav() {
	pn := c.nav
	if pn == nil {
		return
	}
	pn.timer.Stop()
	c.finishNav(pn)
}

func (c *ViewportController) finishNav(pn *pendingNav) {
	if c.nav != pn {
		return
	}
	c.nav = nil
	pn.tween.stop(true)

	for _, t := range pn.leaving {
		if t.Destroyed() {
			continue
		}
		id := t.ID()
		if _, ok := c.roles[id]; !ok {
			c.scroller.Allow(id)
		}
		t.unpin()
		i := c.scroller.IndexOf(id)
		if t.Role() == PositionHidden || i < 0 || !c.scroller.InRange(i) {
			c.stage.destroy(t)
			continue
		}
		c.stage.lower(t)
	}
	c.settle()
}

// SetViewMode switches the immersive sub-layout and persists the choice.
func (c *ViewportController) SetViewMode(mode ViewMode) bool {
	if mode < ViewCarousel || mode > ViewFullscreen || mode == c.mode {
		return false
	}
	c.mode = mode
	c.preset = false
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetString(viewModeKey, mode.String())
	}

	if c.active {
		for id, role := range c.roles {
			if t := c.stage.tile(id); t != nil && role.Immersive() {
				t.SetResolution(ResolutionFull)
			}
		}
		if !c.transitioning {
			c.retarget()
		}
	}

	c.events.modeChanged(ModeChangedEvent{Mode: mode, Item: c.CurrentItem()})
	return true
}

// CycleViewMode advances carousel, compare, fullscreen and back.
func (c *ViewportController) CycleViewMode() bool {
	return c.SetViewMode((c.mode + 1) % (ViewFullscreen + 1))
}

// retarget tweens the triple from where it is to the current layout.
func (c *ViewportController) retarget() {
	c.flushNav()
	area := c.stage.area()
	present := c.present()

	var flights []flight
	for id, role := range c.roles {
		t := c.stage.tile(id)
		if t == nil {
			continue
		}
		flights = append(flights, flight{
			tile:  t,
			from:  c.stage.screenRect(t),
			to:    immersiveRect(c.mode, role, area, present),
			fromO: t.Opacity(),
			toO:   1,
		})
	}

	pn := &pendingNav{}
	pn.tween = c.play(flights, c.cfg.NavigationDuration, nil)
	pn.timer = c.sched.After(c.cfg.NavigationDuration, func() {
		c.finishNav(pn)
	})
	c.nav = pn
}

// UpdateNavigationSet replaces the navigation set while active. The current
// item stays current when it is still present; otherwise the first item becomes
// current. An empty set exits the viewport. No navigation is reported.
func (c *ViewportController) UpdateNavigationSet(ids []string) {
	if !c.active {
		return
	}
	c.completeTransition()
	if !c.active {
		return
	}
	if len(ids) == 0 {
		c.flushNav()
		c.Exit()
		return
	}

	cur := c.currentID()
	c.navSet = append([]string(nil), ids...)
	to := indexOfID(c.navSet, cur)
	if to < 0 {
		to = 0
	}
	c.shift(to)
}

// presetMode selects the layout the next session opens with, without
// persisting it. The previous mode comes back when that session ends.
func (c *ViewportController) presetMode(mode ViewMode) {
	if c.active || mode < ViewCarousel || mode > ViewFullscreen {
		return
	}
	if !c.preset {
		c.presetFrom = c.mode
		c.preset = true
	}
	c.mode = mode
}

// dropPreset undoes a presetMode that no explicit SetViewMode replaced.
func (c *ViewportController) dropPreset() {
	if !c.preset {
		return
	}
	c.mode = c.presetFrom
	c.preset = false
}
