// Package gallery renders a virtualized grid of media tiles and moves them in
// and out of an immersive viewport with animated transitions.
package gallery

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/alexballas/mediagrid/catalog"
)

// Gallery is the grid widget. It owns the tiles, the scroller, the viewport
// controller and the scroll slider.
type Gallery struct {
	widget.BaseWidget

	// OnSelectionChanged is called with the selected ids in item order.
	OnSelectionChanged func(ids []string)
	// OnFolderActivated is called when a folder item is double tapped.
	OnFolderActivated func(item catalog.Item)

	cfg   Config
	sched Scheduler
	media MediaSource

	surface  *scrollSurface
	scroller *VirtualScroller
	stage    *tileStage
	viewport *ViewportController
	slider   *ScrollSlider
	details  *detailsPanel
	root     *fyne.Container

	events    Events
	selected  map[string]struct{}
	anchor    int
	navAll    bool
	zoomLevel int
}

// NewGallery creates an empty gallery. media may be nil, in which case tiles
// stay blank; sched may be nil to use NewFyneScheduler.
func NewGallery(cfg Config, media MediaSource, sched Scheduler) *Gallery {
	if sched == nil {
		sched = NewFyneScheduler()
	}
	g := &Gallery{
		cfg:       cfg,
		sched:     sched,
		media:     media,
		selected:  make(map[string]struct{}),
		anchor:    -1,
		zoomLevel: defaultZoom,
	}
	g.loadPrefs()

	g.surface = newScrollSurface()
	g.scroller = NewVirtualScroller(g.surface, g.itemSize(), cfg.Gap, cfg.OverscanRows, nil)
	g.stage = newTileStage(g.surface, func() *Tile {
		return newTile(media, sched, cfg, g)
	}, g.IsSelected)
	g.stage.scroller = g.scroller
	g.scroller.SetRenderFunc(g.stage.render)

	g.viewport = newViewportController(cfg, sched, g.scroller, g.stage, media)
	g.viewport.SetEvents(g.viewportEvents())
	g.stage.backdrop.onTapped = func() { g.viewport.Exit() }

	g.slider = NewScrollSlider(g)
	g.details = newDetailsPanel(fyne.Do)

	g.surface.scroll.OnScrolled = func(fyne.Position) {
		g.scroller.HandleScroll()
		g.slider.Sync()
	}

	marquee := newMarqueeOverlay(g.surface.scroll, g.marqueeChanged, nil)
	zoom := newZoomWheel(g.stepZoom)
	grid := container.NewBorder(nil, nil, nil, g.slider, container.NewStack(marquee, zoom))

	g.root = container.New(&resizeLayout{
		internal: layout.NewStackLayout(),
		onResize: g.handleResize,
		sched:    sched,
	}, grid, g.stage.backdrop, g.stage.overlay, g.details.root)

	g.ExtendBaseWidget(g)
	return g
}

func (g *Gallery) loadPrefs() {
	app := fyne.CurrentApp()
	if app == nil {
		return
	}
	g.zoomLevel = clampZoom(app.Preferences().IntWithFallback(zoomLevelKey, defaultZoom))
}

func (g *Gallery) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(g.root)
}

// SetItems replaces the displayed items. While the viewport is open its
// navigation set follows the new list.
func (g *Gallery) SetItems(items []catalog.Item) {
	g.pruneSelection(items)
	g.scroller.SetItems(items)

	if g.viewport.Active() {
		var set []string
		if g.navAll {
			set = mediaIDs(items)
		} else {
			set = keepListed(g.viewport.NavigationSet(), items)
		}
		g.viewport.UpdateNavigationSet(set)
	} else {
		g.scroller.HandleScroll()
	}

	g.stage.refreshSelection()
	g.slider.SetTotal(len(items))
	g.slider.Sync()
}

// SetEvents registers the viewport callbacks.
func (g *Gallery) SetEvents(e Events) {
	g.events = e
}

// SetDetailFetcher sets where the details panel loads metadata from.
func (g *Gallery) SetDetailFetcher(f DetailFetcher) {
	g.details.fetcher = f
}

func (g *Gallery) Scroller() *VirtualScroller {
	return g.scroller
}

func (g *Gallery) Viewport() *ViewportController {
	return g.viewport
}

func (g *Gallery) Slider() *ScrollSlider {
	return g.slider
}

// Tile returns the materialized tile for id, or nil.
func (g *Gallery) Tile(id string) *Tile {
	return g.stage.tile(id)
}

// ScrollMetrics implements ScrollPeer.
func (g *Gallery) ScrollMetrics() ScrollMetrics {
	return g.scroller.ScrollMetrics()
}

// ScrollTo implements ScrollPeer.
func (g *Gallery) ScrollTo(offset float32) {
	m := g.scroller.ScrollMetrics()
	offset = min(offset, m.ScrollHeight-m.ClientHeight)
	offset = max(offset, 0)
	g.surface.SetScrollOffset(offset)
	g.scroller.HandleScroll()
}

// open enters the viewport on id, navigating through every media item.
func (g *Gallery) open(id string) bool {
	item, ok := g.scroller.ItemAt(g.scroller.IndexOf(id))
	if !ok {
		return false
	}
	if item.Folder {
		if g.OnFolderActivated != nil {
			g.OnFolderActivated(item)
		}
		return false
	}
	g.navAll = true
	return g.viewport.Enter(id, mediaIDs(g.scroller.Items()))
}

func (g *Gallery) handleResize() {
	if g.viewport.Active() {
		g.viewport.Relayout()
		return
	}
	g.scroller.HandleResize()
	g.scroller.HandleScroll()
	g.slider.Sync()
}

func (g *Gallery) marqueeChanged(r Rect) {
	if g.viewport.Active() {
		return
	}
	var ids []string
	for _, i := range g.scroller.IndicesIn(r.Translate(0, g.surface.ScrollOffset())) {
		if item, ok := g.scroller.ItemAt(i); ok {
			ids = append(ids, item.ID)
		}
	}
	g.SelectMultiple(ids)
}

func (g *Gallery) tileClicked(t *Tile, mod fyne.KeyModifier) {
	if g.viewport.Active() {
		return
	}
	g.focus()
	switch {
	case mod&fyne.KeyModifierShift != 0:
		g.ExtendSelection(t.ID())
	case mod&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0:
		g.ToggleSelection(t.ID())
	default:
		g.Select(t.ID())
	}
}

func (g *Gallery) tileActivated(t *Tile) {
	id := t.ID()
	if g.viewport.Active() {
		switch t.Role() {
		case PositionCurrent:
			g.viewport.Exit()
		case PositionPrev, PositionNext:
			g.viewport.GoToFile(id)
		}
		return
	}
	if g.IsSelected(id) && len(g.selected) > 1 {
		g.OpenSelection()
		return
	}
	g.Select(id)
	g.open(id)
}

func (g *Gallery) focus() {
	if app := fyne.CurrentApp(); app != nil {
		if c := app.Driver().CanvasForObject(g); c != nil {
			c.Focus(g)
		}
	}
}

func (g *Gallery) FocusGained() {}
func (g *Gallery) FocusLost()   {}

// TypedKey handles navigation keys for both the grid and the viewport.
func (g *Gallery) TypedKey(ev *fyne.KeyEvent) {
	if ev == nil {
		return
	}
	v := g.viewport
	if v.Active() {
		switch ev.Name {
		case fyne.KeyLeft, fyne.KeyUp:
			v.Previous()
		case fyne.KeyRight, fyne.KeyDown:
			v.Next()
		case fyne.KeyHome:
			v.GoToFirst()
		case fyne.KeyEnd:
			v.GoToLast()
		case fyne.KeyEscape, fyne.KeyReturn, fyne.KeyEnter, fyne.KeySpace:
			v.Exit()
		}
		return
	}

	cols := g.scroller.Metrics().Columns
	switch ev.Name {
	case fyne.KeyLeft:
		g.moveCursor(g.anchor - 1)
	case fyne.KeyRight:
		g.moveCursor(g.anchor + 1)
	case fyne.KeyUp:
		g.moveCursor(g.anchor - cols)
	case fyne.KeyDown:
		g.moveCursor(g.anchor + cols)
	case fyne.KeyHome:
		g.moveCursor(0)
	case fyne.KeyEnd:
		g.moveCursor(g.scroller.Len() - 1)
	case fyne.KeyEscape:
		g.ClearSelection()
	case fyne.KeyReturn, fyne.KeyEnter, fyne.KeySpace:
		if len(g.selected) > 1 {
			g.OpenSelection()
		} else if item, ok := g.scroller.ItemAt(g.anchor); ok {
			g.open(item.ID)
		}
	}
}

// TypedRune handles the single letter viewport shortcuts.
func (g *Gallery) TypedRune(r rune) {
	switch r {
	case 'c', 'C':
		g.viewport.SetViewMode(ViewCompare)
	case 'f', 'F':
		g.viewport.SetViewMode(ViewFullscreen)
	case 'v', 'V':
		g.viewport.CycleViewMode()
	case 'i', 'I':
		g.viewport.ToggleDetails()
	case '+', '=':
		g.ZoomIn()
	case '-':
		g.ZoomOut()
	}
}

var _ fyne.Focusable = (*Gallery)(nil)

// moveCursor moves the selection anchor to i, extending the selection while
// shift is held, and scrolls it into view.
func (g *Gallery) moveCursor(i int) {
	n := g.scroller.Len()
	if n == 0 {
		return
	}
	i = max(0, min(i, n-1))
	item, _ := g.scroller.ItemAt(i)
	if isShiftHeld() && g.anchor >= 0 {
		anchor := g.anchor
		g.ExtendSelection(item.ID)
		g.anchor = anchor
	} else {
		g.Select(item.ID)
	}
	g.scroller.ScrollToIndex(i)
	g.slider.Sync()
}

func isShiftHeld() bool {
	app := fyne.CurrentApp()
	if app == nil {
		return false
	}
	d, ok := app.Driver().(desktop.Driver)
	return ok && d.CurrentKeyModifiers()&fyne.KeyModifierShift != 0
}

// viewportEvents wraps the registered callbacks with the gallery's own
// reactions to viewport changes.
func (g *Gallery) viewportEvents() Events {
	return Events{
		OnEntered: func(e EnteredEvent) {
			g.slider.Hide()
			if g.viewport.DetailsVisible() {
				g.details.show(e.Item)
			}
			g.focus()
			g.events.entered(e)
		},
		OnExited: func(e ExitedEvent) {
			g.details.hide()
			g.slider.Show()
			g.slider.Sync()
			if i := g.scroller.IndexOf(e.LastItemID); i >= 0 {
				g.anchor = i
			}
			g.events.exited(e)
		},
		OnNavigated: func(e NavigatedEvent) {
			if g.viewport.DetailsVisible() {
				g.details.show(e.Item)
			}
			g.events.navigated(e)
		},
		OnModeChanged: func(e ModeChangedEvent) {
			g.events.modeChanged(e)
		},
		OnDetailsToggled: func(e DetailsToggledEvent) {
			if e.Visible && g.viewport.Active() {
				g.details.show(e.Item)
			} else {
				g.details.hide()
			}
			g.events.detailsToggled(e)
		},
	}
}

// mediaIDs returns the ids of the items that can be viewed, skipping folders.
func mediaIDs(items []catalog.Item) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if !it.Folder {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// keepListed filters ids down to those still present in items.
func keepListed(ids []string, items []catalog.Item) []string {
	present := make(map[string]struct{}, len(items))
	for _, it := range items {
		present[it.ID] = struct{}{}
	}
	out := ids[:0]
	for _, id := range ids {
		if _, ok := present[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
