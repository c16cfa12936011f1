package gallery

import (
	"image/color"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// placementLayout leaves children where they were put and reports the grid
// extent as its MinSize so the scroll container sizes the empty rows too.
type placementLayout struct {
	extent fyne.Size
}

func (p *placementLayout) Layout([]fyne.CanvasObject, fyne.Size) {}

func (p *placementLayout) MinSize([]fyne.CanvasObject) fyne.Size {
	return p.extent
}

// scrollSurface adapts a vertical container.Scroll to ScrollViewport.
type scrollSurface struct {
	scroll  *container.Scroll
	content *fyne.Container
	layout  *placementLayout
}

func newScrollSurface() *scrollSurface {
	l := &placementLayout{}
	content := container.New(l)
	s := &scrollSurface{
		scroll:  container.NewVScroll(content),
		content: content,
		layout:  l,
	}
	return s
}

func (s *scrollSurface) ScrollOffset() float32 {
	return s.scroll.Offset.Y
}

func (s *scrollSurface) SetScrollOffset(offset float32) {
	if offset < 0 {
		offset = 0
	}
	s.scroll.Offset = fyne.NewPos(s.scroll.Offset.X, offset)
	s.scroll.Refresh()
}

func (s *scrollSurface) ViewportSize() fyne.Size {
	return s.scroll.Size()
}

func (s *scrollSurface) SetContentSize(size fyne.Size) {
	if s.layout.extent == size {
		return
	}
	s.layout.extent = size
	s.content.Refresh()
	s.scroll.Refresh()
}

// tileStage owns the materialized tiles and the two layers they live on: the
// grid layer inside the scroll container and the fixed overlay above it.
type tileStage struct {
	scroller *VirtualScroller
	surface  *scrollSurface
	overlay  *fyne.Container
	backdrop *shade

	tiles  map[string]*Tile
	lifted map[*Tile]struct{}
	frozen bool

	newTile    func() *Tile
	isSelected func(id string) bool
}

func newTileStage(surface *scrollSurface, newTile func() *Tile, isSelected func(string) bool) *tileStage {
	return &tileStage{
		surface:    surface,
		overlay:    container.NewWithoutLayout(),
		backdrop:   newShade(),
		tiles:      make(map[string]*Tile),
		lifted:     make(map[*Tile]struct{}),
		newTile:    newTile,
		isSelected: isSelected,
	}
}

// render is the scroller's RenderFunc: materialize [start, end) and recycle
// everything the scroller no longer needs.
func (s *tileStage) render(start, end int) {
	for i := start; i < end; i++ {
		s.ensure(i)
	}
	for id, t := range s.tiles {
		if s.scroller.ShouldRecycle(id) {
			s.destroy(t)
		}
	}
	s.relayoutGrid()
}

// relayoutGrid re-places every unpinned grid layer tile at its cell.
func (s *tileStage) relayoutGrid() {
	if s.frozen {
		return
	}
	for id, t := range s.tiles {
		if s.isLifted(t) || t.Pinned() {
			continue
		}
		if i := s.scroller.IndexOf(id); i >= 0 {
			t.place(s.scroller.CellRect(i))
		}
	}
	s.surface.content.Refresh()
}

// ensure returns the tile for item index i, materializing it when needed.
func (s *tileStage) ensure(i int) *Tile {
	item, ok := s.scroller.ItemAt(i)
	if !ok {
		return nil
	}
	if t, ok := s.tiles[item.ID]; ok {
		t.Bind(item)
		return t
	}

	t := s.newTile()
	t.Bind(item)
	if s.isSelected != nil {
		t.SetSelected(s.isSelected(item.ID))
	}
	s.tiles[item.ID] = t
	s.surface.content.Add(t)
	t.place(s.scroller.CellRect(i))
	return t
}

// ensureID is ensure keyed by item id.
func (s *tileStage) ensureID(id string) *Tile {
	i := s.scroller.IndexOf(id)
	if i < 0 {
		return nil
	}
	return s.ensure(i)
}

func (s *tileStage) tile(id string) *Tile {
	return s.tiles[id]
}

func (s *tileStage) destroy(t *Tile) {
	if s.isLifted(t) {
		s.overlay.Remove(t)
		delete(s.lifted, t)
	} else {
		s.surface.content.Remove(t)
	}
	if s.tiles[t.ID()] == t {
		delete(s.tiles, t.ID())
	}
	t.Destroy()
}

// destroyAll tears down every tile, e.g. when the item list is replaced.
func (s *tileStage) destroyAll() {
	for _, t := range s.tiles {
		s.destroy(t)
	}
}

func (s *tileStage) isLifted(t *Tile) bool {
	_, ok := s.lifted[t]
	return ok
}

// lift moves t to the overlay layer, keeping its on-screen rectangle.
func (s *tileStage) lift(t *Tile) {
	if s.isLifted(t) {
		return
	}
	r := s.screenRect(t)
	s.surface.content.Remove(t)
	s.lifted[t] = struct{}{}
	s.overlay.Add(t)
	t.place(r)
}

// lower returns t to its grid cell in the grid layer.
func (s *tileStage) lower(t *Tile) {
	if !s.isLifted(t) {
		return
	}
	s.overlay.Remove(t)
	delete(s.lifted, t)
	s.surface.content.Add(t)
	if i := s.scroller.IndexOf(t.ID()); i >= 0 {
		t.place(s.scroller.CellRect(i))
	}
}

// screenRect returns t's rectangle in viewport coordinates.
func (s *tileStage) screenRect(t *Tile) Rect {
	r := rectOf(t)
	if s.isLifted(t) {
		return r
	}
	return r.Translate(0, -s.surface.ScrollOffset())
}

// gridRectOnScreen is item i's grid cell in viewport coordinates at scroll offset.
func (s *tileStage) gridRectOnScreen(i int, offset float32) Rect {
	return s.scroller.CellRect(i).Translate(0, -offset)
}

func (s *tileStage) onScreen(r Rect) bool {
	vs := s.surface.ViewportSize()
	return r.Intersects(Rect{Size: vs})
}

// area is the overlay's drawable size.
func (s *tileStage) area() fyne.Size {
	if sz := s.overlay.Size(); sz.Width > 0 && sz.Height > 0 {
		return sz
	}
	return s.surface.ViewportSize()
}

// restack orders overlay children by their z key, lowest first.
func (s *tileStage) restack() {
	objs := s.overlay.Objects
	sort.SliceStable(objs, func(i, j int) bool {
		return zOf(objs[i]) < zOf(objs[j])
	})
	s.overlay.Refresh()
}

func zOf(o fyne.CanvasObject) int {
	if t, ok := o.(*Tile); ok {
		return t.z
	}
	return 0
}

// freeze stops the stage from re-placing grid tiles. The tiles already sit at
// explicit cells, so pinning them here is what keeps the grid from reflowing.
func (s *tileStage) freeze() {
	s.frozen = true
}

func (s *tileStage) unfreeze() {
	s.frozen = false
}

// setBackdrop shows the dimming layer behind the overlay at the given strength.
func (s *tileStage) setBackdrop(strength float32) {
	if strength <= 0 {
		s.backdrop.Hide()
		return
	}
	if strength > 1 {
		strength = 1
	}
	s.backdrop.rect.FillColor = color.NRGBA{A: uint8(220 * strength)}
	s.backdrop.Show()
	s.backdrop.Refresh()
}

// shade dims the grid while the viewport is open. It swallows scroll events so
// the frozen grid cannot move underneath the overlay.
type shade struct {
	widget.BaseWidget
	rect     *canvas.Rectangle
	onTapped func()
}

func newShade() *shade {
	s := &shade{rect: canvas.NewRectangle(color.NRGBA{})}
	s.ExtendBaseWidget(s)
	s.Hide()
	return s
}

func (s *shade) Scrolled(*fyne.ScrollEvent) {}

func (s *shade) Tapped(*fyne.PointEvent) {
	if s.onTapped != nil {
		s.onTapped()
	}
}

func (s *shade) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.rect)
}

var (
	_ fyne.Scrollable = (*shade)(nil)
	_ fyne.Tappable   = (*shade)(nil)
)

// liftedTiles returns the overlay tiles in stacking order.
func (s *tileStage) liftedTiles() []*Tile {
	var out []*Tile
	for _, o := range s.overlay.Objects {
		if t, ok := o.(*Tile); ok {
			out = append(out, t)
		}
	}
	return out
}

// refreshSelection mirrors the selection state onto every live tile.
func (s *tileStage) refreshSelection() {
	for id, t := range s.tiles {
		t.SetSelected(s.isSelected != nil && s.isSelected(id))
	}
}
