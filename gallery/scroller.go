package gallery

import (
	"math"

	"fyne.io/fyne/v2"
	"github.com/alexballas/mediagrid/catalog"
)

// ScrollViewport is the scrolling container a VirtualScroller observes.
type ScrollViewport interface {
	ScrollOffset() float32
	SetScrollOffset(offset float32)
	ViewportSize() fyne.Size
	// SetContentSize sets the explicit placement extent, so rows without
	// materialized tiles still occupy scrollable space.
	SetContentSize(size fyne.Size)
}

// RenderFunc is invoked with the item index range [start, end) that must be materialized.
type RenderFunc func(start, end int)

// GridCell is a 1-indexed grid placement.
type GridCell struct {
	Row, Col int
}

// GridMetrics is the result of a layout pass.
type GridMetrics struct {
	Columns   int
	TotalRows int
	ItemSize  float32
	Gap       float32
}

// RowHeight is the vertical distance between row origins.
func (m GridMetrics) RowHeight() float32 {
	return m.ItemSize + m.Gap
}

// ContentSize is the placement extent in content coordinates.
func (m GridMetrics) ContentSize() fyne.Size {
	if m.TotalRows == 0 {
		return fyne.NewSize(0, 0)
	}
	w := float32(m.Columns)*m.ItemSize + float32(m.Columns-1)*m.Gap
	h := float32(m.TotalRows)*m.ItemSize + float32(m.TotalRows-1)*m.Gap
	return fyne.NewSize(w, h)
}

// ScrollMetrics is the scroll state read by the slider.
type ScrollMetrics struct {
	ScrollTop    float32
	ScrollHeight float32
	ClientHeight float32
}

// VirtualScroller maps a logical item list onto the range of indices that must
// be materialized for the current scroll position.
type VirtualScroller struct {
	view     ScrollViewport
	onRender RenderFunc

	itemSize     float32
	gap          float32
	overscanRows int

	items []catalog.Item
	index map[string]int

	metrics     GridMetrics
	layoutValid bool
	frozen      bool

	start, end int
	rangeValid bool

	exempt map[string]struct{}
	paused bool
}

// NewVirtualScroller creates a scroller for view. onRender may be nil.
func NewVirtualScroller(view ScrollViewport, itemSize, gap float32, overscanRows int, onRender RenderFunc) *VirtualScroller {
	return &VirtualScroller{
		view:         view,
		onRender:     onRender,
		itemSize:     itemSize,
		gap:          gap,
		overscanRows: overscanRows,
		index:        make(map[string]int),
		exempt:       make(map[string]struct{}),
		metrics:      GridMetrics{Columns: 1, ItemSize: itemSize, Gap: gap},
	}
}

// SetRenderFunc replaces the render callback.
func (v *VirtualScroller) SetRenderFunc(fn RenderFunc) {
	v.onRender = fn
}

// SetItems replaces the backing list and forces a re-render on the next scroll
// pass. While paused the materialized range is kept, clamped to the new length.
func (v *VirtualScroller) SetItems(items []catalog.Item) {
	v.items = items
	v.index = make(map[string]int, len(items))
	for i, it := range items {
		v.index[it.ID] = i
	}
	v.layoutValid = false
	if v.paused {
		v.end = min(v.end, len(items))
		v.start = min(v.start, v.end)
	} else {
		v.rangeValid = false
	}
	v.RecalculateLayout()
}

// SetItemSize changes the per item footprint, e.g. when zooming.
func (v *VirtualScroller) SetItemSize(size float32) {
	if size <= 0 || size == v.itemSize {
		return
	}
	v.itemSize = size
	v.rangeValid = false
	if v.RecalculateLayout() {
		v.HandleScroll()
	}
}

// ItemSize returns the current per item footprint, excluding the gap.
func (v *VirtualScroller) ItemSize() float32 {
	return v.itemSize
}

// RecalculateLayout derives columns and rows from the container width. It
// returns false when nothing changed.
func (v *VirtualScroller) RecalculateLayout() bool {
	if v.frozen {
		return false
	}

	next := GridMetrics{Columns: 1, ItemSize: v.itemSize, Gap: v.gap}
	if n := len(v.items); n > 0 {
		width := v.view.ViewportSize().Width
		cols := int(math.Floor(float64((width + v.gap) / (v.itemSize + v.gap))))
		if cols < 1 {
			cols = 1
		}
		next.Columns = cols
		next.TotalRows = (n + cols - 1) / cols
	}

	if v.layoutValid && next == v.metrics {
		return false
	}
	v.metrics = next
	v.layoutValid = true
	v.rangeValid = false
	v.view.SetContentSize(next.ContentSize())
	return true
}

// HandleScroll recomputes the visible range and renders it if it changed.
func (v *VirtualScroller) HandleScroll() bool {
	if v.paused {
		return false
	}
	if !v.layoutValid {
		v.RecalculateLayout()
	}

	start, end := v.computeRange(v.view.ScrollOffset())
	if v.rangeValid && start == v.start && end == v.end {
		return false
	}
	v.start, v.end = start, end
	v.rangeValid = true
	if v.onRender != nil {
		v.onRender(start, end)
	}
	return true
}

// HandleResize re-runs layout and, if it changed, the range computation.
func (v *VirtualScroller) HandleResize() {
	if v.paused {
		return
	}
	if v.RecalculateLayout() {
		v.HandleScroll()
	}
}

func (v *VirtualScroller) computeRange(offset float32) (int, int) {
	m := v.metrics
	if m.TotalRows == 0 {
		return 0, 0
	}
	rowH := m.RowHeight()
	if offset < 0 {
		offset = 0
	}
	vh := v.view.ViewportSize().Height

	startRow := int(math.Floor(float64(offset/rowH))) - v.overscanRows
	if startRow < 0 {
		startRow = 0
	}
	endRow := int(math.Ceil(float64((offset+vh)/rowH))) + v.overscanRows
	if endRow > m.TotalRows {
		endRow = m.TotalRows
	}
	if startRow > endRow {
		startRow = endRow
	}

	start := startRow * m.Columns
	end := endRow * m.Columns
	if end > len(v.items) {
		end = len(v.items)
	}
	if start > end {
		start = end
	}
	return start, end
}

// GridPosition returns the 1-indexed placement of item i.
func (v *VirtualScroller) GridPosition(i int) GridCell {
	cols := v.metrics.Columns
	return GridCell{Row: i/cols + 1, Col: i%cols + 1}
}

// CellRect returns the content coordinate rectangle of item i.
func (v *VirtualScroller) CellRect(i int) Rect {
	c := v.GridPosition(i)
	step := v.metrics.ItemSize + v.metrics.Gap
	return NewRect(float32(c.Col-1)*step, float32(c.Row-1)*step, v.metrics.ItemSize, v.metrics.ItemSize)
}

// IndicesIn returns the items whose cells intersect r, in content coordinates.
func (v *VirtualScroller) IndicesIn(r Rect) []int {
	m := v.metrics
	if r.Empty() || m.TotalRows == 0 {
		return nil
	}
	step := m.ItemSize + m.Gap
	firstRow := max(int(math.Floor(float64(r.Pos.Y/step))), 0)
	lastRow := min(int(math.Floor(float64((r.Pos.Y+r.Size.Height)/step))), m.TotalRows-1)
	firstCol := max(int(math.Floor(float64(r.Pos.X/step))), 0)
	lastCol := min(int(math.Floor(float64((r.Pos.X+r.Size.Width)/step))), m.Columns-1)

	var out []int
	for row := firstRow; row <= lastRow; row++ {
		for col := firstCol; col <= lastCol; col++ {
			i := row*m.Columns + col
			if i >= len(v.items) {
				break
			}
			if v.CellRect(i).Intersects(r) {
				out = append(out, i)
			}
		}
	}
	return out
}

// Exempt keeps ids alive regardless of the visible range.
func (v *VirtualScroller) Exempt(ids ...string) {
	for _, id := range ids {
		v.exempt[id] = struct{}{}
	}
}

// Allow returns ids to normal recycling.
func (v *VirtualScroller) Allow(ids ...string) {
	for _, id := range ids {
		delete(v.exempt, id)
	}
}

// ClearExemptions empties the exemption set.
func (v *VirtualScroller) ClearExemptions() {
	v.exempt = make(map[string]struct{})
}

// IsExempt reports whether id is in the exemption set.
func (v *VirtualScroller) IsExempt(id string) bool {
	_, ok := v.exempt[id]
	return ok
}

// InRange reports whether index i lies within the materialized range.
func (v *VirtualScroller) InRange(i int) bool {
	return v.rangeValid && i >= v.start && i < v.end
}

// ShouldRecycle reports whether the tile for id may be destroyed.
func (v *VirtualScroller) ShouldRecycle(id string) bool {
	if v.IsExempt(id) {
		return false
	}
	i, ok := v.index[id]
	return !ok || !v.InRange(i)
}

// OffsetToReveal returns the scroll offset that makes row of item i fully
// visible when scrolled from offset from. The row lands a third of the way
// down the viewport so there is context above it.
func (v *VirtualScroller) OffsetToReveal(i int, from float32) float32 {
	if i < 0 || i >= len(v.items) {
		return from
	}
	rowH := v.metrics.RowHeight()
	vh := v.view.ViewportSize().Height
	top := float32(v.GridPosition(i).Row-1) * rowH
	bottom := top + v.metrics.ItemSize

	if top >= from && bottom <= from+vh {
		return from
	}

	target := top - vh/3
	maxOffset := v.metrics.ContentSize().Height - vh
	if target > maxOffset {
		target = maxOffset
	}
	if target < 0 {
		target = 0
	}
	return target
}

// ScrollToIndex scrolls so item i is fully visible, if it is not already.
func (v *VirtualScroller) ScrollToIndex(i int) {
	from := v.view.ScrollOffset()
	to := v.OffsetToReveal(i, from)
	if to == from {
		return
	}
	v.view.SetScrollOffset(to)
	v.HandleScroll()
}

// Pause makes scroll and resize handling no-ops.
func (v *VirtualScroller) Pause() {
	v.paused = true
}

// Resume re-enables scroll and resize handling.
func (v *VirtualScroller) Resume() {
	v.paused = false
}

// Paused reports whether the scroller is paused.
func (v *VirtualScroller) Paused() bool {
	return v.paused
}

// Freeze pins the current track sizing until Unfreeze.
func (v *VirtualScroller) Freeze() {
	v.frozen = true
}

// Unfreeze releases a Freeze and re-evaluates the layout.
func (v *VirtualScroller) Unfreeze() {
	if !v.frozen {
		return
	}
	v.frozen = false
	v.RecalculateLayout()
}

// Frozen reports whether the track sizing is pinned.
func (v *VirtualScroller) Frozen() bool {
	return v.frozen
}

func (v *VirtualScroller) Items() []catalog.Item {
	return v.items
}

func (v *VirtualScroller) Len() int {
	return len(v.items)
}

// ItemAt returns item i, or false when out of bounds.
func (v *VirtualScroller) ItemAt(i int) (catalog.Item, bool) {
	if i < 0 || i >= len(v.items) {
		return catalog.Item{}, false
	}
	return v.items[i], true
}

// IndexOf returns the position of id in the item order, or -1.
func (v *VirtualScroller) IndexOf(id string) int {
	if i, ok := v.index[id]; ok {
		return i
	}
	return -1
}

// IDs returns the full item order.
func (v *VirtualScroller) IDs() []string {
	return catalog.IDs(v.items)
}

func (v *VirtualScroller) Metrics() GridMetrics {
	return v.metrics
}

// VisibleRange returns the last rendered range.
func (v *VirtualScroller) VisibleRange() (start, end int) {
	return v.start, v.end
}

func (v *VirtualScroller) ScrollMetrics() ScrollMetrics {
	vh := v.view.ViewportSize().Height
	h := v.metrics.ContentSize().Height
	if h < vh {
		h = vh
	}
	return ScrollMetrics{
		ScrollTop:    v.view.ScrollOffset(),
		ScrollHeight: h,
		ClientHeight: vh,
	}
}
