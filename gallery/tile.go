package gallery

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/alexballas/mediagrid/catalog"
)

// MediaSource loads the pixels behind an item. Callbacks run on the main goroutine
// and may run before the call returns when the image is already cached.
type MediaSource interface {
	Thumbnail(item catalog.Item, done func(image.Image))
	Full(item catalog.Item, done func(image.Image))
	Preload(item catalog.Item)
}

type tileHandler interface {
	tileClicked(t *Tile, mod fyne.KeyModifier)
	tileActivated(t *Tile)
}

// Tile renders one item and owns its resolution and position state.
type Tile struct {
	widget.BaseWidget

	media        MediaSource
	sched        Scheduler
	handler      tileHandler
	threshold    float32
	fadeDuration time.Duration

	item      catalog.Item
	bound     bool
	destroyed bool

	resolution ResolutionState
	requested  ResolutionState
	gen        uint64
	lastWidth  float32

	position PositionState
	selected bool

	pinned  bool
	opacity float32
	fadeIn  float32
	fade    Timer
	z       int

	frame     *canvas.Rectangle
	thumb     *canvas.Image
	full      *canvas.Image
	highlight *canvas.Rectangle
	badge     *canvas.Text

	lastClick time.Time
}

func newTile(media MediaSource, sched Scheduler, cfg Config, h tileHandler) *Tile {
	t := &Tile{
		media:        media,
		sched:        sched,
		handler:      h,
		threshold:    cfg.FullResThreshold,
		fadeDuration: cfg.FadeDuration,
		opacity:      1,
		frame:        canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground)),
		thumb:        canvas.NewImageFromImage(nil),
		full:         canvas.NewImageFromImage(nil),
		highlight:    canvas.NewRectangle(color.Transparent),
		badge:        canvas.NewText("", theme.Color(theme.ColorNameForeground)),
	}
	t.thumb.FillMode = canvas.ImageFillContain
	t.full.FillMode = canvas.ImageFillContain
	t.full.Hide()
	t.highlight.StrokeColor = theme.Color(theme.ColorNamePrimary)
	t.highlight.StrokeWidth = 3
	t.highlight.Hide()
	t.badge.TextSize = theme.CaptionTextSize()
	t.badge.TextStyle = fyne.TextStyle{Bold: true}
	t.ExtendBaseWidget(t)
	return t
}

// ID returns the bound item id, or "" when unbound or destroyed.
func (t *Tile) ID() string {
	if !t.bound || t.destroyed {
		return ""
	}
	return t.item.ID
}

func (t *Tile) Item() catalog.Item {
	return t.item
}

func (t *Tile) Resolution() ResolutionState {
	return t.resolution
}

func (t *Tile) Role() PositionState {
	return t.position
}

func (t *Tile) Selected() bool {
	return t.selected
}

// Pinned reports whether the tile is held at an explicit transient rectangle.
func (t *Tile) Pinned() bool {
	return t.pinned
}

func (t *Tile) Opacity() float32 {
	return t.opacity
}

func (t *Tile) Destroyed() bool {
	return t.destroyed
}

func (t *Tile) alive(op string) bool {
	if t.destroyed {
		fyne.LogError("Tile."+op+" skipped", errTileDestroyed)
		return false
	}
	return true
}

// Bind attaches item to the tile and requests its thumbnail.
func (t *Tile) Bind(item catalog.Item) {
	if !t.alive("Bind") {
		return
	}
	if t.bound && t.item.ID == item.ID {
		t.item = item
		t.refreshBadge()
		return
	}

	t.item = item
	t.bound = true
	t.gen++
	t.resolution = ResolutionThumbnail
	t.requested = ResolutionThumbnail
	t.stopFade()
	t.full.Image = nil
	t.full.Hide()
	t.thumb.Image = nil
	t.thumb.Refresh()
	t.refreshBadge()

	if t.media == nil || item.Thumbnail == "" {
		return
	}
	gen := t.gen
	t.media.Thumbnail(item, func(img image.Image) {
		if t.destroyed || gen != t.gen || img == nil {
			return
		}
		t.thumb.Image = img
		t.thumb.Refresh()
	})
}

func (t *Tile) refreshBadge() {
	var parts []string
	if t.item.Video {
		parts = append(parts, "▶")
	}
	if t.item.Reviewed {
		parts = append(parts, "✓")
	}
	if t.item.Discarded {
		parts = append(parts, "✕")
	}
	if n := len(t.item.Tags); n > 0 {
		parts = append(parts, fmt.Sprintf("#%d", n))
	}
	t.badge.Text = strings.Join(parts, " ")
	t.badge.Refresh()
}

// UpdateResolution reconciles the resolution with a measured rendered width.
// Tiles in an immersive role never downgrade.
func (t *Tile) UpdateResolution(renderedWidth float32) {
	t.lastWidth = renderedWidth
	if t.destroyed || !t.bound {
		return
	}
	switch {
	case renderedWidth >= t.threshold && t.item.HasFull() && t.requested == ResolutionThumbnail:
		t.SetResolution(ResolutionFull)
	case renderedWidth < t.threshold && !t.position.Immersive() && t.requested == ResolutionFull:
		t.SetResolution(ResolutionThumbnail)
	}
}

// SetResolution swaps the rendered source. Full resolution is loaded completely
// before it is cross-faded in over the thumbnail.
func (t *Tile) SetResolution(target ResolutionState) {
	if !t.alive("SetResolution") {
		return
	}
	if !t.bound {
		fyne.LogError("Tile.SetResolution skipped", errTileUnbound)
		return
	}
	if target == t.requested {
		return
	}
	if target == ResolutionFull && !t.item.HasFull() {
		return
	}

	t.requested = target
	t.gen++

	if target == ResolutionThumbnail {
		t.stopFade()
		t.full.Hide()
		t.full.Image = nil
		t.resolution = ResolutionThumbnail
		t.full.Refresh()
		return
	}

	if t.media == nil {
		return
	}
	gen := t.gen
	t.media.Full(t.item, func(img image.Image) {
		if t.destroyed || gen != t.gen || img == nil {
			return
		}
		t.full.Image = img
		t.resolution = ResolutionFull
		t.crossFade()
	})
}

func (t *Tile) crossFade() {
	t.stopFade()
	t.full.Show()
	if t.sched == nil || t.fadeDuration <= 0 {
		t.fadeIn = 1
		t.applyOpacity()
		return
	}
	t.fadeIn = 0
	t.applyOpacity()
	t.fade = t.sched.Animate(t.fadeDuration, func(p float32) {
		if t.destroyed {
			return
		}
		t.fadeIn = p
		t.applyOpacity()
	})
}

func (t *Tile) stopFade() {
	if t.fade != nil {
		t.fade.Stop()
		t.fade = nil
	}
	t.fadeIn = 1
}

// SetPosition changes the tile's role. Entering an immersive role requests full
// resolution; returning to the grid re-evaluates the size threshold.
func (t *Tile) SetPosition(state PositionState) {
	if !t.alive("SetPosition") {
		return
	}
	if state == t.position {
		return
	}
	t.position = state

	switch {
	case state.Immersive():
		if t.bound && t.item.HasFull() {
			t.SetResolution(ResolutionFull)
		}
	case state == PositionGrid:
		w := t.Size().Width
		if w <= 0 {
			w = t.lastWidth
		}
		t.UpdateResolution(w)
	}
}

// PreloadFull warms the full resolution source without displaying it.
func (t *Tile) PreloadFull() {
	if !t.alive("PreloadFull") || !t.bound || !t.item.HasFull() || t.media == nil {
		return
	}
	t.media.Preload(t.item)
}

func (t *Tile) SetSelected(selected bool) {
	if !t.alive("SetSelected") || t.selected == selected {
		return
	}
	t.selected = selected
	if selected {
		t.highlight.Show()
	} else {
		t.highlight.Hide()
	}
	t.highlight.Refresh()
}

// SetOpacity sets the whole tile's opacity, 0 transparent to 1 opaque.
func (t *Tile) SetOpacity(o float32) {
	if t.destroyed {
		return
	}
	if o < 0 {
		o = 0
	} else if o > 1 {
		o = 1
	}
	t.opacity = o
	t.applyOpacity()
}

func (t *Tile) applyOpacity() {
	t.thumb.Translucency = float64(1 - t.opacity)
	t.full.Translucency = float64(1 - t.opacity*t.fadeIn)
	t.thumb.Refresh()
	t.full.Refresh()
	if t.opacity <= 0 {
		t.frame.Hide()
		t.badge.Hide()
	} else {
		t.frame.Show()
		t.badge.Show()
	}
}

func (t *Tile) place(r Rect) {
	t.Move(r.Pos)
	t.Resize(r.Size)
}

// pin holds the tile at r with the given opacity until unpin.
func (t *Tile) pin(r Rect, opacity float32) {
	if t.destroyed {
		return
	}
	t.pinned = true
	t.place(r)
	t.SetOpacity(opacity)
}

func (t *Tile) unpin() {
	t.pinned = false
	t.SetOpacity(1)
}

// Destroy detaches the tile from its images. The tile must not be reused.
func (t *Tile) Destroy() {
	if t.destroyed {
		return
	}
	t.stopFade()
	t.gen++
	t.destroyed = true
	t.pinned = false
	t.thumb.Image = nil
	t.full.Image = nil
	t.Hide()
}

func (t *Tile) CreateRenderer() fyne.WidgetRenderer {
	return &tileRenderer{tile: t}
}

func (t *Tile) Tapped(*fyne.PointEvent) {
	if t.destroyed || t.handler == nil {
		return
	}
	if fyne.CurrentDevice().IsMobile() {
		t.handler.tileActivated(t)
		return
	}

	now := time.Now()
	if now.Sub(t.lastClick) < fyne.CurrentApp().Driver().DoubleTapDelay() {
		t.lastClick = time.Time{}
		t.handler.tileActivated(t)
		return
	}
	t.lastClick = now
}

var (
	_ fyne.CanvasObject = (*Tile)(nil)
	_ desktop.Mouseable = (*Tile)(nil)
)

func (t *Tile) MouseDown(*desktop.MouseEvent) {}

func (t *Tile) MouseUp(e *desktop.MouseEvent) {
	if t.destroyed || t.handler == nil || e.Button != desktop.MouseButtonPrimary {
		return
	}
	t.handler.tileClicked(t, e.Modifier)
}

type tileRenderer struct {
	tile *Tile
}

func (r *tileRenderer) Layout(size fyne.Size) {
	t := r.tile
	t.frame.Resize(size)

	inset := theme.Padding() / 2
	inner := fyne.NewSize(size.Width-inset*2, size.Height-inset*2)
	for _, img := range []*canvas.Image{t.thumb, t.full} {
		img.Move(fyne.NewPos(inset, inset))
		img.Resize(inner)
	}
	t.highlight.Resize(size)

	bs := t.badge.MinSize()
	t.badge.Move(fyne.NewPos(inset*2, size.Height-bs.Height-inset*2))

	t.UpdateResolution(size.Width)
}

func (r *tileRenderer) MinSize() fyne.Size {
	return fyne.NewSquareSize(theme.Padding() * 4)
}

func (r *tileRenderer) Refresh() {
	t := r.tile
	t.frame.Refresh()
	t.thumb.Refresh()
	t.full.Refresh()
	t.highlight.Refresh()
	t.badge.Refresh()
}

func (r *tileRenderer) Objects() []fyne.CanvasObject {
	t := r.tile
	return []fyne.CanvasObject{t.frame, t.thumb, t.full, t.highlight, t.badge}
}

func (r *tileRenderer) Destroy() {
	r.tile.stopFade()
}
