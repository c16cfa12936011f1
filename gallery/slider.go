package gallery

import (
	"fmt"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const (
	sliderWidth    float32 = 12
	sliderMinThumb float32 = 24
	sliderLabelGap float32 = 6
)

// ScrollPeer is the scroll container a ScrollSlider reads from and writes to.
type ScrollPeer interface {
	ScrollMetrics() ScrollMetrics
	ScrollTo(offset float32)
}

// ScrollSlider is a draggable scroll indicator with a position label.
type ScrollSlider struct {
	widget.BaseWidget

	peer  ScrollPeer
	total int

	track *canvas.Rectangle
	thumb *canvas.Rectangle
	label *canvas.Text

	thumbTop, thumbHeight float32
	fits                  bool

	dragging bool
	dragTop  float32
}

func NewScrollSlider(peer ScrollPeer) *ScrollSlider {
	s := &ScrollSlider{
		peer:  peer,
		track: canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground)),
		thumb: canvas.NewRectangle(theme.Color(theme.ColorNameScrollBar)),
		label: canvas.NewText("", theme.Color(theme.ColorNameForeground)),
		fits:  true,
	}
	s.track.CornerRadius = sliderWidth / 2
	s.thumb.CornerRadius = sliderWidth / 2
	s.label.TextSize = theme.CaptionTextSize()
	s.label.Alignment = fyne.TextAlignTrailing
	s.label.Hide()
	s.ExtendBaseWidget(s)
	return s
}

// SetTotal sets the item count shown in the position label.
func (s *ScrollSlider) SetTotal(n int) {
	s.total = n
	s.updateLabel(s.peer.ScrollMetrics())
}

func (s *ScrollSlider) Total() int {
	return s.total
}

// Sync recomputes the thumb from the peer's scroll metrics.
func (s *ScrollSlider) Sync() {
	m := s.peer.ScrollMetrics()
	top, height, visible := thumbGeometry(m, s.Size().Height)
	s.thumbTop, s.thumbHeight, s.fits = top, height, !visible
	s.updateLabel(m)
	s.Refresh()
}

// Fits reports whether the content fits and the slider is hidden.
func (s *ScrollSlider) Fits() bool {
	return s.fits
}

// ThumbGeometry returns the thumb's top and height in slider coordinates.
func (s *ScrollSlider) ThumbGeometry() (top, height float32) {
	return s.thumbTop, s.thumbHeight
}

func (s *ScrollSlider) updateLabel(m ScrollMetrics) {
	if s.total <= 0 {
		s.label.Text = ""
		return
	}
	idx := 1
	if span := m.ScrollHeight - m.ClientHeight; span > 0 {
		idx = 1 + int(float32(s.total-1)*m.ScrollTop/span)
	}
	if idx > s.total {
		idx = s.total
	}
	s.label.Text = fmt.Sprintf("%d / %d", idx, s.total)
}

// thumbGeometry maps scroll metrics onto a track of height trackH. The thumb
// is proportional to the visible fraction but never shorter than sliderMinThumb.
func thumbGeometry(m ScrollMetrics, trackH float32) (top, height float32, visible bool) {
	if trackH <= 0 || m.ScrollHeight <= m.ClientHeight || m.ScrollHeight <= 0 {
		return 0, 0, false
	}
	height = trackH * m.ClientHeight / m.ScrollHeight
	if height < sliderMinThumb {
		height = sliderMinThumb
	}
	if height > trackH {
		height = trackH
	}
	travel := trackH - height
	maxScroll := m.ScrollHeight - m.ClientHeight
	top = travel * m.ScrollTop / maxScroll
	if top < 0 {
		top = 0
	} else if top > travel {
		top = travel
	}
	return top, height, true
}

// offsetForThumb is the inverse of thumbGeometry for a given thumb top.
func offsetForThumb(top float32, m ScrollMetrics, trackH float32) float32 {
	_, height, visible := thumbGeometry(m, trackH)
	if !visible {
		return 0
	}
	travel := trackH - height
	if travel <= 0 {
		return 0
	}
	if top < 0 {
		top = 0
	} else if top > travel {
		top = travel
	}
	return top / travel * (m.ScrollHeight - m.ClientHeight)
}

func (s *ScrollSlider) Dragged(e *fyne.DragEvent) {
	if s.fits {
		return
	}
	if !s.dragging {
		s.dragging = true
		s.dragTop = s.thumbTop
		s.label.Show()
	}
	s.dragTop += e.Dragged.DY
	m := s.peer.ScrollMetrics()
	s.peer.ScrollTo(offsetForThumb(s.dragTop, m, s.Size().Height))
	s.Sync()
}

func (s *ScrollSlider) DragEnd() {
	s.dragging = false
	s.label.Hide()
	s.Refresh()
}

// Tapped pages toward the tap when it lands on the track outside the thumb.
func (s *ScrollSlider) Tapped(e *fyne.PointEvent) {
	if s.fits {
		return
	}
	m := s.peer.ScrollMetrics()
	switch {
	case e.Position.Y < s.thumbTop:
		s.peer.ScrollTo(m.ScrollTop - m.ClientHeight)
	case e.Position.Y > s.thumbTop+s.thumbHeight:
		s.peer.ScrollTo(m.ScrollTop + m.ClientHeight)
	default:
		return
	}
	s.Sync()
}

func (s *ScrollSlider) CreateRenderer() fyne.WidgetRenderer {
	return &sliderRenderer{s: s}
}

var (
	_ fyne.Draggable = (*ScrollSlider)(nil)
	_ fyne.Tappable  = (*ScrollSlider)(nil)
)

type sliderRenderer struct {
	s *ScrollSlider
}

func (r *sliderRenderer) Layout(size fyne.Size) {
	s := r.s
	s.track.Resize(size)
	_, _, visible := thumbGeometry(s.peer.ScrollMetrics(), size.Height)
	if visible != !s.fits {
		s.Sync()
		return
	}

	s.thumb.Move(fyne.NewPos(0, s.thumbTop))
	s.thumb.Resize(fyne.NewSize(size.Width, s.thumbHeight))

	// The label hangs to the left of the thumb, outside the slider bounds.
	ls := s.label.MinSize()
	s.label.Resize(ls)
	s.label.Move(fyne.NewPos(-ls.Width-sliderLabelGap, s.thumbTop+(s.thumbHeight-ls.Height)/2))
}

func (r *sliderRenderer) MinSize() fyne.Size {
	return fyne.NewSize(sliderWidth, sliderMinThumb)
}

func (r *sliderRenderer) Refresh() {
	s := r.s
	if s.fits {
		s.track.Hide()
		s.thumb.Hide()
	} else {
		s.track.Show()
		s.thumb.Show()
	}
	s.track.FillColor = withAlpha(theme.Color(theme.ColorNameInputBackground), 0x80)
	s.thumb.FillColor = theme.Color(theme.ColorNameScrollBar)
	if s.dragging {
		s.thumb.FillColor = theme.Color(theme.ColorNamePrimary)
	}
	r.Layout(s.Size())
	s.track.Refresh()
	s.thumb.Refresh()
	s.label.Refresh()
}

func (r *sliderRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.s.track, r.s.thumb, r.s.label}
}

func (r *sliderRenderer) Destroy() {}

func withAlpha(c color.Color, a uint8) color.Color {
	cr, cg, cb, _ := c.RGBA()
	return color.NRGBA{R: uint8(cr >> 8), G: uint8(cg >> 8), B: uint8(cb >> 8), A: a}
}
