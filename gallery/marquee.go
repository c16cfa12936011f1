package gallery

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// marqueeOverlay draws a rubber band over content while the pointer is dragged
// across empty grid space and reports the dragged rectangle.
type marqueeOverlay struct {
	widget.BaseWidget
	content fyne.CanvasObject

	rect *canvas.Rectangle

	startPos fyne.Position
	curPos   fyne.Position
	dragging bool

	onChanged func(r Rect)
	onEnd     func()
}

func newMarqueeOverlay(content fyne.CanvasObject, onChanged func(Rect), onEnd func()) *marqueeOverlay {
	m := &marqueeOverlay{
		content:   content,
		rect:      canvas.NewRectangle(color.Transparent),
		onChanged: onChanged,
		onEnd:     onEnd,
	}
	m.rect.StrokeColor = theme.Color(theme.ColorNamePrimary)
	m.rect.StrokeWidth = 2
	m.rect.FillColor = withAlpha(theme.Color(theme.ColorNameFocus), 64)
	m.rect.Hide()
	m.ExtendBaseWidget(m)
	return m
}

func (m *marqueeOverlay) CreateRenderer() fyne.WidgetRenderer {
	return &marqueeRenderer{m: m}
}

func (m *marqueeOverlay) Dragged(e *fyne.DragEvent) {
	if !m.dragging {
		m.dragging = true
		m.startPos = e.PointEvent.Position.Subtract(e.Dragged)
		m.rect.Show()
	}

	m.curPos = e.PointEvent.Position
	r := m.band()
	m.rect.Move(r.Pos)
	m.rect.Resize(r.Size)
	m.rect.Refresh()

	if m.onChanged != nil {
		m.onChanged(r)
	}
}

func (m *marqueeOverlay) DragEnd() {
	if !m.dragging {
		return
	}
	m.dragging = false
	m.rect.Hide()
	m.rect.Refresh()

	if m.onEnd != nil {
		m.onEnd()
	}
}

// band is the dragged rectangle with a positive size.
func (m *marqueeOverlay) band() Rect {
	x1, x2 := m.startPos.X, m.curPos.X
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	y1, y2 := m.startPos.Y, m.curPos.Y
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return NewRect(x1, y1, x2-x1, y2-y1)
}

var _ fyne.Draggable = (*marqueeOverlay)(nil)

type marqueeRenderer struct {
	m *marqueeOverlay
}

func (r *marqueeRenderer) Layout(size fyne.Size) {
	r.m.content.Resize(size)
	r.m.content.Move(fyne.NewPos(0, 0))
}

func (r *marqueeRenderer) MinSize() fyne.Size {
	return r.m.content.MinSize()
}

func (r *marqueeRenderer) Refresh() {
	r.m.content.Refresh()
	r.m.rect.Refresh()
}

func (r *marqueeRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.m.content, r.m.rect}
}

func (r *marqueeRenderer) Destroy() {}
