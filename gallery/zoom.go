package gallery

import (
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// zoomScales multiply Config.ItemSize.
var zoomScales = []float32{0.5, 0.75, 1, 1.25, 1.5, 2}

const defaultZoom = 2

// wheelNotch is the scroll delta of one mouse wheel click.
const wheelNotch float32 = 40

func clampZoom(level int) int {
	return max(0, min(level, len(zoomScales)-1))
}

// ZoomLevel returns the index into the zoom scales.
func (g *Gallery) ZoomLevel() int {
	return g.zoomLevel
}

func (g *Gallery) ZoomIn() {
	g.stepZoom(1)
}

func (g *Gallery) ZoomOut() {
	g.stepZoom(-1)
}

// stepZoom rescales the grid cells by steps levels and remembers the level.
// The grid is frozen while the viewport is open, so zooming waits until it closes.
func (g *Gallery) stepZoom(steps int) {
	level := clampZoom(g.zoomLevel + steps)
	if steps == 0 || level == g.zoomLevel || g.viewport.Active() {
		return
	}

	g.zoomLevel = level
	if app := fyne.CurrentApp(); app != nil {
		app.Preferences().SetInt(zoomLevelKey, level)
	}
	g.scroller.SetItemSize(g.itemSize())
	g.slider.Sync()
}

func (g *Gallery) itemSize() float32 {
	return g.cfg.ItemSize * zoomScales[clampZoom(g.zoomLevel)]
}

func zoomModifierHeld() bool {
	app := fyne.CurrentApp()
	if app == nil {
		return false
	}
	d, ok := app.Driver().(desktop.Driver)
	return ok && d.CurrentKeyModifiers()&(fyne.KeyModifierControl|fyne.KeyModifierShortcutDefault) != 0
}

// zoomWheel sits above the grid and turns ctrl+wheel into zoom steps. It only
// reports itself visible while the modifier is held, so plain wheel events
// fall through to the scroll container.
type zoomWheel struct {
	widget.BaseWidget
	onStep  func(steps int)
	pending float32
}

func newZoomWheel(onStep func(steps int)) *zoomWheel {
	z := &zoomWheel{onStep: onStep}
	z.ExtendBaseWidget(z)
	return z
}

func (z *zoomWheel) Visible() bool {
	return z.BaseWidget.Visible() && zoomModifierHeld()
}

func (z *zoomWheel) Scrolled(e *fyne.ScrollEvent) {
	if steps := z.accumulate(e.Scrolled.DY); steps != 0 && z.onStep != nil {
		z.onStep(steps)
	}
}

// accumulate adds a wheel delta and returns the whole notches collected.
// Touchpads deliver many small deltas that only add up to a step together.
func (z *zoomWheel) accumulate(dy float32) int {
	if math.IsNaN(float64(dy)) || math.IsInf(float64(dy), 0) {
		return 0
	}
	z.pending += dy
	steps := int(z.pending / wheelNotch)
	z.pending -= float32(steps) * wheelNotch
	return steps
}

func (z *zoomWheel) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewWithoutLayout())
}

var _ fyne.Scrollable = (*zoomWheel)(nil)
