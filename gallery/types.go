package gallery

import (
	"errors"

	"fyne.io/fyne/v2"
)

// ResolutionState is which image representation a tile currently renders.
type ResolutionState int

const (
	ResolutionThumbnail ResolutionState = iota
	ResolutionFull
)

func (r ResolutionState) String() string {
	if r == ResolutionFull {
		return "full"
	}
	return "thumbnail"
}

// PositionState is a tile's logical role.
type PositionState int

const (
	PositionGrid PositionState = iota
	PositionPrev
	PositionCurrent
	PositionNext
	// PositionHidden marks tiles that only exist so an animation can finish.
	PositionHidden
)

func (p PositionState) String() string {
	switch p {
	case PositionPrev:
		return "prev"
	case PositionCurrent:
		return "current"
	case PositionNext:
		return "next"
	case PositionHidden:
		return "hidden"
	default:
		return "grid"
	}
}

// Immersive reports whether p is one of the viewport roles.
func (p PositionState) Immersive() bool {
	return p == PositionPrev || p == PositionCurrent || p == PositionNext
}

// ViewMode is the immersive sub-layout.
type ViewMode int

const (
	// ViewCarousel shows a large current tile with small neighbours.
	ViewCarousel ViewMode = iota
	// ViewCompare shows equal sized tiles side by side.
	ViewCompare
	// ViewFullscreen shows the current tile only.
	ViewFullscreen
)

var viewModeNames = []string{"carousel", "compare", "fullscreen"}

func (m ViewMode) String() string {
	if m < 0 || int(m) >= len(viewModeNames) {
		return "carousel"
	}
	return viewModeNames[m]
}

// ParseViewMode returns the mode named s, or false if s is unknown.
func ParseViewMode(s string) (ViewMode, bool) {
	for i, n := range viewModeNames {
		if n == s {
			return ViewMode(i), true
		}
	}
	return ViewCarousel, false
}

// Direction describes a navigation step.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionNext
	DirectionPrevious
	DirectionJump
	DirectionFirst
	DirectionLast
)

func (d Direction) String() string {
	switch d {
	case DirectionNext:
		return "next"
	case DirectionPrevious:
		return "previous"
	case DirectionJump:
		return "jump"
	case DirectionFirst:
		return "first"
	case DirectionLast:
		return "last"
	default:
		return "none"
	}
}

const (
	viewModeKey   = "mediagrid:viewMode"
	zoomLevelKey  = "mediagrid:zoomLevel"
	ffmpegPathKey = "mediagrid:ffmpegPath"
)

var (
	errTileDestroyed = errors.New("tile used after destroy")
	errTileMissing   = errors.New("no tile bound to item")
	errTileUnbound   = errors.New("tile has no item bound")
)

// Rect is an on-screen rectangle.
type Rect struct {
	Pos  fyne.Position
	Size fyne.Size
}

// NewRect builds a Rect from its origin and size.
func NewRect(x, y, w, h float32) Rect {
	return Rect{Pos: fyne.NewPos(x, y), Size: fyne.NewSize(w, h)}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Size.Width <= 0 || r.Size.Height <= 0
}

// Intersects reports whether r and o overlap.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Pos.X < o.Pos.X+o.Size.Width && o.Pos.X < r.Pos.X+r.Size.Width &&
		r.Pos.Y < o.Pos.Y+o.Size.Height && o.Pos.Y < r.Pos.Y+r.Size.Height
}

// Translate returns r moved by dx, dy.
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{Pos: fyne.NewPos(r.Pos.X+dx, r.Pos.Y+dy), Size: r.Size}
}

// Lerp interpolates between r (t=0) and to (t=1).
func (r Rect) Lerp(to Rect, t float32) Rect {
	l := func(a, b float32) float32 { return a + (b-a)*t }
	return NewRect(l(r.Pos.X, to.Pos.X), l(r.Pos.Y, to.Pos.Y), l(r.Size.Width, to.Size.Width), l(r.Size.Height, to.Size.Height))
}

func rectOf(o fyne.CanvasObject) Rect {
	return Rect{Pos: o.Position(), Size: o.Size()}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
