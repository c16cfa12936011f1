package gallery

import "fyne.io/fyne/v2"

const (
	immersivePadding float32 = 16
	// carouselSideRatio is the width of each neighbour slot relative to the area.
	carouselSideRatio float32 = 0.16
)

// triple records which neighbour roles are occupied.
type triple struct {
	prev, next bool
}

func (t triple) has(role PositionState) bool {
	switch role {
	case PositionPrev:
		return t.prev
	case PositionNext:
		return t.next
	case PositionCurrent:
		return true
	}
	return false
}

// immersiveRect returns where a tile in role sits inside area for mode.
// Grid and hidden roles have no immersive rectangle.
func immersiveRect(mode ViewMode, role PositionState, area fyne.Size, roles triple) Rect {
	if !role.Immersive() || !roles.has(role) {
		return Rect{}
	}
	switch mode {
	case ViewCompare:
		return compareRect(role, area, roles)
	case ViewFullscreen:
		return fullscreenRect(role, area)
	default:
		return carouselRect(role, area)
	}
}

func carouselRect(role PositionState, area fyne.Size) Rect {
	pad := immersivePadding
	side := area.Width * carouselSideRatio
	sideH := side
	if limit := area.Height - pad*2; sideH > limit {
		sideH = limit
	}
	sideY := (area.Height - sideH) / 2

	switch role {
	case PositionPrev:
		return clampRect(NewRect(pad, sideY, side, sideH))
	case PositionNext:
		return clampRect(NewRect(area.Width-pad-side, sideY, side, sideH))
	default:
		x := pad*2 + side
		return clampRect(NewRect(x, pad, area.Width-x*2, area.Height-pad*2))
	}
}

func compareRect(role PositionState, area fyne.Size, roles triple) Rect {
	order := make([]PositionState, 0, 3)
	for _, r := range []PositionState{PositionPrev, PositionCurrent, PositionNext} {
		if roles.has(r) {
			order = append(order, r)
		}
	}

	pad := immersivePadding
	n := float32(len(order))
	colW := (area.Width - pad*(n+1)) / n
	for k, r := range order {
		if r == role {
			return clampRect(NewRect(pad+float32(k)*(colW+pad), pad, colW, area.Height-pad*2))
		}
	}
	return Rect{}
}

// fullscreenRect parks the neighbours just outside the area so navigation
// slides them in from the side.
func fullscreenRect(role PositionState, area fyne.Size) Rect {
	switch role {
	case PositionPrev:
		return NewRect(-area.Width, 0, area.Width, area.Height)
	case PositionNext:
		return NewRect(area.Width, 0, area.Width, area.Height)
	default:
		return NewRect(0, 0, area.Width, area.Height)
	}
}

func clampRect(r Rect) Rect {
	if r.Size.Width < 0 {
		r.Size.Width = 0
	}
	if r.Size.Height < 0 {
		r.Size.Height = 0
	}
	return r
}
