package gallery

import (
	"github.com/alexballas/mediagrid/catalog"
)

// Select makes id the only selected item and the anchor for ExtendSelection.
func (g *Gallery) Select(id string) {
	i := g.scroller.IndexOf(id)
	if i < 0 {
		return
	}
	g.selected = map[string]struct{}{id: {}}
	g.anchor = i
	g.selectionChanged()
}

// SelectMultiple replaces the selection with ids.
func (g *Gallery) SelectMultiple(ids []string) {
	g.selected = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if i := g.scroller.IndexOf(id); i >= 0 {
			g.selected[id] = struct{}{}
			g.anchor = i
		}
	}
	g.selectionChanged()
}

// ToggleSelection adds or removes id and moves the anchor to it.
func (g *Gallery) ToggleSelection(id string) {
	i := g.scroller.IndexOf(id)
	if i < 0 {
		return
	}
	if g.IsSelected(id) {
		delete(g.selected, id)
	} else {
		g.selected[id] = struct{}{}
	}
	g.anchor = i
	g.selectionChanged()
}

// ExtendSelection selects the contiguous range between the anchor and id.
func (g *Gallery) ExtendSelection(id string) {
	end := g.scroller.IndexOf(id)
	if end < 0 {
		return
	}
	if g.anchor == -1 {
		g.anchor = 0
	}

	start := g.anchor
	if start > end {
		start, end = end, start
	}

	items := g.scroller.Items()
	g.selected = make(map[string]struct{}, end-start+1)
	for i := start; i <= end && i < len(items); i++ {
		g.selected[items[i].ID] = struct{}{}
	}
	g.selectionChanged()
}

func (g *Gallery) IsSelected(id string) bool {
	_, ok := g.selected[id]
	return ok
}

// SelectedIDs returns the selection in item order.
func (g *Gallery) SelectedIDs() []string {
	var ids []string
	for _, it := range g.scroller.Items() {
		if _, ok := g.selected[it.ID]; ok {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func (g *Gallery) ClearSelection() {
	g.selected = make(map[string]struct{})
	g.anchor = -1
	g.selectionChanged()
}

// OpenSelection opens the viewport on the selected items, side by side when
// there is more than one.
func (g *Gallery) OpenSelection() bool {
	if g.viewport.Active() {
		return false
	}
	ids := g.SelectedIDs()
	switch len(ids) {
	case 0:
		return false
	case 1:
		return g.open(ids[0])
	}
	g.viewport.presetMode(ViewCompare)
	g.navAll = false
	if !g.viewport.Enter(ids[0], ids) {
		g.viewport.dropPreset()
		return false
	}
	return true
}

// pruneSelection drops selected ids that are no longer listed.
func (g *Gallery) pruneSelection(items []catalog.Item) {
	present := make(map[string]struct{}, len(items))
	for _, it := range items {
		present[it.ID] = struct{}{}
	}
	for id := range g.selected {
		if _, ok := present[id]; !ok {
			delete(g.selected, id)
		}
	}
	if g.anchor >= len(items) {
		g.anchor = -1
	}
}

func (g *Gallery) selectionChanged() {
	g.stage.refreshSelection()
	if g.OnSelectionChanged != nil {
		g.OnSelectionChanged(g.SelectedIDs())
	}
}
