package gallery

import (
	"testing"

	"fyne.io/fyne/v2"
	"github.com/alexballas/mediagrid/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEnterWithNavigationSet(t *testing.T) {
	h := newHarness(t, 100)

	require.True(t, h.vc.Enter("42", []string{"10", "42", "77"}))
	assert.True(t, h.vc.Active())
	assert.True(t, h.vc.Transitioning())
	assert.Equal(t, 1, h.vc.CurrentIndex())
	assert.Equal(t, "42", h.vc.CurrentItem().ID)
	assert.True(t, h.vc.HasNext())
	assert.True(t, h.vc.HasPrev())

	require.Len(t, h.rec.entered, 1)
	assert.Equal(t, EnteredEvent{ItemID: "42", Item: h.vc.CurrentItem(), Index: 1, Total: 3}, h.rec.entered[0])

	assert.False(t, h.vc.Previous(), "navigation waits for the enter transition")
	h.sched.Settle()
	assert.False(t, h.vc.Transitioning())
	h.requireClean(t)

	require.True(t, h.vc.Previous())
	assert.Equal(t, 0, h.vc.CurrentIndex())
	assert.Equal(t, "10", h.vc.CurrentItem().ID)
	assert.False(t, h.vc.HasPrev())
	assert.True(t, h.vc.HasNext())

	require.Len(t, h.rec.navigated, 1)
	nav := h.rec.navigated[0]
	assert.Equal(t, DirectionPrevious, nav.Direction)
	assert.Equal(t, "10", nav.ItemID)
	assert.Equal(t, 0, nav.Index)
	assert.Equal(t, 3, nav.Total)
	assert.False(t, nav.HasPrev)
	assert.True(t, nav.HasNext)

	h.sched.Settle()
	h.requireClean(t)
}

func TestEnterLiftsTripleAndPausesGrid(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("5", nil))

	assert.True(t, h.scroller.Paused())
	assert.True(t, h.scroller.Frozen())
	for _, id := range []string{"4", "5", "6"} {
		tile := h.stage.tile(id)
		require.NotNil(t, tile, id)
		assert.True(t, h.stage.isLifted(tile), id)
		assert.True(t, h.scroller.IsExempt(id), id)
	}
	assert.Equal(t, PositionCurrent, h.stage.tile("5").Role())
	assert.Equal(t, PositionPrev, h.stage.tile("4").Role())
	assert.Equal(t, PositionNext, h.stage.tile("6").Role())
	h.sched.Advance(frameStep * 3)
	assert.True(t, h.stage.backdrop.Visible())

	// The current tile is stacked above its neighbours.
	objs := h.stage.overlay.Objects
	assert.Same(t, h.stage.tile("5"), objs[len(objs)-1])

	h.sched.Settle()
	for _, id := range []string{"4", "5", "6"} {
		assert.Equal(t, ResolutionFull, h.stage.tile(id).Resolution(), id)
	}
	assert.Contains(t, h.media.preloads, "4")
	assert.Contains(t, h.media.preloads, "7")
	assert.Contains(t, h.media.preloads, "3")
}

func TestEnterOffscreenTargetMaterializesTile(t *testing.T) {
	h := newHarness(t, 1000)
	_, end := h.scroller.VisibleRange()
	require.Less(t, end, 500)

	require.True(t, h.vc.Enter("500", nil))
	for _, id := range []string{"499", "500", "501"} {
		require.NotNil(t, h.stage.tile(id), id)
	}
	h.sched.Settle()
	h.requireClean(t)

	require.True(t, h.vc.Exit())
	h.sched.Settle()
	assert.False(t, h.scroller.IsExempt("500"))
	for _, tile := range h.stage.tiles {
		assert.Equal(t, PositionGrid, tile.Role())
	}
}

func TestEnterRejectsUnknownTarget(t *testing.T) {
	h := newHarness(t, 20)

	assert.False(t, h.vc.Enter("nope", nil))
	assert.False(t, h.vc.Active())
	assert.Empty(t, h.rec.entered)
	assert.Equal(t, -1, h.vc.CurrentIndex())

	// A target outside the given set opens alone.
	require.True(t, h.vc.Enter("5", []string{"1", "2"}))
	assert.Equal(t, []string{"5"}, h.vc.NavigationSet())
	assert.False(t, h.vc.HasNext())
	assert.False(t, h.vc.HasPrev())
}

func TestTransitionGuards(t *testing.T) {
	h := newHarness(t, 20)

	require.True(t, h.vc.Enter("3", nil))
	assert.False(t, h.vc.Enter("4", nil))
	assert.False(t, h.vc.Exit())
	assert.False(t, h.vc.Next())
	assert.False(t, h.vc.Toggle("3"))

	h.sched.Advance(h.cfg.TransitionDuration / 2)
	assert.True(t, h.vc.Transitioning())
	h.sched.Advance(h.cfg.TransitionDuration)
	assert.False(t, h.vc.Transitioning())
	assert.True(t, h.vc.Active())

	require.True(t, h.vc.Toggle("3"))
	assert.True(t, h.vc.Transitioning())
	assert.False(t, h.vc.Enter("3", nil))
	assert.False(t, h.vc.Previous())
	assert.True(t, h.vc.Active(), "still active until the exit finishes")

	h.sched.Settle()
	assert.False(t, h.vc.Active())
	assert.False(t, h.vc.Transitioning())
	require.Len(t, h.rec.exited, 1)
	assert.Equal(t, "3", h.rec.exited[0].LastItemID)
}

func TestNavigationBounds(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("0", nil))
	h.sched.Settle()

	assert.False(t, h.vc.Previous())
	assert.False(t, h.vc.GoToFirst())
	assert.False(t, h.vc.GoToIndex(100))
	assert.False(t, h.vc.GoToIndex(-1))
	assert.False(t, h.vc.GoToFile("missing"))

	require.True(t, h.vc.GoToLast())
	assert.Equal(t, 99, h.vc.CurrentIndex())
	assert.False(t, h.vc.HasNext())
	assert.False(t, h.vc.Next())
	assert.Equal(t, DirectionLast, h.rec.navigated[0].Direction)

	require.True(t, h.vc.GoToFile("50"))
	assert.Equal(t, 50, h.vc.CurrentIndex())
	require.True(t, h.vc.GoToIndex(10))
	assert.Equal(t, "10", h.vc.CurrentItem().ID)
	require.True(t, h.vc.GoToFirst())
	assert.Len(t, h.rec.navigated, 4)

	h.sched.Settle()
	h.requireClean(t)
}

func TestNavigationDoesNotWaitForAnimation(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("20", nil))
	h.sched.Settle()

	for range 10 {
		require.True(t, h.vc.Next())
		h.sched.Advance(frameStep * 2)
	}
	for range 3 {
		require.True(t, h.vc.Previous())
	}
	assert.Equal(t, 27, h.vc.CurrentIndex())

	h.sched.Settle()
	h.requireClean(t)

	// Tiles that left the triple are released.
	assert.False(t, h.scroller.IsExempt("20"))
	assert.True(t, h.scroller.IsExempt("27"))
	assert.Nil(t, h.stage.tile("25"), "off-range tile that left the triple is destroyed")
	assert.NotNil(t, h.stage.tile("22"), "in-range tile that left the triple returns to the grid")
}

func TestNavigationHoldsTransitionGuard(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("5", nil))
	h.sched.Settle()
	require.False(t, h.vc.Transitioning())

	require.True(t, h.vc.Next())
	assert.True(t, h.vc.Transitioning())
	assert.False(t, h.vc.Exit(), "exit waits for the navigation window")
	assert.False(t, h.vc.Toggle("6"))
	assert.False(t, h.vc.Enter("6", nil))
	assert.True(t, h.vc.Active())

	// Navigating again stays possible and restarts the window.
	h.sched.Advance(h.cfg.NavigationDuration / 2)
	require.True(t, h.vc.Next())
	assert.Equal(t, "7", h.vc.CurrentItem().ID)
	h.sched.Advance(h.cfg.NavigationDuration / 2)
	assert.True(t, h.vc.Transitioning())

	h.sched.Advance(h.cfg.NavigationDuration)
	assert.False(t, h.vc.Transitioning())
	h.requireClean(t)

	require.True(t, h.vc.Exit())
	h.sched.Settle()
	assert.False(t, h.vc.Active())
	assert.Equal(t, []ExitedEvent{{LastItemID: "7"}}, h.rec.exited)
}

func TestSetItemsWhileOpenKeepsGridTiles(t *testing.T) {
	h := newHarness(t, 40)
	require.True(t, h.vc.Enter("5", nil))
	h.sched.Settle()
	start, end := h.scroller.VisibleRange()

	items := makeItems(40)
	h.scroller.SetItems(items)
	h.vc.UpdateNavigationSet(catalog.IDs(items))
	h.sched.Settle()

	require.True(t, h.vc.Next())
	h.sched.Settle()

	left := h.stage.tile("4")
	require.NotNil(t, left, "a tile leaving the triple inside the range returns to the grid")
	assert.Equal(t, PositionGrid, left.Role())
	s, e := h.scroller.VisibleRange()
	assert.Equal(t, [2]int{start, end}, [2]int{s, e})
	h.requireClean(t)
}

func TestRandomNavigationSettlesClean(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := newHarness(rt, 60)
		start := rapid.IntRange(0, 59).Draw(rt, "start")
		if !h.vc.Enter(h.scroller.IDs()[start], nil) {
			rt.Fatalf("enter %d failed", start)
		}
		h.sched.Settle()

		ops := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 40).Draw(rt, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				h.vc.Next()
			case 1:
				h.vc.Previous()
			case 2:
				h.vc.GoToIndex(rapid.IntRange(0, 59).Draw(rt, "jump"))
			case 3:
				h.vc.CycleViewMode()
			case 4:
				h.sched.Advance(frameStep)
			case 5:
				h.vc.Relayout()
			}
		}
		h.sched.Settle()
		h.requireClean(rt)

		if !h.vc.Exit() {
			rt.Fatalf("exit rejected")
		}
		h.sched.Settle()
		h.requireClean(rt)
		if h.scroller.Paused() || h.scroller.Frozen() {
			rt.Fatalf("grid still paused after exit")
		}
	})
}

func TestExitRestoresGrid(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("5", nil))
	h.sched.Settle()
	require.True(t, h.vc.Next())
	h.sched.Settle()

	require.True(t, h.vc.Exit())
	assert.True(t, h.vc.Transitioning())
	h.sched.Settle()

	assert.False(t, h.vc.Active())
	assert.Equal(t, -1, h.vc.CurrentIndex())
	assert.False(t, h.scroller.Paused())
	assert.False(t, h.scroller.Frozen())
	assert.False(t, h.scroller.IsExempt("6"))
	assert.False(t, h.stage.backdrop.Visible())
	assert.Empty(t, h.stage.liftedTiles())
	assert.Equal(t, []ExitedEvent{{LastItemID: "6"}}, h.rec.exited)
	h.requireClean(t)

	start, end := h.scroller.VisibleRange()
	assert.Len(t, h.stage.tiles, end-start)
	for _, tile := range h.stage.tiles {
		assert.Equal(t, ResolutionThumbnail, tile.Resolution(), tile.ID())
	}
}

func TestUpdateNavigationSet(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("42", []string{"10", "42", "77"}))
	h.sched.Settle()

	h.vc.UpdateNavigationSet([]string{"42", "99"})
	assert.Equal(t, 0, h.vc.CurrentIndex())
	assert.Equal(t, "42", h.vc.CurrentItem().ID)
	assert.True(t, h.vc.HasNext())
	assert.False(t, h.vc.HasPrev())
	h.sched.Settle()
	h.requireClean(t)

	h.vc.UpdateNavigationSet([]string{"5", "6"})
	assert.Equal(t, "5", h.vc.CurrentItem().ID)
	assert.Empty(t, h.rec.navigated, "set updates are not navigation")
	h.sched.Settle()
	h.requireClean(t)
}

func TestUpdateNavigationSetEmptyExits(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("3", nil))

	// Applied immediately even while the enter is animating.
	h.vc.UpdateNavigationSet(nil)
	h.sched.Settle()

	assert.False(t, h.vc.Active())
	require.Len(t, h.rec.exited, 1)
	assert.Equal(t, "3", h.rec.exited[0].LastItemID)
	h.requireClean(t)

	h.vc.UpdateNavigationSet([]string{"1"})
	assert.False(t, h.vc.Active(), "updates while inactive are ignored")
}

func TestUpdateNavigationSetAfterRemoval(t *testing.T) {
	h := newHarness(t, 30)
	require.True(t, h.vc.Enter("5", nil))
	h.sched.Settle()

	items := h.scroller.Items()
	remaining := append(append([]catalog.Item(nil), items[:5]...), items[6:]...)
	h.scroller.SetItems(remaining)
	h.vc.UpdateNavigationSet(catalog.IDs(remaining))
	assert.Equal(t, "0", h.vc.CurrentItem().ID)
	h.sched.Settle()
	assert.Nil(t, h.stage.tile("5"))

	require.True(t, h.vc.Exit())
	h.sched.Settle()
	h.requireClean(t)
}

func TestSetViewMode(t *testing.T) {
	h := newHarness(t, 100)
	require.Equal(t, ViewCarousel, h.vc.ViewMode())
	require.True(t, h.vc.Enter("5", nil))
	h.sched.Settle()

	require.True(t, h.vc.SetViewMode(ViewCompare))
	assert.False(t, h.vc.SetViewMode(ViewCompare))
	assert.False(t, h.vc.SetViewMode(ViewMode(9)))
	require.Len(t, h.rec.modes, 1)
	assert.Equal(t, ModeChangedEvent{Mode: ViewCompare, Item: h.vc.CurrentItem()}, h.rec.modes[0])
	assert.Equal(t, "compare", fyne.CurrentApp().Preferences().String(viewModeKey))

	h.sched.Settle()
	h.requireClean(t)
	cur := rectOf(h.stage.tile("5"))
	assert.Equal(t, immersiveRect(ViewCompare, PositionCurrent, h.stage.area(), triple{prev: true, next: true}), cur)

	require.True(t, h.vc.CycleViewMode())
	assert.Equal(t, ViewFullscreen, h.vc.ViewMode())
	require.True(t, h.vc.CycleViewMode())
	assert.Equal(t, ViewCarousel, h.vc.ViewMode())
	h.sched.Settle()
	h.requireClean(t)

	// A fresh controller picks the persisted mode up.
	fresh := newViewportController(h.cfg, h.sched, h.scroller, h.stage, h.media)
	assert.Equal(t, ViewCarousel, fresh.ViewMode())
}

func TestViewModeChangeDuringEnter(t *testing.T) {
	h := newHarness(t, 100)
	require.True(t, h.vc.Enter("5", nil))
	require.True(t, h.vc.SetViewMode(ViewFullscreen))
	h.sched.Settle()
	h.requireClean(t)
	assert.Equal(t, NewRect(0, 0, harnessSize.Width, harnessSize.Height), rectOf(h.stage.tile("5")))
}

func TestToggleDetails(t *testing.T) {
	h := newHarness(t, 10)
	require.True(t, h.vc.Enter("2", nil))

	assert.True(t, h.vc.ToggleDetails())
	assert.True(t, h.vc.DetailsVisible())
	assert.False(t, h.vc.ToggleDetails())
	require.Len(t, h.rec.details, 2)
	assert.Equal(t, DetailsToggledEvent{Visible: true, Item: h.vc.CurrentItem()}, h.rec.details[0])
}

func TestRelayoutFollowsArea(t *testing.T) {
	h := newHarness(t, 10)
	require.True(t, h.vc.Enter("2", nil))
	h.sched.Settle()

	h.stage.overlay.Resize(fyne.NewSize(1000, 700))
	h.vc.Relayout()
	h.requireClean(t)
	assert.Equal(t, immersiveRect(ViewCarousel, PositionCurrent, fyne.NewSize(1000, 700), triple{prev: true, next: true}),
		rectOf(h.stage.tile("2")))
}
