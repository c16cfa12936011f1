package gallery

import (
	"image"
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/alexballas/mediagrid/catalog"
	"github.com/stretchr/testify/require"
)

const frameStep = 16 * time.Millisecond

// manualScheduler is a Scheduler driven by a virtual clock.
type manualScheduler struct {
	now    time.Duration
	frames []func()
	timers []*manualTimer
	anims  []*manualAnim
}

type manualTimer struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() { t.stopped = true }

type manualAnim struct {
	start   time.Duration
	d       time.Duration
	tick    func(float32)
	stopped bool
	done    bool
}

func (a *manualAnim) Stop() { a.stopped = true }

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) NextFrame(fn func()) {
	s.frames = append(s.frames, fn)
}

func (s *manualScheduler) After(d time.Duration, fn func()) Timer {
	t := &manualTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Animate(d time.Duration, tick func(float32)) Timer {
	a := &manualAnim{start: s.now, d: d, tick: tick}
	s.anims = append(s.anims, a)
	return a
}

// frame runs the queued frame callbacks and ticks every running animation.
func (s *manualScheduler) frame() {
	frames := s.frames
	s.frames = nil
	for _, fn := range frames {
		fn()
	}

	anims := s.anims
	s.anims = nil
	for _, a := range anims {
		if a.stopped || a.done {
			continue
		}
		p := float32(1)
		if a.d > 0 {
			p = min(float32(s.now-a.start)/float32(a.d), 1)
		}
		if p >= 1 {
			a.done = true
		}
		a.tick(p)
		if !a.done && !a.stopped {
			s.anims = append(s.anims, a)
		}
	}
}

func (s *manualScheduler) fireTimers() {
	for i := 0; i < len(s.timers); i++ {
		t := s.timers[i]
		if t.stopped || t.fired || t.at > s.now {
			continue
		}
		t.fired = true
		t.fn()
	}
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	s.timers = live
}

// Advance moves the clock forward d, one frame at a time.
func (s *manualScheduler) Advance(d time.Duration) {
	end := s.now + d
	for s.now < end {
		s.now += min(frameStep, end-s.now)
		s.frame()
		s.fireTimers()
	}
}

// Settle runs until nothing is scheduled.
func (s *manualScheduler) Settle() {
	for range 1000 {
		if len(s.frames) == 0 && len(s.timers) == 0 && len(s.anims) == 0 {
			return
		}
		s.Advance(frameStep)
	}
}

// fakeMedia records requests. With sync set it answers immediately, otherwise
// answers wait for flush.
type fakeMedia struct {
	sync     bool
	thumbs   []string
	fulls    []string
	preloads []string
	pending  []func()
}

func (m *fakeMedia) Thumbnail(item catalog.Item, done func(image.Image)) {
	m.thumbs = append(m.thumbs, item.ID)
	m.run(func() { done(solidImage(4, 4)) })
}

func (m *fakeMedia) Full(item catalog.Item, done func(image.Image)) {
	m.fulls = append(m.fulls, item.ID)
	m.run(func() { done(solidImage(8, 8)) })
}

func (m *fakeMedia) Preload(item catalog.Item) {
	m.preloads = append(m.preloads, item.ID)
}

func (m *fakeMedia) run(fn func()) {
	if m.sync {
		fn()
		return
	}
	m.pending = append(m.pending, fn)
}

func (m *fakeMedia) flush() {
	for len(m.pending) > 0 {
		p := m.pending
		m.pending = nil
		for _, fn := range p {
			fn()
		}
	}
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	return img
}

// fakeViewport is a ScrollViewport with a fixed size.
type fakeViewport struct {
	offset  float32
	size    fyne.Size
	content fyne.Size
}

func (f *fakeViewport) ScrollOffset() float32      { return f.offset }
func (f *fakeViewport) SetScrollOffset(o float32)  { f.offset = o }
func (f *fakeViewport) ViewportSize() fyne.Size    { return f.size }
func (f *fakeViewport) SetContentSize(s fyne.Size) { f.content = s }

func makeItems(n int) []catalog.Item {
	items := make([]catalog.Item, n)
	for i := range items {
		id := strconv.Itoa(i)
		items[i] = catalog.Item{ID: id, Thumbnail: "thumb/" + id, Full: "full/" + id}
	}
	return items
}

type recorder struct {
	entered   []EnteredEvent
	exited    []ExitedEvent
	navigated []NavigatedEvent
	modes     []ModeChangedEvent
	details   []DetailsToggledEvent
}

func (r *recorder) events() Events {
	return Events{
		OnEntered:        func(e EnteredEvent) { r.entered = append(r.entered, e) },
		OnExited:         func(e ExitedEvent) { r.exited = append(r.exited, e) },
		OnNavigated:      func(e NavigatedEvent) { r.navigated = append(r.navigated, e) },
		OnModeChanged:    func(e ModeChangedEvent) { r.modes = append(r.modes, e) },
		OnDetailsToggled: func(e DetailsToggledEvent) { r.details = append(r.details, e) },
	}
}

// harness wires a controller to a real stage without a window.
type harness struct {
	cfg      Config
	sched    *manualScheduler
	media    *fakeMedia
	surface  *scrollSurface
	scroller *VirtualScroller
	stage    *tileStage
	vc       *ViewportController
	rec      *recorder
}

var harnessSize = fyne.NewSize(624, 600)

// testingT is satisfied by both *testing.T and *rapid.T.
type testingT interface {
	require.TestingT
	Helper()
}

func newHarness(t testingT, n int) *harness {
	t.Helper()
	test.NewApp()

	h := &harness{
		cfg:   DefaultConfig(),
		sched: newManualScheduler(),
		media: &fakeMedia{sync: true},
		rec:   &recorder{},
	}
	h.surface = newScrollSurface()
	h.surface.scroll.Resize(harnessSize)
	h.scroller = NewVirtualScroller(h.surface, h.cfg.ItemSize, h.cfg.Gap, h.cfg.OverscanRows, nil)
	h.stage = newTileStage(h.surface, func() *Tile {
		return newTile(h.media, h.sched, h.cfg, nil)
	}, nil)
	h.stage.scroller = h.scroller
	h.stage.overlay.Resize(harnessSize)
	h.scroller.SetRenderFunc(h.stage.render)

	h.vc = newViewportController(h.cfg, h.sched, h.scroller, h.stage, h.media)
	h.vc.SetEvents(h.rec.events())

	h.scroller.SetItems(makeItems(n))
	h.scroller.HandleScroll()
	require.Equal(t, 4, h.scroller.Metrics().Columns)
	return h
}

// requireClean checks that no tile carries a transient override and every tile
// sits at its natural grid or immersive rectangle.
func (h *harness) requireClean(t testingT) {
	t.Helper()
	area := h.stage.area()
	present := h.vc.present()

	lifted := 0
	for id, tile := range h.stage.tiles {
		require.False(t, tile.Pinned(), "tile %s still pinned", id)
		require.Equal(t, float32(1), tile.Opacity(), "tile %s opacity", id)

		if h.stage.isLifted(tile) {
			lifted++
			role, ok := h.vc.roles[id]
			require.True(t, ok, "lifted tile %s has no role", id)
			require.Equal(t, role, tile.Role())
			require.Equal(t, immersiveRect(h.vc.mode, role, area, present), rectOf(tile))
			continue
		}
		require.Equal(t, PositionGrid, tile.Role(), "grid tile %s", id)
		require.Equal(t, h.scroller.CellRect(h.scroller.IndexOf(id)), rectOf(tile), "grid tile %s", id)
	}
	if h.vc.Active() {
		require.Equal(t, len(h.vc.roles), lifted)
	} else {
		require.Zero(t, lifted)
	}
}
