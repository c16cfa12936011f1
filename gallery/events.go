package gallery

import "github.com/alexballas/mediagrid/catalog"

// EnteredEvent is sent once the viewport has been entered.
type EnteredEvent struct {
	ItemID string
	Item   catalog.Item
	Index  int
	Total  int
}

// ExitedEvent is sent when the viewport is left.
type ExitedEvent struct {
	LastItemID string
}

// NavigatedEvent is sent after a user navigation changed the current item.
type NavigatedEvent struct {
	Direction Direction
	ItemID    string
	Item      catalog.Item
	Index     int
	Total     int
	HasNext   bool
	HasPrev   bool
}

type ModeChangedEvent struct {
	Mode ViewMode
	Item catalog.Item
}

type DetailsToggledEvent struct {
	Visible bool
	Item    catalog.Item
}

// Events holds the optional viewport callbacks. Nil callbacks are skipped.
type Events struct {
	OnEntered        func(EnteredEvent)
	OnExited         func(ExitedEvent)
	OnNavigated      func(NavigatedEvent)
	OnModeChanged    func(ModeChangedEvent)
	OnDetailsToggled func(DetailsToggledEvent)
}

func (e Events) entered(ev EnteredEvent) {
	if e.OnEntered != nil {
		e.OnEntered(ev)
	}
}

func (e Events) exited(ev ExitedEvent) {
	if e.OnExited != nil {
		e.OnExited(ev)
	}
}

func (e Events) navigated(ev NavigatedEvent) {
	if e.OnNavigated != nil {
		e.OnNavigated(ev)
	}
}

func (e Events) modeChanged(ev ModeChangedEvent) {
	if e.OnModeChanged != nil {
		e.OnModeChanged(ev)
	}
}

func (e Events) detailsToggled(ev DetailsToggledEvent) {
	if e.OnDetailsToggled != nil {
		e.OnDetailsToggled(ev)
	}
}
