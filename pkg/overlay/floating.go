package overlay

import (
	"github.com/cohis-dev/cohis/pkg/placement"
)

// floating is the state shared by every widget: identity, requested side and
// the last emitted view.
type floating struct {
	layer      *Layer
	id         string
	kind       Kind
	anchorID   string
	floatingID string
	side       placement.Side
	offsets    placement.Offsets

	view    Update
	emitted bool

	// fresh is set once the floating element has been measured since the
	// widget last opened.
	fresh bool
}

func newFloating(l *Layer, kind Kind, id, anchorID, floatingID string, side placement.Side, off placement.Offsets) floating {
	return floating{
		layer:      l,
		id:         id,
		kind:       kind,
		anchorID:   anchorID,
		floatingID: floatingID,
		side:       side,
		offsets:    off,
		view:       Update{WidgetID: id, Kind: kind, Side: side},
	}
}

// ID returns the widget ID.
func (f *floating) ID() string { return f.id }

// Kind returns the widget kind.
func (f *floating) Kind() Kind { return f.kind }

// View returns the last emitted view state.
func (f *floating) View() Update { return f.view }

// AnchorID returns the anchor element ID.
func (f *floating) AnchorID() string { return f.anchorID }

// FloatingID returns the floating element ID.
func (f *floating) FloatingID() string { return f.floatingID }

// Side returns the requested side.
func (f *floating) Side() placement.Side { return f.side }

// publish emits u unless it equals the last emitted view. Suppressing
// duplicates stops the layout round trip from echoing forever.
func (f *floating) publish(u Update) {
	if f.emitted && u == f.view {
		return
	}
	f.view = u
	f.emitted = true
	f.layer.emit(u)
}

func (f *floating) measured(id string) {
	if id == f.floatingID {
		f.fresh = true
	}
}

// opened resets the measurement state and publishes the hidden view.
func (f *floating) opened() {
	f.fresh = false
	f.publish(f.hidden())
}

// hidden is the view of an open widget that is waiting for measurements.
func (f *floating) hidden() Update {
	return Update{WidgetID: f.id, Kind: f.kind, Open: true, Side: f.side}
}

// closed is the view of a closed widget.
func (f *floating) closed() Update {
	return Update{WidgetID: f.id, Kind: f.kind, Side: f.side}
}

// anchored measures anchor and floating element and computes the placement.
// It returns false when either element is detached or not yet measured.
func (f *floating) anchored() (Update, bool) {
	if !f.fresh {
		return Update{}, false
	}
	doc := f.layer.doc
	if !doc.IsConnected(f.anchorID) || !doc.IsConnected(f.floatingID) {
		return Update{}, false
	}
	anchor, ok := doc.Layout(f.anchorID)
	if !ok {
		return Update{}, false
	}
	size, ok := doc.Size(f.floatingID)
	if !ok {
		return Update{}, false
	}
	p := placement.Place(anchor, size, f.side, f.offsets, doc.Viewport())
	return Update{
		WidgetID: f.id,
		Kind:     f.kind,
		Open:     true,
		Visible:  true,
		Side:     f.side,
		Position: p.Point,
		Arrow:    p.Arrow,
		Size:     size,
	}, true
}

// reposition publishes the anchored view, or the hidden view when the
// elements cannot be measured.
func (f *floating) reposition() {
	if u, ok := f.anchored(); ok {
		f.publish(u)
		return
	}
	f.publish(f.hidden())
}
