package overlay

import (
	"github.com/cohis-dev/cohis/pkg/dismiss"
	"github.com/cohis-dev/cohis/pkg/placement"
)

// DrawerConfig configures a Drawer.
type DrawerConfig struct {
	ID string

	// AnchorID is the optional trigger element. Pointer events on it do not
	// dismiss the drawer.
	AnchorID string
	PanelID  string
	Title    string
	Side     placement.Side

	// Extent is the panel width for left/right drawers and its height for
	// top/bottom drawers.
	Extent float64

	OnClose func()
}

// Drawer is a panel docked to a viewport edge. Pointer events outside the
// panel close it.
type Drawer struct {
	floating
	ctrl    *dismiss.Controller
	title   string
	extent  float64
	onClose func()
}

// AddDrawer registers a drawer with the layer.
func (l *Layer) AddDrawer(cfg DrawerConfig) (*Drawer, error) {
	side := cfg.Side
	if side == "" {
		side = l.config.DrawerSide
	}
	extent := cfg.Extent
	if extent <= 0 {
		extent = l.config.DrawerExtent
	}
	d := &Drawer{
		floating: newFloating(l, KindDrawer, cfg.ID, cfg.AnchorID, cfg.PanelID, side, placement.Offsets{}),
		title:    cfg.Title,
		extent:   extent,
		onClose:  cfg.OnClose,
	}
	d.ctrl = dismiss.New(l.doc, cfg.AnchorID, cfg.PanelID, dismiss.WithOnChange(d.changed))
	if err := l.register(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Title returns the drawer heading.
func (d *Drawer) Title() string { return d.title }

// Extent returns the panel thickness.
func (d *Drawer) Extent() float64 { return d.extent }

// IsOpen reports whether the drawer is open.
func (d *Drawer) IsOpen() bool { return d.ctrl.IsOpen() }

// Listening reports whether an outside-pointer listener is registered.
func (d *Drawer) Listening() bool { return d.ctrl.Listening() }

// Activate toggles the drawer from its trigger.
func (d *Drawer) Activate() { d.ctrl.Activate() }

// Open opens the drawer.
func (d *Drawer) Open() { d.ctrl.Open() }

// Close closes the drawer.
func (d *Drawer) Close() { d.ctrl.Close() }

// Cancel closes the drawer from its close button.
func (d *Drawer) Cancel() { d.ctrl.Cancel() }

func (d *Drawer) changed(s dismiss.State, r dismiss.Reason) {
	if r == dismiss.ReasonUnmount {
		return
	}
	if s == dismiss.Open {
		d.opened()
		d.refresh()
		return
	}
	d.publish(d.closed())
	if d.onClose != nil {
		d.onClose()
	}
}

// refresh docks the panel to the current viewport. The panel geometry comes
// from the viewport alone, so no floating measurement is needed.
func (d *Drawer) refresh() {
	if !d.ctrl.IsOpen() {
		return
	}
	doc := d.layer.doc
	vp := doc.Viewport()
	if !doc.IsConnected(d.floatingID) || vp.Width <= 0 || vp.Height <= 0 {
		d.publish(d.hidden())
		return
	}
	r := placement.EdgePanel(d.side, d.extent, vp)
	d.publish(Update{
		WidgetID: d.id,
		Kind:     KindDrawer,
		Open:     true,
		Visible:  true,
		Side:     d.side,
		Position: placement.Point{X: r.Left, Y: r.Top},
		Size:     r.Size(),
	})
}

func (d *Drawer) unmount() {
	d.ctrl.Unmount()
}
