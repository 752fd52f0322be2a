// Package dismiss implements the open/closed state machine shared by
// click-driven floating elements, including dismissal by a pointer event
// outside both the anchor and the floating element.
//
// The document listener is a scoped resource: it is registered only while
// the controller is open and dismissible, and released on close, when
// dismissal is disabled, or on unmount.
package dismiss

import "github.com/cohis-dev/cohis/pkg/dom"

// State is the visibility state of a floating element.
type State uint8

const (
	Closed State = iota
	Open
)

// String returns the state name.
func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Reason records what caused a transition.
type Reason uint8

const (
	ReasonActivate Reason = iota
	ReasonConfirm
	ReasonCancel
	ReasonOutside
	ReasonUnmount
	ReasonProgrammatic
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonActivate:
		return "activate"
	case ReasonConfirm:
		return "confirm"
	case ReasonCancel:
		return "cancel"
	case ReasonOutside:
		return "outside"
	case ReasonUnmount:
		return "unmount"
	case ReasonProgrammatic:
		return "programmatic"
	default:
		return "unknown"
	}
}

// Host is the document the controller listens on. *dom.Document satisfies it.
type Host interface {
	Contains(containerID, targetID string) bool
	AddPointerListener(fn dom.PointerListener) func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithDismissible sets whether outside pointer events close the element.
// The default is true.
func WithDismissible(dismissible bool) Option {
	return func(c *Controller) {
		c.dismissible = dismissible
	}
}

// WithOnChange registers a callback invoked after every state transition.
func WithOnChange(fn func(State, Reason)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// Controller tracks whether one floating element is open.
type Controller struct {
	host        Host
	anchorID    string
	floatingID  string
	dismissible bool
	onChange    func(State, Reason)

	state     State
	unmounted bool
	release   func()
}

// New creates a closed controller for the given anchor and floating element.
// An empty anchorID makes only the floating element count as inside.
func New(host Host, anchorID, floatingID string, opts ...Option) *Controller {
	c := &Controller{
		host:        host,
		anchorID:    anchorID,
		floatingID:  floatingID,
		dismissible: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// IsOpen reports whether the element is open.
func (c *Controller) IsOpen() bool {
	return c.state == Open
}

// Dismissible reports whether outside pointer events close the element.
func (c *Controller) Dismissible() bool {
	return c.dismissible
}

// Listening reports whether the document listener is registered.
func (c *Controller) Listening() bool {
	return c.release != nil
}

// Activate toggles the element, as a click on the anchor does.
func (c *Controller) Activate() {
	if c.state == Open {
		c.transition(Closed, ReasonActivate)
		return
	}
	c.transition(Open, ReasonActivate)
}

// Open opens the element.
func (c *Controller) Open() {
	c.transition(Open, ReasonProgrammatic)
}

// Close closes the element.
func (c *Controller) Close() {
	c.transition(Closed, ReasonProgrammatic)
}

// Confirm closes the element through its confirm action.
func (c *Controller) Confirm() {
	c.transition(Closed, ReasonConfirm)
}

// Cancel closes the element through its cancel action.
func (c *Controller) Cancel() {
	c.transition(Closed, ReasonCancel)
}

// SetDismissible enables or disables outside dismissal. Disabling releases
// the document listener immediately.
func (c *Controller) SetDismissible(dismissible bool) {
	if c.unmounted {
		return
	}
	c.dismissible = dismissible
	c.sync()
}

// Unmount closes the element and releases the listener. Every later call is
// a no-op.
func (c *Controller) Unmount() {
	if c.unmounted {
		return
	}
	wasOpen := c.state == Open
	c.state = Closed
	c.unmounted = true
	c.sync()
	if wasOpen && c.onChange != nil {
		c.onChange(Closed, ReasonUnmount)
	}
}

func (c *Controller) transition(to State, reason Reason) {
	if c.unmounted || c.state == to {
		return
	}
	c.state = to
	c.sync()
	if c.onChange != nil {
		c.onChange(to, reason)
	}
}

// sync registers or releases the document listener to match the current
// state.
func (c *Controller) sync() {
	want := c.state == Open && c.dismissible && !c.unmounted
	switch {
	case want && c.release == nil:
		c.release = c.host.AddPointerListener(c.handlePointer)
	case !want && c.release != nil:
		c.release()
		c.release = nil
	}
}

func (c *Controller) handlePointer(ev dom.PointerEvent) {
	if c.state != Open || !c.dismissible {
		return
	}
	if c.inside(ev.TargetID) {
		return
	}
	c.transition(Closed, ReasonOutside)
}

func (c *Controller) inside(targetID string) bool {
	if c.floatingID != "" && c.host.Contains(c.floatingID, targetID) {
		return true
	}
	return c.anchorID != "" && c.host.Contains(c.anchorID, targetID)
}
