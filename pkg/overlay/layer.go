package overlay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cohis-dev/cohis/pkg/dom"
	"github.com/cohis-dev/cohis/pkg/placement"
)

var (
	// ErrUnknownWidget is returned for events addressed to a widget ID the
	// layer does not hold.
	ErrUnknownWidget = errors.New("overlay: unknown widget")

	// ErrUnsupportedAction is returned when a widget cannot handle an event,
	// such as confirming a tooltip.
	ErrUnsupportedAction = errors.New("overlay: action not supported by widget")

	// ErrDuplicateWidget is returned when a widget ID is registered twice.
	ErrDuplicateWidget = errors.New("overlay: duplicate widget id")

	// ErrClosed is returned when adding widgets to a closed layer.
	ErrClosed = errors.New("overlay: layer closed")
)

// Widget is a floating element managed by a Layer.
type Widget interface {
	ID() string
	Kind() Kind
	IsOpen() bool

	// View returns the last emitted view state.
	View() Update

	refresh()
	measured(id string)
	unmount()
}

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithConfig sets the widget defaults.
func WithConfig(cfg Config) LayerOption {
	return func(l *Layer) {
		cfg.fill()
		l.config = cfg
	}
}

// WithLogger sets the layer logger.
func WithLogger(logger *slog.Logger) LayerOption {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Layer owns the widgets of one document.
type Layer struct {
	doc     *dom.Document
	emit    func(Update)
	config  Config
	logger  *slog.Logger
	widgets map[string]Widget
	order   []string
	closed  bool
}

// NewLayer creates a layer over doc. emit receives every view change; it may
// be nil.
func NewLayer(doc *dom.Document, emit func(Update), opts ...LayerOption) *Layer {
	if emit == nil {
		emit = func(Update) {}
	}
	l := &Layer{
		doc:     doc,
		emit:    emit,
		config:  DefaultConfig(),
		logger:  slog.Default().With("component", "overlay"),
		widgets: make(map[string]Widget),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Document returns the document the layer operates on.
func (l *Layer) Document() *dom.Document {
	return l.doc
}

// Config returns the widget defaults in effect.
func (l *Layer) Config() Config {
	return l.config
}

// Widget returns the widget registered under id.
func (l *Layer) Widget(id string) (Widget, bool) {
	w, ok := l.widgets[id]
	return w, ok
}

// Widgets returns all widgets in registration order.
func (l *Layer) Widgets() []Widget {
	out := make([]Widget, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.widgets[id])
	}
	return out
}

func (l *Layer) register(w Widget) error {
	if l.closed {
		return ErrClosed
	}
	if w.ID() == "" {
		return fmt.Errorf("%w: empty id", ErrUnknownWidget)
	}
	if _, ok := l.widgets[w.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateWidget, w.ID())
	}
	l.widgets[w.ID()] = w
	l.order = append(l.order, w.ID())
	return nil
}

// Mount mirrors a client element mount and refreshes open widgets.
func (l *Layer) Mount(id, parentID string) {
	l.doc.Mount(id, parentID)
	l.refreshAll()
}

// Unmount mirrors a client element removal. Open widgets whose elements
// disappeared are hidden.
func (l *Layer) Unmount(id string) {
	l.doc.Unmount(id)
	l.refreshAll()
}

// Layout records a client measurement and refreshes open widgets. A widget
// reveals itself only after its floating element was measured while open.
func (l *Layer) Layout(id string, r placement.Rect) {
	l.doc.SetLayout(id, r)
	for _, wid := range l.order {
		w := l.widgets[wid]
		if w.IsOpen() {
			w.measured(id)
			w.refresh()
		}
	}
}

// Resize records a new viewport and recomputes open widgets.
func (l *Layer) Resize(vp placement.Viewport) {
	l.doc.SetViewport(vp)
	l.refreshAll()
}

// Pointer dispatches a document-level pointer event.
func (l *Layer) Pointer(ev dom.PointerEvent) {
	l.doc.DispatchPointer(ev)
}

// Activate handles a click on a widget's anchor.
func (l *Layer) Activate(id string) error {
	w, err := l.lookup(id)
	if err != nil {
		return err
	}
	a, ok := w.(interface{ Activate() })
	if !ok {
		return fmt.Errorf("%w: %s cannot be activated", ErrUnsupportedAction, w.Kind())
	}
	a.Activate()
	return nil
}

// Enter handles the pointer entering a widget's anchor.
func (l *Layer) Enter(id string) error {
	w, err := l.lookup(id)
	if err != nil {
		return err
	}
	h, ok := w.(hoverable)
	if !ok {
		return fmt.Errorf("%w: %s has no hover behaviour", ErrUnsupportedAction, w.Kind())
	}
	h.Enter()
	return nil
}

// Leave handles the pointer leaving a widget's anchor.
func (l *Layer) Leave(id string) error {
	w, err := l.lookup(id)
	if err != nil {
		return err
	}
	h, ok := w.(hoverable)
	if !ok {
		return fmt.Errorf("%w: %s has no hover behaviour", ErrUnsupportedAction, w.Kind())
	}
	h.Leave()
	return nil
}

// Confirm handles a widget's confirm action.
func (l *Layer) Confirm(id string) error {
	w, err := l.lookup(id)
	if err != nil {
		return err
	}
	c, ok := w.(confirmable)
	if !ok {
		return fmt.Errorf("%w: %s cannot be confirmed", ErrUnsupportedAction, w.Kind())
	}
	c.Confirm()
	return nil
}

// Cancel handles a widget's cancel or close action.
func (l *Layer) Cancel(id string) error {
	w, err := l.lookup(id)
	if err != nil {
		return err
	}
	c, ok := w.(interface{ Cancel() })
	if !ok {
		return fmt.Errorf("%w: %s cannot be cancelled", ErrUnsupportedAction, w.Kind())
	}
	c.Cancel()
	return nil
}

// Close unmounts every widget, releasing their document listeners.
func (l *Layer) Close() {
	if l.closed {
		return
	}
	l.closed = true
	for _, id := range l.order {
		l.widgets[id].unmount()
	}
}

func (l *Layer) lookup(id string) (Widget, error) {
	w, ok := l.widgets[id]
	if !ok {
		l.logger.Debug("event for unknown widget", "widget", id)
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidget, id)
	}
	return w, nil
}

func (l *Layer) refreshAll() {
	for _, id := range l.order {
		w := l.widgets[id]
		if w.IsOpen() {
			w.refresh()
		}
	}
}

type hoverable interface {
	Enter()
	Leave()
}

type confirmable interface {
	Confirm()
}
