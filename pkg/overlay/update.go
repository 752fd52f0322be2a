package overlay

import "github.com/cohis-dev/cohis/pkg/placement"

// Kind identifies the widget type.
type Kind uint8

const (
	KindTooltip Kind = iota + 1
	KindPopconfirm
	KindDrawer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTooltip:
		return "tooltip"
	case KindPopconfirm:
		return "popconfirm"
	case KindDrawer:
		return "drawer"
	default:
		return "unknown"
	}
}

// Update is the view state of one widget.
type Update struct {
	WidgetID string
	Kind     Kind
	Open     bool

	// Visible is set only after Position has been computed from fresh
	// measurements.
	Visible  bool
	Side     placement.Side
	Position placement.Point
	Arrow    placement.Point
	Size     placement.Size
}
