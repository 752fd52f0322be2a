package placement

import "strings"

// EdgeMargin is the distance kept between a clamped floating element and the
// viewport edge it would otherwise overflow.
const EdgeMargin = 5

// Side is the requested placement of a floating element relative to its anchor.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// ParseSide normalizes s. Unrecognized values are returned as-is and report
// false from Valid.
func ParseSide(s string) Side {
	return Side(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether s is one of the four compass sides.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideBottom, SideLeft, SideRight:
		return true
	}
	return false
}

// Vertical reports whether the floating element sits above or below the
// anchor, which makes x the free axis.
func (s Side) Vertical() bool {
	return s == SideTop || s == SideBottom
}

// String returns the side name.
func (s Side) String() string {
	return string(s)
}

// Rect is a bounding box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectXYWH builds a Rect from its origin and dimensions.
func RectXYWH(x, y, w, h float64) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h, Width: w, Height: h}
}

// Size returns the dimensions of r.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Contains reports whether the point lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Size is the measured size of a floating element.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is an absolute position in viewport coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the visible area of the host document.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Offsets is the spacing between anchor and floating element.
type Offsets struct {
	// Gap is the distance from the anchor edge.
	Gap float64 `json:"gap"`

	// ArrowLength is extra room reserved for a caret.
	ArrowLength float64 `json:"arrowLength"`
}

// Placement is the result of a full placement computation.
type Placement struct {
	Side  Side  `json:"side"`
	Point Point `json:"point"`
	Arrow Point `json:"arrow"`
}
