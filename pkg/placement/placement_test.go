package placement

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	testAnchor   = Rect{Left: 100, Top: 50, Right: 200, Bottom: 80, Width: 100, Height: 30}
	testFloating = Size{Width: 60, Height: 20}
	testViewport = Viewport{Width: 1024, Height: 768}
)

func TestCornerPoint(t *testing.T) {
	off := Offsets{Gap: 5, ArrowLength: 3}
	tests := []struct {
		side Side
		want Point
	}{
		{SideBottom, Point{X: 120, Y: 88}},
		{SideTop, Point{X: 120, Y: 50 - 8 - 20}},
		{SideLeft, Point{X: 100 - 8 - 60, Y: 55}},
		{SideRight, Point{X: 208, Y: 55}},
		{Side("diagonal"), Point{}},
		{Side(""), Point{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.side), func(t *testing.T) {
			got := CornerPoint(testAnchor, testFloating, tt.side, off)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CornerPoint(%q) mismatch (-want +got):\n%s", tt.side, diff)
			}
		})
	}
}

func TestCornerPointIdempotent(t *testing.T) {
	off := Offsets{Gap: 7, ArrowLength: 2}
	for _, side := range []Side{SideTop, SideBottom, SideLeft, SideRight} {
		a := CornerPoint(testAnchor, testFloating, side, off)
		b := CornerPoint(testAnchor, testFloating, side, off)
		if a != b {
			t.Errorf("side %s: %v != %v", side, a, b)
		}
	}
}

func TestCornerPointCentersOnCrossAxis(t *testing.T) {
	anchors := []Rect{
		testAnchor,
		RectXYWH(-40, 10, 33, 12),
		RectXYWH(900, 700, 250, 80),
	}
	sizes := []Size{{Width: 60, Height: 20}, {Width: 400, Height: 3}, {Width: 1, Height: 1}}

	for _, a := range anchors {
		for _, s := range sizes {
			for _, side := range []Side{SideTop, SideBottom} {
				p := CornerPoint(a, s, side, Offsets{Gap: 5})
				if got, want := p.X+s.Width/2, a.Left+a.Width/2; got != want {
					t.Errorf("%s %v %v: center %v, want %v", side, a, s, got, want)
				}
			}
			for _, side := range []Side{SideLeft, SideRight} {
				p := CornerPoint(a, s, side, Offsets{Gap: 5})
				if got, want := p.Y+s.Height/2, a.Top+a.Height/2; got != want {
					t.Errorf("%s %v %v: center %v, want %v", side, a, s, got, want)
				}
			}
		}
	}
}

func TestArrowPoint(t *testing.T) {
	off := Offsets{Gap: 5, ArrowLength: 3}
	tests := []struct {
		side Side
		want Point
	}{
		{SideBottom, Point{X: 150, Y: 82}},
		{SideTop, Point{X: 150, Y: 42}},
		{SideLeft, Point{X: 92, Y: 65}},
		{SideRight, Point{X: 202, Y: 65}},
		{Side("diagonal"), Point{}},
	}

	for _, tt := range tests {
		got := ArrowPoint(testAnchor, testFloating, tt.side, off)
		if got != tt.want {
			t.Errorf("ArrowPoint(%q) = %v, want %v", tt.side, got, tt.want)
		}
	}
}

func TestArrowPointIgnoresFloatingSize(t *testing.T) {
	off := Offsets{Gap: 5, ArrowLength: 10}
	a := ArrowPoint(testAnchor, Size{Width: 1, Height: 1}, SideBottom, off)
	b := ArrowPoint(testAnchor, Size{Width: 900, Height: 900}, SideBottom, off)
	if a != b {
		t.Errorf("arrow point depends on floating size: %v vs %v", a, b)
	}
}

func TestClampToViewport(t *testing.T) {
	tests := []struct {
		name     string
		p        Point
		floating Size
		side     Side
		vp       Viewport
		want     Point
	}{
		{"fits", Point{X: 120, Y: 85}, testFloating, SideBottom, testViewport, Point{X: 120, Y: 85}},
		{"right overflow", Point{X: 120, Y: 85}, testFloating, SideBottom, Viewport{Width: 150, Height: 768}, Point{X: 85, Y: 85}},
		{"touching right edge", Point{X: 90, Y: 10}, testFloating, SideTop, Viewport{Width: 150, Height: 768}, Point{X: 85, Y: 10}},
		{"left overflow", Point{X: -12, Y: 85}, testFloating, SideTop, testViewport, Point{X: 5, Y: 85}},
		{"bottom overflow", Point{X: 10, Y: 760}, testFloating, SideRight, testViewport, Point{X: 10, Y: 743}},
		{"top overflow", Point{X: 10, Y: -1}, testFloating, SideLeft, testViewport, Point{X: 10, Y: 5}},
		{"placement axis untouched vertical", Point{X: 10, Y: -300}, testFloating, SideTop, testViewport, Point{X: 10, Y: -300}},
		{"placement axis untouched horizontal", Point{X: 5000, Y: 10}, testFloating, SideRight, testViewport, Point{X: 5000, Y: 10}},
		{"wider than viewport", Point{X: 20, Y: 0}, Size{Width: 300, Height: 10}, SideBottom, Viewport{Width: 200, Height: 100}, Point{X: 5, Y: 0}},
		{"unknown side", Point{X: -50, Y: -50}, testFloating, Side("diagonal"), testViewport, Point{X: -50, Y: -50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampToViewport(tt.p, tt.floating, tt.side, tt.vp)
			if got != tt.want {
				t.Errorf("ClampToViewport() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampLowerBound(t *testing.T) {
	for _, x := range []float64{-0.5, -1, -60, -1000} {
		got := ClampToViewport(Point{X: x}, testFloating, SideBottom, testViewport)
		if got.X != EdgeMargin {
			t.Errorf("x=%v: clamped to %v, want %v", x, got.X, EdgeMargin)
		}
		got = ClampToViewport(Point{Y: x}, testFloating, SideLeft, testViewport)
		if got.Y != EdgeMargin {
			t.Errorf("y=%v: clamped to %v, want %v", x, got.Y, EdgeMargin)
		}
	}
}

func TestClampUpperBound(t *testing.T) {
	for _, x := range []float64{965, 970, 1000, 1023} {
		got := ClampToViewport(Point{X: x}, testFloating, SideTop, testViewport)
		if got.X+testFloating.Width != testViewport.Width-EdgeMargin {
			t.Errorf("x=%v: right edge at %v, want %v", x, got.X+testFloating.Width, testViewport.Width-EdgeMargin)
		}
	}
}

func TestPlaceScenarios(t *testing.T) {
	off := Offsets{Gap: 5}

	p := Place(testAnchor, testFloating, SideBottom, off, testViewport)
	if want := (Point{X: 120, Y: 85}); p.Point != want {
		t.Errorf("fit scenario: got %v, want %v", p.Point, want)
	}
	if p.Side != SideBottom {
		t.Errorf("side = %q", p.Side)
	}

	p = Place(testAnchor, testFloating, SideBottom, off, Viewport{Width: 150, Height: 768})
	if want := (Point{X: 85, Y: 85}); p.Point != want {
		t.Errorf("overflow scenario: got %v, want %v", p.Point, want)
	}
	if want := (Point{X: 150, Y: 85}); p.Arrow != want {
		t.Errorf("arrow is never clamped: got %v, want %v", p.Arrow, want)
	}
}

func TestEdgePanel(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 600}
	tests := []struct {
		side Side
		want Rect
	}{
		{SideLeft, RectXYWH(0, 0, 300, 600)},
		{SideRight, RectXYWH(700, 0, 300, 600)},
		{SideTop, RectXYWH(0, 0, 1000, 300)},
		{SideBottom, RectXYWH(0, 300, 1000, 300)},
		{Side("nope"), Rect{}},
	}
	for _, tt := range tests {
		if got := EdgePanel(tt.side, 300, vp); got != tt.want {
			t.Errorf("EdgePanel(%s) = %+v, want %+v", tt.side, got, tt.want)
		}
	}
}

func TestParseSide(t *testing.T) {
	if got := ParseSide("  Bottom "); got != SideBottom || !got.Valid() {
		t.Errorf("ParseSide = %q", got)
	}
	if ParseSide("diagonal").Valid() {
		t.Error("diagonal should not be valid")
	}
	if !SideTop.Vertical() || SideLeft.Vertical() {
		t.Error("Vertical mismatch")
	}
}

func TestRectContains(t *testing.T) {
	r := RectXYWH(10, 10, 20, 20)
	if !r.Contains(Point{X: 10, Y: 30}) {
		t.Error("edge point should be contained")
	}
	if r.Contains(Point{X: 31, Y: 15}) {
		t.Error("outside point reported as contained")
	}
}
