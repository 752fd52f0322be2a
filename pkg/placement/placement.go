package placement

// CornerPoint returns the unclamped top-left corner of a floating element
// placed on side of anchor. Unknown sides yield the zero point.
func CornerPoint(anchor Rect, floating Size, side Side, off Offsets) Point {
	space := off.Gap + off.ArrowLength
	switch side {
	case SideBottom:
		return Point{
			X: anchor.Left + (anchor.Width-floating.Width)/2,
			Y: anchor.Bottom + space,
		}
	case SideTop:
		return Point{
			X: anchor.Left + (anchor.Width-floating.Width)/2,
			Y: anchor.Top - space - floating.Height,
		}
	case SideLeft:
		return Point{
			X: anchor.Left - space - floating.Width,
			Y: anchor.Top + (anchor.Height-floating.Height)/2,
		}
	case SideRight:
		return Point{
			X: anchor.Right + space,
			Y: anchor.Top + (anchor.Height-floating.Height)/2,
		}
	}
	return Point{}
}

// ArrowPoint returns the tip of the caret connecting anchor and floating
// element. The floating size does not take part in the computation; the
// parameter keeps the signature aligned with CornerPoint.
//
// The arrow length is subtracted on the placement axis, so the tip sits
// inside the gap rather than at the full offset.
func ArrowPoint(anchor Rect, floating Size, side Side, off Offsets) Point {
	switch side {
	case SideBottom:
		return Point{X: anchor.Left + anchor.Width/2, Y: anchor.Bottom + off.Gap - off.ArrowLength}
	case SideTop:
		return Point{X: anchor.Left + anchor.Width/2, Y: anchor.Top - off.Gap - off.ArrowLength}
	case SideLeft:
		return Point{X: anchor.Left - off.Gap - off.ArrowLength, Y: anchor.Top + anchor.Height/2}
	case SideRight:
		return Point{X: anchor.Right + off.Gap - off.ArrowLength, Y: anchor.Top + anchor.Height/2}
	}
	return Point{}
}

// ClampToViewport shifts p along the free axis of side so the floating
// element does not overflow vp. The placement axis is left untouched.
//
// When the element is larger than the viewport the lower bound wins and the
// element still overflows on the far edge.
func ClampToViewport(p Point, floating Size, side Side, vp Viewport) Point {
	switch side {
	case SideTop, SideBottom:
		p.X = clampAxis(p.X, floating.Width, vp.Width)
	case SideLeft, SideRight:
		p.Y = clampAxis(p.Y, floating.Height, vp.Height)
	}
	return p
}

// clampAxis shifts v so [v, v+extent) ends EdgeMargin short of limit, then
// pins a negative result to EdgeMargin. The lower bound is deliberately not an
// else branch: an element larger than the viewport lands at the margin.
func clampAxis(v, extent, limit float64) float64 {
	if v+extent >= limit {
		v -= v + extent - limit + EdgeMargin
	}
	if v < 0 {
		v = EdgeMargin
	}
	return v
}

// Place computes the clamped corner point and the arrow tip in one call.
func Place(anchor Rect, floating Size, side Side, off Offsets, vp Viewport) Placement {
	corner := CornerPoint(anchor, floating, side, off)
	return Placement{
		Side:  side,
		Point: ClampToViewport(corner, floating, side, vp),
		Arrow: ArrowPoint(anchor, floating, side, off),
	}
}

// EdgePanel returns the rectangle of a panel docked to the side edge of vp.
// Left and right panels are extent wide; top and bottom panels are extent
// tall. Unknown sides yield the zero Rect.
func EdgePanel(side Side, extent float64, vp Viewport) Rect {
	switch side {
	case SideLeft:
		return RectXYWH(0, 0, extent, vp.Height)
	case SideRight:
		return RectXYWH(vp.Width-extent, 0, extent, vp.Height)
	case SideTop:
		return RectXYWH(0, 0, vp.Width, extent)
	case SideBottom:
		return RectXYWH(0, vp.Height-extent, vp.Width, extent)
	}
	return Rect{}
}
