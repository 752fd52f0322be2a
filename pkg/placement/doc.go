// Package placement computes screen coordinates for floating elements
// (tooltips, popconfirms, drawers) relative to an anchor element.
//
// Two conventions coexist:
//   - Corner mode positions the floating box by its top-left corner. The box
//     is centered on the cross axis and pushed away from the anchor edge by
//     gap + arrow length. The result is then clamped into the viewport.
//   - Arrow mode computes the tip of the connecting caret. It uses the anchor
//     center without subtracting half the floating size, subtracts the arrow
//     length on the placement axis and is never clamped.
//
// All functions are pure. The viewport is an explicit argument so callers
// read it fresh for every computation.
//
// # Usage
//
//	anchor := placement.RectXYWH(100, 50, 100, 30)
//	p := placement.Place(anchor, placement.Size{Width: 60, Height: 20},
//	    placement.SideBottom, placement.Offsets{Gap: 5},
//	    placement.Viewport{Width: 1024, Height: 768})
//	// p.Point == placement.Point{X: 120, Y: 85}
package placement
