// Package dom models the parts of a browser document the overlay widgets
// depend on: the element tree (for containment and connection checks),
// client-reported layout measurements, the viewport, and document-level
// pointer listeners.
//
// The browser owns the real DOM. A live session mirrors element IDs and
// parent links as the client mounts them, stores the bounding rectangles the
// client measures, and dispatches pointer-down events through Document so
// widgets can react without touching the browser directly.
//
// A Document is owned by a single session event loop and is not safe for
// concurrent use.
package dom
