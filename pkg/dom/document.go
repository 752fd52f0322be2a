package dom

import "github.com/cohis-dev/cohis/pkg/placement"

// PointerEvent is a pointer-down anywhere in the document.
type PointerEvent struct {
	TargetID string  `json:"targetId"`
	ClientX  float64 `json:"clientX"`
	ClientY  float64 `json:"clientY"`
}

// PointerListener receives document-level pointer events.
type PointerListener func(PointerEvent)

type node struct {
	parent   string
	children map[string]struct{}
	layout   *placement.Rect
}

type listenerEntry struct {
	id uint64
	fn PointerListener
}

// Document is the server-side mirror of a client document.
type Document struct {
	nodes     map[string]*node
	viewport  placement.Viewport
	listeners []listenerEntry
	nextID    uint64
}

// NewDocument returns an empty document. Elements mounted with an empty
// parent ID are attached to the document root.
func NewDocument() *Document {
	return &Document{nodes: make(map[string]*node)}
}

// Mount attaches id under parentID. Mounting an already mounted element moves
// it. Mounting under an unknown parent leaves the element detached until the
// parent is mounted; such elements do not report as connected.
func (d *Document) Mount(id, parentID string) {
	if id == "" || id == parentID {
		return
	}
	n, ok := d.nodes[id]
	if ok {
		d.unlink(id, n)
	} else {
		n = &node{children: make(map[string]struct{})}
		d.nodes[id] = n
	}
	n.parent = parentID
	if parentID == "" {
		return
	}
	p, ok := d.nodes[parentID]
	if !ok {
		p = &node{children: make(map[string]struct{}), parent: detachedParent}
		d.nodes[parentID] = p
	}
	p.children[id] = struct{}{}
}

// detachedParent marks a placeholder node created for a child that was
// mounted before its parent.
const detachedParent = "\x00detached"

// Unmount removes id and its whole subtree, including measurements.
func (d *Document) Unmount(id string) {
	n, ok := d.nodes[id]
	if !ok {
		return
	}
	d.unlink(id, n)
	d.removeSubtree(id)
}

func (d *Document) unlink(id string, n *node) {
	if n.parent == "" {
		return
	}
	if p, ok := d.nodes[n.parent]; ok {
		delete(p.children, id)
	}
}

func (d *Document) removeSubtree(id string) {
	n, ok := d.nodes[id]
	if !ok {
		return
	}
	for child := range n.children {
		d.removeSubtree(child)
	}
	delete(d.nodes, id)
}

// IsConnected reports whether id is attached to the document root through
// mounted ancestors.
func (d *Document) IsConnected(id string) bool {
	seen := 0
	for {
		n, ok := d.nodes[id]
		if !ok || n.parent == detachedParent {
			return false
		}
		if n.parent == "" {
			return true
		}
		id = n.parent
		seen++
		if seen > len(d.nodes) {
			return false
		}
	}
}

// Contains reports whether targetID is containerID or one of its
// descendants. Detached elements contain nothing and are contained by
// nothing.
func (d *Document) Contains(containerID, targetID string) bool {
	if containerID == "" || targetID == "" {
		return false
	}
	if !d.IsConnected(containerID) || !d.IsConnected(targetID) {
		return false
	}
	for id := targetID; id != ""; id = d.nodes[id].parent {
		if id == containerID {
			return true
		}
	}
	return false
}

// Parent returns the parent of id and whether id is mounted.
func (d *Document) Parent(id string) (string, bool) {
	n, ok := d.nodes[id]
	if !ok || n.parent == detachedParent {
		return "", ok
	}
	return n.parent, true
}

// SetLayout records the bounding rectangle measured by the client.
// Measurements for unmounted elements are ignored.
func (d *Document) SetLayout(id string, r placement.Rect) {
	n, ok := d.nodes[id]
	if !ok {
		return
	}
	n.layout = &r
}

// Layout returns the last measured rectangle of a connected element.
func (d *Document) Layout(id string) (placement.Rect, bool) {
	if !d.IsConnected(id) {
		return placement.Rect{}, false
	}
	n := d.nodes[id]
	if n.layout == nil {
		return placement.Rect{}, false
	}
	return *n.layout, true
}

// Size returns the measured size of a connected element.
func (d *Document) Size(id string) (placement.Size, bool) {
	r, ok := d.Layout(id)
	if !ok {
		return placement.Size{}, false
	}
	return r.Size(), true
}

// SetViewport records the client's visible area.
func (d *Document) SetViewport(vp placement.Viewport) {
	d.viewport = vp
}

// Viewport returns the last reported visible area.
func (d *Document) Viewport() placement.Viewport {
	return d.viewport
}

// AddPointerListener registers fn for every pointer event in the document.
// The returned function removes the listener and may be called more than once.
func (d *Document) AddPointerListener(fn PointerListener) func() {
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount returns the number of registered pointer listeners.
func (d *Document) ListenerCount() int {
	return len(d.listeners)
}

// DispatchPointer delivers ev to the listeners registered when dispatch
// started. Listeners may add or remove listeners while running.
func (d *Document) DispatchPointer(ev PointerEvent) {
	snapshot := make([]listenerEntry, len(d.listeners))
	copy(snapshot, d.listeners)
	for _, l := range snapshot {
		if !d.hasListener(l.id) {
			continue
		}
		l.fn(ev)
	}
}

func (d *Document) hasListener(id uint64) bool {
	for _, l := range d.listeners {
		if l.id == id {
			return true
		}
	}
	return false
}
