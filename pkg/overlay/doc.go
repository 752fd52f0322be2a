// Package overlay provides the server-side floating widgets of the dashboard:
// hover tooltips, click-driven popconfirms and edge-docked drawers.
//
// Widgets live in a Layer bound to one dom.Document. The client mirrors its
// element tree and layout into the document and forwards pointer and widget
// events; the layer answers with Update values describing where each widget
// must be drawn.
//
// # Sequencing
//
// A widget that opens first emits Open=true with Visible=false. The client
// mounts the floating box hidden and reports its layout. Only then does the
// widget measure, compute the placement and emit a Visible update carrying
// the position. Clients apply Position before revealing the element, which
// avoids a flash at stale coordinates. When the anchor or the floating
// element is not connected to the document the widget stays hidden.
//
// Every layout or viewport change recomputes open widgets from scratch.
//
// # Usage
//
//	layer := overlay.NewLayer(doc, func(u overlay.Update) { send(u) })
//	confirm, _ := layer.AddPopconfirm(overlay.PopconfirmConfig{
//	    ID:         "delete-user",
//	    AnchorID:   "delete-btn",
//	    FloatingID: "delete-confirm",
//	    OnConfirm:  func() { deleteUser() },
//	})
//	layer.Activate("delete-user")
package overlay
