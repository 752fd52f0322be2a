// Package livetest provides testing helpers for COHIS live sessions.
//
// The livetest package reduces boilerplate when testing widget behaviour over
// a real WebSocket by wrapping the frame protocol in a small client with
// fluent event helpers and assertions.
//
// # Quick Start
//
//	func TestDeleteConfirm(t *testing.T) {
//	    ts := httptest.NewServer(srv)
//	    defer ts.Close()
//
//	    c := livetest.Dial(t, ts.URL+"/live")
//	    c.Viewport(1000, 800)
//	    c.Mount("delete-btn", "")
//	    c.Layout("delete-btn", 500, 300, 80, 30)
//	    c.Activate("delete")
//
//	    u := c.ExpectUpdate()
//	    if !u.Open {
//	        t.Fatal("popconfirm did not open")
//	    }
//	}
//
// # Heartbeats
//
// Server pings are skipped by the read helpers, so tests only see frames
// they caused.
package livetest
