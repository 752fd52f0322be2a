package livetest

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/placement"
	"github.com/cohis-dev/cohis/pkg/protocol"
)

// DefaultTimeout bounds every read made by the Expect helpers.
const DefaultTimeout = 2 * time.Second

// Client is a test client speaking the live frame protocol.
type Client struct {
	Conn *websocket.Conn

	// Timeout bounds each read. Default: DefaultTimeout.
	Timeout time.Duration

	t   testing.TB
	seq uint64
}

// Dial connects to a live endpoint. http and https URLs are rewritten to ws
// and wss. The connection is closed when the test ends.
func Dial(t testing.TB, url string) *Client {
	t.Helper()
	return DialHeader(t, url, nil)
}

// DialHeader is Dial with extra handshake headers, such as Origin.
func DialHeader(t testing.TB, url string, header http.Header) *Client {
	t.Helper()
	if strings.HasPrefix(url, "http") {
		url = "ws" + strings.TrimPrefix(url, "http")
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("livetest: dial %s: %v", url, err)
	}
	c := &Client{Conn: conn, Timeout: DefaultTimeout, t: t}
	t.Cleanup(func() { c.Conn.Close() })
	return c
}

// Send sends ev with the next sequence number.
func (c *Client) Send(ev protocol.Event) {
	c.t.Helper()
	c.seq++
	ev.Seq = c.seq
	c.SendFrame(protocol.NewFrame(protocol.FrameEvent, protocol.EncodeEvent(&ev)))
}

// SendFrame sends a raw frame.
func (c *Client) SendFrame(f *protocol.Frame) {
	c.t.Helper()
	data, err := f.Encode()
	if err != nil {
		c.t.Fatalf("livetest: encode %s frame: %v", f.Type, err)
	}
	c.SendRaw(websocket.BinaryMessage, data)
}

// SendRaw writes a WebSocket message as is.
func (c *Client) SendRaw(messageType int, data []byte) {
	c.t.Helper()
	if err := c.Conn.WriteMessage(messageType, data); err != nil {
		c.t.Fatalf("livetest: write: %v", err)
	}
}

// Viewport reports the client viewport size.
func (c *Client) Viewport(width, height float64) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventViewport, Viewport: placement.Viewport{Width: width, Height: height}})
}

// Mount reports an element attached under parent. An empty parent is the
// document root.
func (c *Client) Mount(id, parent string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventMount, Target: id, Parent: parent})
}

// Unmount reports an element removed from the document.
func (c *Client) Unmount(id string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventUnmount, Target: id})
}

// Layout reports an element's measured box.
func (c *Client) Layout(id string, left, top, width, height float64) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventLayout, Target: id, Rect: placement.RectXYWH(left, top, width, height)})
}

// Pointer reports a pointer-down on target at (x, y).
func (c *Client) Pointer(target string, x, y float64) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventPointer, Target: target, X: x, Y: y})
}

// Activate clicks a widget's anchor.
func (c *Client) Activate(widget string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventActivate, Target: widget})
}

// Enter moves the pointer onto a widget's anchor.
func (c *Client) Enter(widget string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventEnter, Target: widget})
}

// Leave moves the pointer off a widget's anchor.
func (c *Client) Leave(widget string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventLeave, Target: widget})
}

// Confirm presses a widget's confirm button.
func (c *Client) Confirm(widget string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventConfirm, Target: widget})
}

// Cancel presses a widget's cancel or close button.
func (c *Client) Cancel(widget string) {
	c.t.Helper()
	c.Send(protocol.Event{Type: protocol.EventCancel, Target: widget})
}

// Ping sends a control ping carrying ts.
func (c *Client) Ping(ts uint64) {
	c.t.Helper()
	c.SendFrame(protocol.NewFrame(protocol.FrameControl,
		protocol.EncodeControl(protocol.Control{Type: protocol.ControlPing, Timestamp: ts})))
}

// Read returns the next frame that is not a server ping.
func (c *Client) Read() *protocol.Frame {
	c.t.Helper()
	for {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout())); err != nil {
			c.t.Fatalf("livetest: set deadline: %v", err)
		}
		mt, data, err := c.Conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("livetest: read: %v", err)
		}
		if mt != websocket.BinaryMessage {
			c.t.Fatalf("livetest: got message type %d, want binary", mt)
		}
		f, err := protocol.DecodeFrame(data)
		if err != nil {
			c.t.Fatalf("livetest: decode frame: %v", err)
		}
		if f.Type == protocol.FrameControl {
			if ctl, err := protocol.DecodeControl(f.Payload); err == nil && ctl.Type == protocol.ControlPing {
				continue
			}
		}
		return f
	}
}

// ExpectUpdate reads the next frame and fails unless it is a widget update.
func (c *Client) ExpectUpdate() overlay.Update {
	c.t.Helper()
	u, _ := c.ExpectUpdateFlags()
	return u
}

// ExpectUpdateFlags is ExpectUpdate that also returns the frame flags.
func (c *Client) ExpectUpdateFlags() (overlay.Update, protocol.FrameFlags) {
	c.t.Helper()
	f := c.expect(protocol.FrameUpdate)
	u, err := protocol.DecodeUpdate(f.Payload)
	if err != nil {
		c.t.Fatalf("livetest: decode update: %v", err)
	}
	return u, f.Flags
}

// ExpectBatch reads updates up to and including the one flagged final.
func (c *Client) ExpectBatch() []overlay.Update {
	c.t.Helper()
	var out []overlay.Update
	for {
		u, flags := c.ExpectUpdateFlags()
		out = append(out, u)
		if flags.Has(protocol.FlagFinal) {
			return out
		}
	}
}

// ExpectError reads the next frame and fails unless it is an error.
func (c *Client) ExpectError() *protocol.ErrorMessage {
	c.t.Helper()
	f := c.expect(protocol.FrameError)
	em, err := protocol.DecodeErrorMessage(f.Payload)
	if err != nil {
		c.t.Fatalf("livetest: decode error: %v", err)
	}
	return em
}

// ExpectPong reads the next frame and fails unless it is a pong.
func (c *Client) ExpectPong() protocol.Control {
	c.t.Helper()
	f := c.expect(protocol.FrameControl)
	ctl, err := protocol.DecodeControl(f.Payload)
	if err != nil {
		c.t.Fatalf("livetest: decode control: %v", err)
	}
	if ctl.Type != protocol.ControlPong {
		c.t.Fatalf("livetest: got control %s, want Pong", ctl.Type)
	}
	return ctl
}

// ExpectClose reads until the server closes the connection and returns the
// close code.
func (c *Client) ExpectClose() int {
	c.t.Helper()
	for {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout())); err != nil {
			c.t.Fatalf("livetest: set deadline: %v", err)
		}
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				return ce.Code
			}
			c.t.Fatalf("livetest: read: %v, want close", err)
		}
	}
}

func (c *Client) expect(ft protocol.FrameType) *protocol.Frame {
	c.t.Helper()
	f := c.Read()
	if f.Type != ft {
		c.t.Fatalf("livetest: got %s frame, want %s", f.Type, ft)
	}
	return f
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
