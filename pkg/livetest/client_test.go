package livetest

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/placement"
	"github.com/cohis-dev/cohis/pkg/protocol"
)

// echoServer answers every event with a server ping followed by a two-frame
// update batch naming the event's target, and answers pings with pongs.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	var upgrader websocket.Upgrader
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		write := func(f *protocol.Frame) bool {
			data, err := f.Encode()
			return err == nil && conn.WriteMessage(websocket.BinaryMessage, data) == nil
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			f, err := protocol.DecodeFrame(data)
			if err != nil {
				return
			}
			switch f.Type {
			case protocol.FrameControl:
				ctl, _ := protocol.DecodeControl(f.Payload)
				write(protocol.NewFrame(protocol.FrameControl,
					protocol.EncodeControl(protocol.Control{Type: protocol.ControlPong, Timestamp: ctl.Timestamp})))
			case protocol.FrameEvent:
				ev, err := protocol.DecodeEvent(f.Payload)
				if err != nil {
					return
				}
				if ev.Target == "close" {
					conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
					return
				}
				write(protocol.NewFrame(protocol.FrameControl,
					protocol.EncodeControl(protocol.Control{Type: protocol.ControlPing, Timestamp: ev.Seq})))
				write(protocol.NewFrame(protocol.FrameUpdate,
					protocol.EncodeUpdate(overlay.Update{WidgetID: ev.Target, Kind: overlay.KindTooltip})))
				last := protocol.NewFrame(protocol.FrameUpdate,
					protocol.EncodeUpdate(overlay.Update{WidgetID: ev.Target, Kind: overlay.KindTooltip, Open: true, Side: placement.SideTop}))
				last.Flags = protocol.FlagFinal
				write(last)
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientSkipsPingsAndReadsBatches(t *testing.T) {
	c := Dial(t, echoServer(t).URL)

	c.Enter("help")
	batch := c.ExpectBatch()
	require.Len(t, batch, 2)
	assert.Equal(t, "help", batch[0].WidgetID)
	assert.False(t, batch[0].Open)
	assert.True(t, batch[1].Open)

	c.Activate("menu")
	u, flags := c.ExpectUpdateFlags()
	assert.Equal(t, "menu", u.WidgetID)
	assert.False(t, flags.Has(protocol.FlagFinal))
	u, flags = c.ExpectUpdateFlags()
	assert.True(t, u.Open)
	assert.True(t, flags.Has(protocol.FlagFinal))
}

func TestClientPingPong(t *testing.T) {
	c := Dial(t, echoServer(t).URL)

	c.Ping(7)
	assert.Equal(t, protocol.Control{Type: protocol.ControlPong, Timestamp: 7}, c.ExpectPong())
}

func TestClientExpectClose(t *testing.T) {
	c := Dial(t, echoServer(t).URL)

	c.Cancel("close")
	assert.Equal(t, websocket.CloseGoingAway, c.ExpectClose())
}
