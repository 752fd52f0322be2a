package dismiss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohis-dev/cohis/pkg/dom"
)

type transition struct {
	state  State
	reason Reason
}

func newDoc() *dom.Document {
	d := dom.NewDocument()
	d.Mount("body", "")
	d.Mount("anchor", "body")
	d.Mount("anchor-label", "anchor")
	d.Mount("floating", "body")
	d.Mount("floating-ok", "floating")
	d.Mount("elsewhere", "body")
	return d
}

func newController(d *dom.Document, opts ...Option) (*Controller, *[]transition) {
	var log []transition
	opts = append(opts, WithOnChange(func(s State, r Reason) {
		log = append(log, transition{s, r})
	}))
	return New(d, "anchor", "floating", opts...), &log
}

func TestOutsidePointerCloses(t *testing.T) {
	d := newDoc()
	c, log := newController(d)

	c.Activate()
	require.True(t, c.IsOpen())
	require.True(t, c.Listening())
	require.Equal(t, 1, d.ListenerCount())

	d.DispatchPointer(dom.PointerEvent{TargetID: "elsewhere", ClientX: 3, ClientY: 4})

	assert.Equal(t, Closed, c.State())
	assert.False(t, c.Listening())
	assert.Zero(t, d.ListenerCount())
	assert.Equal(t, []transition{{Open, ReasonActivate}, {Closed, ReasonOutside}}, *log)
}

func TestInsidePointerKeepsOpen(t *testing.T) {
	for _, target := range []string{"anchor", "anchor-label", "floating", "floating-ok"} {
		t.Run(target, func(t *testing.T) {
			d := newDoc()
			c, _ := newController(d)
			c.Open()

			d.DispatchPointer(dom.PointerEvent{TargetID: target})

			assert.True(t, c.IsOpen())
			assert.True(t, c.Listening())
		})
	}
}

func TestDetachedTargetCountsAsOutside(t *testing.T) {
	d := newDoc()
	c, _ := newController(d)
	c.Open()

	d.DispatchPointer(dom.PointerEvent{TargetID: "never-mounted"})
	assert.False(t, c.IsOpen())
}

func TestNotDismissible(t *testing.T) {
	d := newDoc()
	c, _ := newController(d, WithDismissible(false))
	c.Open()

	assert.False(t, c.Listening())
	d.DispatchPointer(dom.PointerEvent{TargetID: "elsewhere"})
	assert.True(t, c.IsOpen())

	c.SetDismissible(true)
	assert.True(t, c.Listening())
	c.SetDismissible(false)
	assert.False(t, c.Listening())
	assert.Zero(t, d.ListenerCount())
}

func TestActivateToggles(t *testing.T) {
	d := newDoc()
	c, log := newController(d)

	c.Activate()
	c.Activate()

	assert.Equal(t, Closed, c.State())
	assert.Zero(t, d.ListenerCount())
	assert.Equal(t, []transition{{Open, ReasonActivate}, {Closed, ReasonActivate}}, *log)
}

func TestConfirmAndCancel(t *testing.T) {
	d := newDoc()
	c, log := newController(d)

	c.Open()
	c.Confirm()
	c.Open()
	c.Cancel()
	c.Cancel()

	assert.Equal(t, []transition{
		{Open, ReasonProgrammatic},
		{Closed, ReasonConfirm},
		{Open, ReasonProgrammatic},
		{Closed, ReasonCancel},
	}, *log)
	assert.Zero(t, d.ListenerCount())
}

func TestUnmountReleasesAndFreezes(t *testing.T) {
	d := newDoc()
	c, log := newController(d)
	c.Open()

	c.Unmount()
	c.Unmount()
	c.Open()
	c.SetDismissible(true)

	assert.Equal(t, Closed, c.State())
	assert.False(t, c.Listening())
	assert.Zero(t, d.ListenerCount())
	assert.Equal(t, []transition{{Open, ReasonProgrammatic}, {Closed, ReasonUnmount}}, *log)
}

func TestFloatingOnly(t *testing.T) {
	d := newDoc()
	c := New(d, "", "floating")
	c.Open()

	d.DispatchPointer(dom.PointerEvent{TargetID: "floating-ok"})
	assert.True(t, c.IsOpen())

	d.DispatchPointer(dom.PointerEvent{TargetID: "anchor"})
	assert.False(t, c.IsOpen())
}

func TestControllersAreIndependent(t *testing.T) {
	d := newDoc()
	d.Mount("anchor2", "body")
	d.Mount("floating2", "body")

	a := New(d, "anchor", "floating")
	b := New(d, "anchor2", "floating2")
	a.Open()
	b.Open()
	require.Equal(t, 2, d.ListenerCount())

	d.DispatchPointer(dom.PointerEvent{TargetID: "floating"})
	assert.True(t, a.IsOpen())
	assert.False(t, b.IsOpen())
	assert.Equal(t, 1, d.ListenerCount())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "outside", ReasonOutside.String())
	assert.Equal(t, "unknown", Reason(200).String())
}
