package protocol

import (
	"errors"

	"github.com/cohis-dev/cohis/pkg/placement"
)

// EventType identifies a client event.
type EventType uint8

const (
	// Document events (0x01-0x0F)
	EventMount    EventType = 0x01
	EventUnmount  EventType = 0x02
	EventLayout   EventType = 0x03
	EventViewport EventType = 0x04
	EventPointer  EventType = 0x05

	// Widget events (0x10+), Target is a widget ID
	EventActivate EventType = 0x10
	EventEnter    EventType = 0x11
	EventLeave    EventType = 0x12
	EventConfirm  EventType = 0x13
	EventCancel   EventType = 0x14
)

// String returns the event type name.
func (et EventType) String() string {
	switch et {
	case EventMount:
		return "Mount"
	case EventUnmount:
		return "Unmount"
	case EventLayout:
		return "Layout"
	case EventViewport:
		return "Viewport"
	case EventPointer:
		return "Pointer"
	case EventActivate:
		return "Activate"
	case EventEnter:
		return "Enter"
	case EventLeave:
		return "Leave"
	case EventConfirm:
		return "Confirm"
	case EventCancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// IsWidgetEvent reports whether Target names a widget rather than an element.
func (et EventType) IsWidgetEvent() bool {
	return et >= EventActivate && et <= EventCancel
}

// Errors returned for malformed events.
var (
	ErrUnknownEvent   = errors.New("protocol: unknown event type")
	ErrUnknownControl = errors.New("protocol: unknown control type")
	ErrTrailingBytes  = errors.New("protocol: trailing bytes after message")
)

// Event is a decoded client event. Only the fields relevant to Type are set.
type Event struct {
	Seq  uint64
	Type EventType

	// Target is the element ID for document events, the widget ID for widget
	// events and the pointer target for EventPointer.
	Target string

	// Parent is set for EventMount. Empty means the document root.
	Parent string

	// Rect is set for EventLayout.
	Rect placement.Rect

	// Viewport is set for EventViewport.
	Viewport placement.Viewport

	// X and Y are the client coordinates of EventPointer.
	X, Y float64
}

// EncodeEvent encodes ev as a frame payload.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteByte(byte(ev.Type))
	switch ev.Type {
	case EventMount:
		e.WriteString(ev.Target)
		e.WriteString(ev.Parent)
	case EventLayout:
		e.WriteString(ev.Target)
		e.WriteFloat64(ev.Rect.Left)
		e.WriteFloat64(ev.Rect.Top)
		e.WriteFloat64(ev.Rect.Width)
		e.WriteFloat64(ev.Rect.Height)
	case EventViewport:
		e.WriteFloat64(ev.Viewport.Width)
		e.WriteFloat64(ev.Viewport.Height)
	case EventPointer:
		e.WriteString(ev.Target)
		e.WriteFloat64(ev.X)
		e.WriteFloat64(ev.Y)
	default:
		e.WriteString(ev.Target)
	}
	return e.Bytes()
}

// DecodeEvent decodes an event payload.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ev := &Event{Seq: seq, Type: EventType(t)}

	switch ev.Type {
	case EventMount:
		if ev.Target, err = d.ReadString(); err != nil {
			return nil, err
		}
		if ev.Parent, err = d.ReadString(); err != nil {
			return nil, err
		}
	case EventLayout:
		if ev.Target, err = d.ReadString(); err != nil {
			return nil, err
		}
		var f [4]float64
		for i := range f {
			if f[i], err = d.ReadFloat64(); err != nil {
				return nil, err
			}
		}
		ev.Rect = placement.RectXYWH(f[0], f[1], f[2], f[3])
	case EventViewport:
		if ev.Viewport.Width, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		if ev.Viewport.Height, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
	case EventPointer:
		if ev.Target, err = d.ReadString(); err != nil {
			return nil, err
		}
		if ev.X, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
		if ev.Y, err = d.ReadFloat64(); err != nil {
			return nil, err
		}
	case EventUnmount, EventActivate, EventEnter, EventLeave, EventConfirm, EventCancel:
		if ev.Target, err = d.ReadString(); err != nil {
			return nil, err
		}
	default:
		return nil, ErrUnknownEvent
	}

	if !d.EOF() {
		return nil, ErrTrailingBytes
	}
	return ev, nil
}
