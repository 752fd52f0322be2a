package protocol

import (
	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/placement"
)

const (
	updateOpen    = 0x01
	updateVisible = 0x02
)

// EncodeUpdate encodes a widget update as a frame payload.
//
//	[Widget: len-prefixed][Kind: byte][State: byte][Side: len-prefixed]
//	[X Y ArrowX ArrowY Width Height: float64 each]
func EncodeUpdate(u overlay.Update) []byte {
	e := NewEncoder()
	e.WriteString(u.WidgetID)
	e.WriteByte(byte(u.Kind))
	var state byte
	if u.Open {
		state |= updateOpen
	}
	if u.Visible {
		state |= updateVisible
	}
	e.WriteByte(state)
	e.WriteString(string(u.Side))
	e.WriteFloat64(u.Position.X)
	e.WriteFloat64(u.Position.Y)
	e.WriteFloat64(u.Arrow.X)
	e.WriteFloat64(u.Arrow.Y)
	e.WriteFloat64(u.Size.Width)
	e.WriteFloat64(u.Size.Height)
	return e.Bytes()
}

// DecodeUpdate decodes an update payload.
func DecodeUpdate(data []byte) (overlay.Update, error) {
	var u overlay.Update
	d := NewDecoder(data)

	id, err := d.ReadString()
	if err != nil {
		return u, err
	}
	kind, err := d.ReadByte()
	if err != nil {
		return u, err
	}
	state, err := d.ReadByte()
	if err != nil {
		return u, err
	}
	side, err := d.ReadString()
	if err != nil {
		return u, err
	}
	var f [6]float64
	for i := range f {
		if f[i], err = d.ReadFloat64(); err != nil {
			return u, err
		}
	}
	if !d.EOF() {
		return u, ErrTrailingBytes
	}

	u = overlay.Update{
		WidgetID: id,
		Kind:     overlay.Kind(kind),
		Open:     state&updateOpen != 0,
		Visible:  state&updateVisible != 0,
		Side:     placement.Side(side),
		Position: placement.Point{X: f[0], Y: f[1]},
		Arrow:    placement.Point{X: f[2], Y: f[3]},
		Size:     placement.Size{Width: f[4], Height: f[5]},
	}
	return u, nil
}
