package protocol

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing ControlType = 0x01
	ControlPong ControlType = 0x02
)

// String returns the control type name.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	default:
		return "Unknown"
	}
}

// Control is a ping or pong carrying the sender's clock in Unix milliseconds.
type Control struct {
	Type      ControlType
	Timestamp uint64
}

// EncodeControl encodes c as a frame payload.
func EncodeControl(c Control) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	e.WriteUint64(c.Timestamp)
	return e.Bytes()
}

// DecodeControl decodes a control payload.
func DecodeControl(data []byte) (Control, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return Control{}, err
	}
	ts, err := d.ReadUint64()
	if err != nil {
		return Control{}, err
	}
	ct := ControlType(t)
	if ct != ControlPing && ct != ControlPong {
		return Control{}, ErrUnknownControl
	}
	return Control{Type: ct, Timestamp: ts}, nil
}
