// Package protocol implements the binary wire protocol spoken between the
// dashboard client and a live overlay session.
//
// Events flow from client to server (element mounts, layout measurements,
// viewport size, pointer-downs and widget actions); updates flow from server
// to client (where each widget must be drawn).
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameEvent (0x01): Client → Server event
//   - FrameUpdate (0x02): Server → Client widget update
//   - FrameControl (0x03): Ping and pong
//   - FrameError (0x05): Error message
//
// # Encoding
//
//   - Varint: sequence numbers and string lengths (protobuf-style)
//   - Length-prefixed: strings are prefixed with a varint length
//   - Big-endian: fixed-width integers and IEEE 754 float64 coordinates
//
// Example pointer event:
//
//	[Seq: varint][Type: 0x05][Target: len-prefixed][X: float64][Y: float64]
package protocol
