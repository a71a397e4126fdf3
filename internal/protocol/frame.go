package protocol

import (
	"fmt"
)

// Frame layout: u16 payload length, u16 message code, payload bytes.
// The prefix is the payload length only, excluding the 4-byte header.
const (
	frameHeaderSize = 4
	// MaxPayloadSize is the largest payload a single frame can carry.
	MaxPayloadSize = 0xFFFF
)

// EncodeFrame serializes msg and wraps it in a length-framed envelope using
// the code msg is registered under for the given direction.
func EncodeFrame(reg *Registry, d Direction, msg Message) ([]byte, error) {
	code, ok := reg.CodeFor(d, msg)
	if !ok {
		return nil, fmt.Errorf("protocol: %T is not registered for %s messages", msg, d)
	}
	w := NewWriter()
	msg.Serialize(w)
	payload := w.Bytes()
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("protocol: %T payload is %d bytes, exceeds frame limit", msg, len(payload))
	}

	out := NewWriter()
	out.WriteUint16(uint16(len(payload)))
	out.WriteUint16(code)
	frame := make([]byte, 0, frameHeaderSize+len(payload))
	frame = append(frame, out.Bytes()...)
	frame = append(frame, payload...)
	return frame, nil
}

// DecodeFrame parses one framed message produced by EncodeFrame and
// dispatches it through the registry. Trailing bytes beyond the declared
// payload length are rejected as a framing error.
func DecodeFrame(reg *Registry, d Direction, frame []byte) (Message, error) {
	r := NewReader(frame)
	length := int(r.ReadUint16())
	code := r.ReadUint16()
	if err := r.Err(); err != nil {
		return nil, &DecodeError{Code: code, Err: err}
	}
	if r.Remaining() != length {
		return nil, &DecodeError{Code: code, Err: fmt.Errorf("frame declares %d payload bytes, %d present", length, r.Remaining())}
	}
	return reg.Decode(d, code, frame[frameHeaderSize:])
}
