// Package protocol implements the length-framed binary message codec used
// between the lobby server, connected game clients, and game-host processes.
// All multi-byte fields are little-endian. Unsigned integers that are usually
// small (account ids, counts, enum-backed fields) use a variable-length
// "packed" encoding so that small values occupy fewer bytes.
package protocol

import (
	"encoding/binary"
	"math"
)

// Writer is an append-only serialization cursor. Write methods never fail;
// the buffer grows as needed.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the serialized bytes written so far. The returned slice
// aliases the writer's buffer and must not be retained across further writes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteBool writes a boolean as a single 0/1 byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

// WriteUint16 writes a fixed-width 16-bit integer.
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 writes a fixed-width 32-bit integer.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteUint64 writes a fixed-width 64-bit integer.
func (w *Writer) WriteUint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// WriteInt32 writes a fixed-width 32-bit signed integer.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteFloat32 writes an IEEE-754 32-bit float.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WritePackedUint32 writes v in the variable-length encoding: values up to
// 240 take one byte, up to 2287 two bytes, up to 67823 three bytes, then
// four and five bytes for the remaining 32-bit range.
//
// Postcondition: ReadPackedUint32 on the written bytes yields v.
func (w *Writer) WritePackedUint32(v uint32) {
	switch {
	case v <= 240:
		w.buf = append(w.buf, byte(v))
	case v <= 2287:
		w.buf = append(w.buf, byte((v-240)/256+241), byte((v-240)%256))
	case v <= 67823:
		w.buf = append(w.buf, 249, byte((v-2288)/256), byte((v-2288)%256))
	case v <= 16777215:
		w.buf = append(w.buf, 250, byte(v), byte(v>>8), byte(v>>16))
	default:
		w.buf = append(w.buf, 251, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
}

// WritePackedUint64 writes v in the variable-length encoding, extending the
// 32-bit scheme with prefixes 252-255 for five to eight payload bytes.
//
// Postcondition: ReadPackedUint64 on the written bytes yields v.
func (w *Writer) WritePackedUint64(v uint64) {
	switch {
	case v <= 4294967295:
		w.WritePackedUint32(uint32(v))
	case v <= 1099511627775:
		w.buf = append(w.buf, 252, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32))
	case v <= 281474976710655:
		w.buf = append(w.buf, 253, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40))
	case v <= 72057594037927935:
		w.buf = append(w.buf, 254, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48))
	default:
		w.buf = append(w.buf, 255, byte(v), byte(v>>8), byte(v>>16), byte(v>>24), byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
	}
}

// WriteString writes a length-prefixed UTF-8 string (u16 length + bytes).
//
// Precondition: len(v) must fit in a uint16.
func (w *Writer) WriteString(v string) {
	w.WriteUint16(uint16(len(v)))
	w.buf = append(w.buf, v...)
}

// WriteBytes writes a length-prefixed byte blob (u16 length + bytes).
//
// Precondition: len(v) must fit in a uint16.
func (w *Writer) WriteBytes(v []byte) {
	w.WriteUint16(uint16(len(v)))
	w.buf = append(w.buf, v...)
}

// WriteVector3 writes three float32 components.
func (w *Writer) WriteVector3(v Vector3) {
	w.WriteFloat32(v.X)
	w.WriteFloat32(v.Y)
	w.WriteFloat32(v.Z)
}

// WriteQuaternion writes four float32 components.
func (w *Writer) WriteQuaternion(q Quaternion) {
	w.WriteFloat32(q.X)
	w.WriteFloat32(q.Y)
	w.WriteFloat32(q.Z)
	w.WriteFloat32(q.W)
}

// WriteAssetHash writes the 128-bit asset identifier as 16 raw bytes.
func (w *Writer) WriteAssetHash(h AssetHash) {
	w.buf = append(w.buf, h[:]...)
}

// WriteNetworkID writes a network object identifier as a packed uint32.
func (w *Writer) WriteNetworkID(id NetworkID) {
	w.WritePackedUint32(uint32(id))
}
