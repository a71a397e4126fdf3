package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated reports that a mandatory field read ran past the end of the
// buffer. It invalidates only the message being decoded; the connection
// that delivered it may continue.
var ErrTruncated = errors.New("protocol: truncated buffer")

// Reader is a deserialization cursor over a byte slice. Read methods record
// the first error encountered and return zero values thereafter, so a
// Deserialize implementation can read all of its fields and check Err once.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first read error, or nil.
func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes. Decoders use this to probe
// for optional trailing fields before attempting to read them.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("reading %s at offset %d: %w", what, r.pos, ErrTruncated)
	}
}

func (r *Reader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if r.Remaining() < n {
		r.fail(what)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() uint8 {
	b := r.take(1, "uint8")
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadBool reads a single byte as a boolean; any non-zero value is true.
func (r *Reader) ReadBool() bool {
	return r.ReadUint8() != 0
}

// ReadUint16 reads a fixed-width 16-bit integer.
func (r *Reader) ReadUint16() uint16 {
	b := r.take(2, "uint16")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadUint32 reads a fixed-width 32-bit integer.
func (r *Reader) ReadUint32() uint32 {
	b := r.take(4, "uint32")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadUint64 reads a fixed-width 64-bit integer.
func (r *Reader) ReadUint64() uint64 {
	b := r.take(8, "uint64")
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadInt32 reads a fixed-width 32-bit signed integer.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadFloat32 reads an IEEE-754 32-bit float.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadPackedUint32 reads a variable-length unsigned integer written by
// WritePackedUint32. A prefix byte above 251 is a decode error because it
// declares a payload wider than 32 bits.
func (r *Reader) ReadPackedUint32() uint32 {
	v := r.ReadPackedUint64()
	if r.err == nil && v > math.MaxUint32 {
		r.err = fmt.Errorf("protocol: packed uint32 overflow (value %d)", v)
		return 0
	}
	return uint32(v)
}

// ReadPackedUint64 reads a variable-length unsigned integer written by
// WritePackedUint64.
func (r *Reader) ReadPackedUint64() uint64 {
	a0 := r.ReadUint8()
	switch {
	case r.err != nil:
		return 0
	case a0 <= 240:
		return uint64(a0)
	case a0 <= 248:
		a1 := r.ReadUint8()
		return 240 + 256*(uint64(a0)-241) + uint64(a1)
	case a0 == 249:
		a1 := r.ReadUint8()
		a2 := r.ReadUint8()
		return 2288 + 256*uint64(a1) + uint64(a2)
	default:
		n := int(a0) - 247 // 250 → 3 bytes, 255 → 8 bytes
		b := r.take(n, "packed integer")
		if b == nil {
			return 0
		}
		var v uint64
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
}

// ReadCount reads a packed element count for a collection that follows in
// the buffer. Counts arrive from untrusted peers and decoders size their
// allocations from them; every encoded element occupies at least one byte,
// so a count exceeding the remaining bytes is a truncation error reported
// before any allocation happens.
func (r *Reader) ReadCount(what string) int {
	n := r.ReadPackedUint32()
	if r.err != nil {
		return 0
	}
	if uint64(n) > uint64(r.Remaining()) {
		r.fail(what)
		return 0
	}
	return int(n)
}

// ReadString reads a length-prefixed UTF-8 string.
func (r *Reader) ReadString() string {
	n := int(r.ReadUint16())
	b := r.take(n, "string")
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadBytes reads a length-prefixed byte blob. A zero length yields nil.
// The returned slice is a copy and does not alias the reader's buffer.
func (r *Reader) ReadBytes() []byte {
	n := int(r.ReadUint16())
	if n == 0 {
		return nil
	}
	b := r.take(n, "bytes")
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadVector3 reads three float32 components.
func (r *Reader) ReadVector3() Vector3 {
	return Vector3{X: r.ReadFloat32(), Y: r.ReadFloat32(), Z: r.ReadFloat32()}
}

// ReadQuaternion reads four float32 components.
func (r *Reader) ReadQuaternion() Quaternion {
	return Quaternion{X: r.ReadFloat32(), Y: r.ReadFloat32(), Z: r.ReadFloat32(), W: r.ReadFloat32()}
}

// ReadAssetHash reads the 128-bit asset identifier.
func (r *Reader) ReadAssetHash() AssetHash {
	var h AssetHash
	b := r.take(len(h), "asset hash")
	if b != nil {
		copy(h[:], b)
	}
	return h
}

// ReadNetworkID reads a network object identifier.
func (r *Reader) ReadNetworkID() NetworkID {
	return NetworkID(r.ReadPackedUint32())
}
