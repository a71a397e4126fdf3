package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPackedUint32Boundaries(t *testing.T) {
	cases := []struct {
		value uint32
		size  int
	}{
		{0, 1},
		{1, 1},
		{240, 1},
		{241, 2},
		{2287, 2},
		{2288, 3},
		{67823, 3},
		{67824, 4},
		{16777215, 4},
		{16777216, 5},
		{math.MaxUint32, 5},
	}
	for _, tc := range cases {
		w := NewWriter()
		w.WritePackedUint32(tc.value)
		assert.Equal(t, tc.size, w.Len(), "encoded size of %d", tc.value)

		r := NewReader(w.Bytes())
		got := r.ReadPackedUint32()
		require.NoError(t, r.Err())
		assert.Equal(t, tc.value, got)
		assert.Zero(t, r.Remaining())
	}
}

func TestPackedUint64Boundaries(t *testing.T) {
	cases := []struct {
		value uint64
		size  int
	}{
		{math.MaxUint32, 5},
		{math.MaxUint32 + 1, 6},
		{1099511627775, 6},
		{1099511627776, 7},
		{281474976710655, 7},
		{281474976710656, 8},
		{72057594037927935, 8},
		{72057594037927936, 9},
		{math.MaxUint64, 9},
	}
	for _, tc := range cases {
		w := NewWriter()
		w.WritePackedUint64(tc.value)
		assert.Equal(t, tc.size, w.Len(), "encoded size of %d", tc.value)

		r := NewReader(w.Bytes())
		got := r.ReadPackedUint64()
		require.NoError(t, r.Err())
		assert.Equal(t, tc.value, got)
	}
}

func TestPropertyPackedUint64RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint64().Draw(t, "v")
		w := NewWriter()
		w.WritePackedUint64(v)
		r := NewReader(w.Bytes())
		got := r.ReadPackedUint64()
		if r.Err() != nil {
			t.Fatalf("decoding %d: %v", v, r.Err())
		}
		if got != v {
			t.Fatalf("round trip of %d yielded %d", v, got)
		}
	})
}

func TestPropertyPackedSmallValuesAreSmall(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.Uint32Range(0, 240).Draw(t, "v")
		w := NewWriter()
		w.WritePackedUint32(v)
		if w.Len() != 1 {
			t.Fatalf("value %d took %d bytes", v, w.Len())
		}
	})
}

func TestPackedUint32RejectsWideEncoding(t *testing.T) {
	w := NewWriter()
	w.WritePackedUint64(math.MaxUint32 + 1)
	r := NewReader(w.Bytes())
	r.ReadPackedUint32()
	assert.Error(t, r.Err())
}

func TestReaderTruncation(t *testing.T) {
	r := NewReader([]byte{0x01})
	r.ReadUint32()
	assert.ErrorIs(t, r.Err(), ErrTruncated)

	// The error is sticky: subsequent reads return zero values.
	assert.Zero(t, r.ReadUint8())
	assert.Zero(t, r.ReadPackedUint64())
}

func TestPropertyPrimitiveSequenceRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		u8 := rapid.Uint8().Draw(t, "u8")
		u16 := rapid.Uint16().Draw(t, "u16")
		i32 := rapid.Int32().Draw(t, "i32")
		f := rapid.Float32().Draw(t, "f")
		s := rapid.StringN(-1, 128, -1).Draw(t, "s")
		b := rapid.Bool().Draw(t, "b")

		w := NewWriter()
		w.WriteUint8(u8)
		w.WriteUint16(u16)
		w.WriteInt32(i32)
		w.WriteFloat32(f)
		w.WriteString(s)
		w.WriteBool(b)

		r := NewReader(w.Bytes())
		if got := r.ReadUint8(); got != u8 {
			t.Fatalf("u8: got %d want %d", got, u8)
		}
		if got := r.ReadUint16(); got != u16 {
			t.Fatalf("u16: got %d want %d", got, u16)
		}
		if got := r.ReadInt32(); got != i32 {
			t.Fatalf("i32: got %d want %d", got, i32)
		}
		got := r.ReadFloat32()
		if got != f && !(math.IsNaN(float64(got)) && math.IsNaN(float64(f))) {
			t.Fatalf("f32: got %v want %v", got, f)
		}
		if got := r.ReadString(); got != s {
			t.Fatalf("string: got %q want %q", got, s)
		}
		if got := r.ReadBool(); got != b {
			t.Fatalf("bool: got %v want %v", got, b)
		}
		if r.Err() != nil {
			t.Fatalf("sequence read: %v", r.Err())
		}
		if r.Remaining() != 0 {
			t.Fatalf("%d bytes left over", r.Remaining())
		}
	})
}

func TestReadCountRejectsCountBeyondBuffer(t *testing.T) {
	// Packed 0xFFFFFFFF with no element bytes behind it. Every element
	// needs at least one byte, so the count itself is the truncation.
	r := NewReader([]byte{251, 0xFF, 0xFF, 0xFF, 0xFF})
	assert.Zero(t, r.ReadCount("slots"))
	assert.ErrorIs(t, r.Err(), ErrTruncated)
}

func TestReadCountAcceptsPlausibleCount(t *testing.T) {
	r := NewReader([]byte{2, 0xAA, 0xBB})
	assert.Equal(t, 2, r.ReadCount("slots"))
	require.NoError(t, r.Err())
	assert.Equal(t, 2, r.Remaining())
}
