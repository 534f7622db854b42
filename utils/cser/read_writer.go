// Package cser implements a canonical serializer for persisted sale state.
//
// The format is a single byte stream of primitives:
//   - unsigned integers: reverse varint (7 data bits per byte, the MSB marks
//     the final byte), rejected if not minimally packed
//   - booleans: one byte, strictly 0 or 1
//   - byte slices: varint length prefix followed by the raw bytes
//   - big integers: the big-endian magnitude as a byte slice, with no
//     leading zero byte permitted
//
// Every value has exactly one valid encoding. Decoding is strict: padding,
// oversized widths, non-zero boolean bytes and trailing garbage are all
// rejected, so equal states always produce byte-identical snapshots.
package cser

import (
	"errors"
	"math/big"

	"github.com/rony4d/go-opera-badge/utils/fast"
)

// Standard errors for encoding validation.
var (
	ErrNonCanonicalEncoding = errors.New("non canonical encoding: data not packed minimally")
	ErrMalformedEncoding    = errors.New("malformed encoding: structure invalid or truncated")
	ErrTooLargeAlloc        = errors.New("too large allocation: decoded size exceeds limits")
)

// MaxAlloc limits decoded byte-slice sizes to prevent OOM on corrupt input.
const MaxAlloc = 1024 * 1024

// maxBigIntLen bounds the magnitude of decoded big integers (enough for any
// realistic wei amount, tiny compared to MaxAlloc).
const maxBigIntLen = 512

// Writer serializes primitives into a byte stream.
type Writer struct {
	BytesW *fast.Writer
}

// Reader deserializes primitives from a byte stream.
type Reader struct {
	BytesR *fast.Reader
}

// NewWriter creates a ready-to-use canonical writer.
func NewWriter() *Writer {
	return &Writer{
		BytesW: fast.NewWriter(make([]byte, 0, 256)),
	}
}

// writeUint64Compact encodes a reverse varint: 7 data bits per byte, low
// bits first; the MSB set marks the final byte.
func writeUint64Compact(bytesW *fast.Writer, v uint64) {
	for {
		chunk := v & 0x7f
		v >>= 7
		if v == 0 {
			chunk |= 0x80 // final byte
		}
		bytesW.WriteByte(byte(chunk))
		if v == 0 {
			return
		}
	}
}

// readUint64Compact decodes a reverse varint and enforces minimal packing:
// a multi-byte encoding whose final byte carries no data bits is illegal.
func readUint64Compact(bytesR *fast.Reader) uint64 {
	v := uint64(0)
	for i := 0; ; i++ {
		chunk := uint64(bytesR.ReadByte())
		stop := chunk&0x80 != 0
		word := chunk & 0x7f
		if i > 9 || (i == 9 && word > 1) {
			panic(ErrMalformedEncoding) // would overflow uint64
		}
		v |= word << uint(7*i)
		if stop {
			if i > 0 && word == 0 {
				panic(ErrNonCanonicalEncoding)
			}
			return v
		}
	}
}

// U8 writes a single raw byte.
func (w *Writer) U8(v uint8) {
	w.BytesW.WriteByte(v)
}

// U8 reads a single raw byte.
func (r *Reader) U8() uint8 {
	return r.BytesR.ReadByte()
}

// U32 writes a uint32 as a varint.
func (w *Writer) U32(v uint32) {
	writeUint64Compact(w.BytesW, uint64(v))
}

// U32 reads a varint and rejects values outside the uint32 range.
func (r *Reader) U32() uint32 {
	v := readUint64Compact(r.BytesR)
	if v > 0xffffffff {
		panic(ErrMalformedEncoding)
	}
	return uint32(v)
}

// U64 writes a uint64 as a varint.
func (w *Writer) U64(v uint64) {
	writeUint64Compact(w.BytesW, v)
}

// U64 reads a varint uint64.
func (r *Reader) U64() uint64 {
	return readUint64Compact(r.BytesR)
}

// Bool writes a boolean as a single strict 0/1 byte.
func (w *Writer) Bool(v bool) {
	if v {
		w.BytesW.WriteByte(1)
		return
	}
	w.BytesW.WriteByte(0)
}

// Bool reads a boolean; any byte other than 0 or 1 is non-canonical.
func (r *Reader) Bool() bool {
	b := r.BytesR.ReadByte()
	if b > 1 {
		panic(ErrNonCanonicalEncoding)
	}
	return b == 1
}

// FixedBytes writes raw bytes with no length prefix. The reader must know
// the exact length (addresses, hashes).
func (w *Writer) FixedBytes(v []byte) {
	w.BytesW.Write(v)
}

// FixedBytes fills v with the next len(v) bytes.
func (r *Reader) FixedBytes(v []byte) {
	copy(v, r.BytesR.Read(len(v)))
}

// SliceBytes writes a variable-length byte slice as [varint length][bytes].
func (w *Writer) SliceBytes(v []byte) {
	w.U64(uint64(len(v)))
	w.FixedBytes(v)
}

// SliceBytes reads a variable-length byte slice, bounded by maxLen.
func (r *Reader) SliceBytes(maxLen int) []byte {
	size := r.U64()
	if size > uint64(maxLen) || size > MaxAlloc {
		panic(ErrTooLargeAlloc)
	}
	buf := make([]byte, size)
	r.FixedBytes(buf)
	return buf
}

// BigInt writes a non-negative big integer as its big-endian magnitude.
// Zero is encoded as the empty slice. Sign is not preserved; amounts in the
// sale state are always non-negative.
func (w *Writer) BigInt(v *big.Int) {
	magnitude := []byte{}
	if v != nil && v.Sign() != 0 {
		magnitude = v.Bytes()
	}
	w.SliceBytes(magnitude)
}

// BigInt reads a non-negative big integer, rejecting padded magnitudes.
func (r *Reader) BigInt() *big.Int {
	buf := r.SliceBytes(maxBigIntLen)
	if len(buf) == 0 {
		return new(big.Int)
	}
	if buf[0] == 0 {
		panic(ErrNonCanonicalEncoding)
	}
	return new(big.Int).SetBytes(buf)
}
