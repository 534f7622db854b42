// Package fast provides minimal cursor-based byte buffers for linear
// serialization. The Reader performs no bounds checking of its own: reading
// past the end panics with a slice bounds error, which the codec layer above
// converts into a malformed-encoding error. Safe only for internal, trusted
// serialization code.
package fast

// Writer accumulates bytes by appending to a slice.
type Writer struct {
	buf []byte
}

// Reader consumes a byte slice by advancing an offset cursor.
type Reader struct {
	buf    []byte
	offset int
}

// NewWriter creates a Writer appending to the provided initial slice.
// Callers usually pass make([]byte, 0, capacity) to pre-allocate.
func NewWriter(bb []byte) *Writer {
	return &Writer{buf: bb}
}

// NewReader creates a Reader consuming the provided byte slice.
func NewReader(bb []byte) *Reader {
	return &Reader{buf: bb}
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(v byte) {
	w.buf = append(w.buf, v)
}

// Write appends a slice of bytes.
func (w *Writer) Write(v []byte) {
	w.buf = append(w.buf, v...)
}

// Bytes returns the accumulated content.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Read consumes and returns the next n bytes. The returned slice shares
// memory with the underlying buffer. Panics if fewer than n bytes remain.
func (r *Reader) Read(n int) []byte {
	res := r.buf[r.offset : r.offset+n]
	r.offset += n
	return res
}

// ReadByte consumes and returns a single byte. Panics if the buffer is empty.
func (r *Reader) ReadByte() byte {
	res := r.buf[r.offset]
	r.offset++
	return res
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.offset
}

// Empty reports whether the Reader has consumed the whole buffer.
func (r *Reader) Empty() bool {
	return r.offset == len(r.buf)
}
