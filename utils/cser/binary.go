package cser

import (
	"github.com/rony4d/go-opera-badge/utils/fast"
)

// binary.go bridges the canonical primitives to Go's []byte encoding
// interfaces. Marshaling runs a user callback against a fresh Writer;
// unmarshaling wraps the callback with panic recovery (the fast buffers and
// the canonical checks panic on bad input) and enforces that the whole
// input was consumed.

// MarshalBinaryAdapter serializes via the provided callback and returns the
// resulting byte stream.
func MarshalBinaryAdapter(marshalCser func(*Writer) error) ([]byte, error) {
	w := NewWriter()
	if err := marshalCser(w); err != nil {
		return nil, err
	}
	return w.BytesW.Bytes(), nil
}

// UnmarshalBinaryAdapter deserializes raw via the provided callback.
// Truncated input surfaces as ErrMalformedEncoding; unread trailing bytes
// surface as ErrNonCanonicalEncoding.
func UnmarshalBinaryAdapter(raw []byte, unmarshalCser func(*Reader) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if recoveredErr, ok := r.(error); ok {
				switch recoveredErr {
				case ErrNonCanonicalEncoding, ErrTooLargeAlloc:
					err = recoveredErr
					return
				}
			}
			// out-of-range reads from the fast buffers land here
			err = ErrMalformedEncoding
		}
	}()

	reader := &Reader{BytesR: fast.NewReader(raw)}
	if err := unmarshalCser(reader); err != nil {
		return err
	}

	if !reader.BytesR.Empty() {
		return ErrNonCanonicalEncoding
	}
	return nil
}
