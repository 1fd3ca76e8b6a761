package core

// streaming.go provides the readers an import stream passes through before
// it reaches encoding/csv:
//
//   - BOMSkippingReader drops a leading UTF-8 BOM written by Windows tools
//   - UTF8Validator fails the read on the first invalid byte sequence
//   - CountingReader tracks bytes read for the import record
//
// Use WrapForImport to apply them in the correct order.

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// DecodeError reports the first invalid UTF-8 sequence in an import stream.
type DecodeError struct {
	Offset int64 // byte offset after the BOM, if any
	Byte   byte
}

func (e *DecodeError) Error() string {
	return "utf-8 decode: " + e.Message()
}

// Message is the client-facing description.
func (e *DecodeError) Message() string {
	return fmt.Sprintf("invalid byte 0x%02x at offset %d", e.Byte, e.Offset)
}

// UTF8Validator passes bytes through unchanged and fails with a *DecodeError
// at the first invalid sequence. Bytes before the bad sequence are still
// delivered. A multi-byte rune split across reads is held back until the
// next read completes it.
type UTF8Validator struct {
	reader io.Reader
	buf    []byte
	ready  []byte // validated, not yet returned
	tail   []byte // incomplete rune carried into the next fill
	offset int64  // bytes validated so far
	err    error  // returned once ready is drained
}

// NewUTF8Validator creates a validating reader.
func NewUTF8Validator(r io.Reader) *UTF8Validator {
	return &UTF8Validator{
		reader: r,
		buf:    make([]byte, 32*1024),
		tail:   make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (v *UTF8Validator) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(v.ready) == 0 {
		if v.err != nil {
			return 0, v.err
		}
		v.fill()
	}
	n := copy(p, v.ready)
	v.ready = v.ready[n:]
	return n, nil
}

func (v *UTF8Validator) fill() {
	nt := copy(v.buf, v.tail)
	n, err := v.reader.Read(v.buf[nt:])
	data := v.buf[:nt+n]

	valid, bad := scanUTF8(data, err == io.EOF)
	if bad >= 0 {
		v.ready = data[:bad]
		v.err = &DecodeError{Offset: v.offset + int64(bad), Byte: data[bad]}
		v.offset += int64(bad)
		return
	}

	v.ready = data[:valid]
	v.tail = append(v.tail[:0], data[valid:]...)
	v.offset += int64(valid)
	if err != nil {
		v.err = err
	}
}

// scanUTF8 returns the length of the complete valid prefix of data and the
// index of the first invalid byte (-1 when none). When atEOF is false, an
// incomplete rune at the end is not treated as invalid.
func scanUTF8(data []byte, atEOF bool) (valid int, bad int) {
	for i := 0; i < len(data); {
		b := data[i]
		if b < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(data[i:]) {
				return i, -1
			}
			return i, i
		}
		i += size
	}
	return len(data), -1
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
// The UTF-8 BOM is 0xEF 0xBB 0xBF and is commonly added by Windows programs.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	bufData    []byte
	err        error
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n == 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			n = 0
		}
		r.bufData = r.buf[:n]
		r.err = err
	}

	if len(r.bufData) > 0 {
		copied := copy(p, r.bufData)
		r.bufData = r.bufData[copied:]
		if len(r.bufData) == 0 && r.err != nil {
			return copied, r.err
		}
		return copied, nil
	}

	if r.err != nil {
		return 0, r.err
	}

	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForImport wraps a reader with BOM skipping, UTF-8 validation and byte
// counting.
//
// The order matters: the BOM is stripped before validation so offsets in a
// DecodeError refer to the content the user sees, and counting wraps the
// result.
func WrapForImport(r io.Reader) *CountingReader {
	return NewCountingReader(NewUTF8Validator(NewBOMSkippingReader(r)))
}
