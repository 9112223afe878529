// Package binary provides bounds-checked binary reading primitives.
package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SafeReader wraps io.ReaderAt with bounds checking and error messages
// that name what was being read.
type SafeReader struct {
	r    io.ReaderAt
	path string
	size int64
}

// NewSafeReader creates a new SafeReader.
func NewSafeReader(r io.ReaderAt, size int64, path string) *SafeReader {
	return &SafeReader{
		r:    r,
		size: size,
		path: path,
	}
}

// Path returns the file path associated with this reader.
func (sr *SafeReader) Path() string {
	return sr.path
}

// Size returns the total size of the underlying file.
func (sr *SafeReader) Size() int64 {
	return sr.size
}

// ReadAt reads bytes at the given offset with context for error messages.
func (sr *SafeReader) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= sr.size {
		return fmt.Errorf("%s: offset %d out of bounds (file size: %d) while reading %s",
			sr.path, off, sr.size, what)
	}

	if off+int64(len(b)) > sr.size {
		return fmt.Errorf("%s: read of %d bytes at offset %d would exceed file size %d while reading %s",
			sr.path, len(b), off, sr.size, what)
	}

	n, err := sr.r.ReadAt(b, off)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%s: failed to read %s at offset %d: %w", sr.path, what, off, err)
	}

	if n < len(b) {
		return fmt.Errorf("%s: short read for %s at offset %d: got %d bytes, expected %d",
			sr.path, what, off, n, len(b))
	}

	return nil
}

// Uint is the set of unsigned integer widths the generic reads support.
type Uint interface {
	uint8 | uint16 | uint32 | uint64
}

func sizeOf[T Uint]() int64 {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	default:
		return 8
	}
}

func decode[T Uint](buf []byte, order binary.ByteOrder) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return T(buf[0])
	case uint16:
		return T(order.Uint16(buf))
	case uint32:
		return T(order.Uint32(buf))
	default:
		return T(order.Uint64(buf))
	}
}

// ReadBE reads a big-endian value of type T from the given offset.
func ReadBE[T Uint](sr *SafeReader, off int64, what string) (T, error) {
	return read[T](sr, off, what, binary.BigEndian)
}

// ReadLE reads a little-endian value of type T from the given offset.
func ReadLE[T Uint](sr *SafeReader, off int64, what string) (T, error) {
	return read[T](sr, off, what, binary.LittleEndian)
}

func read[T Uint](sr *SafeReader, off int64, what string, order binary.ByteOrder) (T, error) {
	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		var zero T
		return zero, err
	}
	return decode[T](buf, order), nil
}

// Reader provides sequential reading with automatic offset tracking.
type Reader struct {
	*SafeReader
	offset int64
}

// NewReader creates a new Reader starting at the given offset.
func NewReader(sr *SafeReader, offset int64) *Reader {
	return &Reader{
		SafeReader: sr,
		offset:     offset,
	}
}

// ReadValueBE reads a big-endian value and advances the offset.
func ReadValueBE[T Uint](r *Reader, what string) (T, error) {
	return readValue[T](r, what, binary.BigEndian)
}

// ReadValueLE reads a little-endian value and advances the offset.
func ReadValueLE[T Uint](r *Reader, what string) (T, error) {
	return readValue[T](r, what, binary.LittleEndian)
}

func readValue[T Uint](r *Reader, what string, order binary.ByteOrder) (T, error) {
	val, err := read[T](r.SafeReader, r.offset, what, order)
	if err != nil {
		var zero T
		return zero, err
	}
	r.offset += sizeOf[T]()
	return val, nil
}

// ReadBytes reads length bytes and advances the offset.
func (r *Reader) ReadBytes(length int, what string) ([]byte, error) {
	buf := make([]byte, length)
	if err := r.SafeReader.ReadAt(buf, r.offset, what); err != nil {
		return nil, err
	}
	r.offset += int64(length)
	return buf, nil
}

// ReadString reads a string of the given length and advances the offset.
func (r *Reader) ReadString(length int, what string) (string, error) {
	buf, err := r.ReadBytes(length, what)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// Skip advances the offset by n bytes.
func (r *Reader) Skip(n int64) {
	r.offset += n
}

// Seek moves the offset to an absolute position.
func (r *Reader) Seek(off int64) {
	r.offset = off
}

// Offset returns the current offset.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Remaining returns the number of bytes between the offset and the end of
// the file.
func (r *Reader) Remaining() int64 {
	return r.SafeReader.size - r.offset
}

// ChainReader allows chaining multiple reads with deferred error checking.
type ChainReader struct {
	*Reader
	err error
}

// NewChainReader creates a new ChainReader.
func NewChainReader(r *Reader) *ChainReader {
	return &ChainReader{Reader: r}
}

// ChainBE reads a big-endian value, accumulating any error.
func ChainBE[T Uint](cr *ChainReader, what string) T {
	return chain[T](cr, what, binary.BigEndian)
}

// ChainLE reads a little-endian value, accumulating any error.
func ChainLE[T Uint](cr *ChainReader, what string) T {
	return chain[T](cr, what, binary.LittleEndian)
}

func chain[T Uint](cr *ChainReader, what string, order binary.ByteOrder) T {
	var zero T
	if cr.err != nil {
		return zero
	}
	val, err := readValue[T](cr.Reader, what, order)
	if err != nil {
		cr.err = err
		return zero
	}
	return val
}

// Bytes reads raw bytes, accumulating any error.
func (cr *ChainReader) Bytes(length int, what string) []byte {
	if cr.err != nil {
		return nil
	}
	buf, err := cr.Reader.ReadBytes(length, what)
	if err != nil {
		cr.err = err
		return nil
	}
	return buf
}

// Error returns the accumulated error, if any.
func (cr *ChainReader) Error() error {
	return cr.err
}
