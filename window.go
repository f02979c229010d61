package inei

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Window is a bounds-checked view over a contiguous byte range. It carries a
// mutable read cursor, a byte order used for all multi-byte reads, and the
// absolute offset of its first byte within the original buffer. Windows never
// own or mutate the underlying storage; any number of windows may alias the
// same bytes.
//
// Every read and every sub-window creation is checked against the window's own
// length. A failed read returns ErrOutOfRange and leaves the cursor where it
// was, so adversarial offsets embedded in a file can never cause a read
// outside the window.
type Window struct {
	data  []byte
	base  int // absolute offset of data[0] in the original buffer
	pos   int
	order binary.ByteOrder
}

// NewWindow wraps an entire buffer in a window with base offset 0.
func NewWindow(data []byte, order binary.ByteOrder) *Window {
	return &Window{data: data, order: order}
}

// take returns n bytes at the cursor without copying and advances the cursor.
// The returned slice aliases the window's storage.
func (w *Window) take(n int) ([]byte, error) {
	if n < 0 || n > len(w.data)-w.pos {
		return nil, fmt.Errorf("%w: read of %d bytes at %d in window of %d", ErrOutOfRange, n, w.pos, len(w.data))
	}
	b := w.data[w.pos : w.pos+n]
	w.pos += n

	return b, nil
}

// Seek sets the cursor to an absolute position within the window.
func (w *Window) Seek(pos int) error {
	if pos < 0 || pos > len(w.data) {
		return fmt.Errorf("%w: seek to %d in window of %d", ErrOutOfRange, pos, len(w.data))
	}
	w.pos = pos

	return nil
}

// Skip advances the cursor by n bytes. Negative n moves it backwards.
func (w *Window) Skip(n int) error {
	return w.Seek(w.pos + n)
}

// Branch returns a new window over [start, start+length) of this window's
// range, independent of the live cursor. When length is omitted the new
// window extends to the end of this one. Branching never copies bytes; the
// child's base offset is this window's base plus start.
func (w *Window) Branch(start int, length ...int) (*Window, error) {
	n := len(w.data) - start
	if len(length) > 0 {
		n = length[0]
	}
	if start < 0 || n < 0 || start > len(w.data)-n {
		return nil, fmt.Errorf("%w: branch [%d:%d) of window of %d", ErrOutOfRange, start, start+n, len(w.data))
	}

	return &Window{data: w.data[start : start+n], base: w.base + start, order: w.order}, nil
}

// Slice copies out n bytes from the cursor and advances it.
func (w *Window) Slice(n int) ([]byte, error) {
	b, err := w.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)

	return out, nil
}

// ReadString copies n bytes from the cursor and returns them as a string.
func (w *Window) ReadString(n int) (string, error) {
	b, err := w.take(n)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// ReadUint8 reads one unsigned byte.
func (w *Window) ReadUint8() (uint8, error) {
	b, err := w.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// ReadInt8 reads one signed byte.
func (w *Window) ReadInt8() (int8, error) {
	v, err := w.ReadUint8()

	return int8(v), err
}

// ReadUint16 reads a 16-bit unsigned integer in the window's byte order.
func (w *Window) ReadUint16() (uint16, error) {
	b, err := w.take(2)
	if err != nil {
		return 0, err
	}

	return w.order.Uint16(b), nil
}

// ReadInt16 reads a 16-bit signed integer in the window's byte order.
func (w *Window) ReadInt16() (int16, error) {
	v, err := w.ReadUint16()

	return int16(v), err
}

// ReadUint32 reads a 32-bit unsigned integer in the window's byte order.
func (w *Window) ReadUint32() (uint32, error) {
	b, err := w.take(4)
	if err != nil {
		return 0, err
	}

	return w.order.Uint32(b), nil
}

// ReadInt32 reads a 32-bit signed integer in the window's byte order.
func (w *Window) ReadInt32() (int32, error) {
	v, err := w.ReadUint32()

	return int32(v), err
}

// ReadFloat32 reads an IEEE 754 single-precision float in the window's byte order.
func (w *Window) ReadFloat32() (float32, error) {
	v, err := w.ReadUint32()

	return math.Float32frombits(v), err
}

// ReadFloat64 reads an IEEE 754 double-precision float in the window's byte order.
func (w *Window) ReadFloat64() (float64, error) {
	b, err := w.take(8)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(w.order.Uint64(b)), nil
}

// Mark snapshots the current cursor so the same spot can be re-branched later,
// independent of any cursor movement made in the meantime.
type Mark struct {
	// Offset is the cursor position within the window at the time of the mark.
	Offset int

	w *Window
}

// Mark returns a snapshot of the current cursor.
func (w *Window) Mark() Mark {
	return Mark{Offset: w.pos, w: w}
}

// Reopen branches a new window starting at the marked offset plus delta
// (default 0), extending to the end of the marked window.
func (m Mark) Reopen(delta ...int) (*Window, error) {
	d := 0
	if len(delta) > 0 {
		d = delta[0]
	}

	return m.w.Branch(m.Offset + d)
}

// Tell reports the current cursor position within the window.
func (w *Window) Tell() int { return w.pos }

// Remaining reports the number of unread bytes after the cursor.
func (w *Window) Remaining() int { return len(w.data) - w.pos }

// Size reports the total length of the window.
func (w *Window) Size() int { return len(w.data) }

// BaseOffset reports the absolute offset of the window's first byte within
// the original buffer.
func (w *Window) BaseOffset() int { return w.base }

// ToAbsolute converts a window-local offset (default 0) to an absolute offset
// within the original buffer.
func (w *Window) ToAbsolute(local ...int) int {
	n := 0
	if len(local) > 0 {
		n = local[0]
	}

	return w.base + n
}

// ByteOrder returns the byte order used for multi-byte reads.
func (w *Window) ByteOrder() binary.ByteOrder { return w.order }

// SetByteOrder changes the byte order used for multi-byte reads.
func (w *Window) SetByteOrder(order binary.ByteOrder) { w.order = order }

// FlipByteOrder switches between little- and big-endian reads.
func (w *Window) FlipByteOrder() {
	if w.order == binary.ByteOrder(binary.LittleEndian) {
		w.order = binary.BigEndian
	} else {
		w.order = binary.LittleEndian
	}
}
