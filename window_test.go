package inei

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// TestWindowReadRoundTrip verifies that values encoded with a known byte
// order read back identically through a window of that order, for every
// fixed width.
func TestWindowReadRoundTrip(t *testing.T) {
	orders := map[string]binary.ByteOrder{
		"little-endian": binary.LittleEndian,
		"big-endian":    binary.BigEndian,
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			buf.WriteByte(0xAB)
			buf.WriteByte(0x85) // -123 as int8
			b2 := make([]byte, 2)
			order.PutUint16(b2, 0xBEEF)
			buf.Write(b2)
			order.PutUint16(b2, uint16(0x10000-12345)) // -12345 as int16
			buf.Write(b2)
			b4 := make([]byte, 4)
			order.PutUint32(b4, 0xDEADBEEF)
			buf.Write(b4)
			order.PutUint32(b4, uint32(0x100000000-123456789)) // negative int32
			buf.Write(b4)
			order.PutUint32(b4, math.Float32bits(1.5))
			buf.Write(b4)
			b8 := make([]byte, 8)
			order.PutUint64(b8, math.Float64bits(-2.25))
			buf.Write(b8)

			w := NewWindow(buf.Bytes(), order)

			if v, err := w.ReadUint8(); err != nil || v != 0xAB {
				t.Fatalf("ReadUint8 = %v, %v", v, err)
			}
			if v, err := w.ReadInt8(); err != nil || v != -123 {
				t.Fatalf("ReadInt8 = %v, %v", v, err)
			}
			if v, err := w.ReadUint16(); err != nil || v != 0xBEEF {
				t.Fatalf("ReadUint16 = %v, %v", v, err)
			}
			if v, err := w.ReadInt16(); err != nil || v != -12345 {
				t.Fatalf("ReadInt16 = %v, %v", v, err)
			}
			if v, err := w.ReadUint32(); err != nil || v != 0xDEADBEEF {
				t.Fatalf("ReadUint32 = %v, %v", v, err)
			}
			if v, err := w.ReadInt32(); err != nil || v != -123456789 {
				t.Fatalf("ReadInt32 = %v, %v", v, err)
			}
			if v, err := w.ReadFloat32(); err != nil || v != 1.5 {
				t.Fatalf("ReadFloat32 = %v, %v", v, err)
			}
			if v, err := w.ReadFloat64(); err != nil || v != -2.25 {
				t.Fatalf("ReadFloat64 = %v, %v", v, err)
			}
			if w.Remaining() != 0 {
				t.Fatalf("Remaining = %d after consuming everything", w.Remaining())
			}
		})
	}
}

// TestWindowBranch verifies that a branch is bounded to its sub-range, that
// its absolute offset is the parent's plus the start, and that the parent's
// live cursor does not influence it.
func TestWindowBranch(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	parent := NewWindow(data, binary.BigEndian)

	// Move the parent cursor: branching must ignore it.
	if err := parent.Seek(7); err != nil {
		t.Fatal(err)
	}

	child, err := parent.Branch(2, 4)
	if err != nil {
		t.Fatalf("Branch failed: %v", err)
	}
	if child.Size() != 4 {
		t.Fatalf("child Size = %d, want 4", child.Size())
	}
	if child.BaseOffset() != 2 {
		t.Fatalf("child BaseOffset = %d, want 2", child.BaseOffset())
	}

	got, err := child.Slice(4)
	if err != nil {
		t.Fatalf("Slice failed: %v", err)
	}
	if !bytes.Equal(got, []byte{2, 3, 4, 5}) {
		t.Fatalf("child bytes = %v, want [2 3 4 5]", got)
	}
	if _, err := child.ReadUint8(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("read past child end = %v, want ErrOutOfRange", err)
	}

	// A grandchild's base offset accumulates.
	grandchild, err := child.Branch(1, 2)
	if err != nil {
		t.Fatalf("Branch failed: %v", err)
	}
	if grandchild.BaseOffset() != 3 {
		t.Fatalf("grandchild BaseOffset = %d, want 3", grandchild.BaseOffset())
	}
	if grandchild.ToAbsolute(1) != 4 {
		t.Fatalf("grandchild ToAbsolute(1) = %d, want 4", grandchild.ToAbsolute(1))
	}

	// Out-of-bounds branches fail.
	if _, err := child.Branch(2, 3); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("oversized branch = %v, want ErrOutOfRange", err)
	}
	if _, err := child.Branch(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative branch = %v, want ErrOutOfRange", err)
	}
}

// TestWindowShortReadDoesNotAdvance verifies that a read requesting more
// bytes than remain fails with ErrOutOfRange and leaves the cursor alone.
func TestWindowShortReadDoesNotAdvance(t *testing.T) {
	w := NewWindow([]byte{1, 2, 3}, binary.BigEndian)
	if err := w.Seek(2); err != nil {
		t.Fatal(err)
	}

	if _, err := w.ReadUint32(); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("short ReadUint32 = %v, want ErrOutOfRange", err)
	}
	if w.Tell() != 2 {
		t.Fatalf("cursor moved to %d on failed read", w.Tell())
	}

	if _, err := w.Slice(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("short Slice = %v, want ErrOutOfRange", err)
	}
	if w.Tell() != 2 {
		t.Fatalf("cursor moved to %d on failed slice", w.Tell())
	}

	// The remaining byte is still readable.
	if v, err := w.ReadUint8(); err != nil || v != 3 {
		t.Fatalf("ReadUint8 after failures = %v, %v", v, err)
	}
}

// TestWindowSeekSkip exercises the cursor movement bounds.
func TestWindowSeekSkip(t *testing.T) {
	w := NewWindow(make([]byte, 8), binary.BigEndian)

	if err := w.Seek(8); err != nil {
		t.Fatalf("seek to end failed: %v", err)
	}
	if err := w.Seek(9); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("seek past end = %v, want ErrOutOfRange", err)
	}
	if err := w.Skip(-3); err != nil {
		t.Fatalf("backward skip failed: %v", err)
	}
	if w.Tell() != 5 {
		t.Fatalf("Tell = %d, want 5", w.Tell())
	}
	if err := w.Skip(-6); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("skip before start = %v, want ErrOutOfRange", err)
	}
}

// TestWindowMarkReopen verifies that a mark snapshots the cursor and that
// reopening is independent of later cursor movement.
func TestWindowMarkReopen(t *testing.T) {
	w := NewWindow([]byte{10, 11, 12, 13, 14}, binary.BigEndian)
	if err := w.Seek(1); err != nil {
		t.Fatal(err)
	}

	m := w.Mark()
	if m.Offset != 1 {
		t.Fatalf("mark offset = %d, want 1", m.Offset)
	}

	// Move the cursor away; the mark must not follow.
	if err := w.Seek(4); err != nil {
		t.Fatal(err)
	}

	r, err := m.Reopen()
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	if v, _ := r.ReadUint8(); v != 11 {
		t.Fatalf("reopened read = %d, want 11", v)
	}
	if r.BaseOffset() != 1 {
		t.Fatalf("reopened BaseOffset = %d, want 1", r.BaseOffset())
	}

	r2, err := m.Reopen(2)
	if err != nil {
		t.Fatalf("Reopen(2) failed: %v", err)
	}
	if v, _ := r2.ReadUint8(); v != 13 {
		t.Fatalf("reopened delta read = %d, want 13", v)
	}
}

// TestWindowByteOrder verifies order switching and flipping.
func TestWindowByteOrder(t *testing.T) {
	w := NewWindow([]byte{0x12, 0x34, 0x12, 0x34}, binary.BigEndian)

	if v, _ := w.ReadUint16(); v != 0x1234 {
		t.Fatalf("big-endian read = 0x%04X", v)
	}

	w.FlipByteOrder()
	if w.ByteOrder() != binary.ByteOrder(binary.LittleEndian) {
		t.Fatalf("flip did not switch to little-endian")
	}
	if v, _ := w.ReadUint16(); v != 0x3412 {
		t.Fatalf("little-endian read = 0x%04X", v)
	}

	w.SetByteOrder(binary.BigEndian)
	if w.ByteOrder() != binary.ByteOrder(binary.BigEndian) {
		t.Fatalf("SetByteOrder did not take")
	}
}

// TestWindowReadString verifies string reads advance the cursor and are
// bounds-checked.
func TestWindowReadString(t *testing.T) {
	w := NewWindow([]byte("Exif\x00\x00rest"), binary.BigEndian)

	s, err := w.ReadString(4)
	if err != nil || s != "Exif" {
		t.Fatalf("ReadString = %q, %v", s, err)
	}
	if w.Tell() != 4 {
		t.Fatalf("Tell = %d, want 4", w.Tell())
	}
	if _, err := w.ReadString(100); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("oversized ReadString = %v, want ErrOutOfRange", err)
	}
}
