package inei

import (
	"encoding/binary"
	"fmt"
)

// JPEG marker codes (the byte following 0xFF).
const (
	mTEM  = 0x01
	mSOI  = 0xD8
	mEOI  = 0xD9
	mSOS  = 0xDA
	mRST0 = 0xD0
	mRST7 = 0xD7
	mAPP1 = 0xE1
)

// isSOF reports whether marker is one of the Start-Of-Frame family. SOF4
// (DHT), SOF8 (JPG) and SOF12 (DAC) are table markers, not frame headers.
func isSOF(marker byte) bool {
	switch marker {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7, 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	}

	return false
}

// readSections walks the JPEG segment structure, invoking visit with each
// marker and a sub-window over its payload. Entropy-coded image data is never
// parsed: the walk stops without error at SOS or EOI. A visit error aborts
// the walk and is returned as-is.
func readSections(w *Window, visit func(marker byte, seg *Window) error) error {
	b0, err := w.ReadUint8()
	if err != nil {
		return ErrNotJPEG
	}
	b1, err := w.ReadUint8()
	if err != nil || b0 != 0xFF || b1 != mSOI {
		return ErrNotJPEG
	}

	for {
		b, err := w.ReadUint8()
		if err != nil {
			return fmt.Errorf("missing end of image: %w", ErrTruncated)
		}
		if b != 0xFF {
			continue
		}

		// A run of 0xFF fill bytes before the marker code is legal.
		marker, err := w.ReadUint8()
		for err == nil && marker == 0xFF {
			marker, err = w.ReadUint8()
		}
		if err != nil {
			return fmt.Errorf("missing marker code: %w", ErrTruncated)
		}
		if marker == 0x00 {
			// 0xFF00 is a stuffed data byte, not a marker.
			continue
		}

		switch {
		case marker == mEOI || marker == mSOS:
			return nil
		case marker == mTEM || (marker >= mRST0 && marker <= mRST7):
			// Standalone markers carry no length field.
			continue
		}

		length, err := w.ReadUint16()
		if err != nil {
			return fmt.Errorf("segment 0x%02X: %w", marker, err)
		}

		// The length field includes its own two bytes.
		payloadLen := int(length) - 2
		if payloadLen < 0 || payloadLen > w.Remaining() {
			return fmt.Errorf("segment 0x%02X length %d: %w", marker, length, ErrTruncated)
		}

		seg, err := w.Branch(w.Tell(), payloadLen)
		if err != nil {
			return err
		}
		if err := w.Skip(payloadLen); err != nil {
			return err
		}

		if err := visit(marker, seg); err != nil {
			return err
		}
	}
}

// readSizeFromSOF extracts the frame dimensions from a Start-Of-Frame
// payload. The wire order is precision, height, width, all big-endian.
func readSizeFromSOF(seg *Window) (width, height int, err error) {
	s, err := seg.Branch(0)
	if err != nil {
		return 0, 0, err
	}
	s.SetByteOrder(binary.BigEndian)

	if err := s.Skip(1); err != nil {
		return 0, 0, err
	}
	h, err := s.ReadUint16()
	if err != nil {
		return 0, 0, err
	}
	w, err := s.ReadUint16()
	if err != nil {
		return 0, 0, err
	}

	return int(w), int(h), nil
}
