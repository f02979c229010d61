package inei

import (
	"encoding/binary"
	"fmt"
	"math"
)

// dirKind identifies which TIFF directory a tag was read from. Directories
// do not share a namespace: the same numeric id means different things in
// the primary directory and the GPS directory.
type dirKind int

const (
	dirPrimary dirKind = iota // IFD0
	dirExif                   // camera settings, pointed to by tag 0x8769
	dirGPS                    // pointed to by tag 0x8825
	dirThumbnail              // IFD1, chained after IFD0
)

func (k dirKind) String() string {
	switch k {
	case dirPrimary:
		return "primary"
	case dirExif:
		return "exif"
	case dirGPS:
		return "gps"
	case dirThumbnail:
		return "thumbnail"
	}

	return "unknown"
}

// Directory pointer tags in the primary directory, and the thumbnail
// locator tags in IFD1.
const (
	tagExifPointer = 0x8769
	tagGPSPointer  = 0x8825

	tagCompression     = 0x0103
	tagThumbnailOffset = 0x0201
	tagThumbnailLength = 0x0202
)

// jpegCompression is the Compression tag value marking a JPEG-encoded
// thumbnail; anything else is treated as uncompressed TIFF data.
const jpegCompression = 6

var exifSignature = []byte{'E', 'x', 'i', 'f', 0, 0}

// onTagFunc receives every decoded tag value exactly once, tagged with the
// directory it came from.
type onTagFunc func(dir dirKind, id uint16, typ uint16, val any)

// readDirectories resolves the TIFF directory structure inside an APP1
// payload: primary, then the Exif sub-directory, then GPS, then the
// thumbnail directory chained after the primary, each at most once.
//
// ok is false when the payload does not carry the Exif signature — a JPEG
// may hold non-EXIF APP1 data, so that is not an error. A bad byte-order
// mark or magic number after a valid signature is ErrInvalidTiff; any
// out-of-bounds offset anywhere in the traversal is ErrOutOfRange.
// tiffOff is the payload-relative offset of the TIFF header, and thumb is
// non-nil when the thumbnail directory yielded both a byte offset and a
// positive byte length.
func readDirectories(app1 *Window, onTag onTagFunc) (tiffOff int, thumb *Thumbnail, ok bool, err error) {
	sig, err := app1.Slice(len(exifSignature))
	if err != nil {
		return 0, nil, false, nil
	}
	for i, b := range sig {
		if b != exifSignature[i] {
			return 0, nil, false, nil
		}
	}
	tiffOff = app1.Tell()

	tiff, err := app1.Branch(tiffOff)
	if err != nil {
		return 0, nil, false, err
	}

	mark, err := tiff.ReadString(2)
	if err != nil {
		return 0, nil, false, err
	}
	switch mark {
	case "II":
		tiff.SetByteOrder(binary.LittleEndian)
	case "MM":
		tiff.SetByteOrder(binary.BigEndian)
	default:
		return 0, nil, false, fmt.Errorf("byte order mark %q: %w", mark, ErrInvalidTiff)
	}

	magic, err := tiff.ReadUint16()
	if err != nil {
		return 0, nil, false, err
	}
	if magic != 0x002A {
		return 0, nil, false, fmt.Errorf("magic number 0x%04X: %w", magic, ErrInvalidTiff)
	}

	primaryOff, err := tiff.ReadUint32()
	if err != nil {
		return 0, nil, false, err
	}

	// The primary directory carries the pointers to the Exif and GPS
	// directories; the thumbnail directory carries its own locator tags.
	// Both are watched here while every value still flows to onTag.
	var exifOff, gpsOff uint32
	var thumbOffset, thumbLength uint32
	var haveThumbOffset bool
	thumbKind := ThumbnailTIFF

	watch := func(dir dirKind, id uint16, typ uint16, val any) {
		switch {
		case dir == dirPrimary && id == tagExifPointer:
			exifOff, _ = asUint32(val)
		case dir == dirPrimary && id == tagGPSPointer:
			gpsOff, _ = asUint32(val)
		case dir == dirThumbnail && id == tagThumbnailOffset:
			thumbOffset, haveThumbOffset = asUint32(val)
		case dir == dirThumbnail && id == tagThumbnailLength:
			thumbLength, _ = asUint32(val)
		case dir == dirThumbnail && id == tagCompression:
			if n, ok := asUint32(val); ok && n == jpegCompression {
				thumbKind = ThumbnailJPEG
			}
		}
		onTag(dir, id, typ, val)
	}

	next, err := readIFD(tiff, int(primaryOff), dirPrimary, watch)
	if err != nil {
		return 0, nil, false, err
	}

	if exifOff > 0 {
		if _, err := readIFD(tiff, int(exifOff), dirExif, watch); err != nil {
			return 0, nil, false, err
		}
	}
	if gpsOff > 0 {
		if _, err := readIFD(tiff, int(gpsOff), dirGPS, watch); err != nil {
			return 0, nil, false, err
		}
	}

	// Only the primary directory's chain is followed; the Exif and GPS
	// directories do not chain further.
	if next > 0 {
		if _, err := readIFD(tiff, int(next), dirThumbnail, watch); err != nil {
			return 0, nil, false, err
		}
	}

	if haveThumbOffset && thumbLength > 0 {
		thumb = &Thumbnail{Kind: thumbKind, Offset: thumbOffset, Length: thumbLength}
	}

	return tiffOff, thumb, true, nil
}

// readIFD decodes one directory: a 2-byte entry count, count 12-byte
// entries, and a 4-byte offset to the next chained directory (0 for none).
// Entry values whose storage exceeds 4 bytes live at an offset relative to
// the TIFF header; smaller values are stored inline in the entry's last
// 4 bytes, read with the directory's byte order. Entries with an
// unrecognized type code are skipped, not rejected.
func readIFD(tiff *Window, offset int, dir dirKind, onTag onTagFunc) (next uint32, err error) {
	d, err := tiff.Branch(offset)
	if err != nil {
		return 0, err
	}

	count, err := d.ReadUint16()
	if err != nil {
		return 0, err
	}

	for i := 0; i < int(count); i++ {
		id, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		typ, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		n, err := d.ReadUint32()
		if err != nil {
			return 0, err
		}

		size, known := typeSize[typ]
		decode := valueDecoders[typ]
		if !known || decode == nil {
			if err := d.Skip(4); err != nil {
				return 0, err
			}

			continue
		}

		total := int64(size) * int64(n)

		var val any
		if total <= 4 {
			// Inline storage: the 4-byte field is a tiny buffer in the
			// directory's byte order.
			field, err := d.Branch(d.Tell(), 4)
			if err != nil {
				return 0, err
			}
			if val, err = decode(field, n); err != nil {
				return 0, err
			}
			if err := d.Skip(4); err != nil {
				return 0, err
			}
		} else {
			// Indirect storage: the field is an offset from the TIFF header.
			off, err := d.ReadUint32()
			if err != nil {
				return 0, err
			}
			src, err := tiff.Branch(int(off), int(total))
			if err != nil {
				return 0, err
			}
			if val, err = decode(src, n); err != nil {
				return 0, err
			}
		}

		onTag(dir, id, typ, val)
	}

	return d.ReadUint32()
}

// asUint32 extracts a non-negative 32-bit value from a decoded scalar.
func asUint32(v any) (uint32, bool) {
	n, ok := v.(int64)
	if !ok || n < 0 || n > math.MaxUint32 {
		return 0, false
	}

	return uint32(n), true
}
