// Package inei extracts EXIF/TIFF metadata embedded in JPEG files: camera
// settings, timestamps, GPS coordinates, frame dimensions, and the location
// of the embedded thumbnail. It walks the JPEG segment structure without
// decoding pixel data, and traverses the TIFF directory structure inside the
// APP1 segment with every offset bounds-checked, so corrupt or hostile inputs
// fail with an error instead of reading out of bounds.
package inei

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Standard error types for metadata extraction.
var (
	ErrNotJPEG     = errors.New("not a JPEG file")
	ErrNoExif      = errors.New("no EXIF data")
	ErrInvalidTiff = errors.New("invalid TIFF structure")
	ErrTruncated   = errors.New("truncated segment")
	ErrOutOfRange  = errors.New("offset out of range")
)

// Options specifies parsing parameters. All fields are consumed per call;
// the package keeps no global state.
type Options struct {
	// IncludeBinary includes UNDEFINED-typed tag values (raw byte buffers,
	// e.g. MakerNote) in the output maps. Off by default because these
	// payloads can be large and are rarely useful unparsed.
	IncludeBinary bool
	// ResolveNames maps numeric tag ids to their conventional names
	// ("Make", "GPSLatitude", ...). When false, keys keep the form
	// "tag_0x010F". Tags with no known name use that form either way.
	ResolveNames bool
	// SimplifyValues converts raw decoded shapes to their practical forms:
	// rationals to floats, GPS degree/minute/second triplets to signed
	// decimal degrees, and EXIF date strings to epoch seconds (UTC),
	// corrected by the OffsetTime* tags when present.
	SimplifyValues bool
	// ImageSize extracts the frame width and height from the SOF segment.
	ImageSize bool
	// HidePointerTags removes internal structure tags (the Exif and GPS
	// directory pointers and the thumbnail offset/length/compression tags)
	// from the output maps.
	HidePointerTags bool
	// IncludeTags populates the tag maps at all. When false only the image
	// size and thumbnail location are reported.
	IncludeTags bool
	// RequireExif makes a parse that found no EXIF directory fail with
	// ErrNoExif instead of returning an empty result.
	RequireExif bool
}

// defaultOptions returns the options used when the caller passes none.
func defaultOptions() Options {
	return Options{
		ResolveNames:    true,
		SimplifyValues:  true,
		ImageSize:       true,
		HidePointerTags: true,
		IncludeTags:     true,
	}
}

// Size holds the frame dimensions read from the SOF segment.
type Size struct {
	Width  int
	Height int
}

// ThumbnailKind distinguishes the encoding of the embedded thumbnail.
type ThumbnailKind int

const (
	// ThumbnailTIFF is an uncompressed thumbnail (the default when the
	// Compression tag is absent or not 6).
	ThumbnailTIFF ThumbnailKind = iota
	// ThumbnailJPEG is a JPEG-compressed thumbnail (Compression tag 6).
	ThumbnailJPEG
)

// Thumbnail locates the embedded thumbnail bytes. Offset is relative to the
// TIFF header inside the APP1 segment; AbsoluteOffset is relative to the
// start of the original buffer.
type Thumbnail struct {
	Kind           ThumbnailKind
	Offset         uint32
	Length         uint32
	AbsoluteOffset uint32
}

// Result holds everything extracted from one buffer.
//
// TagsRaw holds values as decoded from the TIFF entries (strings, int64,
// []int64, Rational, []Rational, []byte). Tags holds the simplified forms
// when Options.SimplifyValues is set, and mirrors TagsRaw otherwise. Both
// maps share keys; when two directories yield the same name the first one
// encountered wins.
type Result struct {
	ImageSize *Size
	Thumbnail *Thumbnail
	TagsRaw   map[string]any
	Tags      map[string]any
}

// Decode reads a complete JPEG stream from r and extracts its metadata.
// It accepts an optional Options struct to control parsing parameters.
func Decode(r io.Reader, opts ...*Options) (*Result, error) {
	data, err := readAllData(r)
	if err != nil {
		return nil, err
	}

	return Parse(data, opts...)
}

// Interface to check if a reader knows its remaining length.
type readerWithLen interface {
	Len() int
}

// readAllData reads data from r, pre-allocating if the size is known.
func readAllData(r io.Reader) ([]byte, error) {
	// Pre-allocate the buffer if the reader knows its remaining length.
	// This avoids io.ReadAll's incremental growth for large files.
	if rl, ok := r.(readerWithLen); ok {
		size := rl.Len()
		if size > 0 {
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("failed to read image data: %w", err)
			}

			return data, nil
		}
	}

	// Fallback for readers that don't implement Len() (e.g. network streams, os.File) or were empty.
	return io.ReadAll(r)
}

// Orientation returns the EXIF orientation tag (1-8), or 0 when the tag is
// absent or out of range.
func (r *Result) Orientation() int {
	if n, ok := r.tagInt("Orientation", 0x0112); ok && n >= 1 && n <= 8 {
		return int(n)
	}

	return 0
}

// Make returns the camera manufacturer, or "" when absent.
func (r *Result) Make() string {
	s, _ := r.tagString("Make", 0x010F)

	return s
}

// Model returns the camera model, or "" when absent.
func (r *Result) Model() string {
	s, _ := r.tagString("Model", 0x0110)

	return s
}

// GPSPosition returns the simplified GPS coordinates in signed decimal
// degrees. ok is false when either coordinate is absent or was not
// simplified to a number.
func (r *Result) GPSPosition() (lat, lon float64, ok bool) {
	lat, okLat := r.tagFloat("GPSLatitude", 0x0002)
	lon, okLon := r.tagFloat("GPSLongitude", 0x0004)
	if !okLat || !okLon {
		return 0, 0, false
	}

	return lat, lon, true
}

// DateTimeOriginal returns the capture time as a UTC instant. It accepts
// either the simplified epoch-seconds form or the raw EXIF date string.
func (r *Result) DateTimeOriginal() (time.Time, bool) {
	v, ok := r.tag("DateTimeOriginal", 0x9003)
	if !ok {
		return time.Time{}, false
	}

	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0).UTC(), true
	case string:
		parsed, err := parseExifDate(t)
		if err != nil {
			return time.Time{}, false
		}

		return parsed, true
	}

	return time.Time{}, false
}

// tag looks a value up under its resolved name, falling back to the numeric
// key form used when name resolution is disabled.
func (r *Result) tag(name string, id uint16) (any, bool) {
	if r == nil || r.Tags == nil {
		return nil, false
	}
	if v, ok := r.Tags[name]; ok {
		return v, true
	}
	v, ok := r.Tags[hexTagName(id)]

	return v, ok
}

func (r *Result) tagInt(name string, id uint16) (int64, bool) {
	v, ok := r.tag(name, id)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)

	return n, ok
}

func (r *Result) tagString(name string, id uint16) (string, bool) {
	v, ok := r.tag(name, id)
	if !ok {
		return "", false
	}
	s, ok := v.(string)

	return s, ok
}

func (r *Result) tagFloat(name string, id uint16) (float64, bool) {
	v, ok := r.tag(name, id)
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}

	return 0, false
}
