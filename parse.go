package inei

import (
	"encoding/binary"
	"maps"
)

// tagRecord is one decoded directory entry in traversal order. Traversal
// emits a flat record sequence; turning it into the name-keyed maps is a
// separate pure reduction step.
type tagRecord struct {
	dir dirKind
	id  uint16
	typ uint16
	val any
}

// Parse extracts metadata from an in-memory JPEG buffer. The buffer must
// hold at least the header segments through the first Start-Of-Scan.
// It accepts an optional Options struct to control parsing parameters.
//
// Parse is a pure, synchronous decode: nothing is shared between calls, so
// concurrent parses need no coordination. Any structural or bounds violation
// aborts the whole parse; tolerable anomalies (unknown TIFF types,
// zero-valued optional pointers, malformed date substrings) are skipped
// locally instead.
func Parse(data []byte, opts ...*Options) (*Result, error) {
	opt := defaultOptions()
	if len(opts) > 0 && opts[0] != nil {
		opt = *opts[0]
	}

	res := &Result{}
	var records []tagRecord
	var sawExif bool

	w := NewWindow(data, binary.BigEndian)
	err := readSections(w, func(marker byte, seg *Window) error {
		switch {
		case marker == mAPP1:
			tiffOff, thumb, ok, err := readDirectories(seg, func(dir dirKind, id, typ uint16, val any) {
				records = append(records, tagRecord{dir: dir, id: id, typ: typ, val: val})
			})
			if err != nil {
				return err
			}
			if !ok {
				// Non-EXIF APP1 data (XMP etc.) contributes no tags.
				return nil
			}
			sawExif = true
			if thumb != nil && res.Thumbnail == nil {
				thumb.AbsoluteOffset = uint32(seg.ToAbsolute(tiffOff)) + thumb.Offset
				res.Thumbnail = thumb
			}
		case opt.ImageSize && isSOF(marker):
			width, height, err := readSizeFromSOF(seg)
			if err != nil {
				return err
			}
			res.ImageSize = &Size{Width: width, Height: height}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if opt.RequireExif && !sawExif {
		return nil, ErrNoExif
	}

	if opt.IncludeTags {
		res.TagsRaw = reduceTags(records, &opt)
		res.Tags = res.TagsRaw
		if opt.SimplifyValues {
			res.Tags = simplifyTags(maps.Clone(res.TagsRaw))
		}
	}

	return res, nil
}

// reduceTags folds the ordered record sequence into a name-keyed map. The
// first record to claim a name wins; later directories cannot overwrite it.
func reduceTags(records []tagRecord, opt *Options) map[string]any {
	tags := make(map[string]any, len(records))
	for _, r := range records {
		if opt.HidePointerTags && isPointerTag(r.dir, r.id) {
			continue
		}
		if !opt.IncludeBinary && r.typ == typeUndefined {
			continue
		}
		name := tagName(r.dir, r.id, opt.ResolveNames)
		if _, taken := tags[name]; taken {
			continue
		}
		tags[name] = r.val
	}

	return tags
}

// isPointerTag reports whether a tag only describes internal structure:
// the sub-directory pointers in the primary directory and the thumbnail
// locator tags in IFD1.
func isPointerTag(dir dirKind, id uint16) bool {
	switch dir {
	case dirPrimary:
		return id == tagExifPointer || id == tagGPSPointer
	case dirThumbnail:
		return id == tagThumbnailOffset || id == tagThumbnailLength || id == tagCompression
	}

	return false
}
