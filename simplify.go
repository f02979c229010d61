package inei

import (
	"time"
)

// EXIF date strings come in the native colon-separated form, with and
// without an explicit zone, plus the dash/ISO variants some cameras emit.
// Layouts without a zone parse as UTC.
var dateLayouts = []string{
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date tags subject to epoch casting, each paired with the tag holding its
// UTC offset.
var dateOffsetPairs = [...]struct {
	date   string
	offset string
}{
	{"DateTimeOriginal", "OffsetTimeOriginal"},
	{"CreateDate", "OffsetTimeDigitized"},
	{"ModifyDate", "OffsetTime"},
}

// simplifyTags rewrites a name-keyed tag map in place into practical forms:
// rationals become floats, GPS coordinates become signed decimal degrees,
// and date strings become epoch seconds corrected to true UTC. Values that
// do not match any rule are left untouched.
func simplifyTags(tags map[string]any) map[string]any {
	for name, v := range tags {
		tags[name] = simplifyValue(v)
	}
	castGPSCoordinates(tags)
	castDates(tags)
	applyDateOffsets(tags)

	return tags
}

// simplifyValue converts rational shapes to floats. A zero denominator maps
// to nil, a deliberate "indeterminate" marker rather than NaN or an error.
// A one-element pair array collapses to its scalar.
func simplifyValue(v any) any {
	switch r := v.(type) {
	case Rational:
		return simplifyRational(r)
	case []Rational:
		if len(r) == 1 {
			return simplifyRational(r[0])
		}
		for _, p := range r {
			if p.Den == 0 {
				// An indeterminate element forces the mixed form so the
				// nil marker survives.
				out := make([]any, len(r))
				for i, q := range r {
					out[i] = simplifyRational(q)
				}

				return out
			}
		}
		out := make([]float64, len(r))
		for i, p := range r {
			out[i] = float64(p.Num) / float64(p.Den)
		}

		return out
	}

	return v
}

func simplifyRational(r Rational) any {
	if r.Den == 0 {
		return nil
	}

	return float64(r.Num) / float64(r.Den)
}

// castGPSCoordinates folds each 3-element [degrees, minutes, seconds] array
// into signed decimal degrees, negated when the paired reference tag reads
// S or W. The decimal value replaces the array under the same name.
func castGPSCoordinates(tags map[string]any) {
	castOne := func(coord, ref, negative string) {
		dms, ok := tags[coord].([]float64)
		if !ok || len(dms) != 3 {
			return
		}
		deg := dms[0] + dms[1]/60 + dms[2]/3600
		if s, ok := tags[ref].(string); ok && s == negative {
			deg = -deg
		}
		tags[coord] = deg
	}

	castOne("GPSLatitude", "GPSLatitudeRef", "S")
	castOne("GPSLongitude", "GPSLongitudeRef", "W")
}

// castDates replaces date strings with epoch seconds (UTC). An empty string
// produces no value; an unparsable one is left as-is.
func castDates(tags map[string]any) {
	for _, pair := range dateOffsetPairs {
		s, ok := tags[pair.date].(string)
		if !ok {
			continue
		}
		if s == "" {
			delete(tags, pair.date)

			continue
		}
		t, err := parseExifDate(s)
		if err != nil {
			continue
		}
		tags[pair.date] = t.Unix()
	}
}

// applyDateOffsets corrects already-cast date tags by their OffsetTime*
// companions. The date was parsed as if its string were UTC; subtracting
// the offset's total seconds yields true UTC. Malformed offset strings are
// ignored.
func applyDateOffsets(tags map[string]any) {
	for _, pair := range dateOffsetPairs {
		epoch, ok := tags[pair.date].(int64)
		if !ok {
			continue
		}
		off, ok := tags[pair.offset].(string)
		if !ok {
			continue
		}
		seconds, ok := parseUTCOffset(off)
		if !ok {
			continue
		}
		tags[pair.date] = epoch - int64(seconds)
	}
}

// parseExifDate parses an EXIF date string against the known layouts.
func parseExifDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, err
}

// parseUTCOffset parses a ±HH:MM string into total seconds.
func parseUTCOffset(s string) (int, bool) {
	if len(s) != 6 || s[3] != ':' {
		return 0, false
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, false
	}

	digit := func(c byte) (int, bool) {
		if c < '0' || c > '9' {
			return 0, false
		}

		return int(c - '0'), true
	}

	h1, ok1 := digit(s[1])
	h2, ok2 := digit(s[2])
	m1, ok3 := digit(s[4])
	m2, ok4 := digit(s[5])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, false
	}

	hours := h1*10 + h2
	minutes := m1*10 + m2
	if minutes > 59 {
		return 0, false
	}

	return sign * (hours*3600 + minutes*60), true
}
