package inei

import "strings"

// TIFF field type codes.
const (
	typeByte      = 1
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeUndefined = 7
	typeSLong     = 9
	typeSRational = 10
)

// typeSize maps a TIFF type code to the byte width of one element. Type
// codes outside this table are skipped by the directory engine.
var typeSize = map[uint16]int{
	typeByte:      1,
	typeASCII:     1,
	typeShort:     2,
	typeLong:      4,
	typeRational:  8,
	typeUndefined: 1,
	typeSLong:     4,
	typeSRational: 8,
}

// Rational is a TIFF numerator/denominator pair. Both components fit in
// int64 for the signed and unsigned variants alike.
type Rational struct {
	Num int64
	Den int64
}

// valueDecoder decodes count elements of one TIFF type from the window's
// cursor and returns the value in its raw shape: string, int64, []int64,
// Rational, []Rational, or []byte. A count of 1 collapses numeric and
// rational arrays to their scalar element.
type valueDecoder func(w *Window, count uint32) (any, error)

// valueDecoders is the type-code dispatch table. Keeping the eight cases in
// one table makes the dispatch exhaustive and cheap to extend.
var valueDecoders = map[uint16]valueDecoder{
	typeByte: func(w *Window, count uint32) (any, error) {
		return decodeInts(w, count, func(w *Window) (int64, error) {
			v, err := w.ReadUint8()

			return int64(v), err
		})
	},
	typeASCII: decodeString,
	typeShort: func(w *Window, count uint32) (any, error) {
		return decodeInts(w, count, func(w *Window) (int64, error) {
			v, err := w.ReadUint16()

			return int64(v), err
		})
	},
	typeLong: func(w *Window, count uint32) (any, error) {
		return decodeInts(w, count, func(w *Window) (int64, error) {
			v, err := w.ReadUint32()

			return int64(v), err
		})
	},
	typeSLong: func(w *Window, count uint32) (any, error) {
		return decodeInts(w, count, func(w *Window) (int64, error) {
			v, err := w.ReadInt32()

			return int64(v), err
		})
	},
	typeRational: func(w *Window, count uint32) (any, error) {
		return decodeRationals(w, count, false)
	},
	typeSRational: func(w *Window, count uint32) (any, error) {
		return decodeRationals(w, count, true)
	},
	typeUndefined: func(w *Window, count uint32) (any, error) {
		return w.Slice(int(count))
	},
}

// decodeInts reads count integers one element at a time. A single element is
// returned as a scalar int64 rather than a one-element slice.
func decodeInts(w *Window, count uint32, read func(*Window) (int64, error)) (any, error) {
	if count == 1 {
		return read(w)
	}

	vals := make([]int64, count)
	for i := range vals {
		v, err := read(w)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return vals, nil
}

// decodeString reads count bytes as ASCII text with trailing NUL bytes
// stripped.
func decodeString(w *Window, count uint32) (any, error) {
	s, err := w.ReadString(int(count))
	if err != nil {
		return nil, err
	}

	return strings.TrimRight(s, "\x00"), nil
}

// decodeRationals reads count numerator/denominator pairs. A single pair is
// returned as a Rational rather than a one-element slice.
func decodeRationals(w *Window, count uint32, signed bool) (any, error) {
	readOne := func() (Rational, error) {
		if signed {
			num, err := w.ReadInt32()
			if err != nil {
				return Rational{}, err
			}
			den, err := w.ReadInt32()
			if err != nil {
				return Rational{}, err
			}

			return Rational{Num: int64(num), Den: int64(den)}, nil
		}

		num, err := w.ReadUint32()
		if err != nil {
			return Rational{}, err
		}
		den, err := w.ReadUint32()
		if err != nil {
			return Rational{}, err
		}

		return Rational{Num: int64(num), Den: int64(den)}, nil
	}

	if count == 1 {
		return readOne()
	}

	vals := make([]Rational, count)
	for i := range vals {
		v, err := readOne()
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	return vals, nil
}
