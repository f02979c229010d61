package inei

// ExtractThumbnail copies the embedded thumbnail bytes out of the original
// buffer using the location a previous Parse of the same buffer computed.
// It returns nil when t is nil, the length is zero, or the byte range falls
// outside the buffer.
func ExtractThumbnail(data []byte, t *Thumbnail) []byte {
	if t == nil || t.Length == 0 {
		return nil
	}

	start := int64(t.AbsoluteOffset)
	end := start + int64(t.Length)
	if end > int64(len(data)) {
		return nil
	}

	out := make([]byte, t.Length)
	copy(out, data[start:end])

	return out
}
