package inject

// CountingWriter discards everything written to it and records the total.
// The first metadata emission runs against it so the serializer can learn
// its own output length before a single byte reaches the real sink.
type CountingWriter struct {
	N int64
}

// Write implements io.Writer.
func (c *CountingWriter) Write(p []byte) (int, error) {
	c.N += int64(len(p))
	return len(p), nil
}
