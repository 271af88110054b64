package flv

// Tag types carried in the first byte of a tag header.
const (
	TagAudio  byte = 8
	TagVideo  byte = 9
	TagScript byte = 18
)

// Video codec ids carried in the low nibble of the video flags byte.
const (
	CodecH263     byte = 2
	CodecScreen   byte = 3
	CodecVP6      byte = 4
	CodecVP6Alpha byte = 5
	CodecScreenV2 byte = 6
)

// Fixed sizes of the container framing.
const (
	// FileHeaderSize is the length of the FLV file header.
	FileHeaderSize = 9

	// TagHeaderSize is the length of every tag header.
	TagHeaderSize = 11

	// PrevTagSize is the length of the trailing previous-tag-size field that
	// follows every tag.
	PrevTagSize = 4
)

// TagHeader is the decoded 11-byte header that precedes every tag payload.
type TagHeader struct {
	Type     byte
	DataSize int

	// Timestamp is the tag time in milliseconds. The extended-high byte is
	// composed into a signed 32-bit value, so streams past 2^31 ms wrap to
	// negative times instead of widening.
	Timestamp int32

	// StreamID is reserved by the format. It is never inspected and is
	// written as zero.
	StreamID uint32
}

// Seconds returns the tag timestamp in seconds.
func (h TagHeader) Seconds() float64 {
	return float64(h.Timestamp) / 1000.0
}

func parseTagHeader(buf *Buffer, off int) (TagHeader, error) {
	typ, err := buf.U8(off)
	if err != nil {
		return TagHeader{}, err
	}
	dataSize, err := buf.U24(off + 1)
	if err != nil {
		return TagHeader{}, err
	}
	tsLow, err := buf.U24(off + 4)
	if err != nil {
		return TagHeader{}, err
	}
	tsExt, err := buf.U8(off + 7)
	if err != nil {
		return TagHeader{}, err
	}
	streamID, err := buf.U24(off + 8)
	if err != nil {
		return TagHeader{}, err
	}

	return TagHeader{
		Type:      typ,
		DataSize:  int(dataSize),
		Timestamp: int32(uint32(tsExt)<<24 | tsLow),
		StreamID:  streamID,
	}, nil
}

// AudioProperties are the stream facts packed into the first byte of an
// audio payload.
type AudioProperties struct {
	CodecID    float64
	SampleRate float64
	SampleSize float64
	Stereo     bool
}

// ParseAudioFlags decodes the first byte of an audio payload.
func ParseAudioFlags(flags byte) AudioProperties {
	p := AudioProperties{
		CodecID: float64((flags >> 4) & 0x0f),
		Stereo:  flags&0x01 == 1,
	}

	switch (flags >> 2) & 0x03 {
	case 0:
		p.SampleRate = 5500
	case 1:
		p.SampleRate = 11000
	case 2:
		p.SampleRate = 22000
	case 3:
		p.SampleRate = 44100
	}

	if (flags>>1)&0x01 == 1 {
		p.SampleSize = 16
	} else {
		p.SampleSize = 8
	}

	return p
}

// VideoCodecID returns the codec id from the first byte of a video payload.
func VideoCodecID(flags byte) byte {
	return flags & 0x0f
}

// IsKeyframe reports whether the frame type nibble of a video flags byte
// marks an independently decodable frame.
func IsKeyframe(flags byte) bool {
	return (flags>>4)&0x0f == 1
}
