package inject

import (
	"encoding/binary"
	"io"

	"github.com/aminofox/flvmeta/pkg/amf0"
	"github.com/aminofox/flvmeta/pkg/flv"
)

// Version is the injector version advertised in the metadata and usage text.
const Version = "1.1"

// MetadataCreator is the fixed metadatacreator value written into every
// onMetaData tag.
const MetadataCreator = "Yet Another Metadata Injector for FLV - Version " + Version

// payloadWriter wraps the AMF0 encoder with a sticky error so the long
// member sequence below reads as the wire layout it produces.
type payloadWriter struct {
	enc     *amf0.Encoder
	members uint32
	err     error
}

func (p *payloadWriter) namedString(name, value string) {
	if p.err != nil {
		return
	}
	p.err = p.enc.NamedString(name, value)
	p.members++
}

func (p *payloadWriter) namedNumber(name string, v float64) {
	if p.err != nil {
		return
	}
	p.err = p.enc.NamedNumber(name, v)
	p.members++
}

func (p *payloadWriter) namedBoolean(name string, v bool) {
	if p.err != nil {
		return
	}
	p.err = p.enc.NamedBoolean(name, v)
	p.members++
}

func (p *payloadWriter) object(name string) {
	if p.err != nil {
		return
	}
	p.err = p.enc.Object(name)
	p.members++
}

func (p *payloadWriter) numberArray(name string, values []float64) {
	if p.err != nil {
		return
	}
	if p.err = p.enc.StrictArray(name, uint32(len(values))); p.err != nil {
		return
	}
	for _, v := range values {
		if p.err = p.enc.Number(v); p.err != nil {
			return
		}
	}
}

// writeMetadataPayload emits the onMetaData tag payload to w: the leading
// script-data marker, the ECMA array header with the associative-count hint,
// and the member sequence in its fixed order. It returns the payload size in
// bytes and the number of named members written.
//
// The count hint and the keyframe positions are only known after a first
// measuring pass, so the payload is emitted twice: once with count zero and
// placeholder values against a counting sink, then again with the real
// values. Every embedded length field is fixed-width, so both emissions have
// the same size and the fixed point converges in exactly two passes.
//
// The top-level ECMA array carries no trailing end marker. It is closed by
// the enclosing tag's size field, and downstream consumers expect exactly
// that layout.
func writeMetadataPayload(w io.Writer, sum *flv.Summary, creator string, count uint32) (int, uint32, error) {
	enc := amf0.NewEncoder(w)

	if err := enc.Marker(amf0.TypeString); err != nil {
		return enc.Written(), 0, err
	}
	if err := enc.ECMAArray("onMetaData", count); err != nil {
		return enc.Written(), 0, err
	}

	p := &payloadWriter{enc: enc}

	if creator != "" {
		p.namedString("creator", creator)
	}
	p.namedString("metadatacreator", MetadataCreator)

	p.namedBoolean("hasKeyframes", sum.HasKeyframes)
	p.namedBoolean("hasVideo", sum.HasVideo)
	p.namedBoolean("hasAudio", sum.HasAudio)
	p.namedBoolean("hasMetadata", sum.HasMetadata)
	p.namedBoolean("canSeekToEnd", sum.CanSeekToEnd)

	p.namedNumber("duration", sum.Duration)
	p.namedNumber("datasize", sum.DataSize)

	if sum.HasVideo {
		p.namedNumber("videosize", sum.VideoSize)
		p.namedNumber("videocodecid", sum.VideoCodecID)
		if sum.Width != 0 {
			p.namedNumber("width", sum.Width)
		}
		if sum.Height != 0 {
			p.namedNumber("height", sum.Height)
		}
		p.namedNumber("framerate", sum.FrameRate)
		p.namedNumber("videodatarate", sum.VideoDataRate)
	}

	if sum.HasAudio {
		p.namedNumber("audiosize", sum.AudioSize)
		p.namedNumber("audiocodecid", sum.AudioCodecID)
		p.namedNumber("audiosamplerate", sum.AudioSampleRate)
		p.namedNumber("audiosamplesize", sum.AudioSampleSize)
		p.namedBoolean("stereo", sum.Stereo)
		p.namedNumber("audiodatarate", sum.AudioDataRate)
	}

	p.namedNumber("filesize", sum.FileSize)
	p.namedNumber("lasttimestamp", sum.LastTimestamp)

	if sum.HasKeyframes {
		p.namedNumber("lastkeyframetimestamp", sum.LastKeyframeTimestamp)
		p.namedNumber("lastkeyframelocation", sum.LastKeyframeLocation)

		p.object("keyframes")
		p.numberArray("filepositions", sum.FilePositions)
		p.numberArray("times", sum.Times)
		if p.err == nil {
			p.err = enc.ObjectEnd()
		}
	}

	return enc.Written(), p.members, p.err
}

// measureMetadata runs the counting pass: count hint zero, index positions
// still zero-filled, filesize still a placeholder.
func measureMetadata(sum *flv.Summary, creator string) (int, uint32, error) {
	var cw CountingWriter
	return writeMetadataPayload(&cw, sum, creator, 0)
}

func writeTagHeader(w io.Writer, tagType byte, dataSize int) error {
	var hdr [flv.TagHeaderSize]byte
	hdr[0] = tagType
	hdr[1] = byte(dataSize >> 16)
	hdr[2] = byte(dataSize >> 8)
	hdr[3] = byte(dataSize)
	// timestamp and stream id stay zero
	_, err := w.Write(hdr[:])
	return err
}

func writePrevTagSize(w io.Writer, size int) error {
	var buf [flv.PrevTagSize]byte
	binary.BigEndian.PutUint32(buf[:], uint32(size))
	_, err := w.Write(buf[:])
	return err
}
