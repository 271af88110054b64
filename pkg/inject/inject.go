package inject

import (
	"bytes"
	"io"

	"github.com/aminofox/flvmeta/pkg/errors"
	"github.com/aminofox/flvmeta/pkg/flv"
	"github.com/aminofox/flvmeta/pkg/logger"
)

// maxCreatorLen caps the creator label written into the metadata.
const maxCreatorLen = 255

// Options configures an Injector.
type Options struct {
	// Creator is written as the onMetaData creator member when non-empty.
	// Labels longer than 255 bytes are truncated.
	Creator string

	// Logger receives progress and summary output. A default stderr logger
	// is used when nil.
	Logger logger.Logger
}

// Injector rewrites an FLV stream with a freshly computed onMetaData tag.
// Construction runs the first pass over the input; WriteTo resolves the
// metadata size fixed point, runs the keyframe index pass, and produces the
// complete output stream.
type Injector struct {
	buf       *flv.Buffer
	sum       *flv.Summary
	streamPos int
	creator   string
	log       logger.Logger
}

// New validates the input signature and summarizes the stream.
func New(data []byte, opts Options) (*Injector, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewDefaultLogger(logger.InfoLevel, "text")
	}

	if len(data) < flv.FileHeaderSize || !bytes.Equal(data[:3], []byte("FLV")) {
		return nil, errors.NewNotFLVError()
	}

	buf := flv.NewBuffer(data)

	// The first tag sits after the declared header length plus the initial
	// previous-tag-size.
	headerLen, err := buf.U32(5)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFLV, "unreadable file header", err)
	}
	streamPos := int(headerLen) + flv.PrevTagSize

	creator := opts.Creator
	if len(creator) > maxCreatorLen {
		creator = creator[:maxCreatorLen]
	}

	sum := flv.Summarize(buf, streamPos)

	log.Debug("stream summarized",
		logger.Float64("duration", sum.Duration),
		logger.Int("keyframes", sum.Keyframes),
		logger.Bool("has_audio", sum.HasAudio),
		logger.Bool("has_video", sum.HasVideo),
	)

	return &Injector{
		buf:       buf,
		sum:       sum,
		streamPos: streamPos,
		creator:   creator,
		log:       log,
	}, nil
}

// Summary returns the stream summary. FileSize and LastKeyframeLocation are
// settled by WriteTo.
func (in *Injector) Summary() *flv.Summary {
	return in.sum
}

// WriteTo writes the complete output stream to w: file header, zero initial
// previous-tag-size, the onMetaData tag, then every audio and video tag
// copied verbatim from the input. Script-data and unknown tags are dropped.
func (in *Injector) WriteTo(w io.Writer) (int64, error) {
	payloadSize, members, err := measureMetadata(in.sum, in.creator)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeEncoding, "measuring metadata failed", err)
	}

	tagTotal := flv.TagHeaderSize + payloadSize + flv.PrevTagSize
	bias := flv.FileHeaderSize + flv.PrevTagSize + tagTotal

	if in.sum.HasKeyframes {
		in.sum.IndexKeyframes(in.buf, in.streamPos, float64(bias))
	}
	in.sum.FileSize = float64(bias) + in.sum.DataSize

	cw := &countedSink{w: w}

	if err := in.writeFileHeader(cw); err != nil {
		return cw.n, errors.NewWriteError("writing file header failed", err)
	}
	if err := writePrevTagSize(cw, 0); err != nil {
		return cw.n, errors.NewWriteError("writing initial previous-tag-size failed", err)
	}

	if err := writeTagHeader(cw, flv.TagScript, payloadSize); err != nil {
		return cw.n, errors.NewWriteError("writing metadata tag header failed", err)
	}
	written, _, err := writeMetadataPayload(cw, in.sum, in.creator, members)
	if err != nil {
		return cw.n, errors.NewWriteError("writing metadata payload failed", err)
	}
	if written != payloadSize {
		return cw.n, errors.New(errors.ErrCodeEncoding, "metadata size diverged between passes")
	}
	if err := writePrevTagSize(cw, flv.TagHeaderSize+payloadSize); err != nil {
		return cw.n, errors.NewWriteError("writing metadata previous-tag-size failed", err)
	}

	if err := in.copyTags(cw); err != nil {
		return cw.n, err
	}

	in.log.Debug("stream written",
		logger.Int64("bytes", cw.n),
		logger.Int("metadata_payload", payloadSize),
	)

	return cw.n, nil
}

// writeFileHeader emits the 9-byte file header with the audio/video flag
// bits set from the summary, followed by nothing; the caller writes the
// initial previous-tag-size.
func (in *Injector) writeFileHeader(w io.Writer) error {
	var hdr [flv.FileHeaderSize]byte
	hdr[0], hdr[1], hdr[2] = 'F', 'L', 'V'
	hdr[3] = 1

	if in.sum.HasAudio {
		hdr[4] |= 0x04
	}
	if in.sum.HasVideo {
		hdr[4] |= 0x01
	}

	hdr[8] = flv.FileHeaderSize

	_, err := w.Write(hdr[:])
	return err
}

// copyTags copies every audio and video tag, including its trailing
// previous-tag-size, byte for byte in walk order.
func (in *Injector) copyTags(w io.Writer) error {
	walker := flv.NewWalker(in.buf, in.streamPos, in.buf.Len())
	for {
		tag, ok := walker.Next()
		if !ok {
			return nil
		}

		if tag.Header.Type != flv.TagAudio && tag.Header.Type != flv.TagVideo {
			continue
		}

		raw, err := in.buf.Bytes(tag.Offset, tag.Size())
		if err != nil {
			return errors.Wrap(errors.ErrCodeTruncated, "tag slice out of bounds", err)
		}
		if _, err := w.Write(raw); err != nil {
			return errors.NewWriteError("copying tag failed", err)
		}
	}
}

// countedSink tracks how many bytes reached the underlying writer.
type countedSink struct {
	w io.Writer
	n int64
}

func (c *countedSink) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
