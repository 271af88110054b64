package flv

// Summary aggregates the stream facts that end up in the onMetaData tag.
// It is produced by Summarize and read-only afterwards, except for FileSize
// and LastKeyframeLocation which the emitter fills in once the size of the
// metadata tag is known.
//
// The numeric fields are float64 because every value crosses the wire as an
// IEEE-754 double.
type Summary struct {
	HasKeyframes bool
	HasVideo     bool
	HasAudio     bool
	HasMetadata  bool
	CanSeekToEnd bool

	AudioCodecID    float64
	AudioSampleRate float64
	AudioDataRate   float64
	AudioSampleSize float64
	Stereo          bool

	VideoCodecID  float64
	FrameRate     float64
	VideoDataRate float64
	Height        float64
	Width         float64

	// DataSize counts every audio/video tag including its trailing
	// previous-tag-size field. AudioSize and VideoSize exclude the trailer.
	DataSize  float64
	AudioSize float64
	VideoSize float64
	FileSize  float64

	LastTimestamp         float64
	LastKeyframeTimestamp float64
	LastKeyframeLocation  float64

	// Keyframes counts video tags whose frame type marks a keyframe.
	// FilePositions and Times are allocated here, zero-filled, and filled in
	// by the second pass.
	Keyframes     int
	FilePositions []float64
	Times         []float64
	Duration      float64
}

// Summarize walks the stream once, from the offset just past the file header
// and its initial previous-tag-size, and derives the stream-level facts. A
// truncated or malformed tail terminates the walk cleanly, so the summary
// covers the well-formed prefix.
func Summarize(buf *Buffer, start int) *Summary {
	sum := &Summary{HasMetadata: true}

	var audioBytes, videoBytes int64
	var audioTags, videoTags int64

	w := NewWalker(buf, start, buf.Len())
	for {
		tag, ok := w.Next()
		if !ok {
			break
		}

		switch tag.Header.Type {
		case TagAudio:
			sum.DataSize += float64(tag.Size())
			sum.AudioSize += float64(tag.Size() - PrevTagSize)
			audioBytes += int64(tag.Header.DataSize)
			audioTags++

			if !sum.HasAudio && len(tag.Payload) > 0 {
				props := ParseAudioFlags(tag.Payload[0])
				sum.AudioCodecID = props.CodecID
				sum.AudioSampleRate = props.SampleRate
				sum.AudioSampleSize = props.SampleSize
				sum.Stereo = props.Stereo
				sum.HasAudio = true
			}

		case TagVideo:
			sum.DataSize += float64(tag.Size())
			sum.VideoSize += float64(tag.Size() - PrevTagSize)
			videoBytes += int64(tag.Header.DataSize)
			videoTags++

			if len(tag.Payload) == 0 {
				break
			}
			flags := tag.Payload[0]

			if !sum.HasVideo {
				sum.VideoCodecID = float64(VideoCodecID(flags))
				sum.Width, sum.Height = ProbeDimensions(VideoCodecID(flags), tag.Payload[1:])
				sum.HasVideo = true
			}

			// CanSeekToEnd tracks the last video tag seen, so the final
			// value tells whether the stream ends on a keyframe.
			if IsKeyframe(flags) {
				sum.CanSeekToEnd = true
				sum.Keyframes++
				sum.LastKeyframeTimestamp = tag.Header.Seconds()
			} else {
				sum.CanSeekToEnd = false
			}
		}

		sum.LastTimestamp = tag.Header.Seconds()
	}

	sum.Duration = sum.LastTimestamp

	if sum.Keyframes > 0 {
		sum.HasKeyframes = true
		sum.FilePositions = make([]float64, sum.Keyframes)
		sum.Times = make([]float64, sum.Keyframes)
	}

	if videoTags > 0 && sum.Duration > 0 {
		sum.FrameRate = float64(videoTags) / sum.Duration
	}

	// Data rates use a 1024 divisor (kibibits). Consumers of this metadata
	// have come to expect it, so it stays.
	if videoBytes > 0 && sum.Duration > 0 {
		sum.VideoDataRate = float64(videoBytes*8) / 1024.0 / sum.Duration
	}
	if audioBytes > 0 && sum.Duration > 0 {
		sum.AudioDataRate = float64(audioBytes*8) / 1024.0 / sum.Duration
	}

	return sum
}
