package flv

// IndexKeyframes walks the stream a second time and records, for every
// keyframe, its byte offset in the output file and its timestamp in seconds.
//
// Offsets are tracked against the output layout: only audio and video tags
// advance the position, since script-data tags are not copied. bias is the
// byte length of everything that precedes the copied data in the output
// (file header, initial previous-tag-size, and the metadata tag), which the
// caller knows only after measuring the serialized metadata.
//
// The walk must run over the same buffer and start offset as Summarize; the
// index slices were sized by that pass.
func (s *Summary) IndexKeyframes(buf *Buffer, start int, bias float64) {
	if s.Keyframes == 0 {
		return
	}

	i := 0
	dataPos := 0

	w := NewWalker(buf, start, buf.Len())
	for {
		tag, ok := w.Next()
		if !ok {
			break
		}

		if tag.Header.Type == TagVideo && len(tag.Payload) > 0 && IsKeyframe(tag.Payload[0]) && i < s.Keyframes {
			s.FilePositions[i] = bias + float64(dataPos)
			s.Times[i] = tag.Header.Seconds()
			i++
		}

		if tag.Header.Type == TagAudio || tag.Header.Type == TagVideo {
			dataPos += tag.Size()
		}
	}

	s.LastKeyframeLocation = s.FilePositions[s.Keyframes-1]
}
