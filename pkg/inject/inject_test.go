package inject

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/aminofox/flvmeta/pkg/amf0"
	"github.com/aminofox/flvmeta/pkg/flv"
)

// Test stream builders.

func testTag(typ byte, timestamp int32, payload []byte) []byte {
	tag := make([]byte, flv.TagHeaderSize+len(payload)+flv.PrevTagSize)

	tag[0] = typ
	tag[1] = byte(len(payload) >> 16)
	tag[2] = byte(len(payload) >> 8)
	tag[3] = byte(len(payload))

	ts := uint32(timestamp)
	tag[4] = byte(ts >> 16)
	tag[5] = byte(ts >> 8)
	tag[6] = byte(ts)
	tag[7] = byte(ts >> 24)

	copy(tag[flv.TagHeaderSize:], payload)
	binary.BigEndian.PutUint32(tag[flv.TagHeaderSize+len(payload):], uint32(flv.TagHeaderSize+len(payload)))

	return tag
}

func testStream(flags byte, tags ...[]byte) []byte {
	out := []byte{'F', 'L', 'V', 1, flags, 0, 0, 0, flv.FileHeaderSize, 0, 0, 0, 0}
	for _, tag := range tags {
		out = append(out, tag...)
	}
	return out
}

var (
	h263CIFKeyframe = []byte{0x12, 0x00, 0x00, 0x80, 0x01, 0x00, 0x00}
	h263CIFInter    = []byte{0x22, 0x00, 0x00, 0x80, 0x01, 0x00, 0x00}
	audio22kMono    = []byte{0x2a, 0x01, 0x02, 0x03}
)

// runInjector produces the output stream for an input.
func runInjector(t *testing.T, input []byte, opts Options) []byte {
	t.Helper()

	in, err := New(input, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var out bytes.Buffer
	n, err := in.WriteTo(&out)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(out.Len()) {
		t.Fatalf("WriteTo() = %d, wrote %d bytes", n, out.Len())
	}

	return out.Bytes()
}

// metadataTag extracts the script-data tag that follows the file header and
// returns its payload, checking the framing invariants on the way.
func metadataTag(t *testing.T, out []byte) []byte {
	t.Helper()

	const tagStart = flv.FileHeaderSize + flv.PrevTagSize
	if len(out) < tagStart+flv.TagHeaderSize {
		t.Fatalf("output too short: %d bytes", len(out))
	}

	if out[tagStart] != flv.TagScript {
		t.Fatalf("tag after header has type %d, want %d", out[tagStart], flv.TagScript)
	}

	payloadSize := int(out[tagStart+1])<<16 | int(out[tagStart+2])<<8 | int(out[tagStart+3])
	payloadStart := tagStart + flv.TagHeaderSize
	payloadEnd := payloadStart + payloadSize
	if len(out) < payloadEnd+flv.PrevTagSize {
		t.Fatalf("metadata tag crosses end of output")
	}

	prev := binary.BigEndian.Uint32(out[payloadEnd:])
	if int(prev) != flv.TagHeaderSize+payloadSize {
		t.Errorf("metadata previous-tag-size = %d, want %d", prev, flv.TagHeaderSize+payloadSize)
	}

	return out[payloadStart:payloadEnd]
}

// decodeMetadata decodes the onMetaData payload into a map.
func decodeMetadata(t *testing.T, payload []byte) map[string]interface{} {
	t.Helper()

	dec := amf0.NewDecoder(bytes.NewReader(payload))

	name, err := dec.Decode()
	if err != nil {
		t.Fatalf("decoding metadata name: %v", err)
	}
	if name != "onMetaData" {
		t.Fatalf("metadata name = %v, want onMetaData", name)
	}

	value, err := dec.Decode()
	if err != nil {
		t.Fatalf("decoding metadata array: %v", err)
	}
	arr, ok := value.(map[string]interface{})
	if !ok {
		t.Fatalf("metadata array type = %T", value)
	}
	return arr
}

func TestInjectRejectsNonFLV(t *testing.T) {
	if _, err := New([]byte("MP4\x00 definitely not flv"), Options{}); err == nil {
		t.Error("New() accepted a non-FLV input")
	}
	if _, err := New([]byte("FL"), Options{}); err == nil {
		t.Error("New() accepted a two-byte input")
	}
}

func TestInjectEmptyStream(t *testing.T) {
	out := runInjector(t, testStream(0x00), Options{})

	// File header: signature, version 1, no flags, header length 9.
	wantHeader := []byte{'F', 'L', 'V', 1, 0, 0, 0, 0, 9}
	if !bytes.Equal(out[:9], wantHeader) {
		t.Errorf("header = % x, want % x", out[:9], wantHeader)
	}
	if !bytes.Equal(out[9:13], []byte{0, 0, 0, 0}) {
		t.Errorf("initial previous-tag-size = % x, want zeros", out[9:13])
	}

	meta := decodeMetadata(t, metadataTag(t, out))

	if meta["hasMetadata"] != true {
		t.Error("hasMetadata missing or false")
	}
	if meta["hasAudio"] != false || meta["hasVideo"] != false {
		t.Errorf("hasAudio = %v, hasVideo = %v, want false", meta["hasAudio"], meta["hasVideo"])
	}
	if meta["duration"] != 0.0 {
		t.Errorf("duration = %v, want 0", meta["duration"])
	}
	if meta["datasize"] != 0.0 {
		t.Errorf("datasize = %v, want 0", meta["datasize"])
	}
	if meta["filesize"] != float64(len(out)) {
		t.Errorf("filesize = %v, output is %d bytes", meta["filesize"], len(out))
	}
	if meta["metadatacreator"] != MetadataCreator {
		t.Errorf("metadatacreator = %v", meta["metadatacreator"])
	}

	// Boundary omissions: no audio, video, or keyframe members.
	for _, key := range []string{
		"creator", "videosize", "videocodecid", "width", "height", "framerate",
		"videodatarate", "audiosize", "audiocodecid", "keyframes",
		"lastkeyframetimestamp", "lastkeyframelocation",
	} {
		if _, present := meta[key]; present {
			t.Errorf("member %q present, want omitted", key)
		}
	}
}

func TestInjectAudioOnly(t *testing.T) {
	audioTag := testTag(flv.TagAudio, 100, audio22kMono)
	out := runInjector(t, testStream(0x04, audioTag), Options{})

	// Header audio bit set, video bit clear.
	if out[4] != 0x04 {
		t.Errorf("header flags = %#x, want 0x04", out[4])
	}

	meta := decodeMetadata(t, metadataTag(t, out))

	if meta["audiocodecid"] != 2.0 {
		t.Errorf("audiocodecid = %v, want 2", meta["audiocodecid"])
	}
	if meta["audiosamplerate"] != 22000.0 {
		t.Errorf("audiosamplerate = %v, want 22000", meta["audiosamplerate"])
	}
	if meta["audiosamplesize"] != 16.0 {
		t.Errorf("audiosamplesize = %v, want 16", meta["audiosamplesize"])
	}
	if meta["stereo"] != false {
		t.Errorf("stereo = %v, want false", meta["stereo"])
	}
	if meta["duration"] != 0.1 {
		t.Errorf("duration = %v, want 0.1", meta["duration"])
	}

	// The single audio tag is copied verbatim at the end of the output.
	if !bytes.Equal(out[len(out)-len(audioTag):], audioTag) {
		t.Error("audio tag bytes differ from input")
	}
}

func TestInjectVideoSingleKeyframe(t *testing.T) {
	out := runInjector(t, testStream(0x01, testTag(flv.TagVideo, 0, h263CIFKeyframe)), Options{})

	if out[4] != 0x01 {
		t.Errorf("header flags = %#x, want 0x01", out[4])
	}

	payload := metadataTag(t, out)
	meta := decodeMetadata(t, payload)

	if meta["videocodecid"] != 2.0 {
		t.Errorf("videocodecid = %v, want 2", meta["videocodecid"])
	}
	if meta["width"] != 352.0 || meta["height"] != 288.0 {
		t.Errorf("dimensions = %vx%v, want 352x288", meta["width"], meta["height"])
	}
	if meta["hasKeyframes"] != true {
		t.Error("hasKeyframes = false")
	}
	if meta["canSeekToEnd"] != true {
		t.Error("canSeekToEnd = false")
	}

	keyframes := meta["keyframes"].(map[string]interface{})
	positions := keyframes["filepositions"].([]interface{})
	times := keyframes["times"].([]interface{})

	if len(positions) != 1 || len(times) != 1 {
		t.Fatalf("index sized %d/%d, want 1/1", len(positions), len(times))
	}

	// The single keyframe sits directly after the metadata tag.
	wantPos := float64(flv.FileHeaderSize + flv.PrevTagSize + flv.TagHeaderSize + len(payload) + flv.PrevTagSize)
	if positions[0] != wantPos {
		t.Errorf("filepositions[0] = %v, want %v", positions[0], wantPos)
	}
	if times[0] != 0.0 {
		t.Errorf("times[0] = %v, want 0", times[0])
	}
	if meta["lastkeyframelocation"] != wantPos {
		t.Errorf("lastkeyframelocation = %v, want %v", meta["lastkeyframelocation"], wantPos)
	}
}

func TestInjectKeyframeIndexPointsAtKeyframes(t *testing.T) {
	input := testStream(0x05,
		testTag(flv.TagAudio, 0, audio22kMono),
		testTag(flv.TagVideo, 0, h263CIFKeyframe),
		testTag(flv.TagAudio, 33, audio22kMono),
		testTag(flv.TagVideo, 33, h263CIFInter),
		testTag(flv.TagVideo, 66, h263CIFKeyframe),
	)
	out := runInjector(t, input, Options{})

	meta := decodeMetadata(t, metadataTag(t, out))

	keyframes := meta["keyframes"].(map[string]interface{})
	positions := keyframes["filepositions"].([]interface{})
	times := keyframes["times"].([]interface{})

	if len(positions) != 2 {
		t.Fatalf("filepositions sized %d, want 2", len(positions))
	}
	if times[0] != 0.0 || times[1] != 0.066 {
		t.Errorf("times = %v, want [0 0.066]", times)
	}

	// Each recorded position decodes to a keyframe video tag in the output.
	for i, p := range positions {
		pos := int(p.(float64))
		if pos+flv.TagHeaderSize+1 > len(out) {
			t.Fatalf("filepositions[%d] = %d beyond output", i, pos)
		}
		if out[pos] != flv.TagVideo {
			t.Errorf("filepositions[%d]: tag type = %d, want video", i, out[pos])
		}
		if !flv.IsKeyframe(out[pos+flv.TagHeaderSize]) {
			t.Errorf("filepositions[%d]: not a keyframe", i)
		}

		ts := int32(uint32(out[pos+7])<<24 | uint32(out[pos+4])<<16 | uint32(out[pos+5])<<8 | uint32(out[pos+6]))
		if got := times[i].(float64) * 1000; math.Abs(got-float64(ts)) > 1e-6 {
			t.Errorf("times[%d]*1000 = %v, tag timestamp = %d", i, got, ts)
		}
	}

	if meta["duration"] != 0.066 {
		t.Errorf("duration = %v, want 0.066", meta["duration"])
	}
	if meta["filesize"] != float64(len(out)) {
		t.Errorf("filesize = %v, output is %d bytes", meta["filesize"], len(out))
	}
}

func TestInjectCopiesTagsVerbatim(t *testing.T) {
	tags := [][]byte{
		testTag(flv.TagAudio, 0, audio22kMono),
		testTag(flv.TagVideo, 0, h263CIFKeyframe),
		testTag(flv.TagVideo, 33, h263CIFInter),
	}
	input := testStream(0x05, tags...)
	out := runInjector(t, input, Options{})

	var want []byte
	for _, tag := range tags {
		want = append(want, tag...)
	}

	if !bytes.HasSuffix(out, want) {
		t.Error("copied tag bytes differ from input")
	}

	// datasize covers exactly the copied tags.
	meta := decodeMetadata(t, metadataTag(t, out))
	if meta["datasize"] != float64(len(want)) {
		t.Errorf("datasize = %v, want %d", meta["datasize"], len(want))
	}
}

func TestInjectDropsScriptTags(t *testing.T) {
	input := testStream(0x05,
		testTag(flv.TagScript, 0, []byte{0x02, 0x00, 0x0a}),
		testTag(flv.TagAudio, 0, audio22kMono),
		testTag(flv.TagScript, 50, []byte{0x02}),
	)
	out := runInjector(t, input, Options{})

	buf := flv.NewBuffer(out)
	w := flv.NewWalker(buf, flv.FileHeaderSize+flv.PrevTagSize, buf.Len())

	var scriptTags, audioTags int
	for {
		tag, ok := w.Next()
		if !ok {
			break
		}
		switch tag.Header.Type {
		case flv.TagScript:
			scriptTags++
		case flv.TagAudio:
			audioTags++
		}
	}

	if scriptTags != 1 {
		t.Errorf("output holds %d script tags, want exactly 1", scriptTags)
	}
	if audioTags != 1 {
		t.Errorf("output holds %d audio tags, want 1", audioTags)
	}
}

func TestInjectTruncatedTail(t *testing.T) {
	full := testStream(0x01,
		testTag(flv.TagVideo, 0, h263CIFKeyframe),
		testTag(flv.TagVideo, 33, h263CIFInter),
	)
	input := full[:len(full)-7]

	out := runInjector(t, input, Options{})

	// Only the intact first tag survives.
	buf := flv.NewBuffer(out)
	w := flv.NewWalker(buf, flv.FileHeaderSize+flv.PrevTagSize, buf.Len())

	var tags int
	var lastType byte
	for {
		tag, ok := w.Next()
		if !ok {
			break
		}
		tags++
		lastType = tag.Header.Type
	}

	if tags != 2 { // metadata tag + one video tag
		t.Errorf("output holds %d tags, want 2", tags)
	}
	if lastType != flv.TagVideo {
		t.Errorf("last tag type = %d, want video", lastType)
	}
}

func TestInjectCreator(t *testing.T) {
	out := runInjector(t, testStream(0x00), Options{Creator: "test suite"})

	meta := decodeMetadata(t, metadataTag(t, out))
	if meta["creator"] != "test suite" {
		t.Errorf("creator = %v, want %q", meta["creator"], "test suite")
	}
}

func TestInjectCreatorTruncated(t *testing.T) {
	long := bytes.Repeat([]byte{'a'}, 300)
	out := runInjector(t, testStream(0x00), Options{Creator: string(long)})

	meta := decodeMetadata(t, metadataTag(t, out))
	creator, _ := meta["creator"].(string)
	if len(creator) != 255 {
		t.Errorf("creator length = %d, want 255", len(creator))
	}
}

func TestInjectIdempotent(t *testing.T) {
	input := testStream(0x05,
		testTag(flv.TagAudio, 0, audio22kMono),
		testTag(flv.TagVideo, 0, h263CIFKeyframe),
		testTag(flv.TagVideo, 66, h263CIFKeyframe),
	)

	first := runInjector(t, input, Options{})
	second := runInjector(t, first, Options{})

	// The audio/video tail is unchanged and the regenerated metadata agrees.
	metaFirst := decodeMetadata(t, metadataTag(t, first))
	metaSecond := decodeMetadata(t, metadataTag(t, second))

	tail := func(out []byte) []byte {
		payload := metadataTag(t, out)
		start := flv.FileHeaderSize + flv.PrevTagSize + flv.TagHeaderSize + len(payload) + flv.PrevTagSize
		return out[start:]
	}
	if !bytes.Equal(tail(first), tail(second)) {
		t.Error("audio/video tail changed across a second run")
	}

	for _, key := range []string{"duration", "datasize", "hasKeyframes", "canSeekToEnd"} {
		if metaFirst[key] != metaSecond[key] {
			t.Errorf("%s changed across runs: %v vs %v", key, metaFirst[key], metaSecond[key])
		}
	}

	kfFirst := metaFirst["keyframes"].(map[string]interface{})
	kfSecond := metaSecond["keyframes"].(map[string]interface{})
	posFirst := kfFirst["filepositions"].([]interface{})
	posSecond := kfSecond["filepositions"].([]interface{})
	if len(posFirst) != len(posSecond) {
		t.Fatalf("keyframe count changed: %d vs %d", len(posFirst), len(posSecond))
	}
	for i := range posFirst {
		if posFirst[i] != posSecond[i] {
			t.Errorf("filepositions[%d] changed: %v vs %v", i, posFirst[i], posSecond[i])
		}
	}
}
