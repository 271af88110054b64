package flv

import (
	"encoding/binary"
)

// Test stream builders shared by the package tests.

// testTag assembles a complete tag: header, payload, previous-tag-size.
func testTag(typ byte, timestamp int32, payload []byte) []byte {
	tag := make([]byte, TagHeaderSize+len(payload)+PrevTagSize)

	tag[0] = typ
	tag[1] = byte(len(payload) >> 16)
	tag[2] = byte(len(payload) >> 8)
	tag[3] = byte(len(payload))

	ts := uint32(timestamp)
	tag[4] = byte(ts >> 16)
	tag[5] = byte(ts >> 8)
	tag[6] = byte(ts)
	tag[7] = byte(ts >> 24)

	copy(tag[TagHeaderSize:], payload)
	binary.BigEndian.PutUint32(tag[TagHeaderSize+len(payload):], uint32(TagHeaderSize+len(payload)))

	return tag
}

// testStream assembles a file: header, initial previous-tag-size, tags.
func testStream(flags byte, tags ...[]byte) []byte {
	out := []byte{'F', 'L', 'V', 1, flags, 0, 0, 0, FileHeaderSize, 0, 0, 0, 0}
	for _, tag := range tags {
		out = append(out, tag...)
	}
	return out
}

// streamStart is the offset of the first tag in a testStream result.
const streamStart = FileHeaderSize + PrevTagSize

// Common payloads.

// h263 CIF keyframe: start code, picture size 2.
var h263CIFKeyframe = []byte{0x12, 0x00, 0x00, 0x80, 0x01, 0x00, 0x00}

// h263 CIF inter frame.
var h263CIFInter = []byte{0x22, 0x00, 0x00, 0x80, 0x01, 0x00, 0x00}

// audio, codec 2, 22 kHz, 16-bit, mono.
var audio22kMono = []byte{0x2a, 0x01, 0x02, 0x03}
