package flv

// ProbeDimensions extracts the frame width and height from the start of a
// video payload, excluding the leading flags byte. Unknown codec ids and
// payloads too short to carry their packet header leave both dimensions at
// zero; the metadata emitter omits zero dimensions.
func ProbeDimensions(codecID byte, p []byte) (width, height float64) {
	switch codecID {
	case CodecH263:
		return probeH263(p)
	case CodecScreen, CodecScreenV2:
		return probeScreenVideo(p)
	case CodecVP6:
		return probeVP6(p)
	case CodecVP6Alpha:
		return probeVP6Alpha(p)
	}
	return 0, 0
}

// probeH263 decodes the picture header of an H.263 packet.
//
//	8bit  |pppppppp|pppppppp|pvvvvvrr|rrrrrrss|swwwwwww|whhhhhhh|h
//	16bit |pppppppp|pppppppp|pvvvvvrr|rrrrrrss|swwwwwww|wwwwwwww|whhhhhhh|hhhhhhhh|h
func probeH263(p []byte) (width, height float64) {
	if len(p) < 5 {
		return 0, 0
	}

	// 17-bit picture start code. Packets without it carry no usable header.
	startCode := (uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])) >> 7
	if startCode != 1 {
		return 0, 0
	}

	pictureSize := (p[3]&0x03)<<1 | (p[4]>>7)&0x01

	switch pictureSize {
	case 0: // custom, 8-bit
		if len(p) < 7 {
			return 0, 0
		}
		width = float64(uint32(p[4]&0x7f)<<1 | uint32(p[5]>>7)&0x01)
		height = float64(uint32(p[5]&0x7f)<<1 | uint32(p[6]>>7)&0x01)
	case 1: // custom, 16-bit
		if len(p) < 9 {
			return 0, 0
		}
		width = float64(uint32(p[4]&0x7f)<<9 | uint32(p[5])<<1 | uint32(p[6]>>7)&0x01)
		height = float64(uint32(p[6]&0x7f)<<9 | uint32(p[7])<<1 | uint32(p[8]>>7)&0x01)
	case 2: // CIF
		width, height = 352, 288
	case 3: // QCIF
		width, height = 176, 144
	case 4: // SQCIF
		width, height = 128, 96
	case 5:
		width, height = 320, 240
	case 6:
		width, height = 160, 120
	}

	return width, height
}

// probeScreenVideo decodes a screen video packet header (v1 and v2 share it).
//
//	|1111wwww|wwwwwwww|2222hhhh|hhhhhhhh|
func probeScreenVideo(p []byte) (width, height float64) {
	if len(p) < 4 {
		return 0, 0
	}
	width = float64(uint32(p[0]&0x0f)<<8 | uint32(p[1]))
	height = float64(uint32(p[2]&0x0f)<<8 | uint32(p[3]))
	return width, height
}

// probeVP6 decodes a VP6 packet header. The high and low nibbles of the
// first byte hold the horizontal and vertical crop applied to the coded
// macroblock dimensions.
func probeVP6(p []byte) (width, height float64) {
	if len(p) < 5 {
		return 0, 0
	}
	width = float64(int(p[4])*16 - int(p[0]>>4))
	height = float64(int(p[3])*16 - int(p[0]&0x0f))
	return width, height
}

// probeVP6Alpha decodes a VP6-with-alpha packet header. The alpha offset
// field shifts the dimension bytes relative to plain VP6.
func probeVP6Alpha(p []byte) (width, height float64) {
	if len(p) < 8 {
		return 0, 0
	}
	width = float64(int(p[7])*16 - int(p[0]>>4))
	height = float64(int(p[6])*16 - int(p[0]&0x0f))
	return width, height
}
