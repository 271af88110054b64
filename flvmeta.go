// Package flvmeta injects a synthesized onMetaData tag into FLV streams.
//
// The injected output is byte-identical to the input in its audio and video
// tags; a single script-data tag summarizing the stream (duration, codec
// facts, data rates, and a keyframe index with corrected byte offsets) is
// placed right after the file header. Pre-existing script-data tags are
// dropped.
package flvmeta

import (
	"io"

	"github.com/aminofox/flvmeta/pkg/flv"
	"github.com/aminofox/flvmeta/pkg/inject"
)

// Version is the injector version.
const Version = inject.Version

// Options configures an injection run.
type Options = inject.Options

// Inject parses the FLV stream held in data and writes the injected stream
// to w. It returns the stream summary with FileSize and the keyframe index
// settled.
func Inject(data []byte, w io.Writer, opts Options) (*flv.Summary, error) {
	in, err := inject.New(data, opts)
	if err != nil {
		return nil, err
	}

	if _, err := in.WriteTo(w); err != nil {
		return nil, err
	}

	return in.Summary(), nil
}
