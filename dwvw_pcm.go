package aiff

import (
	"fmt"

	"github.com/go-audio/dwvw/internal/dwvw"
)

// decodeDWVWSamples runs a DWVW/AIFC sound chunk's interleaved per-channel
// bitstreams through the codec, producing plain big-endian PCM bytes at the
// next byte-aligned word size. This is what lets the introspection Decoder
// (FwdToPCM/PCMBuffer/FullPCMBuffer) report and hand back real sample
// values for a DWVW file instead of treating the compressed bitstream as
// if it were already two's-complement PCM.
//
// data holds exactly the per-channel DWVW bitstreams, pad-to-even between
// channels, with no leading offset/blocksize fields (those are consumed by
// the caller before this is called). inWordSize is the COMM-declared DWVW
// delta width.
func decodeDWVWSamples(data []byte, nchannels int, nsamples uint32, inWordSize int) ([]byte, int, error) {
	if nchannels < 1 {
		return nil, 0, fmt.Errorf("dwvw: invalid channel count %d", nchannels)
	}
	if inWordSize < 1 || inWordSize > 32 {
		return nil, 0, fmt.Errorf("dwvw: invalid word size %d", inWordSize)
	}
	outWordSize := 8 * ((inWordSize + 7) / 8)
	out := make([]byte, int(nsamples)*nchannels*outWordSize/8)

	pp := 0
	for ch := 0; ch < nchannels; ch++ {
		if pp > len(data) {
			return nil, 0, fmt.Errorf("dwvw: channel %d: short sound chunk", ch)
		}
		n, err := dwvw.DecodeChannel(data[pp:], int(nsamples), inWordSize, nchannels, out[ch*outWordSize/8:], outWordSize)
		if err != nil {
			return nil, 0, fmt.Errorf("dwvw: channel %d: %w", ch, err)
		}
		pp += n
		if pp%2 != 0 {
			pp++
		}
	}
	return out, outWordSize, nil
}
