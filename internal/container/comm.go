package container

import (
	"fmt"

	"github.com/go-audio/dwvw/internal/beio"
)

// MaxChannels bounds nchannels; the format realistically carries a handful
// of channels and this keeps per-channel worst-case output sizing sane.
const MaxChannels = 2

// Comm holds the semantic fields of a COMM chunk that the codec and
// rewriter need.
type Comm struct {
	Size            int32
	NumChannels     int16
	NumSamples      uint32
	WordSize        int16
	SampleRate      [10]byte
	CompressionType [4]byte
	CompressionName string
}

// ParseComm extracts and validates the fields of the unique COMM chunk found
// in buf[12:]. formType selects the minimum chunk size (18 for AIFF, 22 for
// AIFC) and whether a compression type/name is expected.
func ParseComm(buf []byte, formType [4]byte) (Comm, error) {
	chunk, _, ok, err := FindUniqueChunk(CommID, buf, 12)
	if err != nil {
		return Comm{}, err
	}
	if !ok {
		return Comm{}, fmt.Errorf("%w: cannot find COMM chunk", ErrMalformed)
	}

	minSize := int32(18)
	if formType == AIFCID {
		minSize = 22
	}
	if chunk.Size < minSize {
		return Comm{}, fmt.Errorf("%w: COMM chunk too small: %d", ErrMalformed, chunk.Size)
	}

	data := chunk.Data
	cm := Comm{Size: chunk.Size}
	cm.NumChannels = int16(beio.ReadInt(data[0:2], 16))
	if cm.NumChannels < 1 {
		return Comm{}, fmt.Errorf("%w: invalid number of channels: %d", ErrMalformed, cm.NumChannels)
	}
	if int(cm.NumChannels) > MaxChannels {
		return Comm{}, fmt.Errorf("%w: too many channels: %d (max %d)", ErrMalformed, cm.NumChannels, MaxChannels)
	}
	cm.NumSamples = uint32(beio.ReadUint(data[2:6], 32))
	cm.WordSize = int16(beio.ReadInt(data[6:8], 16))
	if cm.WordSize < 1 || cm.WordSize > 32 {
		return Comm{}, fmt.Errorf("%w: invalid wordsize: %d", ErrMalformed, cm.WordSize)
	}
	copy(cm.SampleRate[:], data[8:18])

	if chunk.Size >= 22 {
		copy(cm.CompressionType[:], data[18:22])
		cm.CompressionName = pascalString(data[22:])
	}
	return cm, nil
}

// pascalString reads a Pascal-style length-prefixed string: a length byte
// followed by that many bytes of text.
func pascalString(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	n := int(data[0])
	if n+1 > len(data) {
		n = len(data) - 1
	}
	return string(data[1 : 1+n])
}
