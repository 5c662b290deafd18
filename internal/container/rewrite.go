package container

import (
	"fmt"
	"math"

	"github.com/go-audio/dwvw/internal/beio"
	"github.com/go-audio/dwvw/internal/dwvw"
)

// DefaultCompressedWordSize is the DWVW delta width used when compressing,
// unless a caller overrides it. 12 bits is the conventional Typhoon choice.
const DefaultCompressedWordSize = 12

// dwvwCompressionInfo is the literal "DWVW" compression-type tag, Pascal
// length byte and name text written into a compressed COMM chunk. The
// trailing zero both completes the declared 31-byte Pascal string (whose
// text is 30 characters) and pads the chunk to an even length.
var dwvwCompressionInfo = append([]byte("DWVW\x1fDelta With Variable Word Width"), 0)

// noneCompressionInfo is the analogous "NONE" tag written into a
// decompressed COMM chunk; its trailing zero is pure even-byte padding.
var noneCompressionInfo = append([]byte("NONE\x0enot compressed"), 0)

// Compress rewrites an uncompressed AIFF/AIFC FORM in input into a new
// AIFC/DWVW FORM, encoding each channel's samples at compressedWordSize
// bits. Every non-COMM, non-SSND chunk is copied through byte-for-byte.
func Compress(input []byte, compressedWordSize int16) ([]byte, error) {
	form, err := ParseForm(input)
	if err != nil {
		return nil, err
	}
	comm, err := ParseComm(input, form.Type)
	if err != nil {
		return nil, err
	}
	if form.Type == AIFCID && comm.CompressionType != EncodingNone {
		return nil, fmt.Errorf("%w: unsupported input AIFC compression format: %q", ErrMalformed, comm.CompressionType)
	}
	if comm.WordSize%8 != 0 {
		return nil, fmt.Errorf("%w: unsupported input word size: %d", ErrMalformed, comm.WordSize)
	}

	w := int64(compressedWordSize)
	perSampleBits := w + w/2 + 1
	perSampleBytes := (perSampleBits + 7) / 8
	bound := int64(len(input)) + perSampleBytes*int64(comm.NumChannels)*int64(comm.NumSamples)
	if bound > math.MaxInt32 {
		return nil, fmt.Errorf("%w: output size overflow", ErrMalformed)
	}

	out := make([]byte, bound)
	q := 12
	p := 12
	for p <= len(input)-8 {
		id := [4]byte{input[p], input[p+1], input[p+2], input[p+3]}
		size := int32(beio.ReadInt(input[p+4:p+8], 32))

		switch id {
		case CommID:
			compressOff := 18 + 8
			copy(out[q:q+compressOff], input[p:p+compressOff])
			beio.PutBE(int64(compressedWordSize), 16, out[q+14:q+16])
			copy(out[q+compressOff:], dwvwCompressionInfo)
			beio.PutBE(int64(18+len(dwvwCompressionInfo)), 32, out[q+4:q+8])
			q += compressOff + len(dwvwCompressionInfo)
		case SsndID:
			ssnd := q
			q += 16
			for i := 0; i < int(comm.NumChannels); i++ {
				chanInput := input[p+16+i*int(comm.WordSize)/8:]
				n, err := dwvw.EncodeChannel(chanInput, int(comm.NumSamples), int(comm.WordSize), int(comm.NumChannels), out[q:], int(compressedWordSize))
				if err != nil {
					return nil, err
				}
				q += n
				if q >= len(out) {
					return nil, fmt.Errorf("%w: write overflow", ErrMalformed)
				}
				if (q-ssnd)&1 != 0 {
					q++
				}
			}
			copy(out[ssnd:ssnd+4], SsndID[:])
			beio.PutBE(int64(q-ssnd-8), 32, out[ssnd+4:ssnd+8])
			beio.PutBE(0, 32, out[ssnd+8:ssnd+12])
			beio.PutBE(0, 32, out[ssnd+12:ssnd+16])
		default:
			n := chunkEnd(p, size) - p
			copy(out[q:q+n], input[p:p+n])
			q += n
		}
		p = chunkEnd(p, size)
	}

	out = out[:q]
	WriteFormHeader(out, int32(len(out)-8))
	return out, nil
}

// Decompress rewrites an AIFC/DWVW FORM in input into a new AIFC FORM with
// uncompressed samples, decoding each channel. Every non-COMM, non-SSND
// chunk is copied through byte-for-byte.
func Decompress(input []byte) ([]byte, error) {
	form, err := ParseForm(input)
	if err != nil {
		return nil, err
	}
	comm, err := ParseComm(input, form.Type)
	if err != nil {
		return nil, err
	}
	if form.Type != AIFCID || comm.CompressionType != EncodingDwvw {
		return nil, fmt.Errorf("%w: unsupported input AIFC compression format: %q", ErrMalformed, comm.CompressionType)
	}

	outWordSize := int16(8 * ((comm.WordSize + 7) / 8))
	bound := int64(len(input)) + int64(comm.NumChannels)*int64(comm.NumSamples)*int64(outWordSize)/8
	if bound > math.MaxInt32 {
		return nil, fmt.Errorf("%w: output size overflow", ErrMalformed)
	}

	out := make([]byte, bound)
	q := 12
	p := 12
	for p <= len(input)-8 {
		id := [4]byte{input[p], input[p+1], input[p+2], input[p+3]}
		size := int32(beio.ReadInt(input[p+4:p+8], 32))

		switch id {
		case CommID:
			compressOff := 18 + 8
			copy(out[q:q+compressOff], input[p:p+compressOff])
			beio.PutBE(int64(outWordSize), 16, out[q+14:q+16])
			copy(out[q+compressOff:], noneCompressionInfo)
			beio.PutBE(int64(18+len(noneCompressionInfo)), 32, out[q+4:q+8])
			q += compressOff + len(noneCompressionInfo)
		case SsndID:
			ssnd := q
			pp := p + 16
			chunkEndOffset := p + 8 + int(size)
			q += 16
			for i := 0; i < int(comm.NumChannels); i++ {
				n, err := dwvw.DecodeChannel(input[pp:chunkEndOffset], int(comm.NumSamples), int(comm.WordSize), int(comm.NumChannels), out[q+i*int(outWordSize)/8:], int(outWordSize))
				if err != nil {
					return nil, err
				}
				pp += n
				if (pp-p)&1 != 0 {
					pp++
				}
			}
			q += int(comm.NumChannels) * int(comm.NumSamples) * int(outWordSize) / 8
			copy(out[ssnd:ssnd+4], SsndID[:])
			beio.PutBE(int64(q-ssnd-8), 32, out[ssnd+4:ssnd+8])
			beio.PutBE(0, 32, out[ssnd+8:ssnd+12])
			beio.PutBE(0, 32, out[ssnd+12:ssnd+16])
		default:
			n := chunkEnd(p, size) - p
			copy(out[q:q+n], input[p:p+n])
			q += n
		}
		p = chunkEnd(p, size)
	}

	out = out[:q]
	WriteFormHeader(out, int32(len(out)-8))
	return out, nil
}
