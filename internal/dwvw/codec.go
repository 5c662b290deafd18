// Package dwvw implements the Delta With Variable Word Width codec: an
// invertible, bit-packed, variable-width delta encoder/decoder whose state
// carries a running sample value and a running delta width, both wrapping
// modulo the word size.
//
// This is a direct Go port of dwvw.c's encodedwvw/decodedwvw, which is the
// canonical iteration; an earlier decoder.c/decoder.h pair in the same
// source tree diverges on the width-wrap comparison (> vs >=) and is not
// used here.
package dwvw

import (
	"fmt"

	"github.com/go-audio/dwvw/internal/beio"
)

type word = int64

func bit(shift word) word { return word(1) << uint(shift) }

// EncodeChannel converts nsamples interleaved samples from input (inWordSize
// bits wide, stride samples per frame) into a DWVW bitstream written into
// output (outWordSize bits per DWVW delta). It returns the number of bytes
// written (ceil(bits/8)) and a non-nil error if the output buffer overflowed.
func EncodeChannel(input []byte, nsamples, inWordSize, stride int, output []byte, outWordSize int) (int, error) {
	w := word(outWordSize)
	bw := NewBitWriter(output)
	var lastSample, lastWidth word
	deltaRange := bit(w-1) - 1

	inStep := stride * inWordSize / 8
	off := 0
	for j := 0; j < nsamples; j++ {
		sample := word(beio.ReadInt(input[off:], inWordSize))
		off += inStep

		if outWordSize > inWordSize {
			sample <<= uint(outWordSize - inWordSize)
		} else {
			sample >>= uint(inWordSize - outWordSize) // no dithering
		}

		delta := sample - lastSample
		lastSample = sample
		switch {
		case delta >= bit(w-1):
			delta -= bit(w)
		case delta < -bit(w-1):
			delta += bit(w)
		}

		deltaSign := delta < 0
		mag := delta
		if deltaSign {
			mag = -mag
		}
		// -2^(w-1) is sent as magnitude 2^(w-1)-1 followed by an extra bit
		// of 1, so its width stays below w.
		sent := mag
		if sent > deltaRange {
			sent = deltaRange
		}
		var width word
		for bit(width) <= sent {
			width++
		}

		wdm := width - lastWidth
		lastWidth = width
		switch {
		case wdm > w/2:
			wdm -= w
		case wdm < -w/2:
			wdm += w
		}
		wdmSign := wdm < 0
		if wdmSign {
			wdm = -wdm
		}

		for i := word(0); i < wdm; i++ {
			bw.PutBit(0)
		}
		if wdm < w/2 {
			bw.PutBit(1)
		}
		if wdm != 0 {
			bw.PutBit(boolBit(wdmSign))
		}

		for i := word(1); i < width; i++ {
			bw.PutBit(int((sent >> uint(width-1-i)) & 1))
		}
		if width != 0 {
			bw.PutBit(boolBit(deltaSign))
		}

		if deltaSign && mag >= deltaRange {
			extra := 0
			if mag == deltaRange+1 {
				extra = 1
			}
			bw.PutBit(extra)
		}
	}

	if bw.Overflowed() {
		return bw.Bytes(), fmt.Errorf("dwvw: encode overflow: output buffer too small for %d samples", nsamples)
	}
	return bw.Bytes(), nil
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Decoder decodes a single channel's DWVW bitstream one sample at a time,
// carrying the running sample value and delta width across calls.
type Decoder struct {
	br         *BitReader
	sample     word
	deltaWidth word
	wordSize   word
}

// NewDecoder creates a decoder reading from data, where wordSize is the
// DWVW bit width ("inwordsize" in spec terms).
func NewDecoder(wordSize int, data []byte) *Decoder {
	return &Decoder{br: NewBitReader(data), wordSize: word(wordSize)}
}

// Next decodes the next sample. It returns an error if the bit cursor has
// already reached the end of the bitstream before the sample is decoded.
func (d *Decoder) Next() (word, error) {
	if d.br.Overflow() {
		return d.sample, fmt.Errorf("dwvw: read overflow")
	}
	w := d.wordSize
	var dwm word
	for dwm < w/2 && d.br.GetBit() == 0 {
		dwm++
	}
	if dwm != 0 {
		if d.br.GetBit() != 0 {
			dwm = -dwm
		}
		d.deltaWidth += dwm
		switch {
		case d.deltaWidth >= w:
			d.deltaWidth -= w
		case d.deltaWidth < 0:
			d.deltaWidth += w
		}
	}

	if d.deltaWidth != 0 {
		var delta word = 1
		for i := word(1); i < d.deltaWidth; i++ {
			delta = delta<<1 | word(d.br.GetBit())
		}
		if d.br.GetBit() != 0 {
			delta = -delta
		}
		if delta == 1-bit(w-1) {
			delta -= word(d.br.GetBit())
		}
		d.sample += delta
		switch {
		case d.sample >= bit(w-1):
			d.sample -= bit(w)
		case d.sample < -bit(w-1):
			d.sample += bit(w)
		}
	}

	return d.sample, nil
}

// Pos returns ceil(bits consumed / 8), the number of bytes of the input
// bitstream this decoder has used so far.
func (d *Decoder) Pos() int { return d.br.Pos() }

// DecodeChannel decodes nsamples from a DWVW bitstream (inWordSize bits
// wide) into output, writing outWordSize-bit big-endian samples interleaved
// at stride. It returns the number of input bytes consumed.
func DecodeChannel(input []byte, nsamples, inWordSize, stride int, output []byte, outWordSize int) (int, error) {
	d := NewDecoder(inWordSize, input)
	outStep := stride * outWordSize / 8
	off := 0
	for j := 0; j < nsamples; j++ {
		sample, err := d.Next()
		if err != nil {
			return d.Pos(), fmt.Errorf("dwvw: sample %d: %w", j, err)
		}
		beio.PutBE(int64(sample<<uint(outWordSize-inWordSize)), outWordSize, output[off:])
		off += outStep
	}
	return d.Pos(), nil
}
