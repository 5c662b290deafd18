package aiff

import (
	"bytes"
	"testing"

	"github.com/go-audio/dwvw/internal/dwvw"
)

// buildDWVWSSNDPayload encodes interleaved 16-bit PCM samples into per-channel
// DWVW bitstreams at compressedWordSize bits, laid out as the part of an SSND
// payload that internal/container.Compress writes after the offset/blocksize
// zero fields: each channel's stream padded to an even byte count. The two
// zero fields are not included; buildAIFF adds them.
func buildDWVWSSNDPayload(t *testing.T, samples []int16, channels, compressedWordSize int) []byte {
	t.Helper()
	frames := len(samples) / channels
	input := make([]byte, len(samples)*2)
	for i, s := range samples {
		input[i*2] = byte(uint16(s) >> 8)
		input[i*2+1] = byte(uint16(s))
	}

	var body []byte
	for ch := 0; ch < channels; ch++ {
		bound := (frames*(compressedWordSize+compressedWordSize/2+2) + 7) / 8
		packed := make([]byte, bound)
		n, err := dwvw.EncodeChannel(input[ch*2:], frames, 16, channels, packed, compressedWordSize)
		if err != nil {
			t.Fatalf("channel %d: encode failed: %v", ch, err)
		}
		chanBytes := packed[:n]
		body = append(body, chanBytes...)
		if len(chanBytes)%2 != 0 {
			body = append(body, 0)
		}
	}
	return body
}

// TestDecoderDecodesDWVWSoundData pins down the fix for the bug where the
// root Decoder accepted DWVW-tagged AIFC as "valid" but handed back the raw
// bit-packed stream as if it were two's-complement PCM. FwdToPCM must run
// the sound chunk through the DWVW codec before PCMBuffer/FullPCMBuffer ever
// see it.
func TestDecoderDecodesDWVWSoundData(t *testing.T) {
	// Multiples of 16 (2^4) so the 16-bit -> 12-bit DWVW downshift loses no
	// bits and the round trip is exact.
	samples := []int16{0, 16, -16, 1600, -1600, 320, -320, 0, 48, -48, 3200, -3200}
	const compressedWordSize = 12

	payload := buildDWVWSSNDPayload(t, samples, 1, compressedWordSize)
	raw := buildAIFF(1, uint16(compressedWordSize), uint32(len(samples)), rate44100, true, encDwvw, payload, nil)

	d := NewDecoder(bytes.NewReader(raw))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if d.BitDepth != 16 {
		t.Fatalf("expected the decoded bit depth to be widened to 16, got %d", d.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Data))
	}
	for i, want := range samples {
		if buf.Data[i] != int(want) {
			t.Fatalf("sample %d: expected %d, got %d", i, want, buf.Data[i])
		}
	}
}

// TestDecoderDecodesDWVWMultiChannel exercises the interleaved multi-channel
// path, matching Scenario C of the codec's round-trip invariants.
func TestDecoderDecodesDWVWMultiChannel(t *testing.T) {
	samples := []int16{0, 0, 160, -160, -320, 320, 480, -480}
	const compressedWordSize = 12

	payload := buildDWVWSSNDPayload(t, samples, 2, compressedWordSize)
	raw := buildAIFF(2, uint16(compressedWordSize), uint32(len(samples)/2), rate44100, true, encDwvw, payload, nil)

	d := NewDecoder(bytes.NewReader(raw))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(buf.Data))
	}
	for i, want := range samples {
		if buf.Data[i] != int(want) {
			t.Fatalf("sample %d: expected %d, got %d", i, want, buf.Data[i])
		}
	}
}
