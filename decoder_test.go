package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

// rate44100 and rate22050 are the 80-bit IEEE extended float encodings AIFF
// uses for its COMM sample rate field, for the two rates these tests build
// fixtures at.
var (
	rate44100 = [10]byte{0x40, 0x0E, 0xAC, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	rate22050 = [10]byte{0x40, 0x0D, 0xAC, 0x44, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
)

func be16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func chunk(id string, body []byte) []byte {
	out := append([]byte(id), be32(uint32(len(body)))...)
	out = append(out, body...)
	if len(body)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// buildAIFF assembles a minimal, valid FORM AIFF/AIFC buffer: a COMM chunk
// describing numChans/numFrames/bitDepth/sampleRate, an optional AIFC
// encoding tag, and an SSND chunk wrapping samples. Extra lets a test splice
// in additional chunks (COMT, BASC, CATE) between COMM and SSND.
func buildAIFF(numChans, bitDepth uint16, numFrames uint32, sampleRate [10]byte, aifc bool, encoding [4]byte, samples []byte, extra []byte) []byte {
	var comm []byte
	comm = append(comm, be16(numChans)...)
	comm = append(comm, be32(numFrames)...)
	comm = append(comm, be16(bitDepth)...)
	comm = append(comm, sampleRate[:]...)
	if aifc {
		comm = append(comm, encoding[:]...)
		name := []byte("")
		comm = append(comm, byte(len(name)))
		comm = append(comm, name...)
	}
	commChunk := chunk("COMM", comm)

	ssnd := append(be32(0), be32(0)...)
	ssnd = append(ssnd, samples...)
	ssndChunk := chunk("SSND", ssnd)

	body := append([]byte{}, commChunk...)
	body = append(body, extra...)
	body = append(body, ssndChunk...)

	formType := "AIFF"
	if aifc {
		formType = "AIFC"
	}
	var form []byte
	form = append(form, []byte("FORM")...)
	form = append(form, be32(uint32(len(formType)+len(body)))...)
	form = append(form, []byte(formType)...)
	form = append(form, body...)
	return form
}

func TestDecoderReadsPlainAIFF(t *testing.T) {
	samples := []byte{0, 10, 0, 20, 0, 30, 255, 246} // four 16-bit BE samples
	raw := buildAIFF(1, 16, 4, rate22050, false, [4]byte{}, samples, nil)

	d := NewDecoder(bytes.NewReader(raw))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer failed: %v", err)
	}
	if d.NumChans != 1 {
		t.Fatalf("expected 1 channel, got %d", d.NumChans)
	}
	if d.BitDepth != 16 {
		t.Fatalf("expected 16 bit depth, got %d", d.BitDepth)
	}
	if d.SampleRate != 22050 {
		t.Fatalf("expected 22050 Hz, got %d", d.SampleRate)
	}
	want := []int{10, 20, 30, -10}
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i, s := range want {
		if buf.Data[i] != s {
			t.Fatalf("sample %d: expected %d, got %d", i, s, buf.Data[i])
		}
	}
}

func TestDecoderReadsAIFCDwvw(t *testing.T) {
	samples := []byte{1, 2, 3, 4}
	raw := buildAIFF(1, 8, 4, rate44100, true, encDwvw, samples, nil)

	d := NewDecoder(bytes.NewReader(raw))
	if !d.IsValidFile() {
		t.Fatal("expected a DWVW-tagged AIFC to be considered valid")
	}
	if d.Form != aifcID {
		t.Fatalf("expected AIFC form, got %q", d.Form)
	}
	if d.Encoding != encDwvw {
		t.Fatalf("expected DWVW encoding tag, got %q", d.Encoding)
	}
}

func TestDecoder_Duration(t *testing.T) {
	raw := buildAIFF(1, 16, 22050, rate22050, false, [4]byte{}, make([]byte, 22050*2), nil)
	d := NewDecoder(bytes.NewReader(raw))
	dur, err := d.Duration()
	if err != nil {
		t.Fatal(err)
	}
	if dur != time.Second {
		t.Fatalf("expected a 1 second clip, got %v", dur)
	}
}

func TestDecoder_IsValidFile(t *testing.T) {
	testCases := []struct {
		name    string
		raw     []byte
		isValid bool
	}{
		{"plain aiff", buildAIFF(1, 16, 1, rate22050, false, [4]byte{}, []byte{0, 0}, nil), true},
		{"sowt aifc", buildAIFF(2, 16, 1, rate44100, true, encSowt, []byte{0, 0, 0, 0}, nil), true},
		{"unsupported aifc encoding", buildAIFF(1, 16, 1, rate22050, true, [4]byte{'f', 'l', '3', '2'}, []byte{0, 0, 0, 0}, nil), false},
		{"garbage", []byte("not an aiff file at all"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDecoder(bytes.NewReader(tc.raw))
			if d.IsValidFile() != tc.isValid {
				t.Fatalf("expected valid=%t, got %t", tc.isValid, d.IsValidFile())
			}
			if _, err := d.Seek(0, io.SeekStart); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestChunkDoneAndJump(t *testing.T) {
	c := &Chunk{}
	if err := c.Jump(1); err == nil {
		t.Fatal("expected an error jumping in a chunk with no reader")
	}

	data := []byte("abcdefgh")
	c = &Chunk{R: bytes.NewReader(data), Size: len(data)}
	if err := c.Jump(1); err != nil {
		t.Fatal(err)
	}
	b, err := c.ReadByte()
	if err != nil {
		t.Fatal(err)
	}
	if b != data[1] {
		t.Fatalf("expected %x, got %x", data[1], b)
	}

	// Done should drain whatever is left without error.
	c.Done()
	if c.Pos != c.Size {
		t.Fatalf("expected Done to fully consume the chunk, Pos=%d Size=%d", c.Pos, c.Size)
	}
}

func TestDecoderRewindAfterValidation(t *testing.T) {
	raw := buildAIFF(1, 16, 1, rate22050, false, [4]byte{}, []byte{0, 0}, nil)
	d := NewDecoder(bytes.NewReader(raw))
	if !d.IsValidFile() {
		t.Fatal("expected file to be valid")
	}
	if _, err := d.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	d2 := NewDecoder(bytes.NewReader(raw))
	buf, err := d2.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if buf.NumFrames() != 1 {
		t.Fatalf("expected 1 frame, got %d", buf.NumFrames())
	}
}

func TestDecoderNilSafety(t *testing.T) {
	var d *Decoder
	if d.SampleBitDepth() != 0 {
		t.Fatal("expected 0 on a nil decoder")
	}
	if d.PCMLen() != 0 {
		t.Fatal("expected 0 on a nil decoder")
	}
	if !d.EOF() {
		t.Fatal("expected a nil decoder to report EOF")
	}
	if d.WasPCMAccessed() {
		t.Fatal("expected a nil decoder to report no PCM access")
	}
	if d.Format() != nil {
		t.Fatal("expected a nil format")
	}
	if _, err := d.Duration(); err == nil {
		t.Fatal("expected an error computing duration on a nil decoder")
	}
}

func TestDecoderErrors(t *testing.T) {
	d := NewDecoder(bytes.NewReader([]byte("RIFFxxxxWAVE")))
	if d.IsValidFile() {
		t.Fatal("expected a non-FORM file to be invalid")
	}
	if !errors.Is(d.Err(), ErrFmtNotSupported) {
		t.Fatalf("expected ErrFmtNotSupported, got %v", d.Err())
	}
}
