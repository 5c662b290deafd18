package aiff

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-audio/audio"
)

func TestDecoderPCMBufferStreaming(t *testing.T) {
	want := []int{10, 20, 30, -10, 5, -5}
	samples := make([]byte, 0, len(want)*2)
	for _, s := range want {
		samples = append(samples, be16(uint16(int16(s)))...)
	}
	raw := buildAIFF(1, 16, uint32(len(want)), rate44100, false, [4]byte{}, samples, nil)

	d := NewDecoder(bytes.NewReader(raw))
	var got []int
	buf := &audio.IntBuffer{Data: make([]int, 2)}
	for {
		n, err := d.PCMBuffer(buf)
		if n > 0 {
			got = append(got, buf.Data[:n]...)
		}
		if err != nil {
			if err != io.EOF {
				t.Fatal(err)
			}
			break
		}
		if n == 0 {
			break
		}
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d (%v)", len(want), len(got), got)
	}
	for i, s := range want {
		if got[i] != s {
			t.Fatalf("sample %d: expected %d, got %d", i, s, got[i])
		}
	}
}

func TestDecoderString(t *testing.T) {
	raw := buildAIFF(1, 16, 1, rate44100, false, [4]byte{}, []byte{0, 1}, nil)
	d := NewDecoder(bytes.NewReader(raw))
	d.ReadInfo()
	out := d.String()
	if !strings.Contains(out, "1 channels") {
		t.Fatalf("expected the string representation to mention channel count, got %q", out)
	}
	if !strings.Contains(out, "44100") {
		t.Fatalf("expected the string representation to mention the sample rate, got %q", out)
	}
}
