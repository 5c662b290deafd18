package container

import (
	"testing"

	"github.com/go-audio/dwvw/internal/beio"
)

func be32(v int32) []byte {
	buf := make([]byte, 4)
	beio.PutBE(int64(v), 32, buf)
	return buf
}

func chunkBytes(id string, body []byte) []byte {
	out := append([]byte(id), be32(int32(len(body)))...)
	out = append(out, body...)
	if len(body)%2 != 0 {
		out = append(out, 0)
	}
	return out
}

// minimalCOMM builds an 18-byte AIFF COMM payload: 1 channel, 1 sample
// frame, 16-bit words, an arbitrary (unchecked) sample rate.
func minimalCOMM() []byte {
	body := make([]byte, 18)
	copy(body[0:2], []byte{0, 1})    // channels
	copy(body[2:6], be32(1))         // sample frames
	copy(body[6:8], []byte{0, 16})   // word size
	copy(body[8:18], make([]byte, 10))
	return body
}

func buildForm(formType string, chunks ...[]byte) []byte {
	body := []byte(formType)
	for _, c := range chunks {
		body = append(body, c...)
	}
	out := append([]byte("FORM"), be32(int32(len(body)))...)
	out = append(out, body...)
	return out
}

func TestParseFormAcceptsWellFormedAIFF(t *testing.T) {
	ssnd := chunkBytes("SSND", append(be32(0), be32(0)...))
	raw := buildForm("AIFF", chunkBytes("COMM", minimalCOMM()), ssnd)

	form, err := ParseForm(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if form.Type != AIFFID {
		t.Fatalf("expected AIFF form type, got %q", form.Type)
	}
}

func TestParseFormRejectsTrailingBytes(t *testing.T) {
	ssnd := chunkBytes("SSND", append(be32(0), be32(0)...))
	raw := buildForm("AIFF", chunkBytes("COMM", minimalCOMM()), ssnd)
	// Declare a FORM size that claims more bytes than the chunks actually
	// cover: Scenario E, must be rejected before any output is produced.
	raw = append(raw, 0, 0, 0, 0)
	beio.PutBE(int64(len(raw)-8), 32, raw[4:8])

	if _, err := ParseForm(raw); err == nil {
		t.Fatal("expected an error for a FORM whose chunks don't exactly tile its declared size")
	}
}

func TestParseFormRejectsBadHeader(t *testing.T) {
	if _, err := ParseForm([]byte("not a form at all")); err == nil {
		t.Fatal("expected an error for a non-FORM buffer")
	}
}

func TestParseFormRejectsOverrunningChunkSize(t *testing.T) {
	comm := chunkBytes("COMM", minimalCOMM())
	// corrupt the COMM chunk's declared size to run past the buffer
	beio.PutBE(9999, 32, comm[4:8])
	raw := buildForm("AIFF", comm)

	if _, err := ParseForm(raw); err == nil {
		t.Fatal("expected an error for an overrunning chunk size")
	}
}

func TestFindUniqueChunkRejectsDuplicates(t *testing.T) {
	comm := chunkBytes("COMM", minimalCOMM())
	raw := buildForm("AIFF", comm, comm)

	if _, _, _, err := FindUniqueChunk(CommID, raw, 12); err == nil {
		t.Fatal("expected an error for duplicate COMM chunks")
	}
}

func TestParseCommAIFC(t *testing.T) {
	body := append([]byte{}, minimalCOMM()...)
	body = append(body, EncodingDwvw[:]...)
	name := []byte("Delta With Variable Word Width")
	body = append(body, byte(len(name)))
	body = append(body, name...)
	body = append(body, 0) // even padding of the pascal string region

	raw := buildForm("AIFC", chunkBytes("COMM", body))
	comm, err := ParseComm(raw, AIFCID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comm.CompressionType != EncodingDwvw {
		t.Fatalf("expected DWVW compression type, got %q", comm.CompressionType)
	}
	if comm.CompressionName != string(name) {
		t.Fatalf("expected compression name %q, got %q", name, comm.CompressionName)
	}
}
