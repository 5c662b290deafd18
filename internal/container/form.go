// Package container walks and rewrites the AIFF/AIFC FORM chunk framing
// that carries the DWVW-compressed or uncompressed sample data: enumerating
// chunks, validating sizes, parsing COMM, and rewriting COMM/SSND while
// copying every other chunk through byte-for-byte.
//
// Every buffer here is a bounded []byte carrying its own length, per the
// redesign notes: chunk-walk and cursor comparisons are checked slice
// operations, never raw pointer arithmetic.
package container

import (
	"errors"
	"fmt"

	"github.com/go-audio/dwvw/internal/beio"
)

// Tags used throughout container parsing.
var (
	FormID = [4]byte{'F', 'O', 'R', 'M'}
	AIFFID = [4]byte{'A', 'I', 'F', 'F'}
	AIFCID = [4]byte{'A', 'I', 'F', 'C'}
	CommID = [4]byte{'C', 'O', 'M', 'M'}
	SsndID = [4]byte{'S', 'S', 'N', 'D'}

	EncodingNone = [4]byte{'N', 'O', 'N', 'E'}
	EncodingDwvw = [4]byte{'D', 'W', 'V', 'W'}
)

// zeroID never matches a real chunk tag; find a full walk across the whole
// FORM with it to validate every chunk size without needing a chunk we
// actually want.
var zeroID = [4]byte{}

// ErrMalformed reports a malformed container: a bad FORM header, an invalid
// or overrunning chunk size, or a duplicate COMM/SSND chunk.
var ErrMalformed = errors.New("malformed container")

// Chunk is a single IFF chunk: a 4-byte tag, its on-disk payload size, and
// the payload itself as a slice into the enclosing FORM buffer.
type Chunk struct {
	ID   [4]byte
	Size int32
	Data []byte
}

// chunkEnd returns the offset, relative to the buffer FindChunk/FindUniqueChunk
// were called with, of the byte just past this chunk including its
// pad-to-even byte.
func chunkEnd(offset int, size int32) int {
	end := offset + 8 + int(size)
	if size&1 != 0 {
		end++
	}
	return end
}

// FindChunk scans buf[start:] for the first chunk with the given id. It
// returns the chunk, the offset of its header within buf, and true if
// found; if no such chunk exists it returns ok=false and a nil error. It
// returns a non-nil error if any chunk's size is negative or would run past
// the end of buf — so calling FindChunk with an id that can never match
// (e.g. the zero tag) over an entire FORM forces a full validating walk of
// every chunk size.
func FindChunk(id [4]byte, buf []byte, start int) (chunk Chunk, offset int, ok bool, err error) {
	chunk, offset, ok, _, err = walkChunks(id, buf, start)
	return
}

// walkChunks is FindChunk's workhorse; it additionally returns the cursor
// position where the walk stopped, which ParseForm uses to confirm the
// chunks exactly tile the FORM with no leftover bytes.
func walkChunks(id [4]byte, buf []byte, start int) (chunk Chunk, offset int, ok bool, end int, err error) {
	p := start
	for p <= len(buf)-8 {
		cid := [4]byte{buf[p], buf[p+1], buf[p+2], buf[p+3]}
		size := int32(beio.ReadInt(buf[p+4:p+8], 32))
		if size < 0 || int(size) > len(buf)-(p+8) {
			return Chunk{}, 0, false, 0, fmt.Errorf("%w: chunk %q: invalid size %d", ErrMalformed, cid, size)
		}
		if cid == id {
			return Chunk{ID: cid, Size: size, Data: buf[p+8 : p+8+int(size)]}, p, true, 0, nil
		}
		p = chunkEnd(p, size)
	}
	return Chunk{}, 0, false, p, nil
}

// FindUniqueChunk behaves like FindChunk but additionally fails if more than
// one chunk with id exists in buf[start:].
func FindUniqueChunk(id [4]byte, buf []byte, start int) (Chunk, int, bool, error) {
	chunk, offset, ok, err := FindChunk(id, buf, start)
	if err != nil || !ok {
		return chunk, offset, ok, err
	}
	_, _, dupOK, err := FindChunk(id, buf, chunkEnd(offset, chunk.Size))
	if err != nil {
		return Chunk{}, 0, false, err
	}
	if dupOK {
		return Chunk{}, 0, false, fmt.Errorf("%w: duplicate %q chunk", ErrMalformed, id)
	}
	return chunk, offset, true, nil
}

// Form is a parsed FORM container: its declared type (AIFF or AIFC) and the
// offset range of its chunk area within the original buffer.
type Form struct {
	Type        [4]byte
	ChunksStart int
	ChunksEnd   int
}

// ParseForm validates the FORM header in buf (the whole file) and every
// chunk size within it, and returns the chunk area's bounds.
func ParseForm(buf []byte) (Form, error) {
	if len(buf) < 12 {
		return Form{}, fmt.Errorf("%w: short FORM header", ErrMalformed)
	}
	id := [4]byte{buf[0], buf[1], buf[2], buf[3]}
	if id != FormID {
		return Form{}, fmt.Errorf("%w: missing FORM", ErrMalformed)
	}
	size := int32(beio.ReadInt(buf[4:8], 32))
	if size < 4 || int(size) != len(buf)-8 {
		return Form{}, fmt.Errorf("%w: invalid FORM size %d", ErrMalformed, size)
	}
	formType := [4]byte{buf[8], buf[9], buf[10], buf[11]}
	if formType != AIFFID && formType != AIFCID {
		return Form{}, fmt.Errorf("%w: unsupported FORM type %q", ErrMalformed, formType)
	}

	chunksStart, chunksEnd := 12, len(buf)
	_, _, _, end, err := walkChunks(zeroID, buf, chunksStart)
	if err != nil {
		return Form{}, err
	}
	if end != chunksEnd {
		return Form{}, fmt.Errorf("%w: %d trailing byte(s) after last chunk", ErrMalformed, chunksEnd-end)
	}
	return Form{Type: formType, ChunksStart: chunksStart, ChunksEnd: chunksEnd}, nil
}

// WriteFormHeader writes the 12-byte "FORM" <size> "AIFC" header into
// buf[:12]. size must be the total output length minus 8.
func WriteFormHeader(buf []byte, size int32) {
	copy(buf[0:4], FormID[:])
	beio.PutBE(int64(size), 32, buf[4:8])
	copy(buf[8:12], AIFCID[:])
}
