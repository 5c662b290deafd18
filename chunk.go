package aiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
)

// Chunk represents a data chunk as used by the FORM AIFF container. Each
// chunk is read through a reader bounded to its declared size, so callers
// can consume exactly as much or as little of the payload as they need and
// rely on Done to discard whatever is left.
type Chunk struct {
	ID   [4]byte
	Size int
	R    io.Reader
	Pos  int
}

// Done reads and discards whatever remains of the chunk so the underlying
// reader is left positioned at the start of the next chunk header.
func (ch *Chunk) Done() {
	if ch == nil || ch.Pos >= ch.Size {
		return
	}
	n, _ := io.CopyN(ioutil.Discard, ch.R, int64(ch.Size-ch.Pos))
	ch.Pos += int(n)
}

// ReadByte reads and returns a single byte from the chunk.
func (ch *Chunk) ReadByte() (byte, error) {
	if ch == nil {
		return 0, errors.New("can't read a nil chunk")
	}
	var b byte
	if err := binary.Read(ch.R, binary.BigEndian, &b); err != nil {
		return 0, err
	}
	ch.Pos++
	return b, nil
}

// Read implements io.Reader, tracking how many bytes of the chunk have been
// consumed so far.
func (ch *Chunk) Read(buf []byte) (n int, err error) {
	if ch == nil {
		return 0, errors.New("can't read a nil chunk")
	}
	n, err = ch.R.Read(buf)
	ch.Pos += n
	return n, err
}

// ReadBE reads big-endian binary data from the chunk into dst.
func (ch *Chunk) ReadBE(dst interface{}) error {
	if ch == nil {
		return fmt.Errorf("can't read a nil chunk")
	}
	if err := binary.Read(ch.R, binary.BigEndian, dst); err != nil {
		return err
	}
	ch.Pos += binary.Size(dst)
	return nil
}

// ReadLE reads little-endian binary data from the chunk into dst.
func (ch *Chunk) ReadLE(dst interface{}) error {
	if ch == nil {
		return fmt.Errorf("can't read a nil chunk")
	}
	if err := binary.Read(ch.R, binary.LittleEndian, dst); err != nil {
		return err
	}
	ch.Pos += binary.Size(dst)
	return nil
}

// Jump skips n bytes ahead in the chunk.
func (ch *Chunk) Jump(n int) error {
	if ch == nil || ch.R == nil {
		return errors.New("can't jump in a nil chunk")
	}
	read, err := io.CopyN(ioutil.Discard, ch.R, int64(n))
	ch.Pos += int(read)
	return err
}
