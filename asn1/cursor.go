// Package asn1 implements the byte-cursor abstraction and BER/DER primitive
// codec that every higher layer of the certificate core is built on (spec
// §3.1, §4.1, §4.2). It deliberately does not build on encoding/asn1 or
// golang.org/x/crypto/cryptobyte: neither gives a single abstraction with
// bidirectional seek/peek, a sticky error that collapses repeated reads
// after the first failure into one error, and a null-sink write mode for
// computing encoded sizes without allocating the encoded form twice. Those
// three properties are exactly what spec §3.1/§4.1 require, so the cursor
// is hand-rolled on top of a plain byte slice the way the teacher's own
// from-scratch wire-format code (e.g. cryptobyte itself) is hand-rolled on
// top of a byte slice.
package asn1

import "github.com/letsencrypt/bercert/berrors"

// Cursor is a bidirectional cursor over a memory buffer with a sticky error
// flag (spec §3.1). It serves encoding, decoding, and sizing: writing to a
// cursor created with NewSink computes the encoded length without storing
// any bytes.
type Cursor struct {
	buf    []byte
	pos    int
	sink   bool
	err    error
}

// NewReader returns a cursor borrowing buf for reading. A reader cursor
// does not reject writes: Put and PutAll append to buf, and WriteAt
// overwrites bytes of buf in place.
func NewReader(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// NewWriter returns a cursor that owns a growing buffer, for building an
// encoded object.
func NewWriter() *Cursor {
	return &Cursor{buf: make([]byte, 0, 64)}
}

// NewSink returns a cursor in sink mode: every write succeeds and advances
// the position, but no bytes are stored. Used to compute sizeof(object)
// without materialising it (spec §3.1, §4.5 step 6).
func NewSink() *Cursor {
	return &Cursor{sink: true}
}

// Mark is an opaque saved position, produced by SavePosition and consumed
// by RestorePosition.
type Mark struct {
	pos int
}

// SavePosition snapshots the current position for a later speculative
// restore. Only the encoding validator's hole-detection probe (spec §4.3,
// §9.1) should pair this with RestorePosition.
func (c *Cursor) SavePosition() Mark {
	return Mark{pos: c.pos}
}

// RestorePosition rewinds to a previously saved position and clears the
// sticky error, the one place in the core where a non-OK status is allowed
// to become OK again (spec §3.1, §9.1).
func (c *Cursor) RestorePosition(m Mark) {
	c.pos = m.pos
	c.err = nil
}

// Err returns the sticky error, or nil if the cursor is still healthy.
func (c *Cursor) Err() error {
	return c.err
}

// fail records the first error seen; subsequent operations short-circuit
// and return this same error.
func (c *Cursor) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}

// Position returns the current offset into the buffer.
func (c *Cursor) Position() int {
	return c.pos
}

// Remaining returns the number of unread bytes (zero for a sink or writer
// cursor, where there is nothing left to read).
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// IsSink reports whether the cursor discards writes.
func (c *Cursor) IsSink() bool {
	return c.sink
}

// Bytes returns the bytes written so far (writer cursors only).
func (c *Cursor) Bytes() []byte {
	return c.buf
}

// Peek returns the next byte without consuming it.
func (c *Cursor) Peek() (byte, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.pos >= len(c.buf) {
		return 0, c.fail(berrors.BadDataError("peek past end of stream"))
	}
	return c.buf[c.pos], nil
}

// Get reads and consumes the next byte.
func (c *Cursor) Get() (byte, error) {
	b, err := c.Peek()
	if err != nil {
		return 0, err
	}
	c.pos++
	return b, nil
}

// GetN reads and consumes the next n bytes.
func (c *Cursor) GetN(n int) ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	if n < 0 || n > c.Remaining() {
		return nil, c.fail(berrors.BadDataError("read of %d bytes exceeds remaining %d", n, c.Remaining()))
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// Skip advances the position by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	_, err := c.GetN(n)
	return err
}

// Seek moves the position to an absolute offset. Only valid for cursors
// that already hold that many bytes (i.e. read cursors, or writer cursors
// seeking within already-written data).
func (c *Cursor) Seek(pos int) error {
	if c.err != nil {
		return c.err
	}
	if pos < 0 || pos > len(c.buf) {
		return c.fail(berrors.BadDataError("seek to %d out of range [0,%d]", pos, len(c.buf)))
	}
	c.pos = pos
	return nil
}

// Put appends a single byte (writer/sink cursors only).
func (c *Cursor) Put(b byte) error {
	if c.err != nil {
		return c.err
	}
	if c.sink {
		c.pos++
		return nil
	}
	c.buf = append(c.buf, b)
	c.pos++
	return nil
}

// PutAll appends data in full.
func (c *Cursor) PutAll(data []byte) error {
	if c.err != nil {
		return c.err
	}
	if c.sink {
		c.pos += len(data)
		return nil
	}
	c.buf = append(c.buf, data...)
	c.pos += len(data)
	return nil
}

// WriteAt overwrites length bytes at pos with data, used to patch in a
// signature or a recomputed length after the fact. It does not move the
// cursor's write position.
func (c *Cursor) WriteAt(pos int, data []byte) error {
	if c.err != nil {
		return c.err
	}
	if c.sink {
		return nil
	}
	if pos < 0 || pos+len(data) > len(c.buf) {
		return c.fail(berrors.BadDataError("write-at [%d,%d) out of range [0,%d]", pos, pos+len(data), len(c.buf)))
	}
	copy(c.buf[pos:pos+len(data)], data)
	return nil
}
