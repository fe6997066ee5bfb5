// MIT License
//
// # Copyright (c) 2025 Jimmy Fjällid
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package cursor provides sequential, bounds-checked reads over an immutable
// byte buffer with support for absolute seeks. It is the shared read
// primitive for the offset-relative structures in this module.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	le = binary.LittleEndian
	be = binary.BigEndian
)

// ErrOutOfBounds is returned when a read or seek would exceed the
// underlying buffer. Buffers from disk images are often truncated, so
// every read is checked before any byte is consumed.
var ErrOutOfBounds = errors.New("read exceeds buffer bounds")

// A Cursor reads from a fixed buffer and keeps track of the current
// position. It never mutates the buffer.
type Cursor struct {
	buf []byte
	pos int
}

func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

func (self *Cursor) Len() int {
	return len(self.buf)
}

func (self *Cursor) Pos() int {
	return self.pos
}

func (self *Cursor) Remaining() int {
	return len(self.buf) - self.pos
}

// Seek repositions the cursor at an absolute offset. Seeking to the very
// end of the buffer is allowed, anything beyond fails.
func (self *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(self.buf) {
		return fmt.Errorf("%w: seek to offset %d with buffer length %d", ErrOutOfBounds, offset, len(self.buf))
	}
	self.pos = offset
	return nil
}

func (self *Cursor) require(n int) error {
	if self.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d but only %d remain", ErrOutOfBounds, n, self.pos, self.Remaining())
	}
	return nil
}

func (self *Cursor) ReadUint8() (val byte, err error) {
	err = self.require(1)
	if err != nil {
		return
	}
	val = self.buf[self.pos]
	self.pos += 1
	return
}

func (self *Cursor) ReadUint16() (val uint16, err error) {
	err = self.require(2)
	if err != nil {
		return
	}
	val = le.Uint16(self.buf[self.pos:])
	self.pos += 2
	return
}

func (self *Cursor) ReadUint16BE() (val uint16, err error) {
	err = self.require(2)
	if err != nil {
		return
	}
	val = be.Uint16(self.buf[self.pos:])
	self.pos += 2
	return
}

func (self *Cursor) ReadUint32() (val uint32, err error) {
	err = self.require(4)
	if err != nil {
		return
	}
	val = le.Uint32(self.buf[self.pos:])
	self.pos += 4
	return
}

func (self *Cursor) ReadUint32BE() (val uint32, err error) {
	err = self.require(4)
	if err != nil {
		return
	}
	val = be.Uint32(self.buf[self.pos:])
	self.pos += 4
	return
}

// ReadUint48BE reads a 6-byte big-endian value such as the SID identifier
// authority. The result always fits in the low 48 bits.
func (self *Cursor) ReadUint48BE() (val uint64, err error) {
	err = self.require(6)
	if err != nil {
		return
	}
	high := be.Uint32(self.buf[self.pos:])
	low := be.Uint16(self.buf[self.pos+4:])
	val = uint64(high)<<16 | uint64(low)
	self.pos += 6
	return
}

func (self *Cursor) ReadUint64() (val uint64, err error) {
	err = self.require(8)
	if err != nil {
		return
	}
	val = le.Uint64(self.buf[self.pos:])
	self.pos += 8
	return
}

// ReadBytes returns a copy of the next n bytes so that decoded structures
// never alias the source buffer.
func (self *Cursor) ReadBytes(n int) (buf []byte, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative byte count %d", ErrOutOfBounds, n)
	}
	err = self.require(n)
	if err != nil {
		return
	}
	buf = make([]byte, n)
	copy(buf, self.buf[self.pos:])
	self.pos += n
	return
}

// Skip advances past n bytes without returning them.
func (self *Cursor) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative skip count %d", ErrOutOfBounds, n)
	}
	if err := self.require(n); err != nil {
		return err
	}
	self.pos += n
	return nil
}
