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

// Package ntfs implements decoders for NTFS metadata values that appear
// inside other Windows structures, currently the 8-byte MFT file
// reference.
package ntfs

import (
	"encoding/binary"

	"github.com/jfjallid/winstructs/cursor"
)

// MftReference identifies an MFT record: a 48-bit entry number and a
// 16-bit sequence number packed into a single little-endian 64-bit
// value on disk.
type MftReference struct {
	Entry    uint64
	Sequence uint16
}

// ReadMftReference decodes 8 bytes at the cursor's current position.
func ReadMftReference(c *cursor.Cursor) (ref MftReference, err error) {
	val, err := c.ReadUint64()
	if err != nil {
		return
	}
	return MftReferenceFromUint64(val), nil
}

// MftReferenceFromUint64 splits a packed reference into its entry and
// sequence parts.
func MftReferenceFromUint64(val uint64) MftReference {
	return MftReference{
		Entry:    val & 0x0000ffffffffffff,
		Sequence: uint16(val >> 48),
	}
}

// Uint64 packs the reference back into its on-disk form. Entry bits
// above 48 are discarded, mirroring the on-disk field width.
func (self MftReference) Uint64() uint64 {
	return self.Entry&0x0000ffffffffffff | uint64(self.Sequence)<<48
}

func (self MftReference) MarshalBinary() (ret []byte, err error) {
	ret = make([]byte, 8)
	binary.LittleEndian.PutUint64(ret, self.Uint64())
	return
}

func (self *MftReference) UnmarshalBinary(buf []byte) (err error) {
	ref, err := ReadMftReference(cursor.New(buf))
	if err != nil {
		return
	}
	*self = ref
	return nil
}
