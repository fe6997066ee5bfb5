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
package msdtyp

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/jfjallid/winstructs/cursor"
)

// MS-DTYP Section 2.4.5 ACL
// The wire size and ACE count fields are recomputed on encode from the
// entries and never stored in the struct.
type ACL struct {
	Revision byte
	Sbz1     byte
	Sbz2     uint16
	Entries  []ACE
}

// ReadACL decodes an ACL at the cursor's current position. The loop is
// driven strictly by the declared ACE count, never by how many bytes
// remain, so trailing data after the last ACE is left untouched.
// Anomalies hold non-fatal findings such as a declared ACL size that
// disagrees with the bytes actually consumed.
func ReadACL(c *cursor.Cursor) (acl *ACL, anomalies []error, err error) {
	start := c.Pos()
	acl = &ACL{}
	acl.Revision, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	acl.Sbz1, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	aclSize, err := c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	aceCount, err := c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	acl.Sbz2, err = c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}

	acl.Entries = make([]ACE, 0, aceCount)
	for i := 0; i < int(aceCount); i++ {
		var ace *ACE
		var aceAnomalies []error
		ace, aceAnomalies, err = ReadACE(c)
		if err != nil {
			log.Errorln(err)
			return
		}
		anomalies = append(anomalies, aceAnomalies...)
		acl.Entries = append(acl.Entries, *ace)
	}

	consumed := c.Pos() - start
	if consumed != int(aclSize) {
		anomalies = append(anomalies, fmt.Errorf("%w: ACL declared %d bytes but %d ACEs consumed %d",
			ErrSizeMismatch, aclSize, aceCount, consumed))
	}
	return
}

// ParseACL decodes an ACL from the start of buf. With nil or lenient
// options, anomalies are returned alongside the ACL; in strict mode the
// first anomaly aborts the decode.
func ParseACL(buf []byte, opts *Options) (acl *ACL, anomalies []error, err error) {
	acl, anomalies, err = ReadACL(cursor.New(buf))
	if err != nil {
		return nil, nil, err
	}
	if opts.strict() && len(anomalies) > 0 {
		return nil, nil, anomalies[0]
	}
	return
}

func (self *ACL) UnmarshalBinary(buf []byte) (err error) {
	acl, _, err := ReadACL(cursor.New(buf))
	if err != nil {
		return
	}
	*self = *acl
	return nil
}

// MarshalBinary encodes the ACL header followed by every ACE in order,
// writing the true entry count and the true total size.
func (self *ACL) MarshalBinary() (ret []byte, err error) {
	if len(self.Entries) > 0xffff {
		err = fmt.Errorf("%w: %d ACEs do not fit in the count field", ErrSizeMismatch, len(self.Entries))
		log.Errorln(err)
		return
	}
	aceBufs := make([][]byte, 0, len(self.Entries))
	size := 8
	for i := range self.Entries {
		var aceBuf []byte
		aceBuf, err = self.Entries[i].MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		aceBufs = append(aceBufs, aceBuf)
		size += len(aceBuf)
	}
	if size > 0xffff {
		err = fmt.Errorf("%w: ACL of %d bytes does not fit in the size field", ErrSizeMismatch, size)
		log.Errorln(err)
		return
	}

	w := bytes.NewBuffer(make([]byte, 0, size))
	w.WriteByte(self.Revision)
	w.WriteByte(self.Sbz1)
	err = binary.Write(w, le, uint16(size))
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, uint16(len(self.Entries)))
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, self.Sbz2)
	if err != nil {
		log.Errorln(err)
		return
	}
	for _, aceBuf := range aceBufs {
		w.Write(aceBuf)
	}
	return w.Bytes(), nil
}
