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

	"github.com/gofrs/uuid"

	"github.com/jfjallid/winstructs/cursor"
)

// MS-DTYP Section 2.3.4 GUID
// The first three fields are stored little-endian on the wire while
// Data4 is stored as-is, so the binary layout differs from the RFC 4122
// byte order used by uuid.UUID.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// ReadGUID decodes 16 bytes at the cursor's current position.
func ReadGUID(c *cursor.Cursor) (g *GUID, err error) {
	g = &GUID{}
	g.Data1, err = c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}
	g.Data2, err = c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	g.Data3, err = c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	buf, err := c.ReadBytes(8)
	if err != nil {
		log.Errorln(err)
		return
	}
	copy(g.Data4[:], buf)
	return
}

func (self *GUID) UnmarshalBinary(buf []byte) (err error) {
	g, err := ReadGUID(cursor.New(buf))
	if err != nil {
		return
	}
	*self = *g
	return nil
}

func (self *GUID) MarshalBinary() (ret []byte, err error) {
	w := bytes.NewBuffer(make([]byte, 0, 16))
	err = binary.Write(w, le, self.Data1)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, self.Data2)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, self.Data3)
	if err != nil {
		log.Errorln(err)
		return
	}
	w.Write(self.Data4[:])
	return w.Bytes(), nil
}

// String returns the textual form XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX
// in upper case.
func (self *GUID) String() string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		self.Data1, self.Data2, self.Data3,
		self.Data4[0], self.Data4[1],
		self.Data4[2], self.Data4[3], self.Data4[4],
		self.Data4[5], self.Data4[6], self.Data4[7])
}

// IsNull reports whether all 16 bytes are zero.
func (self *GUID) IsNull() bool {
	return *self == GUID{}
}

// UUID converts to the RFC 4122 byte order used by gofrs/uuid.
func (self *GUID) UUID() uuid.UUID {
	var u uuid.UUID
	be.PutUint32(u[0:], self.Data1)
	be.PutUint16(u[4:], self.Data2)
	be.PutUint16(u[6:], self.Data3)
	copy(u[8:], self.Data4[:])
	return u
}

// GUIDFromUUID converts an RFC 4122 ordered uuid.UUID to the mixed-endian
// wire representation.
func GUIDFromUUID(u uuid.UUID) GUID {
	var g GUID
	g.Data1 = be.Uint32(u[0:])
	g.Data2 = be.Uint16(u[4:])
	g.Data3 = be.Uint16(u[6:])
	copy(g.Data4[:], u[8:])
	return g
}

// ParseGUIDString accepts the usual textual GUID forms, with or without
// braces, in any case.
func ParseGUIDString(s string) (g GUID, err error) {
	u, err := uuid.FromString(s)
	if err != nil {
		log.Errorln(err)
		return
	}
	return GUIDFromUUID(u), nil
}
