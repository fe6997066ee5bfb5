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
	"errors"
	"fmt"

	"github.com/jfjallid/winstructs/cursor"
)

// MS-DTYP Section 2.4.4.1 ACE_HEADER
// The 4-byte header is followed by a type-specific body of exactly
// Size-4 bytes. The size field on the wire is recomputed on encode and
// never stored in the struct.
type ACE struct {
	Type  byte
	Flags byte
	Body  AceBody
}

// AceBody is the type-dispatched body of an ACE. Exactly one of
// BasicAceBody, ObjectAceBody or RawAceBody implements it per ACE kind.
type AceBody interface {
	MarshalBinary() ([]byte, error)
}

// MS-DTYP Section 2.4.4.2 ACCESS_ALLOWED_ACE and the other mask+SID kinds.
type BasicAceBody struct {
	Mask uint32
	Sid  SID
}

// MS-DTYP Section 2.4.4.3 ACCESS_ALLOWED_OBJECT_ACE and its relatives.
// The two GUIDs are present on the wire only when their flag bit is set
// in ObjectFlags; a nil pointer means absent.
type ObjectAceBody struct {
	Mask                uint32
	ObjectFlags         uint32
	ObjectType          *GUID
	InheritedObjectType *GUID
	Sid                 SID
}

// RawAceBody preserves the body bytes of ACE types this package does not
// interpret, so that unknown kinds survive a decode/encode round trip
// unchanged.
type RawAceBody struct {
	Data []byte
}

func isObjectAceType(t byte) bool {
	switch t {
	case AccessAllowedObjectAceType,
		AccessDeniedObjectAceType,
		SystemAuditObjectAceType,
		SystemAlarmObjectAceType,
		AccessAllowedCallbackObjectAceType,
		AccessDeniedCallbackObjectAceType,
		SystemAuditCallbackObjectAceType,
		SystemAlarmCallbackObjectAceType:
		return true
	}
	return false
}

func isBasicAceType(t byte) bool {
	switch t {
	case AccessAllowedAceType,
		AccessDeniedAceType,
		SystemAuditAceType,
		SystemAlarmAceType,
		AccessAllowedCallbackAceType,
		AccessDeniedCallbackAceType,
		SystemAuditCallbackAceType,
		SystemAlarmCallbackAceType,
		SystemMandatoryLabelAceType,
		SystemResourceAttributeAceType,
		SystemScopedPolicyIdAceType:
		return true
	}
	return false
}

// bodyOverrun maps an out-of-bounds read inside a declared ACE body to
// ErrAceBodyOverrun so the failure is attributed to the ACE rather than
// the enclosing buffer.
func bodyOverrun(err error) error {
	if errors.Is(err, cursor.ErrOutOfBounds) {
		return fmt.Errorf("%w: %v", ErrAceBodyOverrun, err)
	}
	return err
}

// ReadACE decodes one ACE at the cursor's current position. The cursor
// always advances by the ACE's declared size, so a malformed entry cannot
// shift the position of its siblings. Anomalies hold non-fatal findings
// such as undecoded padding between the parsed body and the declared size.
func ReadACE(c *cursor.Cursor) (a *ACE, anomalies []error, err error) {
	a = &ACE{}
	a.Type, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	a.Flags, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	size, err := c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	if size < 4 {
		err = fmt.Errorf("%w: declared ACE size %d is smaller than the ACE header", ErrAceBodyOverrun, size)
		log.Errorln(err)
		return
	}
	// The body decoder gets its own bounded cursor over exactly size-4
	// bytes and cannot read into a sibling ACE.
	body, err := c.ReadBytes(int(size) - 4)
	if err != nil {
		log.Errorln(err)
		return
	}
	bc := cursor.New(body)

	switch {
	case isBasicAceType(a.Type):
		var b *BasicAceBody
		b, err = readBasicAceBody(bc)
		if err != nil {
			return
		}
		anomalies = append(anomalies, b.Sid.Validate()...)
		a.Body = b
	case isObjectAceType(a.Type):
		var b *ObjectAceBody
		b, err = readObjectAceBody(bc)
		if err != nil {
			return
		}
		anomalies = append(anomalies, b.Sid.Validate()...)
		a.Body = b
	default:
		// Unknown and compound types are kept opaque rather than
		// rejected, to stay forward compatible with unseen ACE kinds.
		a.Body = &RawAceBody{Data: body}
		return
	}

	if bc.Remaining() > 0 {
		anomalies = append(anomalies, fmt.Errorf("%w: %s ACE declared %d body bytes but %d were not part of the structure",
			ErrSizeMismatch, a.TypeString(), len(body), bc.Remaining()))
	}
	return
}

func readBasicAceBody(c *cursor.Cursor) (b *BasicAceBody, err error) {
	b = &BasicAceBody{}
	b.Mask, err = c.ReadUint32()
	if err != nil {
		err = bodyOverrun(err)
		log.Errorln(err)
		return
	}
	sid, err := ReadSID(c)
	if err != nil {
		err = bodyOverrun(err)
		return
	}
	b.Sid = *sid
	return
}

func readObjectAceBody(c *cursor.Cursor) (b *ObjectAceBody, err error) {
	b = &ObjectAceBody{}
	b.Mask, err = c.ReadUint32()
	if err != nil {
		err = bodyOverrun(err)
		log.Errorln(err)
		return
	}
	b.ObjectFlags, err = c.ReadUint32()
	if err != nil {
		err = bodyOverrun(err)
		log.Errorln(err)
		return
	}
	if b.ObjectFlags&AceObjectTypePresent != 0 {
		b.ObjectType, err = ReadGUID(c)
		if err != nil {
			err = bodyOverrun(err)
			return
		}
	}
	if b.ObjectFlags&AceInheritedObjectTypePresent != 0 {
		b.InheritedObjectType, err = ReadGUID(c)
		if err != nil {
			err = bodyOverrun(err)
			return
		}
	}
	sid, err := ReadSID(c)
	if err != nil {
		err = bodyOverrun(err)
		return
	}
	b.Sid = *sid
	return
}

func (self *ACE) UnmarshalBinary(buf []byte) (err error) {
	ace, _, err := ReadACE(cursor.New(buf))
	if err != nil {
		return
	}
	*self = *ace
	return nil
}

// MarshalBinary encodes the ACE. The size field is computed from the
// actual body length plus the header length.
func (self *ACE) MarshalBinary() (ret []byte, err error) {
	if self.Body == nil {
		err = fmt.Errorf("cannot encode ACE of type %s without a body", self.TypeString())
		log.Errorln(err)
		return
	}
	bodyBuf, err := self.Body.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return
	}
	size := 4 + len(bodyBuf)
	if size > 0xffff {
		err = fmt.Errorf("%w: ACE body of %d bytes does not fit in the size field", ErrSizeMismatch, len(bodyBuf))
		log.Errorln(err)
		return
	}
	w := bytes.NewBuffer(make([]byte, 0, size))
	w.WriteByte(self.Type)
	w.WriteByte(self.Flags)
	err = binary.Write(w, le, uint16(size))
	if err != nil {
		log.Errorln(err)
		return
	}
	w.Write(bodyBuf)
	return w.Bytes(), nil
}

func (self *BasicAceBody) MarshalBinary() (ret []byte, err error) {
	sidBuf, err := self.Sid.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return
	}
	w := bytes.NewBuffer(make([]byte, 0, 4+len(sidBuf)))
	err = binary.Write(w, le, self.Mask)
	if err != nil {
		log.Errorln(err)
		return
	}
	w.Write(sidBuf)
	return w.Bytes(), nil
}

// MarshalBinary writes the object body. The two presence bits in
// ObjectFlags are forced to match whether the GUID pointers are set, so
// flags and layout cannot disagree.
func (self *ObjectAceBody) MarshalBinary() (ret []byte, err error) {
	flags := self.ObjectFlags &^ (AceObjectTypePresent | AceInheritedObjectTypePresent)
	if self.ObjectType != nil {
		flags |= AceObjectTypePresent
	}
	if self.InheritedObjectType != nil {
		flags |= AceInheritedObjectTypePresent
	}
	sidBuf, err := self.Sid.MarshalBinary()
	if err != nil {
		log.Errorln(err)
		return
	}
	w := bytes.NewBuffer(make([]byte, 0, 40+len(sidBuf)))
	err = binary.Write(w, le, self.Mask)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, flags)
	if err != nil {
		log.Errorln(err)
		return
	}
	if self.ObjectType != nil {
		var gBuf []byte
		gBuf, err = self.ObjectType.MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		w.Write(gBuf)
	}
	if self.InheritedObjectType != nil {
		var gBuf []byte
		gBuf, err = self.InheritedObjectType.MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		w.Write(gBuf)
	}
	w.Write(sidBuf)
	return w.Bytes(), nil
}

func (self *RawAceBody) MarshalBinary() (ret []byte, err error) {
	ret = make([]byte, len(self.Data))
	copy(ret, self.Data)
	return
}

// TypeString returns the symbolic name of the ACE type, or a hex form
// for unknown type tags.
func (self *ACE) TypeString() string {
	if name, ok := AceTypeMap[self.Type]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02x)", self.Type)
}
