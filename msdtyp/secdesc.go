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
	"strings"

	"github.com/jfjallid/winstructs/cursor"
)

// SecurityDescriptorRevision is the only defined revision.
const SecurityDescriptorRevision byte = 1

const secDescHeaderSize = 20

// MS-DTYP Section 2.4.6 SECURITY_DESCRIPTOR (self-relative form)
// The four offsets in the 20-byte header locate the members relative to
// the start of the header itself. A nil member was absent (offset zero).
type SecurityDescriptor struct {
	Revision byte
	Sbz1     byte
	Control  uint16
	OwnerSid *SID
	GroupSid *SID
	Sacl     *ACL
	Dacl     *ACL

	// Anomalies holds the non-fatal findings of a lenient decode, each
	// wrapping one of the package sentinel errors. Empty after encode or
	// strict decode.
	Anomalies []error
}

// ReadSecurityDescriptor decodes a self-relative security descriptor
// whose header starts at the cursor's current position. Member offsets
// are resolved relative to that position via absolute seeks on the same
// cursor. Structural failures abort; flag and offset disagreements are
// collected as anomalies.
func ReadSecurityDescriptor(c *cursor.Cursor) (sd *SecurityDescriptor, anomalies []error, err error) {
	start := c.Pos()
	sd = &SecurityDescriptor{}
	sd.Revision, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	sd.Sbz1, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	sd.Control, err = c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	offsetOwner, err := c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}
	offsetGroup, err := c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}
	offsetSacl, err := c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}
	offsetDacl, err := c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}

	if sd.Revision != SecurityDescriptorRevision {
		anomalies = append(anomalies, fmt.Errorf("%w: security descriptor revision %d", ErrInvalidRevision, sd.Revision))
	}

	if offsetOwner != 0 {
		err = c.Seek(start + int(offsetOwner))
		if err != nil {
			log.Errorln(err)
			return
		}
		sd.OwnerSid, err = ReadSID(c)
		if err != nil {
			return
		}
		anomalies = append(anomalies, sd.OwnerSid.Validate()...)
	}
	if offsetGroup != 0 {
		err = c.Seek(start + int(offsetGroup))
		if err != nil {
			log.Errorln(err)
			return
		}
		sd.GroupSid, err = ReadSID(c)
		if err != nil {
			return
		}
		anomalies = append(anomalies, sd.GroupSid.Validate()...)
	}
	if offsetSacl != 0 {
		err = c.Seek(start + int(offsetSacl))
		if err != nil {
			log.Errorln(err)
			return
		}
		var aclAnomalies []error
		sd.Sacl, aclAnomalies, err = ReadACL(c)
		if err != nil {
			return
		}
		anomalies = append(anomalies, aclAnomalies...)
	}
	if offsetDacl != 0 {
		err = c.Seek(start + int(offsetDacl))
		if err != nil {
			log.Errorln(err)
			return
		}
		var aclAnomalies []error
		sd.Dacl, aclAnomalies, err = ReadACL(c)
		if err != nil {
			return
		}
		anomalies = append(anomalies, aclAnomalies...)
	}

	anomalies = append(anomalies, crossCheckControl(sd.Control, offsetSacl, offsetDacl)...)
	return
}

// crossCheckControl compares the SACL/DACL presence bits against the
// offsets. Disk-image-sourced descriptors disagree here often enough
// that this is a finding, not a failure.
func crossCheckControl(control uint16, offsetSacl, offsetDacl uint32) (anomalies []error) {
	saclPresent := control&SecurityDescriptorFlagSP != 0
	if saclPresent && offsetSacl == 0 {
		anomalies = append(anomalies, fmt.Errorf("%w: SACL present flag is set but the SACL offset is zero", ErrOffsetControlMismatch))
	} else if !saclPresent && offsetSacl != 0 {
		anomalies = append(anomalies, fmt.Errorf("%w: SACL offset is %d but the SACL present flag is clear", ErrOffsetControlMismatch, offsetSacl))
	}
	daclPresent := control&SecurityDescriptorFlagDP != 0
	if daclPresent && offsetDacl == 0 {
		anomalies = append(anomalies, fmt.Errorf("%w: DACL present flag is set but the DACL offset is zero", ErrOffsetControlMismatch))
	} else if !daclPresent && offsetDacl != 0 {
		anomalies = append(anomalies, fmt.Errorf("%w: DACL offset is %d but the DACL present flag is clear", ErrOffsetControlMismatch, offsetDacl))
	}
	return
}

// ParseSecurityDescriptor decodes a security descriptor from the start
// of buf. With nil or lenient options, anomalies are recorded on the
// returned value and decoding continues; in strict mode the first
// anomaly aborts the decode.
func ParseSecurityDescriptor(buf []byte, opts *Options) (sd *SecurityDescriptor, err error) {
	sd, anomalies, err := ReadSecurityDescriptor(cursor.New(buf))
	if err != nil {
		return nil, err
	}
	if opts.strict() && len(anomalies) > 0 {
		return nil, anomalies[0]
	}
	sd.Anomalies = anomalies
	return
}

func (self *SecurityDescriptor) UnmarshalBinary(buf []byte) (err error) {
	sd, err := ParseSecurityDescriptor(buf, nil)
	if err != nil {
		return
	}
	*self = *sd
	return nil
}

// MarshalBinary lays out the members in canonical order after the
// header: owner SID, group SID, SACL, DACL. Every offset is recomputed
// from the actual layout, and the SACL/DACL present control bits are
// forced to match which members exist.
func (self *SecurityDescriptor) MarshalBinary() (ret []byte, err error) {
	control := self.Control &^ (SecurityDescriptorFlagSP | SecurityDescriptorFlagDP)
	var offsetOwner, offsetGroup, offsetSacl, offsetDacl uint32
	memberBuf := make([]byte, 0)
	offset := uint32(secDescHeaderSize)

	if self.OwnerSid != nil {
		var oBuf []byte
		oBuf, err = self.OwnerSid.MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		memberBuf = append(memberBuf, oBuf...)
		offsetOwner = offset
		offset += uint32(len(oBuf))
	}
	if self.GroupSid != nil {
		var gBuf []byte
		gBuf, err = self.GroupSid.MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		memberBuf = append(memberBuf, gBuf...)
		offsetGroup = offset
		offset += uint32(len(gBuf))
	}
	if self.Sacl != nil {
		var sBuf []byte
		sBuf, err = self.Sacl.MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		memberBuf = append(memberBuf, sBuf...)
		control |= SecurityDescriptorFlagSP
		offsetSacl = offset
		offset += uint32(len(sBuf))
	}
	if self.Dacl != nil {
		var dBuf []byte
		dBuf, err = self.Dacl.MarshalBinary()
		if err != nil {
			log.Errorln(err)
			return
		}
		memberBuf = append(memberBuf, dBuf...)
		control |= SecurityDescriptorFlagDP
		offsetDacl = offset
	}

	w := bytes.NewBuffer(make([]byte, 0, secDescHeaderSize+len(memberBuf)))
	w.WriteByte(self.Revision)
	w.WriteByte(self.Sbz1)
	err = binary.Write(w, le, control)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, offsetOwner)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, offsetGroup)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, offsetSacl)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, offsetDacl)
	if err != nil {
		log.Errorln(err)
		return
	}
	w.Write(memberBuf)
	return w.Bytes(), nil
}

var controlFlagNames = []struct {
	flag uint16
	name string
}{
	{SecurityDescriptorFlagOD, "OwnerDefaulted"},
	{SecurityDescriptorFlagGD, "GroupDefaulted"},
	{SecurityDescriptorFlagDP, "DaclPresent"},
	{SecurityDescriptorFlagDD, "DaclDefaulted"},
	{SecurityDescriptorFlagSP, "SaclPresent"},
	{SecurityDescriptorFlagSD, "SaclDefaulted"},
	{SecurityDescriptorFlagDT, "DaclTrusted"},
	{SecurityDescriptorFlagSS, "ServerSecurity"},
	{SecurityDescriptorFlagDC, "DaclComputedInheritanceRequired"},
	{SecurityDescriptorFlagSC, "SaclComputedInheritanceRequired"},
	{SecurityDescriptorFlagDI, "DaclAutoInherited"},
	{SecurityDescriptorFlagSI, "SaclAutoInherited"},
	{SecurityDescriptorFlagPD, "DaclProtected"},
	{SecurityDescriptorFlagPS, "SaclProtected"},
	{SecurityDescriptorFlagPM, "RMControlValid"},
	{SecurityDescriptorFlagSR, "SelfRelative"},
}

// ParseControlFlags returns the symbolic names of the set control bits.
func ParseControlFlags(control uint16) string {
	var names []string
	for _, item := range controlFlagNames {
		if control&item.flag != 0 {
			names = append(names, item.name)
		}
	}
	return strings.Join(names, "|")
}

func (self *SecurityDescriptor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SecurityDescriptor revision %d control [%s]\n", self.Revision, ParseControlFlags(self.Control))
	if self.OwnerSid != nil {
		fmt.Fprintf(&sb, "Owner: %s\n", self.OwnerSid.String())
	}
	if self.GroupSid != nil {
		fmt.Fprintf(&sb, "Group: %s\n", self.GroupSid.String())
	}
	if self.Sacl != nil {
		fmt.Fprintf(&sb, "SACL with %d ACEs\n", len(self.Sacl.Entries))
	}
	if self.Dacl != nil {
		fmt.Fprintf(&sb, "DACL with %d ACEs\n", len(self.Dacl.Entries))
	}
	return sb.String()
}
