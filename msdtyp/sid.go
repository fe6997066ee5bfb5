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
	"strconv"
	"strings"

	"github.com/jfjallid/winstructs/cursor"
)

// SidRevision is the only defined SID revision. Other values are decoded
// but flagged as anomalies by the enclosing structure.
const SidRevision byte = 1

// MaxSubAuthorities is the largest sub-authority count a SID can carry.
const MaxSubAuthorities = 15

// MS-DTYP Section 2.4.2.2 SID--Packet Representation
type SID struct {
	Revision       byte
	Authority      uint64 // 48-bit identifier authority, big-endian on the wire
	SubAuthorities []uint32
}

// ReadSID decodes a SID at the cursor's current position. The
// sub-authority count field drives how many bytes are consumed.
func ReadSID(c *cursor.Cursor) (s *SID, err error) {
	s = &SID{}
	s.Revision, err = c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	numAuth, err := c.ReadUint8()
	if err != nil {
		log.Errorln(err)
		return
	}
	if numAuth > MaxSubAuthorities {
		err = fmt.Errorf("%w: sub-authority count %d exceeds %d", ErrInvalidSid, numAuth, MaxSubAuthorities)
		log.Errorln(err)
		return
	}
	s.Authority, err = c.ReadUint48BE()
	if err != nil {
		log.Errorln(err)
		return
	}
	s.SubAuthorities = make([]uint32, numAuth)
	for i := range s.SubAuthorities {
		s.SubAuthorities[i], err = c.ReadUint32()
		if err != nil {
			log.Errorln(err)
			return
		}
	}
	return
}

func (self *SID) UnmarshalBinary(buf []byte) (err error) {
	sid, err := ReadSID(cursor.New(buf))
	if err != nil {
		return
	}
	*self = *sid
	return nil
}

// MarshalBinary encodes the SID. The count field is always written from
// the actual sub-authority slice length so it cannot desync.
func (self *SID) MarshalBinary() (ret []byte, err error) {
	if len(self.SubAuthorities) > MaxSubAuthorities {
		err = fmt.Errorf("%w: %d sub-authorities", ErrInvalidSid, len(self.SubAuthorities))
		log.Errorln(err)
		return
	}
	if self.Authority >= 1<<48 {
		err = fmt.Errorf("%w: authority 0x%x does not fit in 48 bits", ErrInvalidSid, self.Authority)
		log.Errorln(err)
		return
	}
	w := bytes.NewBuffer(make([]byte, 0, 8+4*len(self.SubAuthorities)))
	w.WriteByte(self.Revision)
	w.WriteByte(byte(len(self.SubAuthorities)))
	var auth [8]byte
	binary.BigEndian.PutUint64(auth[:], self.Authority)
	w.Write(auth[2:])
	for _, sub := range self.SubAuthorities {
		err = binary.Write(w, le, sub)
		if err != nil {
			log.Errorln(err)
			return
		}
	}
	return w.Bytes(), nil
}

// String returns the canonical textual form S-R-A-S1-S2-...
func (self *SID) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "S-%d-%d", self.Revision, self.Authority)
	for _, sub := range self.SubAuthorities {
		fmt.Fprintf(&sb, "-%d", sub)
	}
	return sb.String()
}

// ParseSIDString converts a textual SID such as S-1-5-32-544 back into
// its structured form.
func ParseSIDString(s string) (sid *SID, err error) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 || parts[0] != "S" {
		err = fmt.Errorf("%w: %q is not a SID string", ErrInvalidSid, s)
		return
	}
	if len(parts)-3 > MaxSubAuthorities {
		err = fmt.Errorf("%w: %d sub-authorities", ErrInvalidSid, len(parts)-3)
		return
	}
	sid = &SID{}
	rev, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		log.Errorln(err)
		return nil, err
	}
	sid.Revision = byte(rev)
	sid.Authority, err = strconv.ParseUint(parts[2], 10, 48)
	if err != nil {
		log.Errorln(err)
		return nil, err
	}
	sid.SubAuthorities = make([]uint32, 0, len(parts)-3)
	for _, part := range parts[3:] {
		subA, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			log.Errorln(err)
			return nil, err
		}
		sid.SubAuthorities = append(sid.SubAuthorities, uint32(subA))
	}
	return
}

// Validate reports the non-fatal findings for a decoded SID, currently
// an unknown revision. Enclosing decoders collect these as anomalies.
func (self *SID) Validate() (anomalies []error) {
	if self.Revision != SidRevision {
		anomalies = append(anomalies, fmt.Errorf("%w: SID %s has revision %d", ErrInvalidRevision, self.String(), self.Revision))
	}
	return
}

// Equal reports whether two SIDs have identical field values.
func (self *SID) Equal(other *SID) bool {
	if self == nil || other == nil {
		return self == other
	}
	if self.Revision != other.Revision || self.Authority != other.Authority {
		return false
	}
	if len(self.SubAuthorities) != len(other.SubAuthorities) {
		return false
	}
	for i := range self.SubAuthorities {
		if self.SubAuthorities[i] != other.SubAuthorities[i] {
			return false
		}
	}
	return true
}

// RID returns the last sub-authority, which identifies the principal
// relative to its domain. Zero if the SID has no sub-authorities.
func (self *SID) RID() uint32 {
	if len(self.SubAuthorities) == 0 {
		return 0
	}
	return self.SubAuthorities[len(self.SubAuthorities)-1]
}
