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
	"time"

	"github.com/jfjallid/winstructs/cursor"
)

// 100ns intervals between 1601-01-01 and the Unix epoch.
const filetimeEpochDelta = 116444736000000000

// MS-DTYP Section 2.3.3 FILETIME
// A 64-bit count of 100-nanosecond intervals since 1601-01-01 UTC,
// stored as two little-endian 32-bit halves.
type Filetime struct {
	LowDateTime  uint32
	HighDateTime uint32
}

func ReadFiletime(c *cursor.Cursor) (ft *Filetime, err error) {
	ft = &Filetime{}
	ft.LowDateTime, err = c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}
	ft.HighDateTime, err = c.ReadUint32()
	if err != nil {
		log.Errorln(err)
		return
	}
	return
}

func (self *Filetime) UnmarshalBinary(buf []byte) (err error) {
	ft, err := ReadFiletime(cursor.New(buf))
	if err != nil {
		return
	}
	*self = *ft
	return nil
}

func (self *Filetime) MarshalBinary() (ret []byte, err error) {
	w := bytes.NewBuffer(make([]byte, 0, 8))
	err = binary.Write(w, le, self.LowDateTime)
	if err != nil {
		log.Errorln(err)
		return
	}
	err = binary.Write(w, le, self.HighDateTime)
	if err != nil {
		log.Errorln(err)
		return
	}
	return w.Bytes(), nil
}

func (self *Filetime) Uint64() uint64 {
	return uint64(self.HighDateTime)<<32 | uint64(self.LowDateTime)
}

// Time converts to a time.Time in UTC, keeping the full 100ns precision.
func (self *Filetime) Time() time.Time {
	return ConvertFromFiletime(self)
}

func (self *Filetime) String() string {
	return self.Time().String()
}

func ConvertFromFiletime(ft *Filetime) time.Time {
	ticks := int64(ft.Uint64()) - filetimeEpochDelta
	return time.Unix(0, ticks*100).UTC()
}

func ConvertToFiletime(t time.Time) Filetime {
	ticks := uint64(t.UnixNano()/100 + filetimeEpochDelta)
	return Filetime{
		LowDateTime:  uint32(ticks & 0xffffffff),
		HighDateTime: uint32(ticks >> 32),
	}
}

// DosDate is the packed 16-bit date used by FAT and several registry
// structures: bits 0-4 day, 5-8 month, 9-15 years since 1980. A zero
// day or month is clamped to 1, matching how these values appear in
// artifacts that never set them.
type DosDate uint16

func ReadDosDate(c *cursor.Cursor) (d DosDate, err error) {
	val, err := c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	return DosDate(val), nil
}

func (self DosDate) Date() time.Time {
	day := int(self & 0x1f)
	if day == 0 {
		day = 1
	}
	month := int(self>>5) & 0x0f
	if month == 0 {
		month = 1
	}
	year := int(self>>9) + 1980
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (self DosDate) String() string {
	return self.Date().Format("2006-01-02")
}

// DosTime is the packed 16-bit time: bits 0-4 seconds/2, 5-10 minutes,
// 11-15 hours.
type DosTime uint16

func ReadDosTime(c *cursor.Cursor) (t DosTime, err error) {
	val, err := c.ReadUint16()
	if err != nil {
		log.Errorln(err)
		return
	}
	return DosTime(val), nil
}

func (self DosTime) Clock() (hour, min, sec int) {
	sec = int(self&0x1f) * 2
	min = int(self>>5) & 0x3f
	hour = int(self >> 11)
	return
}

func (self DosTime) String() string {
	hour, min, sec := self.Clock()
	return time.Date(1, 1, 1, hour, min, sec, 0, time.UTC).Format("15:04:05")
}

// DosDateTime combines the two packed halves. In the 32-bit form found
// on disk the date occupies the low 16 bits and the time the high 16.
type DosDateTime struct {
	Date DosDate
	Time DosTime
}

func ReadDosDateTime(c *cursor.Cursor) (dt DosDateTime, err error) {
	dt.Date, err = ReadDosDate(c)
	if err != nil {
		return
	}
	dt.Time, err = ReadDosTime(c)
	if err != nil {
		return
	}
	return
}

func DosDateTimeFromUint32(val uint32) DosDateTime {
	return DosDateTime{
		Date: DosDate(val & 0xffff),
		Time: DosTime(val >> 16),
	}
}

func (self DosDateTime) DateTime() time.Time {
	d := self.Date.Date()
	hour, min, sec := self.Time.Clock()
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, sec, 0, time.UTC)
}

func (self DosDateTime) String() string {
	return self.DateTime().Format("2006-01-02 15:04:05")
}

func (self DosDateTime) MarshalBinary() (ret []byte, err error) {
	ret = make([]byte, 4)
	le.PutUint16(ret[0:], uint16(self.Date))
	le.PutUint16(ret[2:], uint16(self.Time))
	return
}

func (self *DosDateTime) UnmarshalBinary(buf []byte) (err error) {
	dt, err := ReadDosDateTime(cursor.New(buf))
	if err != nil {
		return
	}
	*self = dt
	return nil
}
