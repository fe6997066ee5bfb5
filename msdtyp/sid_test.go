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
	"encoding/hex"
	"errors"
	"testing"

	"github.com/jfjallid/winstructs/cursor"
)

const (
	sidLocalSystemHex = "010100000000000512000000"
	sidBuiltinAdmHex  = "01020000000000052000000020020000"
)

func TestDecodeSidLocalSystem(t *testing.T) {
	buf, err := hex.DecodeString(sidLocalSystemHex)
	if err != nil {
		t.Fatal(err)
	}
	var sid SID
	err = sid.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	if sid.Revision != 1 {
		t.Fail()
	}
	if sid.Authority != 5 {
		t.Fail()
	}
	if len(sid.SubAuthorities) != 1 || sid.SubAuthorities[0] != 18 {
		t.Fail()
	}
	if sid.String() != "S-1-5-18" {
		t.Fatalf("expected S-1-5-18, got %s", sid.String())
	}
}

func TestDecodeSidBuiltinAdministrators(t *testing.T) {
	buf, err := hex.DecodeString(sidBuiltinAdmHex)
	if err != nil {
		t.Fatal(err)
	}
	var sid SID
	err = sid.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	if sid.String() != "S-1-5-32-544" {
		t.Fatalf("expected S-1-5-32-544, got %s", sid.String())
	}
	if sid.RID() != 544 {
		t.Fail()
	}
}

func TestSidRoundTrip(t *testing.T) {
	for _, fixture := range []string{sidLocalSystemHex, sidBuiltinAdmHex} {
		buf, err := hex.DecodeString(fixture)
		if err != nil {
			t.Fatal(err)
		}
		var sid SID
		err = sid.UnmarshalBinary(buf)
		if err != nil {
			t.Fatal(err)
		}
		buf2, err := sid.MarshalBinary()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf, buf2) {
			t.Fatalf("re-encode of %s does not match input", fixture)
		}
	}
}

func TestSid48BitAuthority(t *testing.T) {
	sid := SID{Revision: 1, Authority: 0xffffffffffff}
	buf, err := sid.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(buf) != "0100ffffffffffff" {
		t.Fatalf("got %s", hex.EncodeToString(buf))
	}
	var sid2 SID
	err = sid2.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	if sid2.Authority != 0xffffffffffff {
		t.Fail()
	}
}

func TestSidSubAuthorityCap(t *testing.T) {
	// A claimed count of 16 sub-authorities is structurally impossible
	buf, err := hex.DecodeString("0110000000000005")
	if err != nil {
		t.Fatal(err)
	}
	_, err = ReadSID(cursor.New(buf))
	if !errors.Is(err, ErrInvalidSid) {
		t.Fatalf("expected ErrInvalidSid, got %v", err)
	}

	sid := SID{Revision: 1, Authority: 5, SubAuthorities: make([]uint32, 16)}
	_, err = sid.MarshalBinary()
	if !errors.Is(err, ErrInvalidSid) {
		t.Fail()
	}
}

func TestSidEncodeAuthorityTooLarge(t *testing.T) {
	sid := SID{Revision: 1, Authority: 1 << 48}
	_, err := sid.MarshalBinary()
	if !errors.Is(err, ErrInvalidSid) {
		t.Fatalf("expected ErrInvalidSid, got %v", err)
	}
}

func TestSidTruncated(t *testing.T) {
	// Count declares two sub-authorities but only one is present
	buf, err := hex.DecodeString("010200000000000520000000")
	if err != nil {
		t.Fatal(err)
	}
	_, err = ReadSID(cursor.New(buf))
	if !errors.Is(err, cursor.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestSidStringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"S-1-5-18",
		"S-1-5-32-544",
		"S-1-5-21-2219569128-27554790-1577990151-1001",
	} {
		sid, err := ParseSIDString(s)
		if err != nil {
			t.Fatal(err)
		}
		if sid.String() != s {
			t.Fatalf("expected %s, got %s", s, sid.String())
		}
	}
}

func TestParseSIDStringInvalid(t *testing.T) {
	for _, s := range []string{"", "S", "S-1", "X-1-5-18", "S-1-5-notanumber"} {
		_, err := ParseSIDString(s)
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestSidEqual(t *testing.T) {
	a, err := ParseSIDString("S-1-5-32-544")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseSIDString("S-1-5-32-544")
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseSIDString("S-1-5-32-545")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Fail()
	}
	if a.Equal(c) {
		t.Fail()
	}
	if a.Equal(nil) {
		t.Fail()
	}
}

func TestWellKnownName(t *testing.T) {
	sid, err := ParseSIDString("S-1-5-18")
	if err != nil {
		t.Fatal(err)
	}
	name, ok := sid.WellKnownName()
	if !ok || name != "NT AUTHORITY\\SYSTEM" {
		t.Fatalf("got %q, %v", name, ok)
	}
	sid, err = ParseSIDString("S-1-5-21-1-2-3-1001")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sid.WellKnownName(); ok {
		t.Fail()
	}
}
