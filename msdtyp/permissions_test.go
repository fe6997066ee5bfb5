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
	"encoding/hex"
	"testing"
)

func TestParseAccessMask(t *testing.T) {
	perms := ParseAccessMask(0x80000000 | 0x00010000)
	if len(perms) != 2 {
		t.Fatalf("got %v", perms)
	}
	// Higher bits come first
	if perms[0] != AccessMaskGenericRead || perms[1] != AccessMaskDelete {
		t.Fatalf("got %v", perms)
	}
	if len(ParseAccessMask(0)) != 0 {
		t.Fail()
	}
}

func TestParseAceFlags(t *testing.T) {
	s := ParseAceFlags(ObjectInheritAce | InheritedAce)
	if s != "ObjectInheritAce,InheritedAce" {
		t.Fatalf("got %s", s)
	}
	if ParseAceFlags(0) != "" {
		t.Fail()
	}
}

func TestAcePermissions(t *testing.T) {
	buf, err := hex.DecodeString(allowAceHex)
	if err != nil {
		t.Fatal(err)
	}
	var ace ACE
	err = ace.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	perms := ace.Permissions()
	if perms.AceType != "AccessAllowed" {
		t.Fail()
	}
	if perms.Sid != "S-1-5-32-544" {
		t.Fail()
	}
	// Mask 0x001f01ff covers the five standard rights
	if len(perms.Permissions) != 5 {
		t.Fatalf("got %v", perms.Permissions)
	}
}

func TestAclPermissions(t *testing.T) {
	buf, err := hex.DecodeString(aclHex)
	if err != nil {
		t.Fatal(err)
	}
	var acl ACL
	err = acl.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	summary := acl.Permissions()
	if summary.NumAce != 2 {
		t.Fail()
	}
	if len(summary.Entries) != 2 {
		t.Fatal()
	}
	if summary.Entries[1].AceType != "AccessDenied" {
		t.Fail()
	}
	if summary.Entries[1].Sid != "S-1-5-18" {
		t.Fail()
	}
}

func TestRawAcePermissions(t *testing.T) {
	buf, err := hex.DecodeString(unknownAceHex)
	if err != nil {
		t.Fatal(err)
	}
	var ace ACE
	err = ace.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	perms := ace.Permissions()
	if perms.AceType != "Unknown(0x40)" {
		t.Fail()
	}
	if perms.Sid != "" || len(perms.Permissions) != 0 {
		t.Fail()
	}
}
