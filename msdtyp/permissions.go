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
	"sort"
	"strings"
)

// AcePermissions is a human-readable view of one ACE, suitable for
// reports and console output.
type AcePermissions struct {
	AceType        string
	AceFlags       byte
	AceFlagStrings string
	Permissions    []string
	Sid            string
}

// AclPermissions summarizes every ACE in an ACL.
type AclPermissions struct {
	NumAce  int
	Entries []AcePermissions
}

// ParseAccessMask returns the symbolic names of the generic and standard
// access bits set in mask.
func ParseAccessMask(mask uint32) (perms []string) {
	bits := make([]uint32, 0, len(accessMaskMap))
	for bit := range accessMaskMap {
		bits = append(bits, bit)
	}
	sort.Slice(bits, func(i, j int) bool { return bits[i] > bits[j] })
	for _, bit := range bits {
		if mask&bit != 0 {
			perms = append(perms, accessMaskMap[bit])
		}
	}
	return
}

// ParseAceFlags returns the symbolic names of the set ACE flag bits,
// joined by commas.
func ParseAceFlags(flags byte) string {
	var names []string
	for _, bit := range []byte{
		ObjectInheritAce,
		ContainerInheritAce,
		NoPropagateInheritAce,
		InheritOnlyAce,
		InheritedAce,
		SuccessfulAccessAceFlag,
		FailedAccessAceFlag,
	} {
		if flags&bit != 0 {
			names = append(names, aceFlagsMap[bit])
		}
	}
	return strings.Join(names, ",")
}

// Permissions summarizes the ACE. Object type GUIDs and raw bodies do
// not carry an access mask a caller can act on, so only the fields every
// body variant shares are included for those.
func (a ACE) Permissions() AcePermissions {
	res := AcePermissions{
		AceType:        a.TypeString(),
		AceFlags:       a.Flags,
		AceFlagStrings: ParseAceFlags(a.Flags),
	}
	switch body := a.Body.(type) {
	case *BasicAceBody:
		res.Permissions = ParseAccessMask(body.Mask)
		res.Sid = body.Sid.String()
	case *ObjectAceBody:
		res.Permissions = ParseAccessMask(body.Mask)
		res.Sid = body.Sid.String()
	}
	return res
}

func (self *ACL) Permissions() AclPermissions {
	var acePerms []AcePermissions
	for _, item := range self.Entries {
		acePerms = append(acePerms, item.Permissions())
	}
	return AclPermissions{
		NumAce:  len(self.Entries),
		Entries: acePerms,
	}
}
