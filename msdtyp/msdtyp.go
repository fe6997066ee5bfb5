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

// Package msdtyp implements decoders and encoders for the self-relative
// binary layouts of common MS-DTYP structures: security identifiers,
// access control entries and lists, security descriptors, GUIDs and
// Windows timestamps. Buffers typically come from disk images, registry
// hives or NTFS metadata, so every decoder tolerates truncated or
// corrupted input and reports structural anomalies instead of failing
// outright where the data is still usable.
package msdtyp

import (
	"encoding/binary"
	"errors"

	"github.com/jfjallid/golog"
)

var (
	le  = binary.LittleEndian
	be  = binary.BigEndian
	log = golog.Get("github.com/jfjallid/winstructs/msdtyp")
)

var (
	// ErrAceBodyOverrun signals that a type-specific ACE body needed more
	// bytes than the ACE header declared for it.
	ErrAceBodyOverrun = errors.New("ACE body exceeds declared ACE size")

	// ErrSizeMismatch signals that a declared structure size disagrees
	// with the size computed from its contents. Reported as an anomaly
	// unless Options.Strict is set.
	ErrSizeMismatch = errors.New("declared size does not match computed size")

	// ErrOffsetControlMismatch signals that a security descriptor control
	// flag disagrees with the presence of the corresponding offset.
	// Reported as an anomaly unless Options.Strict is set.
	ErrOffsetControlMismatch = errors.New("control flags disagree with offset presence")

	// ErrInvalidRevision signals an unexpected structure revision.
	// Reported as an anomaly unless Options.Strict is set.
	ErrInvalidRevision = errors.New("unexpected structure revision")

	// ErrInvalidSid signals a structurally impossible SID.
	ErrInvalidSid = errors.New("invalid SID structure")
)

// Options control how decoders treat reportable anomalies such as size
// and control flag mismatches. A nil Options is lenient: anomalies are
// collected on the decoded value and decoding continues.
type Options struct {
	// Strict promotes any anomaly to a decode error.
	Strict bool
}

func (self *Options) strict() bool {
	return self != nil && self.Strict
}

// MS-DTYP Section 2.4.6 Security_Descriptor Control Flag
const (
	SecurityDescriptorFlagOD uint16 = 0x0001 // Owner Default
	SecurityDescriptorFlagGD uint16 = 0x0002 // Group Default
	SecurityDescriptorFlagDP uint16 = 0x0004 // DACL Present
	SecurityDescriptorFlagDD uint16 = 0x0008 // DACL Defaulted
	SecurityDescriptorFlagSP uint16 = 0x0010 // SACL Present
	SecurityDescriptorFlagSD uint16 = 0x0020 // SACL Defaulted
	SecurityDescriptorFlagDT uint16 = 0x0040 // DACL Trusted
	SecurityDescriptorFlagSS uint16 = 0x0080 // Server Security
	SecurityDescriptorFlagDC uint16 = 0x0100 // DACL Computed Inheritance Required
	SecurityDescriptorFlagSC uint16 = 0x0200 // SACL Computed Inheritance Required
	SecurityDescriptorFlagDI uint16 = 0x0400 // DACL Auto-Inherited
	SecurityDescriptorFlagSI uint16 = 0x0800 // SACL Auto-Inherited
	SecurityDescriptorFlagPD uint16 = 0x1000 // DACL Protected
	SecurityDescriptorFlagPS uint16 = 0x2000 // SACL Protected
	SecurityDescriptorFlagPM uint16 = 0x4000 // RM Control Valid
	SecurityDescriptorFlagSR uint16 = 0x8000 // Self-Relative
)

// MS-DTYP Section 2.4.4.1 ACE_HEADER
// AceType
const (
	AccessAllowedAceType               byte = 0x00
	AccessDeniedAceType                byte = 0x01
	SystemAuditAceType                 byte = 0x02
	SystemAlarmAceType                 byte = 0x03
	AccessAllowedCompoundAceType       byte = 0x04
	AccessAllowedObjectAceType         byte = 0x05
	AccessDeniedObjectAceType          byte = 0x06
	SystemAuditObjectAceType           byte = 0x07
	SystemAlarmObjectAceType           byte = 0x08
	AccessAllowedCallbackAceType       byte = 0x09
	AccessDeniedCallbackAceType        byte = 0x0a
	AccessAllowedCallbackObjectAceType byte = 0x0b
	AccessDeniedCallbackObjectAceType  byte = 0x0c
	SystemAuditCallbackAceType         byte = 0x0d
	SystemAlarmCallbackAceType         byte = 0x0e
	SystemAuditCallbackObjectAceType   byte = 0x0f
	SystemAlarmCallbackObjectAceType   byte = 0x10
	SystemMandatoryLabelAceType        byte = 0x11
	SystemResourceAttributeAceType     byte = 0x12
	SystemScopedPolicyIdAceType        byte = 0x13
)

var AceTypeMap = map[byte]string{
	AccessAllowedAceType:               "AccessAllowed",
	AccessDeniedAceType:                "AccessDenied",
	SystemAuditAceType:                 "SystemAudit",
	SystemAlarmAceType:                 "SystemAlarm",
	AccessAllowedCompoundAceType:       "AccessAllowedCompound",
	AccessAllowedObjectAceType:         "AccessAllowedObject",
	AccessDeniedObjectAceType:          "AccessDeniedObject",
	SystemAuditObjectAceType:           "SystemAuditObject",
	SystemAlarmObjectAceType:           "SystemAlarmObject",
	AccessAllowedCallbackAceType:       "AccessAllowedCallback",
	AccessDeniedCallbackAceType:        "AccessDeniedCallback",
	AccessAllowedCallbackObjectAceType: "AccessAllowedCallbackObject",
	AccessDeniedCallbackObjectAceType:  "AccessDeniedCallbackObject",
	SystemAuditCallbackAceType:         "SystemAuditCallback",
	SystemAlarmCallbackAceType:         "SystemAlarmCallback",
	SystemAuditCallbackObjectAceType:   "SystemAuditCallbackObject",
	SystemAlarmCallbackObjectAceType:   "SystemAlarmCallbackObject",
	SystemMandatoryLabelAceType:        "SystemMandatoryLabel",
	SystemResourceAttributeAceType:     "SystemResourceAttribute",
	SystemScopedPolicyIdAceType:        "SystemScopedPolicyId",
}

// AceFlags
const (
	ObjectInheritAce        byte = 0x01 // Noncontainer child objects inherit the ACE as an effective ACE
	ContainerInheritAce     byte = 0x02 // Container child objects inherit the ACE as an effective ACE
	NoPropagateInheritAce   byte = 0x04 // Ace is only inherited to direct child objects
	InheritOnlyAce          byte = 0x08 // Ace does not control access to the object to which it is attached
	InheritedAce            byte = 0x10 // The ACE was inherited
	SuccessfulAccessAceFlag byte = 0x40 // Generate audit messages for successful access attempts in SACL
	FailedAccessAceFlag     byte = 0x80 // Generate audit messages for failed access attempts in SACL
)

var aceFlagsMap = map[byte]string{
	ObjectInheritAce:        "ObjectInheritAce",
	ContainerInheritAce:     "ContainerInheritAce",
	NoPropagateInheritAce:   "NoPropagateInheritAce",
	InheritOnlyAce:          "InheritOnlyAce",
	InheritedAce:            "InheritedAce",
	SuccessfulAccessAceFlag: "SuccessfulAccessAce",
	FailedAccessAceFlag:     "FailedAccessAce",
}

// Object ACE flags (MS-DTYP Section 2.4.4.3)
const (
	AceObjectTypePresent          uint32 = 0x00000001
	AceInheritedObjectTypePresent uint32 = 0x00000002
)

const (
	AccessMaskGenericRead          = "GENERIC_READ"
	AccessMaskGenericWrite         = "GENERIC_WRITE"
	AccessMaskGenericExecute       = "GENERIC_EXECUTE"
	AccessMaskGenericAll           = "GENERIC_ALL"
	AccessMaskMaximumAllowed       = "MAXIMUM_ALLOWED"
	AccessMaskAccessSystemSecurity = "ACCESS_SYSTEM_SECURITY"
	AccessMaskSynchronize          = "SYNCHRONIZE"
	AccessMaskWriteOwner           = "WRITE_OWNER"
	AccessMaskWriteDACL            = "WRITE_DACL"
	AccessMaskReadControl          = "READ_CONTROL"
	AccessMaskDelete               = "DELETE"
)

var accessMaskMap = map[uint32]string{
	0x80000000: AccessMaskGenericRead,
	0x40000000: AccessMaskGenericWrite,
	0x20000000: AccessMaskGenericExecute,
	0x10000000: AccessMaskGenericAll,
	0x02000000: AccessMaskMaximumAllowed,
	0x01000000: AccessMaskAccessSystemSecurity,
	0x00100000: AccessMaskSynchronize,
	0x00080000: AccessMaskWriteOwner,
	0x00040000: AccessMaskWriteDACL,
	0x00020000: AccessMaskReadControl,
	0x00010000: AccessMaskDelete,
}
