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
package ntfs

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/jfjallid/winstructs/cursor"
)

func TestDecodeMftReference(t *testing.T) {
	buf, err := hex.DecodeString("7300000000006891")
	if err != nil {
		t.Fatal(err)
	}
	var ref MftReference
	err = ref.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Entry != 115 {
		t.Fatalf("got entry %d", ref.Entry)
	}
	if ref.Sequence != 37224 {
		t.Fatalf("got sequence %d", ref.Sequence)
	}
}

func TestMftReferenceRoundTrip(t *testing.T) {
	buf, err := hex.DecodeString("7300000000006891")
	if err != nil {
		t.Fatal(err)
	}
	var ref MftReference
	err = ref.UnmarshalBinary(buf)
	if err != nil {
		t.Fatal(err)
	}
	buf2, err := ref.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, buf2) {
		t.Fail()
	}
	if MftReferenceFromUint64(ref.Uint64()) != ref {
		t.Fail()
	}
}

func TestMftReferenceEntryWidth(t *testing.T) {
	ref := MftReference{Entry: 1 << 50, Sequence: 1}
	// Entry bits above 48 cannot be represented on disk
	if ref.Uint64() != 1<<48 {
		t.Fatalf("got 0x%x", ref.Uint64())
	}
}

func TestMftReferenceTruncated(t *testing.T) {
	buf := []byte{0x73, 0x00, 0x00}
	_, err := ReadMftReference(cursor.New(buf))
	if !errors.Is(err, cursor.ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}
