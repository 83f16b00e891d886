// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package guid decodes the 16-byte mixed-endian GUIDs embedded in MS-SHLLINK
// ExtraData blocks and PropertyStore FormatIDs.
package guid

import (
	"fmt"
	"strings"

	"github.com/ostafen/fvalidate/internal/bytesx"
)

// GUID is a 16-byte identifier with a mixed-endian canonical textual form.
type GUID [16]byte

// Parse reads a GUID from the first 16 bytes of b.
func Parse(b []byte) (GUID, error) {
	var g GUID
	if len(b) < 16 {
		return g, fmt.Errorf("guid: need 16 bytes, got %d", len(b))
	}
	copy(g[:], b[:16])
	return g, nil
}

// String renders the GUID in canonical brace form
// {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}. The first three groups are
// little-endian; the last two are emitted in raw byte order.
func (g GUID) String() string {
	d1 := bytesx.LE32(g[0:4])
	d2 := bytesx.LE16(g[4:6])
	d3 := bytesx.LE16(g[6:8])
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		d1, d2, d3,
		g[8], g[9],
		g[10], g[11], g[12], g[13], g[14], g[15])
}

// Equal reports whether two GUIDs are equal, comparing brace form
// case-insensitively per the data model's equality rule.
func (g GUID) Equal(other GUID) bool {
	return strings.EqualFold(g.String(), other.String())
}

// EqualString reports whether g's brace form matches s case-insensitively.
func (g GUID) EqualString(s string) bool {
	return strings.EqualFold(g.String(), s)
}

// Bytes returns the raw 16-byte form.
func (g GUID) Bytes() []byte {
	return g[:]
}

// MustParse parses a canonical brace-form GUID literal used for well-known
// constants (LinkCLSID, PropertyStore FormatIDs). Panics on malformed input;
// only meant for compile-time-known literals.
func MustParse(brace string) GUID {
	s := strings.Trim(brace, "{}")
	parts := strings.Split(s, "-")
	if len(parts) != 5 {
		panic("guid: malformed literal " + brace)
	}
	var raw [16]byte
	hexPut := func(dst []byte, s string) {
		for i := 0; i < len(dst); i++ {
			var v byte
			fmt.Sscanf(s[i*2:i*2+2], "%02x", &v)
			dst[i] = v
		}
	}

	var d1 [4]byte
	hexPut(d1[:], parts[0])
	raw[0], raw[1], raw[2], raw[3] = d1[3], d1[2], d1[1], d1[0]

	var d2 [2]byte
	hexPut(d2[:], parts[1])
	raw[4], raw[5] = d2[1], d2[0]

	var d3 [2]byte
	hexPut(d3[:], parts[2])
	raw[6], raw[7] = d3[1], d3[0]

	var d4 [2]byte
	hexPut(d4[:], parts[3])
	raw[8], raw[9] = d4[0], d4[1]

	var d5 [6]byte
	hexPut(d5[:], parts[4])
	copy(raw[10:16], d5[:])

	return GUID(raw)
}
