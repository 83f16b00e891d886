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
package shlink

import (
	"time"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/guid"
	"github.com/ostafen/fvalidate/internal/wintime"
)

// linkCLSID is the well-known LinkCLSID embedded at offset 4 of every
// ShellLinkHeader.
var linkCLSID = guid.MustParse("{00021401-0000-0000-C000-000000000046}")

const headerSize = 76

// Header is the fixed 76-byte ShellLinkHeader.
type Header struct {
	LinkFlags       uint32
	FileAttributes  uint32
	CreationTime    time.Time
	AccessTime      time.Time
	WriteTime       time.Time
	FileSize        uint32
	IconIndex       int32
	ShowCommand     uint32
	HotKeyKey       byte
	HotKeyModifiers byte
	Reserved1       uint16
	Reserved2       uint32
	Reserved3       uint32
}

var linkFlagNames = []struct {
	bit  uint32
	name string
}{
	{0x00000001, "HasLinkTargetIDList"},
	{0x00000002, "HasLinkInfo"},
	{0x00000004, "HasName"},
	{0x00000008, "HasRelativePath"},
	{0x00000010, "HasWorkingDir"},
	{0x00000020, "HasArguments"},
	{0x00000040, "HasIconLocation"},
	{0x00000080, "IsUnicode"},
	{0x00000100, "ForceNoLinkInfo"},
	{0x00000200, "HasExpString"},
	{0x00000400, "RunInSeparateProcess"},
	{0x00000800, "Unused1"},
	{0x00001000, "HasDarwinID"},
	{0x00002000, "RunAsUser"},
	{0x00004000, "HasExpIcon"},
	{0x00008000, "NoPidlAlias"},
	{0x00010000, "Unused2"},
	{0x00020000, "RunWithShimLayer"},
	{0x00040000, "ForceNoLinkTrack"},
	{0x00080000, "EnableTargetMetadata"},
	{0x00100000, "DisableLinkPathTracking"},
	{0x00200000, "DisableKnownFolderTracking"},
	{0x00400000, "DisableKnownFolderAlias"},
	{0x00800000, "AllowLinkToLink"},
	{0x01000000, "UnaliasOnSave"},
	{0x02000000, "PreferEnvironmentPath"},
	{0x04000000, "KeepLocalIDListForUNCTarget"},
}

var fileAttributeNames = []struct {
	bit  uint32
	name string
}{
	{0x0001, "ReadOnly"},
	{0x0002, "Hidden"},
	{0x0004, "System"},
	{0x0008, "Reserved1"},
	{0x0010, "Directory"},
	{0x0020, "Archive"},
	{0x0040, "Reserved2"},
	{0x0080, "Normal"},
	{0x0100, "Temporary"},
	{0x0200, "Sparse"},
	{0x0400, "ReparsePoint"},
	{0x0800, "Compressed"},
	{0x1000, "Offline"},
	{0x2000, "NotContentIndexed"},
	{0x4000, "Encrypted"},
}

func namedBits(value uint32, names []struct {
	bit  uint32
	name string
}) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n.name] = value&n.bit != 0
	}
	return out
}

// flagSet reports whether bit is set in h.LinkFlags.
func (h *Header) flagSet(bit uint32) bool {
	return h.LinkFlags&bit != 0
}

// parseHeader reads and structurally validates the 76-byte ShellLinkHeader
// from buf, which must be exactly 76 bytes.
func parseHeader(buf []byte) (Header, bool) {
	var h Header

	if bytesx.LE32(buf[0:4]) != headerSize {
		return h, false
	}
	g, err := guid.Parse(buf[4:20])
	if err != nil || !g.Equal(linkCLSID) {
		return h, false
	}

	h.LinkFlags = bytesx.LE32(buf[20:24])
	h.FileAttributes = bytesx.LE32(buf[24:28])
	h.CreationTime = wintime.FromTicks(bytesx.LE64(buf[28:36]))
	h.AccessTime = wintime.FromTicks(bytesx.LE64(buf[36:44]))
	h.WriteTime = wintime.FromTicks(bytesx.LE64(buf[44:52]))
	h.FileSize = bytesx.LE32(buf[52:56])
	h.IconIndex = int32(bytesx.LE32(buf[56:60]))
	h.ShowCommand = bytesx.LE32(buf[60:64])
	h.HotKeyKey = buf[64]
	h.HotKeyModifiers = buf[65]
	h.Reserved1 = bytesx.LE16(buf[66:68])
	h.Reserved2 = bytesx.LE32(buf[68:72])
	h.Reserved3 = bytesx.LE32(buf[72:76])

	if h.FileAttributes >= 1<<15 {
		return h, false
	}
	if h.ShowCommand != 1 && h.ShowCommand != 3 && h.ShowCommand != 7 {
		return h, false
	}
	hotkeyOK := (h.HotKeyKey == 0 && h.HotKeyModifiers == 0) ||
		(h.HotKeyKey >= 0x30 && h.HotKeyKey <= 0x91 &&
			(h.HotKeyModifiers == 1 || h.HotKeyModifiers == 2 || h.HotKeyModifiers == 4))
	if !hotkeyOK {
		return h, false
	}
	if h.Reserved1 != 0 || h.Reserved2 != 0 || h.Reserved3 != 0 {
		return h, false
	}
	return h, true
}
