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
package ntfs

import (
	"time"
	"unicode/utf16"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/wintime"
)

var attributeTypeNames = map[uint32]string{
	0x10:  "$STANDARD_INFORMATION",
	0x20:  "$ATTRIBUTE_LIST",
	0x30:  "$FILE_NAME",
	0x40:  "$OBJECT_ID",
	0x50:  "$SECURITY_DESCRIPTOR",
	0x60:  "$VOLUME_NAME",
	0x70:  "$VOLUME_INFORMATION",
	0x80:  "$DATA",
	0x90:  "$INDEX_ROOT",
	0xa0:  "$INDEX_ALLOCATION",
	0xb0:  "$BITMAP",
	0xc0:  "$REPARSE_POINT",
	0xd0:  "$EA_INFORMATION",
	0xe0:  "$EA",
	0xf0:  "$PROPERTY_SET",
	0x100: "$LOGGED_UTILITY_STREAM",
}

// attributeTerminator marks the end of the attribute stream.
const attributeTerminator = 0xFFFFFFFF

// Attribute is one entry of a FILE record's attribute stream.
type Attribute struct {
	Type       uint32
	TypeName   string
	Length     uint32
	Resident   bool
	Parsed     bool
	StdInfo    *StandardInformation
	FileName   *FileNameAttribute
}

// StandardInformation is the parsed content of a $STANDARD_INFORMATION attribute.
type StandardInformation struct {
	CTime, ATime, MTime, RTime time.Time
	Permissions                map[string]bool
	MaxVersions                uint32
	VersionNumber              uint32
	ClassID                    uint32
	OwnerID                    uint32
	SecurityID                 uint32
	QuotaCharged               uint64
	USN                        uint64
}

// FileNameAttribute is the parsed content of a $FILE_NAME attribute.
type FileNameAttribute struct {
	ParentDirectory            uint64
	CTime, ATime, MTime, RTime time.Time
	SizeAlloc                  uint64
	SizeReal                   uint64
	Flags                      map[string]bool
	Reparse                    uint32
	FilenameLength             byte
	FilenameNamespace          byte
	Filename                   string
}

// walkAttributes reads the attribute stream starting at header.OffsetAttribute
// inside buf (the full 1024-byte record) until the 0xFFFFFFFF sentinel or the
// stream runs past the record.
func walkAttributes(buf []byte, h *RecordHeader) ([]Attribute, bool) {
	var attrs []Attribute
	pos := uint32(h.OffsetAttribute)

	for {
		if pos+8 > recordSize {
			break
		}
		attType := bytesx.LE32(buf[pos : pos+4])
		if attType == attributeTerminator {
			break
		}
		attLen := bytesx.LE32(buf[pos+4 : pos+8])
		name, known := attributeTypeNames[attType]
		if !known {
			return attrs, false
		}
		if attLen < 24 || uint64(pos)+uint64(attLen) > recordSize {
			return attrs, false
		}
		attData := buf[pos : pos+attLen]
		resident := attData[0x08] == 0

		a := Attribute{Type: attType, TypeName: name, Length: attLen, Resident: resident}

		if resident {
			switch attType {
			case 0x10:
				contentOffset := bytesx.LE16(attData[0x14:0x16])
				si, ok := parseStandardInformation(attData, contentOffset)
				if ok {
					a.StdInfo = &si
					a.Parsed = true
				}
			case 0x30:
				contentOffset := bytesx.LE16(attData[0x14:0x16])
				fn, ok := parseFileName(attData, contentOffset)
				if ok {
					a.FileName = &fn
					a.Parsed = true
				}
			}
		}

		attrs = append(attrs, a)
		pos += attLen
		if pos > 1016 {
			break
		}
	}
	return attrs, true
}

func parseStandardInformation(attData []byte, contentOffset uint16) (StandardInformation, bool) {
	var si StandardInformation
	if int(contentOffset) > len(attData) {
		return si, false
	}
	content := attData[contentOffset:]
	if len(content) < 0x48 {
		return si, false
	}
	si.CTime = wintime.FromTicks(bytesx.LE64(content[0:8]))
	si.ATime = wintime.FromTicks(bytesx.LE64(content[8:16]))
	si.MTime = wintime.FromTicks(bytesx.LE64(content[16:24]))
	si.RTime = wintime.FromTicks(bytesx.LE64(content[24:32]))
	perm := bytesx.LE32(content[32:36])
	si.Permissions = map[string]bool{
		"ReadOnly":          perm&0x0001 != 0,
		"Hidden":            perm&0x0002 != 0,
		"System":            perm&0x0004 != 0,
		"Archive":           perm&0x0020 != 0,
		"Device":            perm&0x0040 != 0,
		"Normal":            perm&0x0080 != 0,
		"Temporary":         perm&0x0100 != 0,
		"SparseFile":        perm&0x0200 != 0,
		"ReparsePoint":      perm&0x0400 != 0,
		"Compressed":        perm&0x0800 != 0,
		"Offline":           perm&0x1000 != 0,
		"NotContentIndexed": perm&0x2000 != 0,
		"Encrypted":         perm&0x4000 != 0,
	}
	si.MaxVersions = bytesx.LE32(content[36:40])
	si.VersionNumber = bytesx.LE32(content[40:44])
	si.ClassID = bytesx.LE32(content[44:48])
	si.OwnerID = bytesx.LE32(content[48:52])
	si.SecurityID = bytesx.LE32(content[52:56])
	si.QuotaCharged = bytesx.LE64(content[56:64])
	si.USN = bytesx.LE64(content[64:72])
	return si, true
}

func parseFileName(attData []byte, contentOffset uint16) (FileNameAttribute, bool) {
	var fn FileNameAttribute
	if int(contentOffset) > len(attData) {
		return fn, false
	}
	content := attData[contentOffset:]
	if len(content) < 0x42 {
		return fn, false
	}
	fn.ParentDirectory = bytesx.LE64(content[0:8])
	fn.CTime = wintime.FromTicks(bytesx.LE64(content[8:16]))
	fn.ATime = wintime.FromTicks(bytesx.LE64(content[16:24]))
	fn.MTime = wintime.FromTicks(bytesx.LE64(content[24:32]))
	fn.RTime = wintime.FromTicks(bytesx.LE64(content[32:40]))
	fn.SizeAlloc = bytesx.LE64(content[40:48])
	fn.SizeReal = bytesx.LE64(content[48:56])
	flags := bytesx.LE32(content[56:60])
	fn.Flags = map[string]bool{
		"ReadOnly":          flags&0x0001 != 0,
		"Hidden":            flags&0x0002 != 0,
		"System":            flags&0x0004 != 0,
		"Archive":           flags&0x0020 != 0,
		"Device":            flags&0x0040 != 0,
		"Normal":            flags&0x0080 != 0,
		"Temporary":         flags&0x0100 != 0,
		"SparseFile":        flags&0x0200 != 0,
		"ReparsePoint":      flags&0x0400 != 0,
		"Compressed":        flags&0x0800 != 0,
		"Offline":           flags&0x1000 != 0,
		"NotContentIndexed": flags&0x2000 != 0,
		"Encrypted":         flags&0x4000 != 0,
	}
	fn.Reparse = bytesx.LE32(content[60:64])
	fn.FilenameLength = content[64]
	fn.FilenameNamespace = content[65]

	if fn.FilenameLength > 0 {
		count := int(fn.FilenameLength) * 2
		if len(content) < 0x42+count {
			return fn, false
		}
		nameBytes := content[0x42 : 0x42+count]
		units := make([]uint16, count/2)
		for i := range units {
			units[i] = bytesx.LE16(nameBytes[i*2 : i*2+2])
		}
		fn.Filename = string(utf16.Decode(units))
	}
	return fn, true
}
