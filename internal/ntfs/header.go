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

import "github.com/ostafen/fvalidate/internal/bytesx"

// recordSize is the fixed size of every NTFS FILE record.
const recordSize = 1024

// headerSize is fixed at 48 bytes: the earlier 42-byte layout some tools use
// drops the trailing align/MFT-number pair that the pretty-printer expects.
const headerSize = 48

var recordMagic = [4]byte{'F', 'I', 'L', 'E'}

// RecordHeader is the fixed leading structure of a FILE record.
type RecordHeader struct {
	Magic               [4]byte
	OffsetUpdateSeq     uint16
	SizeUpdateSeq       uint16
	LSN                 uint64
	SequenceNumber      uint16
	HardlinkCount       uint16
	OffsetAttribute     uint16
	Flags               uint16
	SizeReal            uint32
	SizeAlloc           uint32
	BaseRecord          uint64
	NextAttributeID     uint16
	Align               uint16
	MFTNumber           uint32
}

// InUse reports whether the record's in-use flag bit is set.
func (h *RecordHeader) InUse() bool { return h.Flags&0x01 != 0 }

// IsDir reports whether the record describes a directory.
func (h *RecordHeader) IsDir() bool { return h.Flags&0x02 != 0 }

func parseHeader(buf []byte) (RecordHeader, bool) {
	var h RecordHeader
	if len(buf) < headerSize {
		return h, false
	}
	copy(h.Magic[:], buf[0:4])
	if h.Magic != recordMagic {
		return h, false
	}
	h.OffsetUpdateSeq = bytesx.LE16(buf[4:6])
	h.SizeUpdateSeq = bytesx.LE16(buf[6:8])
	h.LSN = bytesx.LE64(buf[8:16])
	h.SequenceNumber = bytesx.LE16(buf[16:18])
	h.HardlinkCount = bytesx.LE16(buf[18:20])
	h.OffsetAttribute = bytesx.LE16(buf[20:22])
	h.Flags = bytesx.LE16(buf[22:24])
	h.SizeReal = bytesx.LE32(buf[24:28])
	h.SizeAlloc = bytesx.LE32(buf[28:32])
	h.BaseRecord = bytesx.LE64(buf[32:40])
	h.NextAttributeID = bytesx.LE16(buf[40:42])
	h.Align = bytesx.LE16(buf[42:44])
	h.MFTNumber = bytesx.LE32(buf[44:48])

	if h.OffsetAttribute >= 1016 {
		return h, false
	}
	if h.SizeAlloc < h.SizeReal {
		return h, false
	}
	return h, true
}
