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
	"io"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/validator"
)

// VolumeID describes the local-drive sub-structure of a LinkInfo block.
type VolumeID struct {
	DriveType    uint32
	SerialNumber uint32
	Label        string
}

// CommonNetworkRelativeLink describes a UNC target referenced by LinkInfo.
type CommonNetworkRelativeLink struct {
	ValidDevice bool
	ValidNetType bool
	NetName     string
	DeviceName  string
}

// LinkInfo is the optional section describing where the link target lives.
type LinkInfo struct {
	HasVolumeID               bool
	HasCommonNetworkRelativeLink bool
	VolumeID                  VolumeID
	LocalBasePath             string
	CommonNetworkRelativeLink CommonNetworkRelativeLink
	CommonPathSuffix          string
}

const (
	liFlagVolumeIDAndLocalBasePath           = 0x1
	liFlagCommonNetworkRelativeLinkAndSuffix = 0x2

	cnrlFlagValidDevice  = 0x1
	cnrlFlagValidNetType = 0x2
)

// parseLinkInfo reads the LinkInfoSize-prefixed block from src and decodes
// its sub-structures. The whole block is buffered first since every offset
// inside it is relative to the block's own start.
func parseLinkInfo(src validator.Source, acc *validator.Accounting) (LinkInfo, bool) {
	var li LinkInfo

	var sizes [8]byte
	if _, err := io.ReadFull(src, sizes[:]); err != nil {
		acc.EOF = true
		return li, false
	}
	linkInfoSize := bytesx.LE32(sizes[0:4])
	headerSize := bytesx.LE32(sizes[4:8])
	if linkInfoSize < 8 || headerSize < 8 || headerSize > linkInfoSize {
		acc.Invalidate()
		return li, false
	}

	rest := make([]byte, linkInfoSize-8)
	if len(rest) > 0 {
		if _, err := io.ReadFull(src, rest); err != nil {
			acc.EOF = true
			return li, false
		}
	}

	buf := append(append([]byte{}, sizes[:]...), rest...)
	if uint32(len(buf)) < headerSize || len(buf) < 28 {
		acc.Invalidate()
		return li, false
	}

	flags := bytesx.LE32(buf[8:12])
	li.HasVolumeID = flags&liFlagVolumeIDAndLocalBasePath != 0
	li.HasCommonNetworkRelativeLink = flags&liFlagCommonNetworkRelativeLinkAndSuffix != 0

	volumeIDOffset := bytesx.LE32(buf[12:16])
	localBasePathOffset := bytesx.LE32(buf[16:20])
	cnrlOffset := bytesx.LE32(buf[20:24])
	commonPathSuffixOffset := bytesx.LE32(buf[24:28])

	var localBasePathOffsetUnicode, commonPathSuffixOffsetUnicode uint32
	if headerSize > 0x24 && len(buf) >= 36 {
		localBasePathOffsetUnicode = bytesx.LE32(buf[28:32])
		commonPathSuffixOffsetUnicode = bytesx.LE32(buf[32:36])
	}

	if li.HasVolumeID {
		vol, ok := parseVolumeID(buf, volumeIDOffset)
		if !ok {
			acc.Invalidate()
			return li, false
		}
		li.VolumeID = vol

		if localBasePathOffsetUnicode > 0 {
			s, ok := readUTF16NulTerminated(buf, localBasePathOffsetUnicode)
			if !ok {
				acc.Invalidate()
				return li, false
			}
			li.LocalBasePath = s
		} else {
			s, ok := readASCIINulTerminated(buf, localBasePathOffset)
			if !ok {
				acc.Invalidate()
				return li, false
			}
			li.LocalBasePath = s
		}
	}

	if li.HasCommonNetworkRelativeLink {
		cnrl, ok := parseCommonNetworkRelativeLink(buf, cnrlOffset)
		if !ok {
			acc.Invalidate()
			return li, false
		}
		li.CommonNetworkRelativeLink = cnrl
	}

	if commonPathSuffixOffsetUnicode > 0 {
		s, ok := readUTF16NulTerminated(buf, commonPathSuffixOffsetUnicode)
		if !ok {
			acc.Invalidate()
			return li, false
		}
		li.CommonPathSuffix = s
	} else {
		s, ok := readASCIINulTerminated(buf, commonPathSuffixOffset)
		if !ok {
			acc.Invalidate()
			return li, false
		}
		li.CommonPathSuffix = s
	}

	acc.CountValidBytes(uint64(linkInfoSize))
	return li, true
}

func parseVolumeID(buf []byte, offset uint32) (VolumeID, bool) {
	var v VolumeID
	if uint64(offset)+16 > uint64(len(buf)) {
		return v, false
	}
	b := buf[offset:]
	v.DriveType = bytesx.LE32(b[4:8])
	if v.DriveType > 6 {
		return v, false
	}
	v.SerialNumber = bytesx.LE32(b[8:12])
	labelOffset := bytesx.LE32(b[12:16])

	if labelOffset == 0x14 && len(b) >= 20 {
		labelOffsetUnicode := bytesx.LE32(b[16:20])
		s, ok := readUTF16NulTerminated(buf, offset+labelOffsetUnicode)
		if !ok {
			return v, false
		}
		v.Label = s
		return v, true
	}
	s, ok := readASCIINulTerminated(buf, offset+labelOffset)
	if !ok {
		return v, false
	}
	v.Label = s
	return v, true
}

func parseCommonNetworkRelativeLink(buf []byte, offset uint32) (CommonNetworkRelativeLink, bool) {
	var c CommonNetworkRelativeLink
	if uint64(offset)+20 > uint64(len(buf)) {
		return c, false
	}
	b := buf[offset:]
	size := bytesx.LE32(b[0:4])
	if size < 0x14 {
		return c, false
	}
	flags := bytesx.LE32(b[4:8])
	c.ValidDevice = flags&cnrlFlagValidDevice != 0
	c.ValidNetType = flags&cnrlFlagValidNetType != 0
	netNameOffset := bytesx.LE32(b[8:12])
	deviceNameOffset := bytesx.LE32(b[12:16])

	if netNameOffset > 0x14 && size > 0x1C && uint64(offset)+24 <= uint64(len(buf)) {
		netNameOffsetUnicode := bytesx.LE32(b[20:24])
		s, ok := readUTF16NulTerminated(buf, offset+netNameOffsetUnicode)
		if !ok {
			return c, false
		}
		c.NetName = s
	} else {
		s, ok := readASCIINulTerminated(buf, offset+netNameOffset)
		if !ok {
			return c, false
		}
		c.NetName = s
	}

	if c.ValidDevice {
		s, ok := readASCIINulTerminated(buf, offset+deviceNameOffset)
		if !ok {
			return c, false
		}
		c.DeviceName = s
	}
	return c, true
}

func readASCIINulTerminated(buf []byte, offset uint32) (string, bool) {
	if uint64(offset) > uint64(len(buf)) {
		return "", false
	}
	b := buf[offset:]
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), true
		}
	}
	return "", false
}

func readUTF16NulTerminated(buf []byte, offset uint32) (string, bool) {
	if uint64(offset) > uint64(len(buf)) {
		return "", false
	}
	b := buf[offset:]
	var units []uint16
	for i := 0; i+2 <= len(b); i += 2 {
		u := bytesx.LE16(b[i : i+2])
		if u == 0 {
			return decodeUTF16(units), true
		}
		units = append(units, u)
	}
	return "", false
}
