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
package shlink_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostafen/fvalidate/internal/guid"
	"github.com/ostafen/fvalidate/internal/shlink"
	"github.com/ostafen/fvalidate/internal/validator"
)

var linkCLSID = guid.MustParse("{00021401-0000-0000-C000-000000000046}")

func putLE16(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], v)
}

func putLE32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func putLE64(buf []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], v)
}

// buildHeader returns a 76-byte ShellLinkHeader with the given flags, a
// normal ShowCommand, and no hotkey.
func buildHeader(linkFlags, fileAttributes uint32) []byte {
	buf := make([]byte, 76)
	putLE32(buf, 0, 76)
	copy(buf[4:20], linkCLSID.Bytes())
	putLE32(buf, 20, linkFlags)
	putLE32(buf, 24, fileAttributes)
	putLE64(buf, 28, 0) // creation time
	putLE64(buf, 36, 0) // access time
	putLE64(buf, 44, 0) // write time
	putLE32(buf, 52, 0) // file size
	putLE32(buf, 56, 0) // icon index
	putLE32(buf, 60, 1) // show command: SW_SHOWNORMAL
	return buf
}

// buildIDList returns one ItemID entry (4-byte total size, 2-byte payload)
// followed by the zero-size terminator.
func buildIDList() []byte {
	buf := make([]byte, 6)
	putLE16(buf, 0, 4) // entry size, includes itself
	buf[2], buf[3] = 0xAA, 0xBB
	putLE16(buf, 4, 0) // terminator
	return buf
}

// buildLinkInfo returns a 55-byte LinkInfo block with a fixed-drive VolumeID
// (DriveType 3, empty label) and LocalBasePath "C:\a.txt".
func buildLinkInfo() []byte {
	const (
		headerLen     = 28
		volumeIDOff   = headerLen      // 28
		volumeIDLen   = 17             // 16 fixed + 1-byte empty label
		localPathOff  = volumeIDOff + volumeIDLen // 45
		localPath     = "C:\\a.txt"
		localPathLen  = len(localPath) + 1 // + NUL
		suffixOff     = localPathOff + localPathLen // 54
		totalLen      = suffixOff + 1               // 55
	)

	buf := make([]byte, totalLen)
	putLE32(buf, 0, uint32(totalLen)) // LinkInfoSize
	putLE32(buf, 4, headerLen)        // LinkInfoHeaderSize
	putLE32(buf, 8, 0x1)              // flags: VolumeIDAndLocalBasePath
	putLE32(buf, 12, volumeIDOff)
	putLE32(buf, 16, uint32(localPathOff))
	putLE32(buf, 20, 0) // CommonNetworkRelativeLinkOffset, unused
	putLE32(buf, 24, uint32(suffixOff))

	// VolumeID at volumeIDOff: size(4)+DriveType(4)+SerialNumber(4)+LabelOffset(4)+label(1 NUL)
	putLE32(buf, volumeIDOff, uint32(volumeIDLen))
	putLE32(buf, volumeIDOff+4, 3) // DRIVE_FIXED
	putLE32(buf, volumeIDOff+8, 0x12345678)
	putLE32(buf, volumeIDOff+12, 0x10) // label right after the 16-byte fixed part
	buf[volumeIDOff+16] = 0x00          // empty label

	copy(buf[localPathOff:], localPath)
	buf[localPathOff+len(localPath)] = 0x00

	buf[suffixOff] = 0x00 // empty CommonPathSuffix

	return buf
}

func extraDataTerminator() []byte {
	return []byte{0x00, 0x00, 0x00, 0x00}
}

func TestValidate_HappyPath(t *testing.T) {
	var data []byte
	data = append(data, buildHeader(0x3, 0)...) // HasLinkTargetIDList | HasLinkInfo
	data = append(data, buildIDList()...)
	data = append(data, buildLinkInfo()...)
	data = append(data, extraDataTerminator()...)

	v := shlink.New()
	require.True(t, v.Validate(validator.FromBytes(data)))
	st := v.Status()
	require.True(t, st.IsValid)
	require.False(t, st.EOF)
	require.True(t, st.End)
	require.Equal(t, uint64(len(data)), st.BytesLastValid)

	li := v.Details()["link_info"].(shlink.LinkInfo)
	require.Equal(t, uint32(3), li.VolumeID.DriveType)
	require.Equal(t, "C:\\a.txt", li.LocalBasePath)
	require.Equal(t, 1, v.Details()["id_list_items"])
}

func TestValidate_BadCLSIDInvalidates(t *testing.T) {
	header := buildHeader(0, 0)
	header[4] ^= 0xFF

	v := shlink.New()
	require.False(t, v.Validate(validator.FromBytes(header)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_TruncatedHeaderReportsEOF(t *testing.T) {
	header := buildHeader(0, 0)

	v := shlink.New()
	require.True(t, v.Validate(validator.FromBytes(header[:40])))
	st := v.Status()
	require.True(t, st.IsValid)
	require.True(t, st.EOF)
	require.Equal(t, uint64(0), st.BytesLastValid)
}

func TestValidate_NoOptionalSections(t *testing.T) {
	data := append(buildHeader(0, 0), extraDataTerminator()...)

	v := shlink.New()
	require.True(t, v.Validate(validator.FromBytes(data)))
	st := v.Status()
	require.True(t, st.IsValid)
	require.True(t, st.End)
	require.Equal(t, uint64(len(data)), st.BytesLastValid)
}

func TestValidate_LinkInfoHeaderSizeExceedsBlockInvalidates(t *testing.T) {
	li := buildLinkInfo()
	putLE32(li, 4, uint32(len(li))+1) // headerSize > linkInfoSize
	data := append(buildHeader(0x2, 0), li...)

	v := shlink.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_UnknownExtraBlockSignatureInvalidates(t *testing.T) {
	data := buildHeader(0, 0)
	block := make([]byte, 12)
	putLE32(block, 0, 12)
	putLE32(block, 4, 0xDEADBEEF) // not a recognized ExtraData signature
	data = append(data, block...)

	v := shlink.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_ShowCommandOutOfRangeInvalidates(t *testing.T) {
	header := buildHeader(0, 0)
	putLE32(header, 60, 2) // not one of {1,3,7}

	v := shlink.New()
	require.False(t, v.Validate(validator.FromBytes(header)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_ResetBetweenCalls(t *testing.T) {
	v := shlink.New()
	require.False(t, v.Validate(validator.FromBytes([]byte{0x00, 0x01})))

	data := append(buildHeader(0, 0), extraDataTerminator()...)
	require.True(t, v.Validate(validator.FromBytes(data)))
	require.True(t, v.Status().IsValid)
	require.True(t, v.Status().End)
}
