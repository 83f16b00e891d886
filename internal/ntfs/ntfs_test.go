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
package ntfs_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostafen/fvalidate/internal/ntfs"
	"github.com/ostafen/fvalidate/internal/validator"
)

func putLE16(buf []byte, offset int, v uint16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], v)
}

func putLE32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func putLE64(buf []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], v)
}

// buildRecord returns a 1024-byte FILE record: a 48-byte header, a resident
// $STANDARD_INFORMATION attribute, a resident $FILE_NAME attribute, and the
// 0xFFFFFFFF stream terminator.
func buildRecord() []byte {
	buf := make([]byte, 1024)
	copy(buf[0:4], "FILE")
	putLE16(buf, 20, 48)   // OffsetAttribute
	putLE16(buf, 22, 0x01) // Flags: in use
	putLE32(buf, 24, 1024) // SizeReal
	putLE32(buf, 28, 1024) // SizeAlloc

	// $STANDARD_INFORMATION at 48, length 96, content at relative offset 24.
	putLE32(buf, 48, 0x10)
	putLE32(buf, 52, 96)
	buf[56] = 0 // resident
	putLE16(buf, 68, 24)
	putLE32(buf, 72+32, 0x20) // permissions: Archive

	// $FILE_NAME at 144, length 90, content at relative offset 24.
	putLE32(buf, 144, 0x30)
	putLE32(buf, 148, 90)
	buf[152] = 0 // resident
	putLE16(buf, 164, 24)
	putLE32(buf, 168+56, 0x20) // flags: Archive
	buf[168+64] = 0            // FilenameLength: 0 (no variable name)

	// attribute stream terminator
	putLE32(buf, 234, 0xFFFFFFFF)
	return buf
}

func TestValidate_HappyPath(t *testing.T) {
	data := buildRecord()

	v := ntfs.New()
	require.True(t, v.Validate(validator.FromBytes(data)))
	st := v.Status()
	require.True(t, st.IsValid)
	require.False(t, st.EOF)
	require.True(t, st.End)
	require.Equal(t, uint64(1024), st.BytesLastValid)

	attrs := v.Details()["attributes"].([]ntfs.Attribute)
	require.Len(t, attrs, 2)
	require.Equal(t, "$STANDARD_INFORMATION", attrs[0].TypeName)
	require.True(t, attrs[0].Parsed)
	require.NotNil(t, attrs[0].StdInfo)
	require.True(t, attrs[0].StdInfo.Permissions["Archive"])
	require.Equal(t, "$FILE_NAME", attrs[1].TypeName)
	require.True(t, attrs[1].Parsed)
	require.NotNil(t, attrs[1].FileName)
}

func TestValidate_BadMagicInvalidates(t *testing.T) {
	data := buildRecord()
	data[0] = 'X'

	v := ntfs.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_OffsetAttributeOutOfRangeInvalidates(t *testing.T) {
	data := buildRecord()
	putLE16(data, 20, 1020) // >= 1016

	v := ntfs.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_SizeAllocBelowSizeRealInvalidates(t *testing.T) {
	data := buildRecord()
	putLE32(data, 24, 2000) // SizeReal
	putLE32(data, 28, 1024) // SizeAlloc, now smaller

	v := ntfs.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_UnknownAttributeTypeInvalidates(t *testing.T) {
	data := buildRecord()
	putLE32(data, 48, 0x999) // not a recognized attribute type

	v := ntfs.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_AttributeLengthTooShortInvalidates(t *testing.T) {
	data := buildRecord()
	putLE32(data, 52, 8) // below the 24-byte minimum attribute length

	v := ntfs.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_TruncatedRecordReportsEOF(t *testing.T) {
	data := buildRecord()[:500]

	v := ntfs.New()
	require.True(t, v.Validate(validator.FromBytes(data)))
	st := v.Status()
	require.True(t, st.IsValid)
	require.True(t, st.EOF)
	require.Equal(t, uint64(0), st.BytesLastValid)
}

func TestValidate_AttributeContentOffsetPastAttributeDoesNotPanic(t *testing.T) {
	data := buildRecord()
	// Shrink $STANDARD_INFORMATION to the 24-byte minimum and set its content
	// offset to 256, far past the attribute's own 24-byte end (the content
	// would start at record offset 304, inside the record but outside the
	// attribute).
	putLE32(data, 52, 24)
	putLE16(data, 68, 256)

	v := ntfs.New()
	require.NotPanics(t, func() { v.Validate(validator.FromBytes(data)) })

	attrs := v.Details()["attributes"].([]ntfs.Attribute)
	require.False(t, attrs[0].Parsed)
	require.Nil(t, attrs[0].StdInfo)
}

func TestValidate_ResetBetweenCalls(t *testing.T) {
	v := ntfs.New()
	require.False(t, v.Validate(validator.FromBytes([]byte{0x00, 0x01})))

	data := buildRecord()
	require.True(t, v.Validate(validator.FromBytes(data)))
	require.True(t, v.Status().IsValid)
	require.True(t, v.Status().End)
}
