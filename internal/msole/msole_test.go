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
package msole_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostafen/fvalidate/internal/msole"
	"github.com/ostafen/fvalidate/internal/validator"
)

func putLE32(buf []byte, offset int, v int32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], uint32(v))
}

func putLE16(buf []byte, offset int, v int16) {
	binary.LittleEndian.PutUint16(buf[offset:offset+2], uint16(v))
}

// buildHeader returns a 512-byte CDH declaring satSecs SAT sectors (the
// first MSAT entry points at sector 0; 512-byte sectors) and no MSAT
// overflow chain.
func buildHeader(satSecs int32) []byte {
	cdh := make([]byte, 512)
	copy(cdh[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	cdh[28], cdh[29] = 0xFE, 0xFF
	putLE16(cdh, 30, 9) // sector size 2^9 = 512
	putLE32(cdh, 44, satSecs)
	putLE32(cdh, 68, -2) // ENDOFCHAIN: no MSAT overflow sectors
	putLE32(cdh, 72, 0)

	// 109 header-embedded MSAT entries: first points at SAT sector 0, the
	// rest are unused (-1 FREESECT).
	putLE32(cdh, 76, 0)
	for off := 80; off+4 <= 512; off += 4 {
		putLE32(cdh, off, -1)
	}
	return cdh
}

// buildSATSector returns the 128-entry (512-byte) SAT sector for sector 0:
// slot 0 is marked FATSECT (this sector belongs to the FAT), every other
// slot is ENDOFCHAIN so no slot is free.
func buildSATSector(slot0, rest int32) []byte {
	sat := make([]byte, 512)
	putLE32(sat, 0, slot0)
	for i := 1; i < 128; i++ {
		putLE32(sat, i*4, rest)
	}
	return sat
}

func TestValidate_HappyPath(t *testing.T) {
	data := append(buildHeader(1), buildSATSector(-3, -2)...)

	v := msole.New()
	require.True(t, v.Validate(validator.FromBytes(data)))
	st := v.Status()
	require.True(t, st.IsValid)
	require.False(t, st.EOF)
	require.True(t, st.End)
	// 512 header + (sat_secs-1)*128 data sectors + (128-free_secs) data
	// sectors = 512 + 0 + 128*512 = 66048.
	require.Equal(t, uint64(66048), st.BytesLastValid)

	details := v.Details()
	require.Equal(t, 512, details["sector_size"])
	require.Equal(t, int32(1), details["sat_secs"])
}

func TestValidate_BadMagicInvalidates(t *testing.T) {
	header := buildHeader(1)
	header[0] = 0x00
	data := append(header, buildSATSector(-3, -2)...)

	v := msole.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_TruncatedHeaderReportsEOF(t *testing.T) {
	v := msole.New()
	require.True(t, v.Validate(validator.FromBytes(buildHeader(1)[:100])))
	st := v.Status()
	require.True(t, st.IsValid)
	require.True(t, st.EOF)
	require.Equal(t, uint64(0), st.BytesLastValid)
}

func TestValidate_DeclaredSATSecsMismatchInvalidates(t *testing.T) {
	// Header declares two SAT sectors but only one is reachable from the
	// embedded MSAT entries.
	data := append(buildHeader(2), buildSATSector(-3, -2)...)

	v := msole.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_FATSectCrossCheckFailureInvalidates(t *testing.T) {
	// Slot 1 claims FATSECT, but sector 1 is never listed in the MSAT.
	sat := buildSATSector(-3, -2)
	putLE32(sat, 4, -3)
	data := append(buildHeader(1), sat...)

	v := msole.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_SlotBeyondMaxSectorInvalidates(t *testing.T) {
	sat := buildSATSector(-3, -2)
	putLE32(sat, 8, 9000) // far beyond maxSector (128 for this layout)
	data := append(buildHeader(1), sat...)

	v := msole.New()
	require.False(t, v.Validate(validator.FromBytes(data)))
	require.False(t, v.Status().IsValid)
}

func TestValidate_ResetBetweenCalls(t *testing.T) {
	v := msole.New()
	require.False(t, v.Validate(validator.FromBytes([]byte{0x00, 0x01})))
	data := append(buildHeader(1), buildSATSector(-3, -2)...)
	require.True(t, v.Validate(validator.FromBytes(data)))
	require.True(t, v.Status().IsValid)
	require.True(t, v.Status().End)
}
