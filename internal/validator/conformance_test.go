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

// This file checks universal properties every validator must satisfy
// (determinism, reset, the terminal law with its bounds on the final
// bytes_last_valid, prefix-truncation, and rejection of cross-format
// misidentification) against a minimal valid fixture of each registered
// format. Only the final bytes_last_valid is observed, so the value's
// growth during a single Validate call is not checked here.
package validator_test

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostafen/fvalidate/internal/registry"
	"github.com/ostafen/fvalidate/internal/validator"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func minimalJPEG() []byte {
	return []byte{0xFF, 0xD8, 0xFF, 0xDA, 0x00, 0x02, 0x00, 0xFF, 0xD9}
}

func minimalPNG() []byte {
	chunk := func(typ string, data []byte) []byte {
		body := append([]byte(typ), data...)
		crc := crc32.ChecksumIEEE(body)
		out := be32(uint32(len(data)))
		out = append(out, body...)
		out = append(out, be32(crc)...)
		return out
	}
	data := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	data = append(data, chunk("IHDR", make([]byte, 13))...)
	data = append(data, chunk("IDAT", []byte{0x78, 0x9C, 0x03, 0x00, 0x00, 0x00, 0x00, 0x01})...)
	data = append(data, chunk("IEND", nil)...)
	return data
}

func minimalMSOLE() []byte {
	header := make([]byte, 512)
	copy(header[0:8], []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	header[28], header[29] = 0xFE, 0xFF
	binary.LittleEndian.PutUint16(header[30:32], 9) // 2^9 = 512-byte sectors
	copy(header[44:48], le32(1))                    // satSecs
	copy(header[68:72], le32(uint32(int32(-2))))     // no MSAT overflow chain
	copy(header[76:80], le32(0))                     // MSAT entry 0 -> SAT sector 0
	for off := 80; off+4 <= 512; off += 4 {
		copy(header[off:off+4], le32(uint32(int32(-1))))
	}

	sat := make([]byte, 512)
	copy(sat[0:4], le32(uint32(int32(-3)))) // slot 0: this sector is FAT
	for i := 1; i < 128; i++ {
		copy(sat[i*4:i*4+4], le32(uint32(int32(-2)))) // every other slot: end of chain
	}
	return append(header, sat...)
}

func minimalSQLite() []byte {
	header := make([]byte, 512)
	copy(header[0:16], []byte("SQLite format 3\x00"))
	binary.BigEndian.PutUint16(header[16:18], 512)
	header[18], header[19] = 1, 1
	header[21], header[22], header[23] = 64, 32, 32
	copy(header[24:28], be32(1)) // file change counter
	copy(header[28:32], be32(2)) // page count
	copy(header[44:48], be32(1)) // schema format number
	copy(header[56:60], be32(1)) // text encoding
	copy(header[92:96], be32(1)) // version valid for

	page := make([]byte, 512)
	page[0] = 0x0D // leaf table b-tree page
	return append(header, page...)
}

var linkCLSIDBytes = []byte{
	0x01, 0x14, 0x02, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xC0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x46,
}

func minimalShlink() []byte {
	header := make([]byte, 76)
	copy(header[0:4], le32(76))
	copy(header[4:20], linkCLSIDBytes)
	copy(header[20:24], le32(0)) // no optional sections
	copy(header[60:64], le32(1)) // show command: normal
	return append(header, []byte{0x00, 0x00, 0x00, 0x00}...)
}

func minimalNTFS() []byte {
	buf := make([]byte, 1024)
	copy(buf[0:4], "FILE")
	binary.LittleEndian.PutUint16(buf[20:22], 48) // OffsetAttribute
	binary.LittleEndian.PutUint16(buf[22:24], 1)  // flags: in use
	copy(buf[24:28], le32(1024))                  // SizeReal
	copy(buf[28:32], le32(1024))                  // SizeAlloc
	copy(buf[48:52], le32(0xFFFFFFFF))             // attribute stream terminator immediately
	return buf
}

type fixture struct {
	format registry.Format
	valid  []byte
}

func fixtures(t *testing.T) []fixture {
	t.Helper()
	return []fixture{
		{registry.FormatJPEG, minimalJPEG()},
		{registry.FormatPNG, minimalPNG()},
		{registry.FormatMSOLE, minimalMSOLE()},
		{registry.FormatSQLite, minimalSQLite()},
		{registry.FormatShellLink, minimalShlink()},
		{registry.FormatNTFS, minimalNTFS()},
	}
}

func TestUniversal_Determinism(t *testing.T) {
	reg := registry.New()
	for _, f := range fixtures(t) {
		entry, err := reg.ByFormat(f.format)
		require.NoError(t, err)

		a := entry.New()
		a.Validate(validator.FromBytes(f.valid))
		b := entry.New()
		b.Validate(validator.FromBytes(f.valid))

		require.Equal(t, a.Status(), b.Status(), "format %s", f.format)
	}
}

func TestUniversal_ResetBetweenValidateCalls(t *testing.T) {
	reg := registry.New()
	for _, f := range fixtures(t) {
		entry, err := reg.ByFormat(f.format)
		require.NoError(t, err)

		reused := entry.New()
		reused.Validate(validator.FromBytes(f.valid))
		reused.Validate(validator.FromBytes([]byte{0x00, 0x01, 0x02}))

		fresh := entry.New()
		fresh.Validate(validator.FromBytes([]byte{0x00, 0x01, 0x02}))

		require.Equal(t, fresh.Status(), reused.Status(), "format %s", f.format)
	}
}

// MS-OLE reports a declared effective size derived from the sector graph,
// not the count of bytes physically consumed, so it is exempt from the
// byte-count upper bounds the other formats are held to.
func reportsDeclaredSize(format registry.Format) bool {
	return format == registry.FormatMSOLE
}

func TestUniversal_TerminalLawImpliesValidAndFullyAccounted(t *testing.T) {
	reg := registry.New()
	for _, f := range fixtures(t) {
		entry, err := reg.ByFormat(f.format)
		require.NoError(t, err)

		v := entry.New()
		v.Validate(validator.FromBytes(f.valid))
		st := v.Status()
		if st.End {
			require.True(t, st.IsValid, "format %s", f.format)
			if !reportsDeclaredSize(f.format) {
				require.Equal(t, uint64(len(f.valid)), st.BytesLastValid, "format %s", f.format)
			}
		}
		if !reportsDeclaredSize(f.format) {
			require.LessOrEqual(t, st.BytesLastValid, uint64(len(f.valid)), "format %s", f.format)
		}
	}
}

func TestUniversal_PrefixTruncationReportsEOFNotInvalid(t *testing.T) {
	reg := registry.New()
	for _, f := range fixtures(t) {
		entry, err := reg.ByFormat(f.format)
		require.NoError(t, err)

		truncated := f.valid[:len(f.valid)-1]
		v := entry.New()
		v.Validate(validator.FromBytes(truncated))
		st := v.Status()

		require.True(t, st.IsValid, "format %s", f.format)
		require.True(t, st.EOF, "format %s", f.format)
		require.False(t, st.End, "format %s", f.format)
		if !reportsDeclaredSize(f.format) {
			require.LessOrEqual(t, st.BytesLastValid, uint64(len(truncated)), "format %s", f.format)
		}
	}
}

func TestUniversal_RejectsCrossFormatMisidentification(t *testing.T) {
	reg := registry.New()
	fs := fixtures(t)

	for _, f := range fs {
		entry, err := reg.ByFormat(f.format)
		require.NoError(t, err)

		for _, other := range fs {
			if other.format == f.format {
				continue
			}
			v := entry.New()
			require.Falsef(t, v.Validate(validator.FromBytes(other.valid)),
				"%s validator accepted a %s fixture", f.format, other.format)
		}
	}
}
