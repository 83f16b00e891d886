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
	"unicode/utf16"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/validator"
)

var stringFieldNames = [5]string{"Name", "RelativePath", "WorkingDir", "Arguments", "IconLocation"}

// parseStrings reads the Strings section: for each flag set in present (in
// Name/RelativePath/WorkingDir/Arguments/IconLocation order), a 2-byte count
// of characters followed by that many characters, single-byte or UTF-16
// depending on isUnicode.
func parseStrings(src validator.Source, acc *validator.Accounting, present [5]bool, isUnicode bool) (map[string]string, bool) {
	out := make(map[string]string)
	var validDelta uint64
	sizeMult := uint64(1)
	if isUnicode {
		sizeMult = 2
	}

	for i, want := range present {
		if !want {
			continue
		}
		var countBuf [2]byte
		if _, err := io.ReadFull(src, countBuf[:]); err != nil {
			acc.EOF = true
			return out, false
		}
		chars := uint64(bytesx.LE16(countBuf[:]))
		byteLen := chars * sizeMult

		data := make([]byte, byteLen)
		if byteLen > 0 {
			if _, err := io.ReadFull(src, data); err != nil {
				acc.EOF = true
				return out, false
			}
		}

		var s string
		if isUnicode {
			units := make([]uint16, chars)
			for j := uint64(0); j < chars; j++ {
				units[j] = bytesx.LE16(data[j*2 : j*2+2])
			}
			s = decodeUTF16(units)
		} else {
			s = string(data)
		}
		out[stringFieldNames[i]] = s
		validDelta += 2 + byteLen
	}

	acc.CountValidBytes(validDelta)
	return out, true
}

func decodeUTF16(units []uint16) string {
	return string(utf16.Decode(units))
}
