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

// parseIDList reads a sequence of length-prefixed ItemID entries until the
// zero-size terminator. Each entry's 2-byte size field includes itself; the
// accounting credits that size exactly once per entry plus the terminator's
// 2 bytes, per the more recent source revision (see design notes).
func parseIDList(src validator.Source, acc *validator.Accounting) ([][]byte, bool) {
	var items [][]byte
	var validDelta uint64

	for {
		var sizeBuf [2]byte
		if _, err := io.ReadFull(src, sizeBuf[:]); err != nil {
			acc.EOF = true
			return items, false
		}
		size := bytesx.LE16(sizeBuf[:])
		if size == 0 {
			validDelta += 2
			break
		}
		if size < 2 {
			acc.Invalidate()
			return items, false
		}
		payload := make([]byte, size-2)
		if len(payload) > 0 {
			if _, err := io.ReadFull(src, payload); err != nil {
				acc.EOF = true
				return items, false
			}
		}
		items = append(items, payload)
		validDelta += uint64(size)
	}

	acc.CountValidBytes(validDelta)
	return items, true
}
