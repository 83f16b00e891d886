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

// Package ntfs validates NTFS FILE records (MFT entries): a fixed 1024-byte
// record with a 48-byte header followed by a stream of attributes.
package ntfs

import (
	"bytes"
	"io"

	"github.com/ostafen/fvalidate/internal/validator"
)

// Validator validates a single NTFS FILE record.
type Validator struct {
	acc validator.Accounting

	header     RecordHeader
	attributes []Attribute
}

// New creates a Validator for NTFS FILE records.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(src validator.Source) bool {
	v.acc.Reset()
	v.header = RecordHeader{}
	v.attributes = nil

	v.run(src)
	return v.acc.IsValid
}

func (v *Validator) Status() validator.Status {
	return v.acc.Status()
}

func (v *Validator) Details() map[string]any {
	return map[string]any{
		"header":     v.header,
		"attributes": v.attributes,
		"extensions": []string{".filerecord"},
	}
}

func (v *Validator) run(src validator.Source) {
	buf := make([]byte, recordSize)
	n, err := io.ReadFull(src, buf)
	if err != nil {
		if n < recordSize {
			m := min(n, len(recordMagic))
			if !bytes.Equal(buf[:m], recordMagic[:m]) {
				v.acc.Invalidate()
				return
			}
			v.acc.EOF = true
			return
		}
	}

	h, ok := parseHeader(buf)
	if !ok {
		v.acc.Invalidate()
		return
	}
	v.header = h

	attrs, ok := walkAttributes(buf, &h)
	v.attributes = attrs
	if !ok {
		v.acc.Invalidate()
		return
	}

	v.acc.SetValidBytes(recordSize)
	v.acc.End = true
}
