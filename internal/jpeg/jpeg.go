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

// Package jpeg walks JFIF/EXIF marker segments, resynchronizing across
// entropy-coded scan data, to determine whether a byte sequence is a
// structurally sound JPEG and where its valid prefix ends.
package jpeg

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ostafen/fvalidate/internal/validator"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerRST0 = 0xD0
	markerRST7 = 0xD7

	// defaultEntropyWindow bounds how many bytes of entropy-coded data the
	// scan looks at per Peek while searching for the next 0xFF.
	defaultEntropyWindow = 2048
)

// isValidMarker reports whether m is in the FF C0..FF FE set, excluding the
// restart markers FF D0..FF D7, which are only legal inside scan data.
func isValidMarker(m byte) bool {
	if m < 0xC0 || m > 0xFE {
		return false
	}
	if m >= markerRST0 && m <= markerRST7 {
		return false
	}
	return true
}

func isRestartMarker(m byte) bool {
	return m >= markerRST0 && m <= markerRST7
}

// Validator walks a JPEG's marker segments and satisfies
// internal/validator.Validator.
type Validator struct {
	acc      validator.Accounting
	segments []validator.Segment
}

// New returns a ready-to-use JPEG validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(src validator.Source) bool {
	v.acc.Reset()
	v.segments = nil
	v.run(src)
	return v.acc.IsValid
}

func (v *Validator) Status() validator.Status {
	return v.acc.Status()
}

func (v *Validator) Details() map[string]any {
	segs := make([]validator.Segment, len(v.segments))
	copy(segs, v.segments)
	return map[string]any{
		"segments":   segs,
		"extensions": []string{".jpg"},
	}
}

func (v *Validator) run(src validator.Source) {
	soiOffset := src.Pos()
	var hdr [2]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		v.acc.EOF = true
		return
	}
	if hdr[0] != 0xFF || hdr[1] != markerSOI {
		v.acc.Invalidate()
		return
	}
	v.acc.CountValidBytes(2)
	v.segments = append(v.segments, validator.Segment{ID: "SOI", Offset: soiOffset, Length: 2})

	for {
		segOffset := src.Pos()
		m, ok := v.readMarker(src)
		if !ok {
			return
		}

		switch {
		case m == markerEOI:
			v.acc.CountValidBytes(2)
			v.segments = append(v.segments, validator.Segment{ID: "EOI", Offset: segOffset, Length: 2})
			v.acc.End = true
			return
		case m == markerSOS:
			v.acc.CountValidBytes(2)
			if !v.readSegmentBody(src, segOffset, "SOS") {
				return
			}
			if !v.scanEntropyData(src) {
				return
			}
		case isValidMarker(m):
			v.acc.CountValidBytes(2)
			if !v.readSegmentBody(src, segOffset, fmt.Sprintf("FF%02X", m)) {
				return
			}
		default:
			v.acc.Invalidate()
			return
		}
	}
}

// readMarker reads the next two-byte marker. The first byte must be 0xFF and
// the second must not be the 0x00 stuffing byte, which is never legal at
// segment level; either violation invalidates the input outright.
func (v *Validator) readMarker(src validator.Source) (byte, bool) {
	var hdr [2]byte
	if _, err := io.ReadFull(src, hdr[:]); err != nil {
		v.acc.EOF = true
		return 0, false
	}
	if hdr[0] != 0xFF || hdr[1] == 0x00 {
		v.acc.Invalidate()
		return 0, false
	}
	return hdr[1], true
}

// readSegmentBody reads the 2-byte big-endian length L and discards the
// following L-2 payload bytes, recording a Segment spanning marker+length+
// payload. DRI carries no special case: the standard's DRI segment is
// exactly a 2-byte length plus 2 bytes of payload, which this generic path
// already handles correctly.
func (v *Validator) readSegmentBody(src validator.Source, segOffset uint64, id string) bool {
	var lenBuf [2]byte
	if _, err := io.ReadFull(src, lenBuf[:]); err != nil {
		v.acc.EOF = true
		return false
	}
	length := int(lenBuf[0])<<8 | int(lenBuf[1])
	if length < 2 {
		v.acc.Invalidate()
		return false
	}
	v.acc.CountValidBytes(2)

	payloadLen := length - 2
	if payloadLen > 0 {
		n, err := src.Discard(payloadLen)
		if err != nil || n < payloadLen {
			v.acc.EOF = true
			return false
		}
	}
	v.acc.CountValidBytes(uint64(payloadLen))
	v.segments = append(v.segments, validator.Segment{ID: id, Offset: segOffset, Length: uint64(2 + length)})
	return true
}

// scanEntropyData consumes entropy-coded scan data following an SOS header,
// searching a sliding window for the next 0xFF byte. A restart marker or a
// stuffed 0xFF 0x00 is itself entropy data and scanning continues past it;
// any other marker ends the scan without being consumed, so the main loop
// resumes processing it as the next segment.
func (v *Validator) scanEntropyData(src validator.Source) bool {
	var entropyLen uint64
	for {
		window, werr := src.Peek(defaultEntropyWindow)
		if len(window) == 0 {
			v.acc.CountValidBytes(entropyLen)
			v.acc.EOF = true
			return false
		}

		idx := bytes.IndexByte(window, 0xFF)
		if idx < 0 {
			n, err := src.Discard(len(window))
			entropyLen += uint64(n)
			if err != nil || werr != nil {
				v.acc.CountValidBytes(entropyLen)
				v.acc.EOF = true
				return false
			}
			continue
		}

		if idx > 0 {
			n, err := src.Discard(idx)
			entropyLen += uint64(n)
			if err != nil {
				v.acc.CountValidBytes(entropyLen)
				v.acc.EOF = true
				return false
			}
		}

		pair, err := src.Peek(2)
		if len(pair) < 2 {
			v.acc.CountValidBytes(entropyLen)
			v.acc.EOF = true
			_ = err
			return false
		}

		next := pair[1]
		if next == 0x00 || isRestartMarker(next) {
			n, derr := src.Discard(2)
			entropyLen += uint64(n)
			if derr != nil {
				v.acc.CountValidBytes(entropyLen)
				v.acc.EOF = true
				return false
			}
			continue
		}

		v.acc.CountValidBytes(entropyLen)
		return true
	}
}
