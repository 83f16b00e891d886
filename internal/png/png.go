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

// Package png walks a PNG's chunk sequence, verifying the per-chunk CRC-32
// and the chunk ordering rules, to determine structural validity.
package png

import (
	"bytes"
	"hash/crc32"
	"io"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/validator"
)

// DefaultMaxChunkLength caps a single chunk's declared data length.
const DefaultMaxChunkLength = 40 * 1024 * 1024

var signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

var wellKnownChunks = map[string]bool{
	"IHDR": true, "PLTE": true, "IDAT": true, "IEND": true,
	"bKGD": true, "cHRM": true, "gAMA": true, "hIST": true,
	"iCCP": true, "iTXt": true, "pHYs": true, "sBIT": true,
	"sPLT": true, "sRGB": true, "sTER": true, "tEXt": true,
	"tIME": true, "tRNS": true, "zTXt": true,
}

// Validator walks a PNG's chunk stream and satisfies
// internal/validator.Validator.
type Validator struct {
	acc            validator.Accounting
	segments       []validator.Segment
	maxChunkLength uint32
}

// New returns a validator using DefaultMaxChunkLength.
func New() *Validator {
	return NewWithMaxChunkLength(DefaultMaxChunkLength)
}

// NewWithMaxChunkLength returns a validator that refuses any chunk whose
// declared data length exceeds maxLen.
func NewWithMaxChunkLength(maxLen uint32) *Validator {
	return &Validator{maxChunkLength: maxLen}
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
		"extensions": []string{".png"},
	}
}

func (v *Validator) run(src validator.Source) {
	var sig [8]byte
	if n, err := io.ReadFull(src, sig[:]); err != nil {
		if !bytes.Equal(sig[:n], signature[:n]) {
			v.acc.Invalidate()
			return
		}
		v.acc.EOF = true
		return
	}
	if sig != signature {
		v.acc.Invalidate()
		return
	}
	v.acc.CountValidBytes(8)

	seenIHDR := false
	for {
		if !v.parseChunk(src, &seenIHDR) {
			return
		}
		if v.acc.End {
			return
		}
	}
}

func (v *Validator) parseChunk(src validator.Source, seenIHDR *bool) bool {
	chunkOffset := src.Pos()

	var head [8]byte
	if _, err := io.ReadFull(src, head[:]); err != nil {
		v.acc.EOF = true
		return false
	}
	length := bytesx.BE32(head[:4])
	typ := string(head[4:8])

	if !*seenIHDR && typ != "IHDR" {
		v.acc.Invalidate()
		return false
	}
	*seenIHDR = true

	if !wellKnownChunks[typ] {
		v.acc.Invalidate()
		return false
	}
	if length > v.maxChunkLength {
		v.acc.Invalidate()
		return false
	}
	v.acc.CountValidBytes(8)

	crc := crc32.NewIEEE()
	crc.Write(head[4:8])

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(src, data); err != nil {
			v.acc.EOF = true
			return false
		}
		crc.Write(data)
	}
	v.acc.CountValidBytes(uint64(length))

	var crcBuf [4]byte
	if _, err := io.ReadFull(src, crcBuf[:]); err != nil {
		v.acc.EOF = true
		return false
	}
	crcStored := bytesx.BE32(crcBuf[:])
	crcComputed := crc.Sum32()

	if crcStored != crcComputed {
		v.acc.SetValidBytes(chunkOffset)
		v.acc.Invalidate()
		return false
	}
	v.acc.CountValidBytes(4)

	v.segments = append(v.segments, validator.Segment{
		ID:          typ,
		Offset:      chunkOffset,
		Length:      uint64(8 + length + 4),
		HasCRC:      true,
		CRCStored:   crcStored,
		CRCComputed: crcComputed,
	})

	if typ == "IEND" {
		v.acc.End = true
	}
	return true
}
