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

// Package validator defines the uniform contract every structural parser in
// this module implements: a single Validate call against a Source, followed
// by Status/Details reads of the last validation's outcome.
package validator

// Status is the tuple every validator reports after Validate returns.
//
// IsValid reports whether the examined prefix conforms to the format's
// structural rules. EOF reports whether the byte source was exhausted
// before validation finished. BytesLastValid is the offset of the end of
// the largest structurally valid prefix. For most formats it never exceeds
// the total bytes read; MS-OLE instead reports the effective size declared
// by its sector tables, which can exceed the bytes read. It only grows
// during a single Validate call, except that a PNG chunk whose CRC does not
// match pulls it back to that chunk's start.
// End reports whether the format's proper terminal structure was observed;
// End implies IsValid.
type Status struct {
	IsValid        bool
	EOF            bool
	BytesLastValid uint64
	End            bool
}

// Segment records one structural unit encountered while walking a marker or
// chunk based format (JPEG segments, PNG chunks). CRCStored/CRCComputed are
// only meaningful for formats that carry a per-segment checksum; both are
// zero where not applicable.
type Segment struct {
	ID         string
	Offset     uint64
	Length     uint64
	HasCRC     bool
	CRCStored  uint32
	CRCComputed uint32
}

// Validator is the uniform contract described in spec §4.1. A single
// instance is not safe for concurrent Validate calls; callers that need
// concurrency run one instance per goroutine.
type Validator interface {
	// Validate consumes src and returns the resulting IsValid. Status and
	// Details reflect this call only after Validate returns; a subsequent
	// Validate call on the same instance fully resets prior accounting
	// before examining a single byte of the new input.
	Validate(src Source) bool

	// Status returns the (IsValid, EOF, BytesLastValid, End) tuple for the
	// most recently completed Validate call.
	Status() Status

	// Details returns a format-specific, read-only snapshot valid after
	// Validate returns. Callers may retain it safely; it never references
	// live validator state.
	Details() map[string]any
}
