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
package validator

import (
	"fmt"
	"io"

	"github.com/ostafen/fvalidate/internal/mmap"
	"github.com/ostafen/fvalidate/pkg/reader"
)

// Source is the byte source contract from spec §6: something that supports
// bounded reads and absolute seeks. It re-architects the "cast file-like or
// string" pattern of the original validators into a single small interface
// with two implementations, one for in-memory input and one for streaming
// input.
type Source interface {
	io.Reader
	io.ByteReader

	// Seek moves to an absolute offset from the start of the source.
	Seek(absOffset int64) error

	// Peek returns the next n bytes without advancing the read position.
	// It may return fewer than n bytes together with io.EOF.
	Peek(n int) ([]byte, error)

	// Discard skips n bytes forward, returning the number actually skipped.
	Discard(n int) (int, error)

	// Pos reports the number of bytes consumed so far (Read/ReadByte/Discard),
	// i.e. the current absolute read offset.
	Pos() uint64
}

// FromBytes wraps an in-memory byte slice. Always seekable.
func FromBytes(b []byte) Source {
	return &byteSource{data: b}
}

// FromReadSeeker wraps a seekable stream behind a reader.BufferedReadSeeker.
func FromReadSeeker(r io.ReadSeeker) Source {
	return newStreamSource(r, 64*1024)
}

// FromMmap memory-maps the file at path and wraps the mapping as a Source.
// Large disk images are validated without copying through a buffered
// reader, at the cost of the caller owning the returned close func: it
// unmaps the region and closes the file once validation is done.
func FromMmap(path string) (Source, func() error, error) {
	mf, err := mmap.NewMmapFile(path)
	if err != nil {
		return nil, nil, err
	}
	return FromBytes(mf.Data), mf.Close, nil
}

// Open adapts an arbitrary caller-supplied value to a Source. It is the
// sole usage-error surface in the contract (spec §4.1/§7): an unsupported
// src kind fails loudly instead of being silently accepted.
func Open(src any) (Source, error) {
	switch v := src.(type) {
	case []byte:
		return FromBytes(v), nil
	case io.ReadSeeker:
		return FromReadSeeker(v), nil
	default:
		return nil, fmt.Errorf("%w: unsupported source kind %T", ErrInvalidArgument, src)
	}
}

// ErrInvalidArgument is returned by Open when src is neither a byte slice
// nor a seekable stream.
var ErrInvalidArgument = fmt.Errorf("invalid argument")

// byteSource is an in-memory Source.
type byteSource struct {
	data []byte
	pos  int
}

func (s *byteSource) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *byteSource) ReadByte() (byte, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *byteSource) Seek(absOffset int64) error {
	if absOffset < 0 || absOffset > int64(len(s.data)) {
		return fmt.Errorf("byteSource: seek out of range: %d", absOffset)
	}
	s.pos = int(absOffset)
	return nil
}

func (s *byteSource) Peek(n int) ([]byte, error) {
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	end := min(s.pos+n, len(s.data))
	if end-s.pos < n {
		return s.data[s.pos:end], io.EOF
	}
	return s.data[s.pos:end], nil
}

func (s *byteSource) Discard(n int) (int, error) {
	end := min(s.pos+n, len(s.data))
	discarded := end - s.pos
	s.pos = end
	if discarded < n {
		return discarded, io.EOF
	}
	return discarded, nil
}

func (s *byteSource) Pos() uint64 {
	return uint64(s.pos)
}

// streamSource wraps an io.ReadSeeker behind a reader.BufferedReadSeeker so
// Peek/Discard work without requiring the whole input to be materialized
// in memory.
type streamSource struct {
	r   *reader.BufferedReadSeeker
	pos uint64
}

func newStreamSource(r io.ReadSeeker, bufSize int) *streamSource {
	return &streamSource{r: reader.NewBufferedReadSeeker(r, bufSize)}
}

func (s *streamSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += uint64(n)
	return n, err
}

func (s *streamSource) ReadByte() (byte, error) {
	var b [1]byte
	n, err := s.r.Read(b[:])
	if n == 1 {
		s.pos++
		return b[0], nil
	}
	if err == nil {
		err = io.EOF
	}
	return 0, err
}

func (s *streamSource) Seek(absOffset int64) error {
	if absOffset < 0 {
		return fmt.Errorf("streamSource: negative seek offset")
	}
	n, err := s.r.Seek(absOffset, io.SeekStart)
	if err != nil {
		return err
	}
	s.pos = uint64(n)
	return nil
}

func (s *streamSource) Peek(n int) ([]byte, error) {
	return s.r.Peek(n)
}

func (s *streamSource) Discard(n int) (int, error) {
	discarded, err := s.r.Discard(n)
	s.pos += uint64(discarded)
	return discarded, err
}

func (s *streamSource) Pos() uint64 {
	return s.pos
}
