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

// Package registry dispatches byte sources to the validator that recognizes
// their signature, using a prefix table keyed by file header.
package registry

import (
	"fmt"

	"github.com/ostafen/fvalidate/internal/jpeg"
	"github.com/ostafen/fvalidate/internal/msole"
	"github.com/ostafen/fvalidate/internal/ntfs"
	"github.com/ostafen/fvalidate/internal/png"
	"github.com/ostafen/fvalidate/internal/shlink"
	"github.com/ostafen/fvalidate/internal/sqlite"
	"github.com/ostafen/fvalidate/internal/validator"
	"github.com/ostafen/fvalidate/pkg/table"
)

// Format names a recognized structural format.
type Format string

const (
	FormatJPEG      Format = "jpeg"
	FormatPNG       Format = "png"
	FormatMSOLE     Format = "msole"
	FormatSQLite    Format = "sqlite"
	FormatShellLink Format = "shlink"
	FormatNTFS      Format = "ntfs"
)

// Entry binds a Format to its recognized signature and its validator constructor.
type Entry struct {
	Format     Format
	Ext        string
	Signature  []byte
	New        func() validator.Validator
}

var entries = []Entry{
	{
		Format:    FormatJPEG,
		Ext:       "jpg",
		Signature: []byte{0xFF, 0xD8},
		New:       func() validator.Validator { return jpeg.New() },
	},
	{
		Format:    FormatPNG,
		Ext:       "png",
		Signature: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
		New:       func() validator.Validator { return png.New() },
	},
	{
		Format:    FormatMSOLE,
		Ext:       "ole",
		Signature: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1},
		New:       func() validator.Validator { return msole.New() },
	},
	{
		Format:    FormatSQLite,
		Ext:       "sqlite",
		Signature: []byte("SQLite format 3\x00"),
		New:       func() validator.Validator { return sqlite.New() },
	},
	{
		Format: FormatShellLink,
		Ext:    "lnk",
		Signature: []byte{
			0x4C, 0x00, 0x00, 0x00, 0x01, 0x14, 0x02, 0x00,
			0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x46,
		},
		New: func() validator.Validator { return shlink.New() },
	},
	{
		Format:    FormatNTFS,
		Ext:       "filerecord",
		Signature: []byte("FILE"),
		New:       func() validator.Validator { return ntfs.New() },
	},
}

// Registry resolves a byte prefix to the validator(s) that recognize it.
type Registry struct {
	table *table.PrefixTable[[]Entry]
}

// New builds a Registry covering every recognized format.
func New() *Registry {
	r := &Registry{table: table.New[[]Entry]()}
	for _, e := range entries {
		existing, _ := r.table.Get(e.Signature)
		r.table.Insert(e.Signature, append(existing, e))
	}
	return r
}

// Detect returns every registered format whose signature is a prefix of data,
// longest signature first (ties broken by registration order).
func (r *Registry) Detect(data []byte) []Entry {
	var matches []Entry
	r.table.Walk(data, func(es []Entry) bool {
		// Walk visits shorter prefixes first, so each group goes in front.
		matches = append(append([]Entry{}, es...), matches...)
		return false
	})
	return matches
}

// ByFormat returns the Entry registered for the given Format name.
func (r *Registry) ByFormat(f Format) (Entry, error) {
	for _, e := range entries {
		if e.Format == f {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("registry: unknown format %q", f)
}

// ByExtension returns the Entry registered for the given (no-dot) extension.
func (r *Registry) ByExtension(ext string) (Entry, error) {
	for _, e := range entries {
		if e.Ext == ext {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("registry: unknown extension %q", ext)
}

// All returns every registered Entry.
func (r *Registry) All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
