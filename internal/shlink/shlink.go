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

// Package shlink validates Windows Shell Link (.lnk) binary files: the fixed
// ShellLinkHeader followed by the optional LinkTargetIDList, LinkInfo,
// string-data and ExtraData sections the header's LinkFlags select.
package shlink

import (
	"bytes"
	"io"

	"github.com/ostafen/fvalidate/internal/validator"
)

const (
	flagHasLinkTargetIDList = 0x00000001
	flagHasLinkInfo         = 0x00000002
	flagHasName             = 0x00000004
	flagHasRelativePath     = 0x00000008
	flagHasWorkingDir       = 0x00000010
	flagHasArguments        = 0x00000020
	flagHasIconLocation     = 0x00000040
	flagIsUnicode           = 0x00000080
)

// Validator validates the Windows Shell Link binary format.
type Validator struct {
	acc validator.Accounting

	header    Header
	idList    [][]byte
	linkInfo  LinkInfo
	strings   map[string]string
	extraData []ExtraBlock
}

// New creates a Validator for the MS-SHLLINK format.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(src validator.Source) bool {
	v.acc.Reset()
	v.header = Header{}
	v.idList = nil
	v.linkInfo = LinkInfo{}
	v.strings = nil
	v.extraData = nil

	v.run(src)
	return v.acc.IsValid
}

func (v *Validator) Status() validator.Status {
	return v.acc.Status()
}

func (v *Validator) Details() map[string]any {
	return map[string]any{
		"link_flags":      v.header.LinkFlags,
		"file_attributes": v.header.FileAttributes,
		"creation_time":   v.header.CreationTime,
		"access_time":     v.header.AccessTime,
		"write_time":      v.header.WriteTime,
		"file_size":       v.header.FileSize,
		"icon_index":      v.header.IconIndex,
		"show_command":    v.header.ShowCommand,
		"id_list_items":   len(v.idList),
		"link_info":       v.linkInfo,
		"strings":         v.strings,
		"extra_data":      v.extraData,
		"extensions":      []string{".lnk"},
	}
}

func (v *Validator) run(src validator.Source) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(src, buf)
	if err != nil {
		if n < headerSize {
			// HeaderSize (76) followed by the LinkCLSID bytes.
			want := []byte{
				0x4C, 0x00, 0x00, 0x00, 0x01, 0x14, 0x02, 0x00,
				0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x46,
			}
			m := min(n, len(want))
			if !bytes.Equal(buf[:m], want[:m]) {
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
	v.acc.CountValidBytes(headerSize)

	if h.flagSet(flagHasLinkTargetIDList) {
		items, ok := parseIDList(src, &v.acc)
		v.idList = items
		if !ok {
			return
		}
	}

	if h.flagSet(flagHasLinkInfo) {
		li, ok := parseLinkInfo(src, &v.acc)
		v.linkInfo = li
		if !ok {
			return
		}
	}

	var present [5]bool
	present[0] = h.flagSet(flagHasName)
	present[1] = h.flagSet(flagHasRelativePath)
	present[2] = h.flagSet(flagHasWorkingDir)
	present[3] = h.flagSet(flagHasArguments)
	present[4] = h.flagSet(flagHasIconLocation)

	if present[0] || present[1] || present[2] || present[3] || present[4] {
		strs, ok := parseStrings(src, &v.acc, present, h.flagSet(flagIsUnicode))
		v.strings = strs
		if !ok {
			return
		}
	}

	blocks, ok := parseExtraData(src, &v.acc)
	v.extraData = blocks
	if !ok {
		return
	}

	v.acc.End = true
}
