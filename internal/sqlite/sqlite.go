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

// Package sqlite validates a SQLite 3 database: the 100-byte header, then
// the page graph (pointer-map recovery, freelist-trunk walk, per-page
// typing).
package sqlite

import (
	"bytes"
	"io"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/validator"
)

var headerDescriptor = [16]byte{'S', 'Q', 'L', 'i', 't', 'e', ' ', 'f', 'o', 'r', 'm', 'a', 't', ' ', '3', 0}

// Validator validates a SQLite 3 database file and satisfies
// internal/validator.Validator.
type Validator struct {
	acc validator.Accounting

	pageSize              uint16
	usablePageSize        uint16
	fileFormatWriteVer    byte
	fileFormatReadVer     byte
	reservedBytesPerPage  byte
	maxPayloadFraction    byte
	minPayloadFraction    byte
	leafPayloadFraction   byte
	fileChangeCounter     uint32
	pageCount             uint32
	freelistTrunks        []uint32
	freelistTotalCount    uint32
	schemaFormatNumber    uint32
	largestRootVacuum     uint32
	databaseEncoding      uint32
	incrementalVacuum     bool
	versionValidForNumber uint32
}

// New returns a ready-to-use SQLite validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(src validator.Source) bool {
	v.acc.Reset()
	*v = Validator{acc: v.acc}

	isValidPageCount, ok := v.validateHeader(src)
	if !ok {
		return v.acc.IsValid
	}
	v.validatePages(src, isValidPageCount)
	return v.acc.IsValid
}

func (v *Validator) Status() validator.Status {
	return v.acc.Status()
}

func (v *Validator) Details() map[string]any {
	trunks := make([]uint32, len(v.freelistTrunks))
	copy(trunks, v.freelistTrunks)
	return map[string]any{
		"page_size":                v.pageSize,
		"usable_page_size":         v.usablePageSize,
		"file_format_write_version": v.fileFormatWriteVer,
		"file_format_read_version":  v.fileFormatReadVer,
		"reserved_bytes_per_page":   v.reservedBytesPerPage,
		"maximum_payload_fraction":  v.maxPayloadFraction,
		"minimum_payload_fraction":  v.minPayloadFraction,
		"leaf_payload_fraction":     v.leafPayloadFraction,
		"file_change_counter":       v.fileChangeCounter,
		"page_count":                v.pageCount,
		"freelist_trunks":           trunks,
		"freelist_total_count":      v.freelistTotalCount,
		"schema_format_number":      v.schemaFormatNumber,
		"largest_root_vacuum":       v.largestRootVacuum,
		"database_encoding":         v.databaseEncoding,
		"incremental_vacuum":        v.incrementalVacuum,
		"version_valid_for_number":  v.versionValidForNumber,
		"extensions":                []string{".sqlite"},
	}
}

// validateHeader reads and checks the 100-byte header. It returns whether
// the header's declared page count can be trusted, and whether validation
// can continue (false once EOF or a structural mismatch has occurred).
func (v *Validator) validateHeader(src validator.Source) (bool, bool) {
	header := make([]byte, 100)
	if n, err := io.ReadFull(src, header); err != nil {
		m := min(n, len(headerDescriptor))
		if !bytes.Equal(header[:m], headerDescriptor[:m]) {
			v.acc.Invalidate()
			return false, false
		}
		v.acc.EOF = true
		return false, false
	}

	var descriptor [16]byte
	copy(descriptor[:], header[0:16])

	v.pageSize = bytesx.BE16(header[16:18])
	v.fileFormatWriteVer = header[18]
	v.fileFormatReadVer = header[19]
	v.reservedBytesPerPage = header[20]
	v.maxPayloadFraction = header[21]
	v.minPayloadFraction = header[22]
	v.leafPayloadFraction = header[23]
	v.fileChangeCounter = bytesx.BE32(header[24:28])
	v.pageCount = bytesx.BE32(header[28:32])
	v.freelistTrunks = []uint32{bytesx.BE32(header[32:36])}
	v.freelistTotalCount = bytesx.BE32(header[36:40])
	v.schemaFormatNumber = bytesx.BE32(header[44:48])
	v.largestRootVacuum = bytesx.BE32(header[52:56])
	v.databaseEncoding = bytesx.BE32(header[56:60])
	v.incrementalVacuum = bytesx.BE32(header[64:68]) != 0
	reservedForExpansion := header[68:92]
	v.versionValidForNumber = bytesx.BE32(header[92:96])

	isValidPageCount := v.pageCount > 0 && v.fileChangeCounter == v.versionValidForNumber

	ok := descriptor == headerDescriptor &&
		bytesx.IsPowerOfTwo(uint32(v.pageSize)) && v.pageSize >= 512 &&
		(v.fileFormatWriteVer == 1 || v.fileFormatWriteVer == 2) &&
		(v.fileFormatReadVer == 1 || v.fileFormatReadVer == 2) &&
		v.maxPayloadFraction == 64 &&
		v.minPayloadFraction == 32 &&
		v.leafPayloadFraction == 32 &&
		v.schemaFormatNumber >= 1 && v.schemaFormatNumber <= 4 &&
		v.databaseEncoding >= 1 && v.databaseEncoding <= 3 &&
		bytesx.AllZero(reservedForExpansion)

	if !ok {
		v.acc.Invalidate()
		return false, false
	}

	v.usablePageSize = v.pageSize - uint16(v.reservedBytesPerPage)
	v.acc.CountValidBytes(uint64(v.pageSize))
	return isValidPageCount, true
}

var validPtrMapRecordType = map[byte]bool{1: true, 2: true, 3: true, 4: true, 5: true}

func (v *Validator) validatePages(src validator.Source, isValidPageCount bool) {
	fanout := uint32(v.usablePageSize) / 5
	var ptrMapPages map[uint32]bool

	if v.largestRootVacuum > 0 {
		if !isValidPageCount {
			recovered, ok := v.recoverPageCount(src, fanout)
			if !ok {
				return
			}
			v.pageCount = recovered
			isValidPageCount = true
		}
		ptrMapPages = map[uint32]bool{2: true}
	}

	if !isValidPageCount {
		v.acc.Invalidate()
		return
	}

	if ptrMapPages != nil {
		ptrPage := uint32(3) + fanout
		for ptrPage < v.pageCount {
			ptrMapPages[ptrPage] = true
			ptrPage += fanout + 1
		}
	}

	freePages := map[uint32]bool{}
	freelistTrunks := map[uint32]bool{}
	for _, t := range v.freelistTrunks {
		freelistTrunks[t] = true
	}

	if err := src.Seek(int64(v.pageSize)); err != nil {
		v.acc.EOF = true
		return
	}

	currentPage := uint32(1)
	for currentPage < v.pageCount {
		page := make([]byte, v.pageSize)
		_, err := io.ReadFull(src, page)
		currentPage++
		if err != nil {
			v.acc.EOF = true
			return
		}

		switch {
		case ptrMapPages[currentPage]:
			v.acc.CountValidBytes(uint64(v.pageSize))
		case freePages[currentPage]:
			v.acc.CountValidBytes(uint64(v.pageSize))
		case freelistTrunks[currentPage]:
			nextTrunk := bytesx.BE32(page[0:4])
			if nextTrunk != 0 {
				freelistTrunks[nextTrunk] = true
			}
			freelistRecords := bytesx.BE32(page[4:8])
			recordPos := 8
			for i := uint32(0); i < freelistRecords && recordPos+4 <= len(page); i++ {
				freePages[bytesx.BE32(page[recordPos:recordPos+4])] = true
				recordPos += 4
			}
			v.acc.CountValidBytes(uint64(v.pageSize))
		default:
			pageTypeFlag := page[0]
			validPage := pageTypeFlag == 2 || pageTypeFlag == 5 || pageTypeFlag == 10 || pageTypeFlag == 13
			if pageTypeFlag == 2 || pageTypeFlag == 5 {
				validPage = bytesx.BE32(page[8:12]) <= v.pageCount
			}
			if !validPage {
				nextOverflow := bytesx.BE32(page[0:4])
				validPage = nextOverflow <= v.pageCount
			}
			if !validPage {
				v.acc.Invalidate()
				v.acc.CountValidBytes(uint64(v.pageSize))
				return
			}
			v.acc.CountValidBytes(uint64(v.pageSize))
		}
	}
}

// recoverPageCount walks the pointer-map chain (pages at 2, 3+P, 3+2(P+1), …)
// counting referenced page records, used when the header's page count
// cannot be trusted. It returns ok=false on a structural violation, or with
// EOF set when the first pointer-map page (page 2) cannot be read; a short
// read of a later pointer-map page simply ends the chain with whatever was
// recovered so far.
func (v *Validator) recoverPageCount(src validator.Source, fanout uint32) (uint32, bool) {
	if err := src.Seek(int64(v.pageSize)); err != nil {
		v.acc.EOF = true
		return 0, false
	}
	page := make([]byte, v.pageSize)
	if _, err := io.ReadFull(src, page); err != nil {
		v.acc.EOF = true
		return 0, false
	}

	ptrPage := uint64(3) + uint64(fanout)
	newPageCount := uint32(2)
	newPtrPage := false
	ptrMapEOF := false

	for !ptrMapEOF {
		if newPtrPage {
			newPtrPage = false
			newPageCount++
		}
		recordNum := uint32(0)
		for !ptrMapEOF && recordNum < fanout {
			start := int(recordNum) * 5
			if start+5 > len(page) {
				ptrMapEOF = true
				break
			}
			rec := page[start : start+5]
			recordType := rec[0]
			ptrMapEOF = bytesx.AllZero(rec)
			if ptrMapEOF && recordNum == 0 {
				newPageCount--
			}
			if !ptrMapEOF && recordNum != 0 && !validPtrMapRecordType[recordType] {
				v.acc.Invalidate()
				return 0, false
			}
			if !ptrMapEOF && validPtrMapRecordType[recordType] {
				newPageCount++
			}
			recordNum++
		}
		if ptrMapEOF {
			break
		}
		if err := src.Seek(int64(ptrPage-1) * int64(v.pageSize)); err != nil {
			break
		}
		n, err := io.ReadFull(src, page)
		if err != nil || n < len(page) {
			break
		}
		ptrPage += uint64(fanout) + 1
		newPtrPage = true
	}
	return newPageCount, true
}
