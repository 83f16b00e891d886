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

// Package msole validates an MS-OLE compound document: the 512-byte header,
// the MSAT overflow chain, and the SAT sector graph, checking mutual
// consistency between the two tables.
package msole

import (
	"bytes"
	"io"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/validator"
)

var headerMagic = [8]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Validator validates an MS-OLE compound document and satisfies
// internal/validator.Validator.
type Validator struct {
	acc validator.Accounting

	sectorSize int
	sat        []int32
	msat       []int32
	msatSecs   int32
	msatSecids []int32
	satSecs    int32
	maxSector  int64
	extensions []string
}

// New returns a ready-to-use MS-OLE validator.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) Validate(src validator.Source) bool {
	v.acc.Reset()
	v.sectorSize = 0
	v.sat = nil
	v.msat = nil
	v.msatSecs = 0
	v.msatSecids = nil
	v.satSecs = 0
	v.maxSector = 0
	v.extensions = nil

	v.run(src)
	v.extractExtensions(src)
	return v.acc.IsValid
}

func (v *Validator) Status() validator.Status {
	return v.acc.Status()
}

func (v *Validator) Details() map[string]any {
	msat := make([]int32, len(v.msat))
	copy(msat, v.msat)
	sat := make([]int32, len(v.sat))
	copy(sat, v.sat)
	secids := make([]int32, len(v.msatSecids))
	copy(secids, v.msatSecids)
	ext := make([]string, len(v.extensions))
	copy(ext, v.extensions)

	return map[string]any{
		"sector_size":  v.sectorSize,
		"msat":         msat,
		"sat":          sat,
		"msat_secs":    v.msatSecs,
		"msat_secids":  secids,
		"sat_secs":     v.satSecs,
		"max_sector":   v.maxSector,
		"extensions":   ext,
	}
}

func (v *Validator) run(src validator.Source) {
	cdh := make([]byte, 512)
	if n, err := io.ReadFull(src, cdh); err != nil {
		m := min(n, len(headerMagic))
		if !bytes.Equal(cdh[:m], headerMagic[:m]) {
			v.acc.Invalidate()
			return
		}
		v.acc.EOF = true
		return
	}

	var magic [8]byte
	copy(magic[:], cdh[0:8])
	bom := cdh[28:30]
	bomOK := (bom[0] == 0xFE && bom[1] == 0xFF) || (bom[0] == 0xFF && bom[1] == 0xFE)
	ssz := bytesx.SLE16(cdh[30:32])

	if magic != headerMagic || !bomOK || ssz < 7 {
		v.acc.Invalidate()
		return
	}
	v.acc.CountValidBytes(512)

	v.sectorSize = 1 << uint(ssz)
	v.satSecs = bytesx.SLE32(cdh[44:48])
	msatSecid := bytesx.SLE32(cdh[68:72])
	v.msatSecids = append(v.msatSecids, msatSecid)
	v.msatSecs = bytesx.SLE32(cdh[72:76])

	for off := 76; off+4 <= 512; off += 4 {
		v.msat = append(v.msat, bytesx.SLE32(cdh[off:off+4]))
	}

	if !v.walkMSATChain(src, msatSecid) {
		return
	}

	filtered := make([]int32, 0, len(v.msat))
	for _, x := range v.msat {
		if x > -1 {
			filtered = append(filtered, x)
		}
	}
	v.msat = filtered
	v.maxSector = int64(len(v.msat)) * int64(v.sectorSize/4)

	if int32(len(v.msat)) != v.satSecs {
		v.acc.Invalidate()
		return
	}
	for _, x := range v.msat {
		if x < -2 {
			v.acc.Invalidate()
			return
		}
	}

	lastSector, xIndex, ok := v.walkSAT(src)
	if !ok {
		return
	}

	if xIndex != len(v.msat) || lastSector == nil {
		v.acc.Invalidate()
		return
	}

	x := 0
	for x < len(lastSector)-1 && lastSector[len(lastSector)-1-x] == -1 {
		x++
	}
	freeSecs := int64(x)
	satSecs := int64(v.satSecs)
	sectorSize := int64(v.sectorSize)
	bytesLastValid := 512 + ((satSecs-1)*(sectorSize/4))*sectorSize + ((sectorSize/4)-freeSecs)*sectorSize
	v.acc.SetValidBytes(uint64(bytesLastValid))
	v.acc.End = true
}

// walkMSATChain follows the linked chain of MSAT overflow sectors, each
// ending with a signed pointer to the next one (-1 terminates). A cycle or
// backward jump invalidates; a short sector read is treated as ordinary
// truncation, not structural refutation.
func (v *Validator) walkMSATChain(src validator.Source, msatSecid int32) bool {
	fileLocation := int64(-1)
	for msatSecid > -1 {
		newLocation := 512 + int64(msatSecid)*int64(v.sectorSize)
		if newLocation <= fileLocation {
			v.acc.Invalidate()
			return false
		}
		fileLocation = newLocation

		if err := src.Seek(newLocation); err != nil {
			v.acc.EOF = true
			return false
		}
		raw := make([]byte, v.sectorSize)
		if _, err := io.ReadFull(src, raw); err != nil {
			v.acc.EOF = true
			return false
		}

		count := v.sectorSize / 4
		sector := make([]int32, count)
		for i := 0; i < count; i++ {
			sector[i] = bytesx.SLE32(raw[i*4 : i*4+4])
		}
		msatSecid = sector[count-1]
		v.msat = append(v.msat, sector[:count-1]...)
		v.msatSecids = append(v.msatSecids, msatSecid)
	}
	return true
}

// walkSAT reads each MSAT-referenced SAT sector and cross-checks every slot
// against the MSAT. It returns the last sector read (for the effective-size
// computation) and how many MSAT entries were consumed.
func (v *Validator) walkSAT(src validator.Source) ([]int32, int, bool) {
	baseSectorInc := int64(v.sectorSize / 4)
	fileLocation := int64(512)
	var lastSector []int32
	baseSector := int64(0)

	xIndex := 0
	for xIndex < len(v.msat) {
		x := v.msat[xIndex]
		v.acc.SetValidBytes(uint64(fileLocation) + uint64(v.sectorSize))
		fileLocation = 512 + int64(x)*int64(v.sectorSize)

		if err := src.Seek(fileLocation); err != nil {
			v.acc.EOF = true
			return nil, xIndex, false
		}
		raw := make([]byte, v.sectorSize)
		if _, err := io.ReadFull(src, raw); err != nil {
			v.acc.EOF = true
			return nil, xIndex, false
		}

		count := v.sectorSize / 4
		sector := make([]int32, count)
		for i := 0; i < count; i++ {
			sector[i] = bytesx.SLE32(raw[i*4 : i*4+4])
		}

		for _, s := range sector {
			kind := ClassifySlot(s)
			if kind == SlotInvalid || (kind == SlotData && int64(s) > v.maxSector) {
				v.acc.Invalidate()
				return nil, xIndex, false
			}
		}
		v.sat = append(v.sat, sector...)

		for key, val := range sector {
			globalIdx := int32(baseSector + int64(key))
			switch ClassifySlot(val) {
			case SlotSATSelf:
				if !containsInt32(v.msat, globalIdx) {
					v.acc.Invalidate()
					return nil, xIndex, false
				}
			case SlotMSATSelf:
				if !containsInt32(v.msatSecids, globalIdx) {
					v.acc.Invalidate()
					return nil, xIndex, false
				}
			}
		}

		baseSector += baseSectorInc
		xIndex++
		lastSector = sector
	}
	return lastSector, xIndex, true
}

// extractExtensions scans the validated prefix for document-type hints.
func (v *Validator) extractExtensions(src validator.Source) {
	if !v.acc.IsValid || v.acc.BytesLastValid == 0 {
		return
	}
	if err := src.Seek(0); err != nil {
		return
	}
	data := make([]byte, v.acc.BytesLastValid)
	if _, err := io.ReadFull(src, data); err != nil {
		return
	}
	if bytes.Contains(data, []byte("Word Document")) {
		v.extensions = append(v.extensions, ".doc")
	}
	if bytes.Contains(data, []byte("Worksheet")) {
		v.extensions = append(v.extensions, ".xls")
	}
	if bytes.Contains(data, []byte("PowerPoint")) {
		v.extensions = append(v.extensions, ".ppt")
	}
}
