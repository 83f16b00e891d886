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
	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/guid"
)

// namedPropertyFormatID is FMTID_Prop: when a storage's FormatID equals this
// value its properties are keyed by name instead of by a numeric ID.
var namedPropertyFormatID = guid.MustParse("{D5CDD505-2E9C-101B-9397-08002B2CF9AE}")

const propertyStorageVersion = 0x53505331 // "1SPS"

// Typed property value types this package decodes explicitly; anything else
// is kept as Raw.
const (
	vtI2     = 2
	vtI4     = 3
	vtUI4    = 19
	vtLPWSTR = 31
)

// Property is one decoded name/ID-value pair inside a PropertyStorageUnit.
type Property struct {
	ID     uint32
	Name   string
	Type   uint16
	Int32  *int32
	UInt32 *uint32
	String string
	Raw    []byte
}

// PropertyStorageUnit is one serialized property storage block of a
// PropertyStoreDataBlock.
type PropertyStorageUnit struct {
	FormatID   guid.GUID
	IsNamed    bool
	Properties []Property
}

// parsePropertyStore decodes the sequence of serialized property storages
// making up a PropertyStoreDataBlock's payload. The sequence ends at a
// storage-size-0 terminator; each storage's own property list ends at a
// value-size-0 terminator.
func parsePropertyStore(payload []byte) ([]PropertyStorageUnit, bool) {
	var units []PropertyStorageUnit
	off := 0

	for {
		if off+4 > len(payload) {
			return nil, false
		}
		storageSize := bytesx.LE32(payload[off : off+4])
		if storageSize == 0 {
			return units, true
		}
		if storageSize < 24 || uint64(off)+uint64(storageSize) > uint64(len(payload)) {
			return nil, false
		}
		storage := payload[off : off+int(storageSize)]

		version := bytesx.LE32(storage[4:8])
		if version != propertyStorageVersion {
			return nil, false
		}
		formatID, err := guid.Parse(storage[8:24])
		if err != nil {
			return nil, false
		}
		named := formatID.Equal(namedPropertyFormatID)

		unit := PropertyStorageUnit{FormatID: formatID, IsNamed: named}

		poff := 24
		for {
			if poff+4 > len(storage) {
				return nil, false
			}
			valueSize := bytesx.LE32(storage[poff : poff+4])
			if valueSize == 0 {
				poff += 4
				break
			}
			if valueSize < 4 || poff+int(valueSize) > len(storage) {
				return nil, false
			}
			entry := storage[poff : poff+int(valueSize)]
			prop, ok := decodeProperty(entry, named)
			if !ok {
				return nil, false
			}
			unit.Properties = append(unit.Properties, prop)
			poff += int(valueSize)
		}

		units = append(units, unit)
		off += int(storageSize)
	}
}

func decodeProperty(entry []byte, named bool) (Property, bool) {
	var p Property
	rest := entry[4:] // skip ValueSize, already consumed by the caller

	if named {
		if len(rest) < 4 {
			return p, false
		}
		nameSize := bytesx.LE32(rest[0:4])
		if uint64(4+nameSize) > uint64(len(rest)) {
			return p, false
		}
		nameBytes := rest[4 : 4+nameSize]
		units := make([]uint16, 0, nameSize/2)
		for i := 0; i+2 <= len(nameBytes); i += 2 {
			u := bytesx.LE16(nameBytes[i : i+2])
			if u == 0 {
				break
			}
			units = append(units, u)
		}
		p.Name = decodeUTF16(units)
		rest = rest[4+nameSize:]
	} else {
		if len(rest) < 4 {
			return p, false
		}
		p.ID = bytesx.LE32(rest[0:4])
		rest = rest[4:]
	}

	if len(rest) < 4 {
		return p, false
	}
	p.Type = bytesx.LE16(rest[0:2])
	value := rest[4:]

	switch p.Type {
	case vtI2:
		if len(value) >= 2 {
			v := int32(int16(bytesx.LE16(value[0:2])))
			p.Int32 = &v
		}
	case vtI4:
		if len(value) >= 4 {
			v := int32(bytesx.LE32(value[0:4]))
			p.Int32 = &v
		}
	case vtUI4:
		if len(value) >= 4 {
			v := bytesx.LE32(value[0:4])
			p.UInt32 = &v
		}
	case vtLPWSTR:
		if len(value) >= 4 {
			charCount := bytesx.LE32(value[0:4])
			strBytes := value[4:]
			units := make([]uint16, 0, charCount)
			for i := 0; i+2 <= len(strBytes) && uint32(len(units)) < charCount; i += 2 {
				u := bytesx.LE16(strBytes[i : i+2])
				if u == 0 {
					break
				}
				units = append(units, u)
			}
			p.String = decodeUTF16(units)
		}
	default:
		p.Raw = value
	}
	return p, true
}
