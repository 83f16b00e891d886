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
	"io"

	"github.com/ostafen/fvalidate/internal/bytesx"
	"github.com/ostafen/fvalidate/internal/guid"
	"github.com/ostafen/fvalidate/internal/validator"
)

const (
	sigEnvironmentVariable = 0xA0000001
	sigConsole             = 0xA0000002
	sigTracker             = 0xA0000003
	sigConsoleFE           = 0xA0000004
	sigSpecialFolder       = 0xA0000005
	sigDarwin              = 0xA0000006
	sigIcon                = 0xA0000007
	sigShim                = 0xA0000008
	sigProperty            = 0xA0000009
	sigKnownFolder         = 0xA000000B
	sigVista               = 0xA000000C
)

var extraBlockNames = map[uint32]string{
	sigEnvironmentVariable: "EnvironmentVariableDataBlock",
	sigConsole:             "ConsoleDataBlock",
	sigTracker:             "TrackerDataBlock",
	sigConsoleFE:           "ConsoleFEDataBlock",
	sigSpecialFolder:       "SpecialFolderDataBlock",
	sigDarwin:              "DarwinDataBlock",
	sigIcon:                "IconEnvironmentDataBlock",
	sigShim:                "ShimDataBlock",
	sigProperty:            "PropertyStoreDataBlock",
	sigKnownFolder:         "KnownFolderDataBlock",
	sigVista:               "VistaAndAboveIDListDataBlock",
}

// ConsoleBlock is the fixed 196-byte payload of a ConsoleDataBlock.
type ConsoleBlock struct {
	FillAttributes      uint16
	PopupFillAttributes uint16
	ScreenBufferSizeX   uint16
	ScreenBufferSizeY   uint16
	WindowSizeX         uint16
	WindowSizeY         uint16
	WindowOriginX       uint16
	WindowOriginY       uint16
	FontSize            uint32
	FontFamily          uint32
	FontWeight          uint32
	FaceName            string
	CursorSize          uint32
	FullScreen          uint32
	QuickEdit           uint32
	InsertMode          uint32
	AutoPosition        uint32
	HistoryBufferSize   uint32
	NumberOfHistoryBufs uint32
	HistoryNoDup        uint32
	ColorTable          [16]uint32
}

// TrackerBlock is the decoded payload of a TrackerDataBlock.
type TrackerBlock struct {
	MachineID        string
	DroidVolume      guid.GUID
	DroidFile        guid.GUID
	DroidBirthVolume guid.GUID
	DroidBirthFile   guid.GUID
}

// ExtraBlock is one entry of the ExtraData section.
type ExtraBlock struct {
	Signature     uint32
	Name          string
	Raw           []byte
	Console       *ConsoleBlock
	KnownFolderID *guid.GUID
	Tracker       *TrackerBlock
	PropertyStore []PropertyStorageUnit
}

// parseExtraData reads zero or more length-prefixed ExtraData blocks until a
// size-0 terminator. Unknown signatures invalidate the input.
func parseExtraData(src validator.Source, acc *validator.Accounting) ([]ExtraBlock, bool) {
	var blocks []ExtraBlock

	for {
		var sizeBuf [4]byte
		if _, err := io.ReadFull(src, sizeBuf[:]); err != nil {
			// No ExtraData at all, or a short read mid-size-field: both are
			// plain truncation, not a structural failure.
			acc.EOF = true
			return blocks, false
		}
		size := bytesx.LE32(sizeBuf[:])
		if size == 0 {
			acc.CountValidBytes(4)
			return blocks, true
		}
		if size < 8 {
			acc.Invalidate()
			return blocks, false
		}

		var sigBuf [4]byte
		if _, err := io.ReadFull(src, sigBuf[:]); err != nil {
			acc.EOF = true
			return blocks, false
		}
		sig := bytesx.LE32(sigBuf[:])
		name, known := extraBlockNames[sig]
		if !known {
			acc.Invalidate()
			return blocks, false
		}

		payload := make([]byte, size-8)
		if len(payload) > 0 {
			if _, err := io.ReadFull(src, payload); err != nil {
				acc.EOF = true
				return blocks, false
			}
		}

		block := ExtraBlock{Signature: sig, Name: name, Raw: payload}
		switch sig {
		case sigConsole:
			if cb, ok := decodeConsoleBlock(payload); ok {
				block.Console = &cb
			}
		case sigKnownFolder:
			if len(payload) >= 16 {
				g, err := guid.Parse(payload[:16])
				if err == nil {
					block.KnownFolderID = &g
				}
			}
		case sigTracker:
			if tb, ok := decodeTrackerBlock(payload); ok {
				block.Tracker = &tb
			}
		case sigProperty:
			stores, ok := parsePropertyStore(payload)
			if !ok {
				acc.Invalidate()
				return blocks, false
			}
			block.PropertyStore = stores
		}

		blocks = append(blocks, block)
		acc.CountValidBytes(uint64(size))
	}
}

func decodeConsoleBlock(payload []byte) (ConsoleBlock, bool) {
	var c ConsoleBlock
	if len(payload) < 196 {
		return c, false
	}
	c.FillAttributes = bytesx.LE16(payload[0:2])
	c.PopupFillAttributes = bytesx.LE16(payload[2:4])
	c.ScreenBufferSizeX = bytesx.LE16(payload[4:6])
	c.ScreenBufferSizeY = bytesx.LE16(payload[6:8])
	c.WindowSizeX = bytesx.LE16(payload[8:10])
	c.WindowSizeY = bytesx.LE16(payload[10:12])
	c.WindowOriginX = bytesx.LE16(payload[12:14])
	c.WindowOriginY = bytesx.LE16(payload[14:16])
	c.FontSize = bytesx.LE32(payload[24:28])
	c.FontFamily = bytesx.LE32(payload[28:32])
	c.FontWeight = bytesx.LE32(payload[32:36])

	units := make([]uint16, 0, 32)
	for i := 0; i < 32; i++ {
		u := bytesx.LE16(payload[36+i*2 : 38+i*2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	c.FaceName = decodeUTF16(units)

	c.CursorSize = bytesx.LE32(payload[100:104])
	c.FullScreen = bytesx.LE32(payload[104:108])
	c.QuickEdit = bytesx.LE32(payload[108:112])
	c.InsertMode = bytesx.LE32(payload[112:116])
	c.AutoPosition = bytesx.LE32(payload[116:120])
	c.HistoryBufferSize = bytesx.LE32(payload[120:124])
	c.NumberOfHistoryBufs = bytesx.LE32(payload[124:128])
	c.HistoryNoDup = bytesx.LE32(payload[128:132])
	for i := 0; i < 16; i++ {
		c.ColorTable[i] = bytesx.LE32(payload[132+i*4 : 136+i*4])
	}
	return c, true
}

func decodeTrackerBlock(payload []byte) (TrackerBlock, bool) {
	var t TrackerBlock
	if len(payload) < 88 {
		return t, false
	}
	machineID := payload[8:24]
	end := len(machineID)
	for i, c := range machineID {
		if c == 0 {
			end = i
			break
		}
	}
	t.MachineID = string(machineID[:end])

	var err error
	if t.DroidVolume, err = guid.Parse(payload[24:40]); err != nil {
		return t, false
	}
	if t.DroidFile, err = guid.Parse(payload[40:56]); err != nil {
		return t, false
	}
	if t.DroidBirthVolume, err = guid.Parse(payload[56:72]); err != nil {
		return t, false
	}
	if t.DroidBirthFile, err = guid.Parse(payload[72:88]); err != nil {
		return t, false
	}
	return t, true
}
