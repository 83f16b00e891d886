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
package msole

// SlotKind tags a raw SAT/MSAT slot value instead of leaving the sentinels
// -1/-2/-3/-4 mixed in with legitimate sector indices.
type SlotKind int

const (
	SlotFree SlotKind = iota
	SlotEndOfChain
	SlotSATSelf
	SlotMSATSelf
	SlotData
	SlotInvalid
)

// ClassifySlot tags a raw signed 32-bit SAT/MSAT slot value.
func ClassifySlot(v int32) SlotKind {
	switch v {
	case -1:
		return SlotFree
	case -2:
		return SlotEndOfChain
	case -3:
		return SlotSATSelf
	case -4:
		return SlotMSATSelf
	}
	if v >= 0 {
		return SlotData
	}
	return SlotInvalid
}

func containsInt32(xs []int32, v int32) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
