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

// Accounting is the bookkeeping every parser embeds to track the three
// orthogonal outcomes a short read can produce: whether the input examined
// so far is structurally valid, whether the source ran dry, and how many
// bytes of the prefix are confirmed valid.
//
// A short read only ever sets EOF; it is never by itself a structural
// violation. IsValid is flipped to false only by an actual structural
// check (bad magic, a checksum mismatch, an out-of-range sentinel, ...).
// BytesLastValid only advances while both IsValid and !EOF hold, so a
// segment whose payload was cut short by EOF never contributes its bytes
// even though IsValid itself stays true — the caller still sees
// is_valid=true (a legal truncated prefix) with bytes_last_valid frozen at
// the last fully verified boundary.
type Accounting struct {
	IsValid        bool
	EOF            bool
	BytesLastValid uint64
	End            bool
}

// Reset reinitializes the accounting before a fresh Validate call, matching
// every validator's "reset all accounting before examining a single byte"
// invariant.
func (a *Accounting) Reset() {
	a.IsValid = true
	a.EOF = false
	a.BytesLastValid = 0
	a.End = false
}

// CountValidBytes adds n bytes to BytesLastValid, but only while the
// accounting is still valid and not at EOF.
func (a *Accounting) CountValidBytes(n uint64) {
	if a.IsValid && !a.EOF {
		a.BytesLastValid += n
	}
}

// SetValidBytes pins BytesLastValid to an absolute value, used once a
// validator has computed an authoritative size (e.g. MS-OLE's effective
// file size) rather than accumulating incrementally.
func (a *Accounting) SetValidBytes(v uint64) {
	if a.IsValid {
		a.BytesLastValid = v
	}
}

// Invalidate marks the input as structurally refuted.
func (a *Accounting) Invalidate() {
	a.IsValid = false
}

// Status returns the public Status tuple for this accounting snapshot.
func (a *Accounting) Status() Status {
	return Status{
		IsValid:        a.IsValid,
		EOF:            a.EOF,
		BytesLastValid: a.BytesLastValid,
		End:            a.End,
	}
}
