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

// Package wintime converts Windows FILETIME values (a 64-bit count of
// 100-nanosecond intervals since 1601-01-01 UTC) to and from time.Time,
// dividing into day/hour/minute/second/microsecond components the same way
// the original CIRA validators do, instead of relying on floating point.
package wintime

import "time"

const (
	ticksPerMicrosecond = 10
	ticksPerSecond       = 10_000_000
	ticksPerMinute       = 60 * ticksPerSecond
	ticksPerHour         = 60 * ticksPerMinute
	ticksPerDay          = 24 * ticksPerHour
)

var epoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromTicks converts a 64-bit FILETIME tick count into a calendar time with
// microsecond resolution.
func FromTicks(ticks uint64) time.Time {
	days := ticks / ticksPerDay
	rem := ticks - days*ticksPerDay

	hours := rem / ticksPerHour
	rem -= hours * ticksPerHour

	minutes := rem / ticksPerMinute
	rem -= minutes * ticksPerMinute

	seconds := rem / ticksPerSecond
	rem -= seconds * ticksPerSecond

	micros := rem / ticksPerMicrosecond

	return epoch.
		AddDate(0, 0, int(days)).
		Add(time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second +
			time.Duration(micros)*time.Microsecond)
}

// ToTicks converts a calendar time back to a FILETIME tick count, for any
// time from 1601-01-01 up to year 30828. Because FromTicks keeps only
// microsecond resolution, ToTicks(FromTicks(x)) is x with its last decimal
// digit (the sub-microsecond ticks) cleared.
func ToTicks(t time.Time) uint64 {
	secs := t.Unix() - epoch.Unix()
	return uint64(secs)*ticksPerSecond + uint64(t.Nanosecond()/100)
}
