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
package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostafen/fvalidate/internal/registry"
	"github.com/ostafen/fvalidate/internal/validator"
)

func TestDetect_ResolvesEachRegisteredFormat(t *testing.T) {
	cases := []struct {
		format registry.Format
		sample []byte
	}{
		{registry.FormatJPEG, []byte{0xFF, 0xD8, 0xFF, 0xE0}},
		{registry.FormatPNG, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
		{registry.FormatMSOLE, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
		{registry.FormatSQLite, []byte("SQLite format 3\x00")},
		{registry.FormatShellLink, []byte{
			0x4C, 0x00, 0x00, 0x00, 0x01, 0x14, 0x02, 0x00,
			0x00, 0x00, 0x00, 0x00, 0xC0, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x46,
		}},
		{registry.FormatNTFS, []byte("FILE" + "\x00\x00\x00\x00")},
	}

	reg := registry.New()
	for _, c := range cases {
		matches := reg.Detect(c.sample)
		require.Len(t, matches, 1, "format %s", c.format)
		require.Equal(t, c.format, matches[0].Format)
	}
}

func TestDetect_UnrecognizedSignatureReturnsNoMatches(t *testing.T) {
	reg := registry.New()
	matches := reg.Detect([]byte{0x00, 0x01, 0x02, 0x03})
	require.Empty(t, matches)
}

func TestByFormat_ReturnsConstructorForEachFormat(t *testing.T) {
	reg := registry.New()
	for _, f := range []registry.Format{
		registry.FormatJPEG, registry.FormatPNG, registry.FormatMSOLE,
		registry.FormatSQLite, registry.FormatShellLink, registry.FormatNTFS,
	} {
		e, err := reg.ByFormat(f)
		require.NoError(t, err)
		require.Equal(t, f, e.Format)
		require.NotNil(t, e.New)

		var _ validator.Validator = e.New()
	}
}

func TestByFormat_UnknownFormatErrors(t *testing.T) {
	reg := registry.New()
	_, err := reg.ByFormat(registry.Format("bogus"))
	require.Error(t, err)
}

func TestByExtension_ResolvesKnownExtensions(t *testing.T) {
	reg := registry.New()
	e, err := reg.ByExtension("lnk")
	require.NoError(t, err)
	require.Equal(t, registry.FormatShellLink, e.Format)
}

func TestByExtension_UnknownExtensionErrors(t *testing.T) {
	reg := registry.New()
	_, err := reg.ByExtension("bogus")
	require.Error(t, err)
}

func TestAll_ReturnsEveryFormatExactlyOnce(t *testing.T) {
	reg := registry.New()
	all := reg.All()
	require.Len(t, all, 6)

	seen := map[registry.Format]bool{}
	for _, e := range all {
		require.False(t, seen[e.Format], "duplicate format %s", e.Format)
		seen[e.Format] = true
	}
}

func TestRejectsCrossFormatMisidentification(t *testing.T) {
	// A PNG signature run through the JPEG validator must not validate.
	reg := registry.New()
	jpegEntry, err := reg.ByFormat(registry.FormatJPEG)
	require.NoError(t, err)

	pngSignature := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	v := jpegEntry.New()
	require.False(t, v.Validate(validator.FromBytes(pngSignature)))
}
