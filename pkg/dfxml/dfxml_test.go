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
package dfxml_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ostafen/fvalidate/pkg/dfxml"
)

func TestWriteAndReadFileObjects_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := dfxml.NewDFXMLWriter(&buf)

	hdr := dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator:   dfxml.Creator{Package: "fvalidate", Version: "1.0"},
		Source:    dfxml.Source{ImageFilename: "/images/sample.dd", ImageSize: 4096},
	}
	require.NoError(t, w.WriteHeader(hdr))

	objs := []dfxml.FileObject{
		{
			Filename: "a.jpg",
			FileSize: 100,
			Format:   "jpeg",
			IsValid:  true,
			EOF:      false,
			End:      true,
			ByteRuns: dfxml.ByteRuns{Runs: []dfxml.ByteRun{{Offset: 0, ImgOffset: 0, Length: 100}}},
		},
		{
			Filename: "b.bin",
			FileSize: 50,
			Format:   "png",
			IsValid:  false,
		},
	}
	for _, o := range objs {
		require.NoError(t, w.WriteFileObject(o))
	}
	require.NoError(t, w.Close())

	got, err := dfxml.ReadFileObjects(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "a.jpg", got[0].Filename)
	require.Equal(t, "jpeg", got[0].Format)
	require.True(t, got[0].IsValid)
	require.True(t, got[0].End)
	require.Len(t, got[0].ByteRuns.Runs, 1)
	require.Equal(t, uint64(100), got[0].ByteRuns.Runs[0].Length)

	require.Equal(t, "b.bin", got[1].Filename)
	require.False(t, got[1].IsValid)
}

func TestGetExecEnv_PopulatesArchAndHost(t *testing.T) {
	env := dfxml.GetExecEnv()
	require.NotEmpty(t, env.Arch)
	require.NotEmpty(t, env.Start)
}
