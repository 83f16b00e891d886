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
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ostafen/fvalidate/internal/registry"
	"github.com/ostafen/fvalidate/internal/validator"
	"github.com/ostafen/fvalidate/pkg/dfxml"
	"github.com/ostafen/fvalidate/pkg/pbar"
)

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Walk a directory, validate every regular file against its sniffed format, and emit a DFXML report",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
	cmd.Flags().String("out", "", "write a DFXML report to this path instead of stdout")
	cmd.Flags().Bool("quiet", false, "suppress the progress bar")
	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	root := args[0]
	outPath, _ := cmd.Flags().GetString("out")
	quiet, _ := cmd.Flags().GetBool("quiet")

	var total int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			if info, ierr := d.Info(); ierr == nil {
				total += info.Size()
			}
		}
		return nil
	})

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := dfxml.NewDFXMLWriter(out)
	hdr := dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              appName,
			Version:              "1.0",
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{ImageFilename: root, ImageSize: uint64(total)},
	}
	if err := w.WriteHeader(hdr); err != nil {
		return fmt.Errorf("fvalidate: %w", err)
	}

	reg := registry.New()
	bar := pbar.NewProgressBarState(total)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warnf("%s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		obj, matched := validateFile(path, uint64(info.Size()), reg)
		if matched {
			if err := w.WriteFileObject(obj); err != nil {
				return fmt.Errorf("fvalidate: %w", err)
			}
			bar.FilesFound++
		}

		bar.ProcessedBytes += info.Size()
		if !quiet {
			bar.Render(false)
		}
		return nil
	})
	if !quiet {
		bar.Render(true)
		bar.Finish()
	}
	if walkErr != nil {
		return walkErr
	}

	return w.Close()
}

// validateFile sniffs path's signature and runs the first matching
// validator, reporting whether any registered format recognized it.
func validateFile(path string, size uint64, reg *registry.Registry) (dfxml.FileObject, bool) {
	f, err := os.Open(path)
	if err != nil {
		return dfxml.FileObject{}, false
	}
	defer f.Close()

	sniffLen := size
	if sniffLen > 32 {
		sniffLen = 32
	}
	sniff := make([]byte, sniffLen)
	if _, err := f.ReadAt(sniff, 0); err != nil {
		return dfxml.FileObject{}, false
	}

	candidates := reg.Detect(sniff)
	if len(candidates) == 0 {
		return dfxml.FileObject{}, false
	}
	entry := candidates[0]

	if _, err := f.Seek(0, 0); err != nil {
		return dfxml.FileObject{}, false
	}

	v := entry.New()
	isValid := v.Validate(validator.FromReadSeeker(f))
	st := v.Status()

	return dfxml.FileObject{
		Filename: path,
		FileSize: size,
		Format:   string(entry.Format),
		IsValid:  isValid,
		EOF:      st.EOF,
		End:      st.End,
		ByteRuns: dfxml.ByteRuns{Runs: []dfxml.ByteRun{
			{Offset: 0, ImgOffset: 0, Length: st.BytesLastValid},
		}},
	}, true
}
