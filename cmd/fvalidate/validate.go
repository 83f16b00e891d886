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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ostafen/fvalidate/internal/registry"
	"github.com/ostafen/fvalidate/internal/validator"
	"github.com/ostafen/fvalidate/pkg/reader"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "validate <file> [segment...]",
		Short:        "Sniff a file's signature and run the matching structural validator(s)",
		Long:         "Sniff a file's signature and run the matching structural validator(s).\nPassing more than one path treats them as consecutive segments of one logical image (e.g. a .001/.002/... split).",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         runValidate,
	}
	cmd.Flags().String("format", "", "force a specific format instead of sniffing the signature (jpeg, png, msole, sqlite, shlink, ntfs)")
	cmd.Flags().Bool("details", false, "also print the validator's details map")
	cmd.Flags().Bool("mmap", false, "memory-map the input instead of buffering reads; faster on large disk images (single segment only)")
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)
	path := args[0]
	useMmap, _ := cmd.Flags().GetBool("mmap")

	if useMmap && len(args) > 1 {
		return fmt.Errorf("fvalidate: --mmap cannot be combined with multiple segments")
	}

	var (
		sniff     []byte
		newSource func() (validator.Source, error)
		closeAll  = func() error { return nil }
	)

	switch {
	case useMmap:
		src, closeFn, err := validator.FromMmap(path)
		if err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}
		closeAll = closeFn

		if err := src.Seek(0); err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}
		buf, perr := src.Peek(32)
		if perr != nil && len(buf) == 0 {
			return fmt.Errorf("fvalidate: reading signature: %w", perr)
		}
		sniff = buf
		newSource = func() (validator.Source, error) {
			if err := src.Seek(0); err != nil {
				return nil, err
			}
			return src, nil
		}

	case len(args) > 1:
		segments := make([]io.ReadSeeker, 0, len(args))
		sizes := make([]int64, 0, len(args))
		for _, p := range args {
			f, err := os.Open(p)
			if err != nil {
				return fmt.Errorf("fvalidate: %w", err)
			}
			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("fvalidate: %w", err)
			}
			segments = append(segments, f)
			sizes = append(sizes, info.Size())
		}
		closeAll = func() error {
			var firstErr error
			for _, s := range segments {
				if err := s.(*os.File).Close(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		}

		multi := reader.NewMultiReadSeeker(segments, sizes)
		sniffBuf := make([]byte, 32)
		if _, err := io.ReadFull(multi, sniffBuf); err != nil && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("fvalidate: reading signature: %w", err)
		}
		sniff = sniffBuf
		newSource = func() (validator.Source, error) {
			if _, err := multi.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
			return validator.FromReadSeeker(multi), nil
		}

	default:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}
		closeAll = f.Close

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}
		sniffLen := info.Size()
		if sniffLen > 32 {
			sniffLen = 32
		}
		sniff = make([]byte, sniffLen)
		if _, err := f.ReadAt(sniff, 0); err != nil {
			return fmt.Errorf("fvalidate: reading signature: %w", err)
		}
		newSource = func() (validator.Source, error) {
			if _, err := f.Seek(0, 0); err != nil {
				return nil, err
			}
			return validator.FromReadSeeker(f), nil
		}
	}
	defer closeAll()

	reg := registry.New()

	forceFmt, _ := cmd.Flags().GetString("format")
	showDetails, _ := cmd.Flags().GetBool("details")

	var candidates []registry.Entry
	if forceFmt != "" {
		e, err := reg.ByFormat(registry.Format(forceFmt))
		if err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}
		candidates = []registry.Entry{e}
	} else {
		candidates = reg.Detect(sniff)
		if len(candidates) == 0 {
			log.Warnf("no recognized signature for %s", path)
			fmt.Printf("%s: unrecognized\n", path)
			return nil
		}
	}

	for _, c := range candidates {
		src, err := newSource()
		if err != nil {
			return fmt.Errorf("fvalidate: %w", err)
		}

		v := c.New()
		isValid := v.Validate(src)
		status := v.Status()

		log.Infof("validated %s against %s", path, c.Format)
		fmt.Printf("%s: format=%s is_valid=%t eof=%t bytes_last_valid=%d end=%t\n",
			path, c.Format, isValid, status.EOF, status.BytesLastValid, status.End)

		if showDetails {
			for k, detail := range v.Details() {
				fmt.Printf("  %s: %v\n", k, detail)
			}
		}
	}
	return nil
}
