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
	"os"

	"github.com/spf13/cobra"

	"github.com/ostafen/fvalidate/pkg/dfxml"
)

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "report <report.dfxml>",
		Short:        "Summarize a DFXML report previously written by scan",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runReport,
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("fvalidate: %w", err)
	}
	defer f.Close()

	objs, err := dfxml.ReadFileObjects(f)
	if err != nil {
		return fmt.Errorf("fvalidate: %w", err)
	}

	var valid, invalid int
	for _, o := range objs {
		if o.IsValid {
			valid++
		} else {
			invalid++
		}
		var bytesLastValid uint64
		if len(o.ByteRuns.Runs) > 0 {
			bytesLastValid = o.ByteRuns.Runs[0].Length
		}
		fmt.Printf("%s: format=%s is_valid=%t eof=%t end=%t bytes_last_valid=%d\n",
			o.Filename, o.Format, o.IsValid, o.EOF, o.End, bytesLastValid)
	}
	fmt.Printf("\n%d files, %d valid, %d invalid\n", len(objs), valid, invalid)
	return nil
}
