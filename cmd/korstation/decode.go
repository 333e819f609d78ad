// go-kor
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-kor.
//
// go-kor is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-kor is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-kor; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/ndef"
	"github.com/ZaparooProject/go-kor/race"
)

func (a *app) newDecodeCmd() *cobra.Command {
	var asTable bool
	decodeCmd := &cobra.Command{
		Use:   "decode <memory-hex|readout-url|table>",
		Short: "Decode a tag memory dump, a readout URL or a press table",
		Long: `Decode accepts one of:
  - tag user memory as hex, e.g. 0309D1010554...FE
  - a readout URL written by a station
  - the bare base64url press table of a readout URL

A press table that is also valid hex needs --table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.decode(cmd.OutOrStdout(), strings.TrimSpace(args[0]), asTable)
		},
	}
	decodeCmd.Flags().BoolVar(&asTable, "table", false, "treat the argument as a press table")
	return decodeCmd
}

func (a *app) decode(out io.Writer, arg string, asTable bool) error {
	if strings.Contains(arg, "://") {
		records, err := kor.ParseReadoutURL(a.cfg.ReadoutBase, arg)
		if err != nil {
			return err
		}
		a.printPresses(out, records)
		return nil
	}

	if !asTable {
		if buf, err := hex.DecodeString(strings.ReplaceAll(arg, " ", "")); err == nil {
			printMemory(out, a.newDecoder(), buf)
			return nil
		}
	}

	records, err := kor.DecodeTable(arg)
	if err != nil {
		return fmt.Errorf("not hex, a readout URL or a press table: %w", err)
	}
	a.printPresses(out, records)
	return nil
}

func printMemory(out io.Writer, d *ndef.Decoder, buf []byte) {
	ev := d.Decode(buf)
	if ev == nil {
		_, _ = fmt.Fprintln(out, "event: none")
	} else {
		_, _ = fmt.Fprintln(out, "event:", ev)
	}

	infos, err := ndef.Inspect(buf)
	if err != nil {
		_, _ = fmt.Fprintln(out, "records:", err)
		return
	}
	for i, info := range infos {
		_, _ = fmt.Fprintf(out, "record %d: %s\n", i, info)
	}
}

func (a *app) printPresses(out io.Writer, records []kor.PressRecord) {
	s := race.Summarize(records, a.cfg.CourseLength)
	_, _ = fmt.Fprintln(out, race.FormatTable(records))
	_, _ = fmt.Fprintf(out, "presses: %d  started: %t  finished: %t  elapsed: %s\n",
		s.Presses, s.Started, s.Finished, kor.PressRecord{ElapsedMs: s.Elapsed}.Elapsed())
	if len(s.Missing) > 0 {
		_, _ = fmt.Fprintf(out, "missing: %v\n", s.Missing)
	}
}
