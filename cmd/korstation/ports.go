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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-kor/detection"
	"github.com/ZaparooProject/go-kor/transport/i2c"
)

func newPortsCmd() *cobra.Command {
	opts := detection.DefaultOptions()
	var all bool
	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports and I2C buses that may host a reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				opts.Blocklist = nil
			}
			ports, err := detection.ListSerialPorts(opts)
			if err != nil {
				return err
			}
			buses, err := i2c.ListBuses()
			if err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "I2C:", err)
			}
			return printPorts(cmd.OutOrStdout(), ports, buses)
		},
	}
	portsCmd.Flags().BoolVar(&opts.KnownOnly, "known-only", false, "only list USB bridges found on PN532 boards")
	portsCmd.Flags().StringSliceVar(&opts.IgnorePaths, "ignore", nil, "device paths to skip")
	portsCmd.Flags().BoolVar(&all, "all", false, "include blocklisted devices")
	return portsCmd
}

func printPorts(out io.Writer, ports []detection.Port, buses []string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TRANSPORT\tPATH\tVID:PID\tBRIDGE\tPRODUCT")
	for _, p := range ports {
		_, _ = fmt.Fprintf(w, "uart\t%s\t%s\t%s\t%s\n", p.Path, p.VIDPID, p.Bridge, p.Product)
	}
	for _, b := range buses {
		_, _ = fmt.Fprintf(w, "i2c\t%s\t\t\t\n", b)
	}
	return w.Flush()
}
