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
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-kor/pn532"
	"github.com/ZaparooProject/go-kor/polling"
	"github.com/ZaparooProject/go-kor/tag"
)

func (a *app) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Dump the user memory and NDEF records of the next presented tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			device, err := a.openReader(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = device.Close() }()

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Present a tag")
			return polling.HandleNextTag(cmd.Context(), device, a.cfg.PollConfig(),
				func(ctx context.Context, target *pn532.Target, dev tag.PageDevice) error {
					return a.inspect(ctx, cmd.OutOrStdout(), target, dev)
				})
		},
	}
}

func (a *app) inspect(ctx context.Context, out io.Writer, target *pn532.Target, dev tag.PageDevice) error {
	layout, detect, err := a.cfg.TagLayout()
	if err != nil {
		return err
	}
	if detect {
		if l, derr := tag.DetectLayout(ctx, dev); derr == nil {
			layout = l
		}
	}

	buf, err := tag.ReadUserMemory(ctx, dev, layout)
	if err != nil && len(buf) == 0 {
		return fmt.Errorf("failed to read tag: %w", err)
	}

	_, _ = fmt.Fprintf(out, "uid: %s  atqa: %04X  sak: %02X  layout: %s\n",
		target.UIDString(), target.ATQA, target.SAK, layout)
	if err != nil {
		_, _ = fmt.Fprintf(out, "partial read: %v\n", err)
	}
	_, _ = fmt.Fprint(out, hex.Dump(buf))
	printMemory(out, a.newDecoder(), buf)
	return nil
}
