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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/log"
	"github.com/ZaparooProject/go-kor/ndef"
	"github.com/ZaparooProject/go-kor/pn532"
	"github.com/ZaparooProject/go-kor/polling"
	"github.com/ZaparooProject/go-kor/tag"
)

var errTagTooSmall = errors.New("tag too small")

func (a *app) newProgramCmd() *cobra.Command {
	programCmd := &cobra.Command{
		Use:   "program",
		Short: "Write checkpoint or readout data to the next presented tag",
	}

	var embedCourseLength bool
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint <start|finish|1-98|KORnn>",
		Short: "Program a start, control or finish tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCheckpointID(args[0])
			if err != nil {
				return err
			}
			var courseLength uint8
			if embedCourseLength {
				courseLength = a.cfg.CourseLength
			}
			image, err := ndef.EncodeCheckpoint(id, courseLength)
			if err != nil {
				return err
			}
			return a.program(cmd, image, kor.CheckpointEvent(id, courseLength))
		},
	}
	checkpointCmd.Flags().BoolVar(&embedCourseLength, "embed-course-length", false,
		"store --course-length on the start tag")

	readoutCmd := &cobra.Command{
		Use:   "readout",
		Short: "Program a readout trigger tag pointing at --readout-base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.program(cmd, ndef.EncodeURI(a.cfg.ReadoutBase), kor.ReadoutTrigger{URL: a.cfg.ReadoutBase})
		},
	}

	programCmd.AddCommand(checkpointCmd, readoutCmd)
	return programCmd
}

// parseCheckpointID accepts "start", "finish", a number or the tag text
func parseCheckpointID(s string) (kor.CheckpointID, error) {
	switch strings.ToLower(s) {
	case "start":
		return kor.StartCheckpoint, nil
	case "finish":
		return kor.FinishCheckpoint, nil
	}
	digits := strings.TrimPrefix(strings.ToUpper(s), kor.CheckpointMarker)
	n, err := strconv.ParseUint(digits, 10, 8)
	if err != nil || !kor.CheckpointID(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ndef.ErrInvalidCheckpoint, s)
	}
	return kor.CheckpointID(n), nil
}

func (a *app) program(cmd *cobra.Command, image []byte, want kor.Event) error {
	if _, err := ndef.Inspect(image); err != nil {
		return fmt.Errorf("encoded image does not parse: %w", err)
	}

	device, err := a.openReader(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = device.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Present a tag to write %s\n", want)
	return polling.HandleNextTag(cmd.Context(), device, a.cfg.PollConfig(),
		func(ctx context.Context, target *pn532.Target, dev tag.PageDevice) error {
			if err := a.writeImage(ctx, a.pageDevice(dev), image, want); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  wrote %s\n", target.UIDString(), want)
			return nil
		})
}

// writeImage stores image in the tag user memory and checks that the
// station decodes it back to want
func (a *app) writeImage(ctx context.Context, dev tag.PageDevice, image []byte, want kor.Event) error {
	layout, detect, err := a.cfg.TagLayout()
	if err != nil {
		return err
	}
	if detect {
		if l, derr := tag.DetectLayout(ctx, dev); derr == nil {
			layout = l
		} else {
			log.Default().Debug("layout detection failed, using fallback",
				zap.String("layout", layout.Name), zap.Error(derr))
		}
	}
	if len(image) > layout.UserBytes() {
		return fmt.Errorf("%w: %d bytes needed, %s holds %d", errTagTooSmall, len(image), layout, layout.UserBytes())
	}

	if err := tag.WriteUserMemory(ctx, dev, layout, image); err != nil {
		return fmt.Errorf("failed to write tag: %w", err)
	}

	buf, err := tag.ReadUserMemory(ctx, dev, layout)
	if err != nil {
		return fmt.Errorf("failed to read tag back: %w", err)
	}
	if got := a.newDecoder().Decode(buf); got != want {
		return fmt.Errorf("tag decodes as %v, want %v", got, want)
	}
	return nil
}
