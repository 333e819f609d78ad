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
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/log"
	"github.com/ZaparooProject/go-kor/pn532"
	"github.com/ZaparooProject/go-kor/polling"
	"github.com/ZaparooProject/go-kor/race"
	"github.com/ZaparooProject/go-kor/tag"
)

func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the checkpoint station until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			device, err := a.openReader(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = device.Close() }()

			err = a.runStation(ctx, device, cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// runStation feeds every presented tag to a race station until ctx ends
func (a *app) runStation(ctx context.Context, reader polling.Reader, out io.Writer) error {
	logger := log.Default()
	station := a.newStation()

	handler := func(ctx context.Context, target *pn532.Target, dev tag.PageDevice) error {
		outcome, err := station.HandleTag(ctx, a.pageDevice(dev))
		if err != nil {
			_, _ = fmt.Fprintf(out, "%s  %s: %v\n", target.UIDString(), race.SignalError, err)
			return err
		}
		logger.Info("tag handled",
			zap.String("uid", target.UIDString()),
			zap.Stringer("signal", outcome.Signal()),
			zap.Stringer("state", station.Machine().State()))
		_, _ = fmt.Fprintf(out, "%s  %s\n", target.UIDString(), describeOutcome(outcome, station.Machine()))
		return nil
	}

	monitor, err := polling.NewMonitor(reader, a.cfg.PollConfig(), handler)
	if err != nil {
		return err
	}
	logger.Info("station ready",
		zap.Uint8("course_length", a.cfg.CourseLength),
		zap.String("readout_base", a.cfg.ReadoutBase))
	return monitor.Run(ctx)
}

// describeOutcome renders one station reaction for the console
func describeOutcome(o race.Outcome, m *race.Machine) string {
	sig := o.Signal()
	switch ev := o.Event.(type) {
	case nil:
		return sig.String()
	case kor.ReadoutTrigger:
		return fmt.Sprintf("%s: %d presses written as %s", sig, m.Len(), o.ReadoutURL)
	case kor.Start:
		if sig == race.SignalStart {
			return fmt.Sprintf("%s: attempt %s, %d controls", sig, m.Attempt(), m.CourseLength())
		}
		return fmt.Sprintf("%s: %s while running, recorded=%t", sig, ev, o.Result.Valid)
	default:
		return fmt.Sprintf("%s: %s valid=%t correct=%t", sig, ev, o.Result.Valid, o.Result.Correct)
	}
}
