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

package race

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/log"
	"github.com/ZaparooProject/go-kor/ndef"
	"github.com/ZaparooProject/go-kor/tag"
)

// Signal classifies an outcome for user feedback such as a buzzer.
type Signal int

const (
	SignalNone Signal = iota
	SignalStart
	SignalControl
	SignalFinish
	SignalReadout
	SignalError
)

func (s Signal) String() string {
	switch s {
	case SignalNone:
		return "none"
	case SignalStart:
		return "start"
	case SignalControl:
		return "control"
	case SignalFinish:
		return "finish"
	case SignalReadout:
		return "readout"
	case SignalError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the result of one station cycle.
type Outcome struct {
	// Event is the decoded event, nil when the tag held no checkpoint data.
	Event kor.Event
	// ReadoutURL is set for readout triggers.
	ReadoutURL string
	// WriteBack is the tag image to write, set for readout triggers.
	WriteBack []byte
	Result    Result
	// Written reports whether WriteBack reached the tag.
	Written bool
}

// Signal returns the feedback class of the outcome.
func (o Outcome) Signal() Signal {
	switch o.Event.(type) {
	case nil:
		return SignalNone
	case kor.ReadoutTrigger:
		if o.Written {
			return SignalReadout
		}
		return SignalError
	case kor.Start:
		if o.Result.Valid && o.Result.Correct {
			return SignalStart
		}
	case kor.Finish:
		if o.Result.Valid {
			return SignalFinish
		}
	case kor.Visit:
		if o.Result.Valid {
			return SignalControl
		}
	}
	return SignalError
}

// Station runs the decode, react, encode cycle for every tag presented.
// It owns its Machine and is not safe for concurrent use.
type Station struct {
	machine     *Machine
	decoder     *ndef.Decoder
	log         *zap.Logger
	readoutBase string
	layout      tag.Layout
	detect      bool
}

// StationOption configures a Station.
type StationOption func(*Station)

// WithDecoder replaces the default NDEF decoder.
func WithDecoder(d *ndef.Decoder) StationOption {
	return func(s *Station) {
		s.decoder = d
	}
}

// WithReadoutBase sets the base URL of written readout URLs.
func WithReadoutBase(base string) StationOption {
	return func(s *Station) {
		s.readoutBase = base
	}
}

// WithLayout sets the tag memory layout used when detection is off or
// fails. The default is NTAG213.
func WithLayout(l tag.Layout) StationOption {
	return func(s *Station) {
		s.layout = l
	}
}

// WithLayoutDetection reads the capability container of each tag to pick
// its layout.
func WithLayoutDetection(enabled bool) StationOption {
	return func(s *Station) {
		s.detect = enabled
	}
}

// WithStationLogger sets the logger.
func WithStationLogger(l *zap.Logger) StationOption {
	return func(s *Station) {
		s.log = l
	}
}

// NewStation creates a station driving m.
func NewStation(m *Machine, opts ...StationOption) *Station {
	s := &Station{
		machine:     m,
		readoutBase: kor.DefaultReadoutBase,
		layout:      tag.NTAG213,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = log.OrDefault(s.log, "station")
	if s.decoder == nil {
		s.decoder = ndef.NewDecoder(ndef.WithLogger(s.log.Named("ndef")))
	}
	return s
}

// Machine returns the race state machine.
func (s *Station) Machine() *Machine {
	return s.machine
}

// Process decodes one tag memory image and applies the event. It does not
// touch the tag; a readout trigger yields the image to write back.
func (s *Station) Process(buf []byte) Outcome {
	ev := s.decoder.Decode(buf)
	out := Outcome{Event: ev}

	switch ev.(type) {
	case nil:
		s.log.Debug("no checkpoint data on tag", zap.Int("bytes", len(buf)))
	case kor.ReadoutTrigger:
		records := s.machine.Records()
		out.ReadoutURL = kor.ReadoutURL(s.readoutBase, records)
		out.WriteBack = ndef.EncodeURI(out.ReadoutURL)
		s.log.Info("readout requested",
			zap.Int("presses", len(records)),
			zap.String("url", out.ReadoutURL),
			zap.Int("bytes", len(out.WriteBack)))
	default:
		out.Result = s.machine.Apply(ev)
		if out.Result.Valid {
			s.logPressTable()
		}
	}

	return out
}

// HandleTag reads the tag in the field, processes it and writes back the
// readout URL when requested. A failed read is only an error when nothing
// at all could be read; a partial image is still decoded.
func (s *Station) HandleTag(ctx context.Context, dev tag.PageDevice) (Outcome, error) {
	layout := s.layoutFor(ctx, dev)

	buf, err := tag.ReadUserMemory(ctx, dev, layout)
	if err != nil {
		if len(buf) == 0 {
			return Outcome{}, fmt.Errorf("failed to read tag: %w", err)
		}
		s.log.Warn("partial tag read", zap.Int("bytes", len(buf)), zap.Error(err))
	}

	out := s.Process(buf)
	if out.WriteBack == nil {
		return out, nil
	}

	if err := tag.WriteUserMemory(ctx, dev, layout, out.WriteBack); err != nil {
		s.log.Error("failed to write readout", zap.String("layout", layout.Name), zap.Error(err))
		return out, fmt.Errorf("failed to write readout: %w", err)
	}
	out.Written = true
	s.log.Info("readout written", zap.String("layout", layout.Name))
	return out, nil
}

func (s *Station) layoutFor(ctx context.Context, dev tag.PageReader) tag.Layout {
	if !s.detect {
		return s.layout
	}
	l, err := tag.DetectLayout(ctx, dev)
	if err != nil {
		if errors.Is(err, tag.ErrUnknownLayout) {
			s.log.Debug("unrecognized capability container", zap.Error(err))
		} else {
			s.log.Warn("layout detection failed", zap.Error(err))
		}
		return s.layout
	}
	return l
}

func (s *Station) logPressTable() {
	records := s.machine.Records()
	s.log.Info("press table",
		zap.Stringer("state", s.machine.State()),
		zap.Stringer("attempt", s.machine.Attempt()),
		zap.Int("count", len(records)),
		zap.Strings("presses", lo.Map(records, func(r kor.PressRecord, _ int) string { return r.String() })))
}
