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

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ZaparooProject/go-kor/detection"
	"github.com/ZaparooProject/go-kor/internal/config"
	"github.com/ZaparooProject/go-kor/log"
	"github.com/ZaparooProject/go-kor/ndef"
	"github.com/ZaparooProject/go-kor/pn532"
	"github.com/ZaparooProject/go-kor/race"
	"github.com/ZaparooProject/go-kor/tag"
	"github.com/ZaparooProject/go-kor/transport/i2c"
	"github.com/ZaparooProject/go-kor/transport/uart"
)

var errNoReader = errors.New("no PN532 reader found")

// newTransport opens the transport named by the config on path
func newTransport(transport, path string) (pn532.Transport, error) {
	switch transport {
	case config.TransportI2C:
		t, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return t, nil
	default:
		t, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return t, nil
	}
}

// candidates lists the device paths to try, the configured one or every
// detected port or bus
func (a *app) candidates() ([]string, error) {
	if a.cfg.Device != "" {
		return []string{a.cfg.Device}, nil
	}
	if a.cfg.Transport == config.TransportI2C {
		return i2c.ListBuses()
	}
	ports, err := detection.ListSerialPorts(detection.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return lo.Map(ports, func(p detection.Port, _ int) string { return p.Path }), nil
}

// openReader connects to the first candidate that answers as a PN532
func (a *app) openReader(ctx context.Context) (*pn532.Device, error) {
	logger := log.Default()
	paths, err := a.candidates()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if len(paths) == 0 {
		return nil, errNoReader
	}

	var errs []error
	for _, path := range paths {
		device, err := a.connect(ctx, path)
		if err == nil {
			logger.Info("reader connected",
				zap.String("transport", a.cfg.Transport),
				zap.String("path", path),
				zap.Stringer("firmware", device.FirmwareVersion()))
			return device, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("not a PN532", zap.String("path", path), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", path, err))
	}
	return nil, fmt.Errorf("%w: %w", errNoReader, errors.Join(errs...))
}

func (a *app) connect(ctx context.Context, path string) (*pn532.Device, error) {
	t, err := newTransport(a.cfg.Transport, path)
	if err != nil {
		return nil, err
	}
	device, err := pn532.New(t, pn532.WithTimeout(a.cfg.Timeout))
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	if err := device.Init(ctx); err != nil {
		_ = device.Close()
		return nil, err
	}
	return device, nil
}

// pageDevice wraps dev for read-back verification when enabled
func (a *app) pageDevice(dev tag.PageDevice) tag.PageDevice {
	if !a.cfg.Verify {
		return dev
	}
	return tag.NewVerifiedWriter(dev, tag.DefaultVerifyConfig(), nil)
}

// newStation builds a station from the config
func (a *app) newStation() *race.Station {
	layout, detect, _ := a.cfg.TagLayout()
	machine := race.NewMachine(race.WithCourseLength(a.cfg.CourseLength))
	return race.NewStation(machine,
		race.WithDecoder(a.newDecoder()),
		race.WithReadoutBase(a.cfg.ReadoutBase),
		race.WithLayout(layout),
		race.WithLayoutDetection(detect))
}

func (a *app) newDecoder() *ndef.Decoder {
	return ndef.NewDecoder(
		ndef.WithReadoutURL(a.cfg.ReadoutBase),
		ndef.WithReadoutPrefixMatch(a.cfg.ReadoutPrefixMatch))
}
