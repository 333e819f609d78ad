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

// Package i2c provides I2C transport implementation for PN532
package i2c

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/ZaparooProject/go-kor/internal/frame"
	"github.com/ZaparooProject/go-kor/internal/transport"
	"github.com/ZaparooProject/go-kor/pn532"
)

const (
	// DefaultAddress is the 7-bit PN532 I2C address
	DefaultAddress = 0x24

	// pn532Ready is the status byte prefixed to every read once the chip
	// has data
	pn532Ready = 0x01

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	defaultTimeout = time.Second
	pollInterval   = time.Millisecond
	nackRetries    = 3
)

// bus is the subset of an I2C device the transport uses
type bus interface {
	Tx(w, r []byte) error
}

// Transport implements the pn532.Transport interface for I2C communication
type Transport struct {
	dev     bus
	closer  func() error
	busName string
	timeout time.Duration
	mu      sync.Mutex
}

// New opens busName ("" picks the first bus) and talks to the PN532 at
// DefaultAddress
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, pn532.NewTransportError("open", busName, fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err), pn532.ErrorTypePermanent)
	}

	// Ignore error, continue with default speed
	_ = b.SetSpeed(maxClockFreq)

	t := newTransport(&i2c.Dev{Addr: DefaultAddress, Bus: b}, busName)
	t.closer = b.Close
	return t, nil
}

func newTransport(dev bus, busName string) *Transport {
	return &Transport{dev: dev, busName: busName, timeout: defaultTimeout}
}

// ListBuses returns the names of the I2C buses periph can open
func ListBuses() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	refs := i2creg.All()
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names, nil
}

// SendCommand sends a command to the PN532 and waits for response
func (t *Transport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil, pn532.NewTransportError("SendCommand", t.busName, pn532.ErrTransportClosed, pn532.ErrorTypePermanent)
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, pn532.NewDataTooLargeError("sendFrame", t.busName)
	}
	if err := t.dev.Tx(frm, nil); err != nil {
		return nil, pn532.NewTransportError("sendFrame", t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), pn532.ErrorTypeTransient)
	}

	deadline := time.Now().Add(t.timeout)
	ack, err := t.readFrame(ctx, deadline, len(frame.AckFrame))
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			return nil, pn532.NewNoACKError("waitAck", t.busName)
		}
		return nil, err
	}
	if ack.Kind != frame.KindAck {
		return nil, pn532.NewNoACKError("waitAck", t.busName)
	}

	return t.receiveResponse(ctx, deadline)
}

func (t *Transport) receiveResponse(ctx context.Context, deadline time.Time) ([]byte, error) {
	for tries := 0; ; tries++ {
		f, err := t.readFrame(ctx, deadline, frame.MaxFrameDataLength+frame.Overhead)
		switch {
		case errors.Is(err, transport.ErrTimeout):
			return nil, pn532.NewTimeoutError("receiveFrame", t.busName)
		case errors.Is(err, frame.ErrChecksumMismatch) && tries < nackRetries:
			if err := t.dev.Tx(frame.NackFrame, nil); err != nil {
				return nil, pn532.NewTransportError("sendNack", t.busName, err, pn532.ErrorTypeTransient)
			}
			continue
		case err != nil:
			return nil, err
		}

		if f.Kind != frame.KindData {
			return nil, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %s frame", pn532.ErrCommunicationFailed, f.Kind), pn532.ErrorTypeTransient)
		}
		return f.Data, nil
	}
}

// readFrame polls the ready byte until the PN532 has data, then reads up
// to size bytes and parses one frame from them
func (t *Transport) readFrame(ctx context.Context, deadline time.Time, size int) (frame.Frame, error) {
	buf := make([]byte, 1+size)
	raw, err := transport.TimeoutRetry(ctx, time.Until(deadline), pollInterval, func() ([]byte, bool, error) {
		if err := t.dev.Tx(nil, buf); err != nil {
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
		}
		if buf[0] != pn532Ready {
			return nil, true, nil
		}
		return buf[1:], false, nil
	})
	if err != nil {
		return frame.Frame{}, err
	}

	f, _, err := frame.Parse(raw)
	if err != nil {
		if errors.Is(err, frame.ErrIncomplete) {
			err = frame.ErrFrameCorrupted
		}
		return frame.Frame{}, pn532.NewTransportError("receiveFrame", t.busName, err, pn532.ErrorTypeTransient)
	}
	return f, nil
}

// SetTimeout sets the read timeout for the transport
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", pn532.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close releases the bus
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dev = nil
	if t.closer != nil {
		closer := t.closer
		t.closer = nil
		if err := closer(); err != nil {
			return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
		}
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// Ensure Transport implements pn532.Transport
var _ pn532.Transport = (*Transport)(nil)
