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

// Package uart provides the UART (HSU) transport for PN532 readers
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-kor/internal/frame"
	"github.com/ZaparooProject/go-kor/pn532"
)

const (
	// DefaultBaudRate is the PN532 HSU default
	DefaultBaudRate = 115200

	defaultTimeout = time.Second
	// readSlice bounds a single blocking read so deadlines and context
	// cancellation are noticed
	readSlice = 10 * time.Millisecond
	// nackRetries is how often a corrupted response is re-requested
	nackRetries = 3
)

// wakeupSequence brings the PN532 out of power down before the first
// command. The long run of zeros gives the chip time to start its clock.
var wakeupSequence = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// port is the subset of serial.Port the transport uses
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Transport implements the pn532.Transport interface for UART communication
type Transport struct {
	port     port
	portName string
	pending  []byte
	timeout  time.Duration
	mu       sync.Mutex
	awake    bool
}

// New opens portName at DefaultBaudRate
func New(portName string) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound {
			return nil, pn532.NewTransportError("open", portName, pn532.ErrDeviceNotFound, pn532.ErrorTypePermanent)
		}
		return nil, pn532.NewTransportError("open", portName, err, pn532.ErrorTypePermanent)
	}
	return newTransport(p, portName), nil
}

func newTransport(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  defaultTimeout,
	}
}

// SendCommand sends a command frame, waits for the ACK and returns the
// response data starting at the response code
func (t *Transport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil, pn532.NewTransportError("SendCommand", t.portName, pn532.ErrTransportClosed, pn532.ErrorTypePermanent)
	}

	frm, err := frame.Build(cmd, args)
	if err != nil {
		return nil, pn532.NewDataTooLargeError("SendCommand", t.portName)
	}

	if err := t.wakeup(); err != nil {
		return nil, err
	}
	t.pending = t.pending[:0]
	if err := t.port.ResetInputBuffer(); err != nil {
		return nil, pn532.NewTransportError("reset", t.portName, err, pn532.ErrorTypeTransient)
	}
	if err := t.write(frm); err != nil {
		return nil, err
	}

	deadline := time.Now().Add(t.timeout)
	if err := t.waitAck(ctx, deadline); err != nil {
		return nil, err
	}
	return t.receiveResponse(ctx, deadline)
}

func (t *Transport) wakeup() error {
	if t.awake {
		return nil
	}
	if err := t.write(wakeupSequence); err != nil {
		return err
	}
	t.awake = true
	return nil
}

func (t *Transport) write(data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return pn532.NewTransportError("write", t.portName, fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), pn532.ErrorTypeTransient)
	}
	if n != len(data) {
		return pn532.NewTransportError("write", t.portName,
			fmt.Errorf("%w: wrote %d of %d bytes", pn532.ErrTransportWrite, n, len(data)), pn532.ErrorTypeTransient)
	}
	return nil
}

func (t *Transport) waitAck(ctx context.Context, deadline time.Time) error {
	f, err := t.readFrame(ctx, deadline, "waitAck")
	if err != nil {
		if errors.Is(err, pn532.ErrTransportTimeout) {
			return pn532.NewNoACKError("waitAck", t.portName)
		}
		return err
	}
	switch f.Kind {
	case frame.KindAck:
		return nil
	case frame.KindNack:
		return pn532.NewTransportError("waitAck", t.portName, pn532.ErrNACKReceived, pn532.ErrorTypeTransient)
	default:
		return pn532.NewTransportError("waitAck", t.portName,
			fmt.Errorf("%w: %s frame instead of ACK", pn532.ErrNoACK, f.Kind), pn532.ErrorTypeTransient)
	}
}

// receiveResponse reads the response frame, NACKing corrupted frames so
// the PN532 sends them again
func (t *Transport) receiveResponse(ctx context.Context, deadline time.Time) ([]byte, error) {
	for tries := 0; ; tries++ {
		f, err := t.readFrame(ctx, deadline, "receiveFrame")
		if err == nil {
			if f.Kind == frame.KindError {
				return nil, pn532.NewTransportError("receiveFrame", t.portName,
					fmt.Errorf("%w: application error frame", pn532.ErrCommunicationFailed), pn532.ErrorTypeTransient)
			}
			if f.Kind != frame.KindData {
				return nil, pn532.NewFrameCorruptedError("receiveFrame", t.portName)
			}
			return f.Data, nil
		}

		if !errors.Is(err, frame.ErrChecksumMismatch) || tries >= nackRetries {
			return nil, err
		}
		if err := t.write(frame.NackFrame); err != nil {
			return nil, err
		}
	}
}

// readFrame reads until one complete frame is buffered or the deadline
// passes. Bytes after the frame stay pending for the next call.
func (t *Transport) readFrame(ctx context.Context, deadline time.Time, op string) (frame.Frame, error) {
	if err := t.port.SetReadTimeout(readSlice); err != nil {
		return frame.Frame{}, pn532.NewTransportError(op, t.portName, err, pn532.ErrorTypeTransient)
	}

	buf := make([]byte, frame.MaxFrameDataLength+frame.Overhead)
	for {
		if len(t.pending) > 0 {
			f, n, err := frame.Parse(t.pending)
			if !errors.Is(err, frame.ErrIncomplete) {
				t.pending = t.pending[n:]
				if err != nil {
					return frame.Frame{}, pn532.NewTransportError(op, t.portName, err, pn532.ErrorTypeTransient)
				}
				return f, nil
			}
		}

		if err := ctx.Err(); err != nil {
			return frame.Frame{}, err
		}
		if time.Now().After(deadline) {
			return frame.Frame{}, pn532.NewTimeoutError(op, t.portName)
		}

		n, err := t.port.Read(buf)
		if err != nil {
			return frame.Frame{}, pn532.NewTransportError(op, t.portName,
				fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), pn532.ErrorTypeTransient)
		}
		t.pending = append(t.pending, buf[:n]...)
	}
}

// SetTimeout sets the response timeout of a command
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", pn532.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// PortName returns the serial device path
func (t *Transport) PortName() string {
	return t.portName
}

// Ensure Transport implements pn532.Transport
var _ pn532.Transport = (*Transport)(nil)
