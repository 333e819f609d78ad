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

package pn532

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-kor/internal/frame"
)

// Transport level errors
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrTransportClosed     = errors.New("transport closed")
	ErrCommunicationFailed = errors.New("communication failed")
	ErrNoACK               = errors.New("no ACK received")
	ErrNACKReceived        = errors.New("NACK received")

	ErrFrameCorrupted   = frame.ErrFrameCorrupted
	ErrChecksumMismatch = frame.ErrChecksumMismatch
	ErrDataTooLarge     = frame.ErrDataTooLarge
)

// Device and tag errors
var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrNoTagDetected    = errors.New("no tag detected")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidResponse  = errors.New("invalid response")
	ErrCommandFailed    = errors.New("command failed")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors are not worth retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may clear on the next attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transient errors caused by a deadline
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError carries the operation and port of a failed transport call
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps err. Transient and timeout errors are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError returns a retryable timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewNoACKError returns a retryable error for a missing ACK frame
func NewNoACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNoACK, ErrorTypeTransient)
}

// NewFrameCorruptedError returns a retryable error for an unparseable frame
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewDataTooLargeError returns a permanent error for an oversized command
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// IsRetryable reports whether err is worth another attempt. A TransportError
// decides for itself; otherwise the transient sentinels are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return GetErrorType(err) != ErrorTypePermanent
}

// GetErrorType classifies err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrNACKReceived),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// StatusError reports a non-zero status byte returned by the PN532 for a
// command that talks to the tag (InDataExchange, InRelease).
type StatusError struct {
	Cmd    byte
	Status byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("command 0x%02X failed with status 0x%02X (%s)", e.Cmd, e.Status, statusText(e.Status))
}

// Is makes StatusError match ErrCommandFailed, and ErrTransportTimeout for
// the RF timeout status.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrCommandFailed:
		return true
	case ErrTransportTimeout:
		return e.Status&0x3F == statusTimeout
	default:
		return false
	}
}

const (
	statusTimeout     = 0x01
	statusCRC         = 0x02
	statusParity      = 0x03
	statusFraming     = 0x05
	statusProtocol    = 0x14
	statusBadParam    = 0x27
	statusNotSelected = 0x2B
)

func statusText(status byte) string {
	switch status & 0x3F {
	case statusTimeout:
		return "target timeout"
	case statusCRC:
		return "CRC error"
	case statusParity:
		return "parity error"
	case statusFraming:
		return "framing error"
	case statusProtocol:
		return "protocol error"
	case statusBadParam:
		return "invalid parameter"
	case statusNotSelected:
		return "target not selected"
	default:
		return "unknown"
	}
}
