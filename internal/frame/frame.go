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

package frame

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrDataTooLarge     = errors.New("data too large for frame")
	// ErrIncomplete means buf holds the start of a frame but not all of it.
	ErrIncomplete = errors.New("incomplete frame")
)

// Kind classifies a received frame
type Kind int

const (
	KindData Kind = iota
	KindAck
	KindNack
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindAck:
		return "ack"
	case KindNack:
		return "nack"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Frame is a parsed PN532 frame. For KindData, Data starts at the response
// code (command code + 1); the TFI byte is stripped.
type Frame struct {
	Data []byte
	Kind Kind
}

// Build returns a normal information frame carrying cmd and args
func Build(cmd byte, args []byte) ([]byte, error) {
	if len(args) > MaxCommandArgs {
		return nil, fmt.Errorf("%w: %d argument bytes", ErrDataTooLarge, len(args))
	}

	length := byte(2 + len(args))
	body := make([]byte, 0, len(args)+1)
	body = append(body, cmd)
	body = append(body, args...)

	frm := make([]byte, 0, int(length)+Overhead)
	frm = append(frm, Preamble, StartCode1, StartCode2, length, CalculateLengthChecksum(length), HostToPn532)
	frm = append(frm, body...)
	frm = append(frm, CalculateDataChecksum(HostToPn532, body), Postamble)
	return frm, nil
}

// Parse decodes the first frame in buf and returns it with the number of
// bytes consumed, including any leading garbage and the postamble.
// ErrIncomplete means more bytes are needed.
func Parse(buf []byte) (Frame, int, error) {
	start := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if start < 0 {
		return Frame{}, 0, ErrIncomplete
	}

	pos := start + 2
	if len(buf) < pos+2 {
		return Frame{}, 0, ErrIncomplete
	}
	length, lcs := buf[pos], buf[pos+1]
	pos += 2

	switch {
	case length == 0x00 && lcs == 0xFF:
		return Frame{Kind: KindAck}, skipPostamble(buf, pos), nil
	case length == 0xFF && lcs == 0x00:
		return Frame{Kind: KindNack}, skipPostamble(buf, pos), nil
	case length == 0xFF && lcs == 0xFF:
		return Frame{}, pos, fmt.Errorf("%w: extended frames are not supported", ErrFrameCorrupted)
	case ValidateChecksum([]byte{length, lcs}):
		return Frame{}, pos, fmt.Errorf("%w: length checksum", ErrChecksumMismatch)
	case length == 0x00:
		return Frame{}, pos, fmt.Errorf("%w: empty frame", ErrFrameCorrupted)
	}

	if len(buf) < pos+int(length)+1 {
		return Frame{}, 0, ErrIncomplete
	}
	body := buf[pos : pos+int(length)]
	dcs := buf[pos+int(length)]
	pos += int(length) + 1

	if ValidateChecksum(append(append([]byte{}, body...), dcs)) {
		return Frame{}, pos, fmt.Errorf("%w: data checksum", ErrChecksumMismatch)
	}

	if length == 1 && body[0] == syndromeApplicationError {
		return Frame{Kind: KindError}, skipPostamble(buf, pos), nil
	}
	if body[0] != Pn532ToHost {
		return Frame{}, pos, fmt.Errorf("%w: unexpected TFI 0x%02X", ErrFrameCorrupted, body[0])
	}

	data := make([]byte, len(body)-1)
	copy(data, body[1:])
	return Frame{Kind: KindData, Data: data}, skipPostamble(buf, pos), nil
}

func skipPostamble(buf []byte, pos int) int {
	if pos < len(buf) && buf[pos] == Postamble {
		return pos + 1
	}
	return pos
}

// BuildResponse returns a PN532-to-host information frame. It is the mirror
// of Build and serves simulated devices.
func BuildResponse(data []byte) []byte {
	length := byte(1 + len(data))
	frm := make([]byte, 0, int(length)+Overhead)
	frm = append(frm, Preamble, StartCode1, StartCode2, length, CalculateLengthChecksum(length), Pn532ToHost)
	frm = append(frm, data...)
	return append(frm, CalculateDataChecksum(Pn532ToHost, data), Postamble)
}
