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

package ndef

import (
	"errors"
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"
)

var (
	ErrNoMessage = errors.New("no NDEF message TLV found")
	ErrTruncated = errors.New("truncated TLV")
)

// RecordInfo is a human readable summary of one NDEF record.
type RecordInfo struct {
	Type    string
	Payload string
	TNF     byte
}

func (r RecordInfo) String() string {
	return fmt.Sprintf("TNF=%d type=%q payload=%q", r.TNF, r.Type, r.Payload)
}

// MessageTLV walks the TLV blocks of tag memory and returns the body of the
// first Message TLV. Unlike Decode it follows the TLV chain strictly and
// stops at a Terminator TLV.
func MessageTLV(buf []byte) ([]byte, error) {
	c := NewCursor(buf)
	for {
		t, ok := c.Byte()
		if !ok {
			return nil, ErrNoMessage
		}
		switch t {
		case TLVNull:
			continue
		case TLVTerminator:
			return nil, ErrNoMessage
		}

		n, ok := c.Byte()
		if !ok {
			return nil, ErrTruncated
		}
		length := int(n)
		if n == longTLVMarker {
			v, ok := c.Uint16()
			if !ok {
				return nil, ErrTruncated
			}
			length = int(v)
		}

		body, ok := c.Bytes(length)
		if !ok {
			return nil, fmt.Errorf("%w: TLV 0x%02X wants %d bytes, %d left", ErrTruncated, t, length, c.Remaining())
		}
		if t == TLVMessage {
			return body, nil
		}
	}
}

// Inspect parses every record of the first NDEF message in tag memory. It
// accepts any record type, so it is used for diagnostics rather than for
// checkpoint decoding.
func Inspect(buf []byte) ([]RecordInfo, error) {
	body, err := MessageTLV(buf)
	if err != nil {
		return nil, err
	}

	msg := &gondef.Message{}
	if _, err := msg.Unmarshal(body); err != nil {
		return nil, fmt.Errorf("failed to parse NDEF message: %w", err)
	}

	infos := make([]RecordInfo, 0, len(msg.Records))
	for _, rec := range msg.Records {
		info := RecordInfo{TNF: rec.TNF(), Type: rec.Type()}
		if payload, err := rec.Payload(); err == nil && payload != nil {
			info.Payload = payload.String()
		}
		infos = append(infos, info)
	}
	return infos, nil
}
