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
	"encoding/binary"
	"errors"
	"fmt"

	kor "github.com/ZaparooProject/go-kor"
)

const (
	// maxShortTLVLength is the largest message that fits the one byte TLV
	// length form; 0xFF introduces the three byte form.
	maxShortTLVLength = 0xFE
	longTLVMarker     = 0xFF
	maxLongTLVLength  = 0xFFFF
	maxShortPayload   = 0xFF
	textLanguage      = "en"
)

// ErrInvalidCheckpoint is returned when a checkpoint id or course length
// cannot be written to a tag.
var ErrInvalidCheckpoint = errors.New("invalid checkpoint")

// EncodeURI returns a tag memory image holding one Message TLV with a
// single URI record for url, followed by a Terminator TLV. https:// and
// http:// are abbreviated to their identifier codes; anything else is
// stored verbatim. A URL whose message exceeds the three byte TLV length
// returns nil.
func EncodeURI(url string) []byte {
	code, rest := SplitURI(url)
	payload := make([]byte, 0, 1+len(rest))
	payload = append(payload, code)
	payload = append(payload, rest...)
	return wrapMessage(encodeRecord(TypeURI, payload))
}

// EncodeCheckpoint returns a tag memory image holding the Text record for
// a checkpoint tag. courseLength is only written on the start tag and
// zero leaves it out.
func EncodeCheckpoint(id kor.CheckpointID, courseLength uint8) ([]byte, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCheckpoint, id)
	}

	text := id.String()
	if courseLength != 0 {
		if id != kor.StartCheckpoint {
			return nil, fmt.Errorf("%w: course length on %s", ErrInvalidCheckpoint, id)
		}
		if !kor.ValidCourseLength(courseLength) {
			return nil, fmt.Errorf("%w: course length %d", ErrInvalidCheckpoint, courseLength)
		}
		text = fmt.Sprintf("%s/%d", text, courseLength)
	}

	payload := make([]byte, 0, 1+len(textLanguage)+len(text))
	payload = append(payload, byte(len(textLanguage)))
	payload = append(payload, textLanguage...)
	payload = append(payload, text...)
	return wrapMessage(encodeRecord(TypeText, payload)), nil
}

// encodeRecord builds a single well-known record with MB and ME set,
// using the short form when the payload allows it.
func encodeRecord(typ byte, payload []byte) []byte {
	if len(payload) <= maxShortPayload {
		rec := make([]byte, 0, 4+len(payload))
		rec = append(rec, HeaderShortWellKnown, 0x01, byte(len(payload)), typ)
		return append(rec, payload...)
	}

	rec := make([]byte, 0, 7+len(payload))
	rec = append(rec, HeaderLongWellKnown, 0x01)
	rec = binary.BigEndian.AppendUint32(rec, uint32(len(payload)))
	rec = append(rec, typ)
	return append(rec, payload...)
}

// wrapMessage frames msg as a Message TLV followed by a Terminator TLV.
// Messages longer than 0xFFFF bytes have no TLV length encoding and yield
// nil.
func wrapMessage(msg []byte) []byte {
	if len(msg) > maxLongTLVLength {
		return nil
	}
	out := make([]byte, 0, len(msg)+5)
	out = append(out, TLVMessage)
	if len(msg) <= maxShortTLVLength {
		out = append(out, byte(len(msg)))
	} else {
		out = append(out, longTLVMarker)
		out = binary.BigEndian.AppendUint16(out, uint16(len(msg)))
	}
	out = append(out, msg...)
	return append(out, TLVTerminator)
}
