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
	"strings"

	"go.uber.org/zap"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/log"
)

// TLV block types found in NFC Forum Type 2 tag memory
const (
	TLVNull       = 0x00
	TLVMessage    = 0x03
	TLVTerminator = 0xFE
)

// Record header bytes: MB=1, ME=1, TNF=1 (well known), with SR=1 for short
// records and SR=0 for long ones.
const (
	HeaderShortWellKnown = 0xD1
	HeaderLongWellKnown  = 0xC1
)

// Well-known record types
const (
	TypeText = 'T'
	TypeURI  = 'U'
)

const (
	// scanWindow is the smallest span that can hold a TLV header plus a
	// minimal record; offsets closer than this to the end are not tried.
	scanWindow       = 7
	minMessageLength = 5
	checkpointDigits = 2
	checkpointText   = len(kor.CheckpointMarker) + checkpointDigits
	langLengthMask   = 0x3F
)

// Decoder extracts at most one checkpoint event from raw tag memory.
// A Decoder is stateless apart from its configuration and may be reused.
type Decoder struct {
	log         *zap.Logger
	readoutURL  string
	prefixMatch bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithReadoutURL sets the URI that triggers a readout. The default is
// kor.DefaultReadoutBase.
func WithReadoutURL(url string) DecoderOption {
	return func(d *Decoder) {
		d.readoutURL = url
	}
}

// WithReadoutPrefixMatch makes any URI starting with the readout URL a
// trigger, including dump URLs written by earlier readouts.
func WithReadoutPrefixMatch(enabled bool) DecoderOption {
	return func(d *Decoder) {
		d.prefixMatch = enabled
	}
}

// WithLogger sets the logger used for rejection diagnostics.
func WithLogger(l *zap.Logger) DecoderOption {
	return func(d *Decoder) {
		d.log = l
	}
}

// NewDecoder creates a decoder with the given options.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{readoutURL: kor.DefaultReadoutBase}
	for _, opt := range opts {
		opt(d)
	}
	d.log = log.OrDefault(d.log, "ndef")
	return d
}

// Decode scans buf for a Message TLV holding a checkpoint Text record or a
// readout trigger URI record and returns the first event found, or nil.
// buf may be truncated anywhere; malformed input never causes an error.
//
// The scan is deliberately permissive: a TLV candidate that is rejected
// does not advance the scan past its body, so every offset is tried.
func (d *Decoder) Decode(buf []byte) kor.Event {
	var event kor.Event
	scanMessages(buf, func(off int, rec *Cursor) bool {
		ev, reason := d.decodeRecord(rec)
		if ev == nil {
			d.log.Debug("rejected NDEF candidate", zap.Int("offset", off), zap.String("reason", reason))
			return false
		}
		d.log.Debug("decoded NDEF record", zap.Int("offset", off), zap.Stringer("event", ev))
		event = ev
		return true
	})
	if event == nil {
		d.log.Debug("no checkpoint data found", zap.Int("length", len(buf)))
	}
	return event
}

// Decode decodes buf with a default Decoder.
func Decode(buf []byte) kor.Event {
	return NewDecoder().Decode(buf)
}

// ExtractURI returns the first URI record in buf with its identifier code
// expanded. It slides over buf like Decode but also accepts the three byte
// TLV length and the long record header, so any image written by EncodeURI
// reads back.
func ExtractURI(buf []byte) (string, bool) {
	c := NewCursor(buf)
	for off := 0; off+scanWindow <= len(buf); off++ {
		rec := c.At(off)
		if !rec.Expect(TLVMessage) {
			continue
		}
		length, ok := readTLVLength(rec)
		if !ok || length < minMessageLength || !rec.Has(length) {
			continue
		}
		payloadLen, typ, ok := readAnyHeader(rec)
		if !ok || typ != TypeURI {
			continue
		}
		if uri, ok := readURI(rec, payloadLen); ok {
			return uri, true
		}
	}
	return "", false
}

// readTLVLength consumes a one or three byte TLV length.
func readTLVLength(rec *Cursor) (int, bool) {
	b, ok := rec.Byte()
	if !ok {
		return 0, false
	}
	if b != longTLVMarker {
		return int(b), true
	}
	n, ok := rec.Uint16()
	return int(n), ok
}

// readAnyHeader consumes a short or long well-known record header with a
// one-byte type.
func readAnyHeader(rec *Cursor) (payloadLen int, typ byte, ok bool) {
	if h, _ := rec.Peek(0); h != HeaderLongWellKnown {
		short, typ, ok := readHeader(rec)
		return int(short), typ, ok
	}
	if !rec.Expect(HeaderLongWellKnown, 0x01) {
		return 0, 0, false
	}
	b, ok := rec.Bytes(4)
	if !ok {
		return 0, 0, false
	}
	if typ, ok = rec.Byte(); !ok {
		return 0, 0, false
	}
	return int(binary.BigEndian.Uint32(b)), typ, true
}

// scanMessages calls fn with a cursor at the record start of every Message
// TLV candidate in buf until fn returns true.
func scanMessages(buf []byte, fn func(off int, rec *Cursor) bool) {
	c := NewCursor(buf)
	for off := 0; off+scanWindow <= len(buf); off++ {
		rec := c.At(off)
		if !rec.Expect(TLVMessage) {
			continue
		}
		length, ok := rec.Byte()
		if !ok || length < minMessageLength || !rec.Has(int(length)) {
			continue
		}
		if fn(off, rec) {
			return
		}
	}
}

// readHeader consumes a single short well-known record header with a
// one-byte type.
func readHeader(rec *Cursor) (payloadLen, typ byte, ok bool) {
	if !rec.Expect(HeaderShortWellKnown, 0x01) {
		return 0, 0, false
	}
	if payloadLen, ok = rec.Byte(); !ok {
		return 0, 0, false
	}
	if typ, ok = rec.Byte(); !ok {
		return 0, 0, false
	}
	return payloadLen, typ, true
}

func (d *Decoder) decodeRecord(rec *Cursor) (kor.Event, string) {
	payloadLen, typ, ok := readHeader(rec)
	if !ok {
		return nil, "not a single short well-known record"
	}

	switch typ {
	case TypeText:
		return d.decodeCheckpoint(rec)
	case TypeURI:
		uri, ok := readURI(rec, int(payloadLen))
		if !ok {
			return nil, "empty URI payload"
		}
		if !d.isReadoutTrigger(uri) {
			return nil, "URI does not match readout trigger: " + uri
		}
		return kor.ReadoutTrigger{URL: uri}, ""
	default:
		return nil, "unsupported record type"
	}
}

// decodeCheckpoint parses "KORnn" or "KOR00/N[N]" from a Text record body.
// Bounds are taken from the buffer, not the declared payload length.
func (d *Decoder) decodeCheckpoint(rec *Cursor) (kor.Event, string) {
	status, ok := rec.Byte()
	if !ok {
		return nil, "missing text status byte"
	}
	if !rec.Skip(int(status&langLengthMask)) || !rec.Has(checkpointText) {
		return nil, "text shorter than checkpoint marker"
	}
	if !rec.Expect([]byte(kor.CheckpointMarker)...) {
		return nil, "missing checkpoint marker"
	}

	tens, ok1 := rec.Digit()
	ones, ok2 := rec.Digit()
	if !ok1 || !ok2 {
		return nil, "invalid checkpoint digits"
	}
	id := kor.CheckpointID(tens*10 + ones)

	var courseLength uint8
	if id == kor.StartCheckpoint && rec.Expect('/') {
		if n, ok := rec.Digit(); ok {
			courseLength = n
			if n2, ok := rec.Digit(); ok {
				courseLength = courseLength*10 + n2
			}
		}
		if courseLength != 0 && !kor.ValidCourseLength(courseLength) {
			d.log.Debug("ignoring course length override", zap.Uint8("courseLength", courseLength))
			courseLength = 0
		}
	}

	return kor.CheckpointEvent(id, courseLength), ""
}

// readURI reads a URI payload of the declared length, stopping early at a
// zero byte or the end of the buffer.
func readURI(rec *Cursor, payloadLen int) (string, bool) {
	if payloadLen == 0 {
		return "", false
	}
	code, ok := rec.Byte()
	if !ok {
		return "", false
	}

	var sb strings.Builder
	sb.WriteString(URIPrefix(code))
	for i := 1; i < payloadLen; i++ {
		b, ok := rec.Byte()
		if !ok || b == 0x00 {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), true
}

func (d *Decoder) isReadoutTrigger(uri string) bool {
	if d.prefixMatch {
		return strings.HasPrefix(uri, d.readoutURL)
	}
	return uri == d.readoutURL
}
