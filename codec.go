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

package kor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// RecordSize is the packed size of one PressRecord.
const RecordSize = 4

const (
	// DefaultReadoutBase is the scheme, host and path of the readout site.
	// A URI record with exactly this value triggers a readout.
	DefaultReadoutBase = "https://kor.swarm.ostuda.net/"

	// ReadoutPath is appended to the readout base to build the dump URL.
	ReadoutPath = "dump.html"

	// ReadoutQueryKey carries the encoded press table.
	ReadoutQueryKey = "table"
)

// Codec errors
var (
	ErrMalformedTable = errors.New("malformed press table")
	ErrNotReadoutURL  = errors.New("not a readout URL")
)

// tableEncoding is RFC 4648 base64url without padding.
var tableEncoding = base64.RawURLEncoding

// PackRecords packs each record as [checkpoint][elapsed, 24-bit big-endian].
// Elapsed times above MaxElapsedMs saturate.
func PackRecords(records []PressRecord) []byte {
	out := make([]byte, 0, len(records)*RecordSize)
	for _, r := range records {
		ms := SaturateElapsed(r.ElapsedMs)
		out = append(out, byte(r.Checkpoint), byte(ms>>16), byte(ms>>8), byte(ms))
	}
	return out
}

// UnpackRecords is the inverse of PackRecords.
func UnpackRecords(data []byte) ([]PressRecord, error) {
	if len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformedTable, len(data), RecordSize)
	}

	records := make([]PressRecord, 0, len(data)/RecordSize)
	for i := 0; i < len(data); i += RecordSize {
		records = append(records, PressRecord{
			Checkpoint: CheckpointID(data[i]),
			ElapsedMs:  uint32(data[i+1])<<16 | uint32(data[i+2])<<8 | uint32(data[i+3]),
		})
	}
	return records, nil
}

// EncodeTable packs records and encodes them as unpadded base64url.
// An empty slice encodes to "".
func EncodeTable(records []PressRecord) string {
	if len(records) == 0 {
		return ""
	}
	return tableEncoding.EncodeToString(PackRecords(records))
}

// DecodeTable is the inverse of EncodeTable.
func DecodeTable(table string) ([]PressRecord, error) {
	if table == "" {
		return []PressRecord{}, nil
	}
	data, err := tableEncoding.DecodeString(table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}
	return UnpackRecords(data)
}

// ReadoutURL builds the dump URL for records under base.
func ReadoutURL(base string, records []PressRecord) string {
	return base + ReadoutPath + "?" + ReadoutQueryKey + "=" + EncodeTable(records)
}

// ParseReadoutURL extracts the press table from a dump URL built by
// ReadoutURL with the same base.
func ParseReadoutURL(base, raw string) ([]PressRecord, error) {
	if !strings.HasPrefix(raw, base+ReadoutPath) {
		return nil, fmt.Errorf("%w: %q", ErrNotReadoutURL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReadoutURL, err)
	}

	values := u.Query()
	if !values.Has(ReadoutQueryKey) {
		return nil, fmt.Errorf("%w: missing %s parameter", ErrNotReadoutURL, ReadoutQueryKey)
	}
	return DecodeTable(values.Get(ReadoutQueryKey))
}
