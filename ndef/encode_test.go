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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kor "github.com/ZaparooProject/go-kor"
)

func TestEncodeURI(t *testing.T) {
	t.Parallel()

	got := EncodeURI("https://kor.swarm.ostuda.net/")
	want := append([]byte{0x03, 0x1A, 0xD1, 0x01, 0x16, 'U', URICodeHTTPS}, "kor.swarm.ostuda.net/"...)
	want = append(want, TLVTerminator)
	assert.Equal(t, want, got)

	got = EncodeURI("http://a.b")
	assert.Equal(t, []byte{0x03, 0x08, 0xD1, 0x01, 0x04, 'U', URICodeHTTP, 'a', '.', 'b', 0xFE}, got)

	got = EncodeURI("tel:123")
	assert.Equal(t, []byte{0x03, 0x0C, 0xD1, 0x01, 0x08, 'U', URICodeNone, 't', 'e', 'l', ':', '1', '2', '3', 0xFE}, got)
}

func TestEncodeURILengths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		restLen    int
		header     byte
		longTLV    bool
		recordSize int
	}{
		{name: "empty remainder", restLen: 0, header: HeaderShortWellKnown, recordSize: 5},
		{name: "largest short TLV", restLen: 249, header: HeaderShortWellKnown, recordSize: 254},
		{name: "smallest long TLV", restLen: 250, header: HeaderShortWellKnown, longTLV: true, recordSize: 255},
		{name: "largest short record", restLen: 254, header: HeaderShortWellKnown, longTLV: true, recordSize: 259},
		{name: "long record", restLen: 255, header: HeaderLongWellKnown, longTLV: true, recordSize: 263},
		{name: "long record with long URI", restLen: 800, header: HeaderLongWellKnown, longTLV: true, recordSize: 808},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			url := "https://" + strings.Repeat("a", tt.restLen)
			buf := EncodeURI(url)

			require.Equal(t, byte(TLVMessage), buf[0])
			assert.Equal(t, byte(TLVTerminator), buf[len(buf)-1])

			c := NewCursor(buf[1:])
			length := 0
			if tt.longTLV {
				assert.True(t, c.Expect(0xFF))
				v, ok := c.Uint16()
				require.True(t, ok)
				length = int(v)
			} else {
				b, ok := c.Byte()
				require.True(t, ok)
				length = int(b)
			}
			assert.Equal(t, tt.recordSize, length)
			assert.Equal(t, length, c.Remaining()-1, "record must end right before the terminator")

			header, _ := c.Peek(0)
			assert.Equal(t, tt.header, header)

			body, err := MessageTLV(buf)
			require.NoError(t, err)
			assert.Len(t, body, tt.recordSize)
		})
	}
}

func TestEncodeURIDecodesBack(t *testing.T) {
	t.Parallel()

	for _, url := range []string{
		kor.DefaultReadoutBase,
		"http://example.com/",
		"mailto:someone@example.com",
		"https://" + strings.Repeat("x", 120),
	} {
		got, ok := ExtractURI(EncodeURI(url))
		assert.True(t, ok, url)
		assert.Equal(t, url, got)
	}
}

func TestExtractURIAcrossLengthForms(t *testing.T) {
	t.Parallel()

	// 249 is the last one byte TLV, 255 the first long record.
	for n := 249; n <= 256; n++ {
		url := "https://" + strings.Repeat("x", n)
		got, ok := ExtractURI(EncodeURI(url))
		require.True(t, ok, "suffix length %d", n)
		assert.Equal(t, url, got, "suffix length %d", n)
	}
}

func TestEncodeURIMessageLimit(t *testing.T) {
	t.Parallel()

	// Long record header (7) plus identifier code (1) fills 0xFFFF exactly.
	largest := EncodeURI("https://" + strings.Repeat("x", 0xFFFF-8))
	require.NotNil(t, largest)
	body, err := MessageTLV(largest)
	require.NoError(t, err)
	assert.Len(t, body, 0xFFFF)

	assert.Nil(t, EncodeURI("https://"+strings.Repeat("x", 0xFFFF-7)))
}

func TestEncodeCheckpoint(t *testing.T) {
	t.Parallel()

	got, err := EncodeCheckpoint(5, 0)
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "03 0C D1 01 08 54 02 65 6E 4B 4F 52 30 35 FE"), got)

	tests := []struct {
		want         kor.Event
		name         string
		id           kor.CheckpointID
		courseLength uint8
	}{
		{name: "start", id: kor.StartCheckpoint, want: kor.Start{}},
		{name: "start with course", id: kor.StartCheckpoint, courseLength: 3, want: kor.Start{CourseLength: 3}},
		{name: "start with long course", id: kor.StartCheckpoint, courseLength: 98, want: kor.Start{CourseLength: 98}},
		{name: "control", id: 17, want: kor.Visit{ID: 17}},
		{name: "finish", id: kor.FinishCheckpoint, want: kor.Finish{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf, err := EncodeCheckpoint(tt.id, tt.courseLength)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Decode(buf))
		})
	}
}

func TestEncodeCheckpointErrors(t *testing.T) {
	t.Parallel()

	_, err := EncodeCheckpoint(100, 0)
	require.ErrorIs(t, err, ErrInvalidCheckpoint)

	_, err = EncodeCheckpoint(4, 3)
	require.ErrorIs(t, err, ErrInvalidCheckpoint)

	_, err = EncodeCheckpoint(kor.StartCheckpoint, 99)
	require.ErrorIs(t, err, ErrInvalidCheckpoint)
}
