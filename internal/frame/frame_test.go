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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateChecksum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want byte
	}{
		{name: "empty data", data: []byte{}, want: 0},
		{name: "single byte", data: []byte{0x42}, want: 0x42},
		{name: "overflow wraps", data: []byte{0xFF, 0x01}, want: 0x00},
		{
			name: "real frame data",
			data: []byte{0xD4, 0x03, 0x32, 0x01, 0x00, 0x6B, 0x02, 0x4A, 0x65, 0x6C, 0x6C, 0x6F},
			want: 0x6D,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CalculateChecksum(tt.data))
		})
	}
}

func TestValidateChecksum(t *testing.T) {
	t.Parallel()

	assert.False(t, ValidateChecksum([]byte{0x10, 0xF0}))
	assert.True(t, ValidateChecksum([]byte{0x10, 0x20}))
	assert.False(t, ValidateChecksum(nil))
	assert.False(t, ValidateChecksum([]byte{0xD4, 0x03, 0x29}))
}

func TestCalculateDataChecksum(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x2A), CalculateDataChecksum(HostToPn532, []byte{0x02}))
	assert.Equal(t, byte(0x2C), CalculateDataChecksum(HostToPn532, nil))
	assert.Equal(t, byte(0x26), CalculateDataChecksum(HostToPn532, []byte{0x02, 0x01, 0x03}))
}

func TestLengthChecksumProperty(t *testing.T) {
	t.Parallel()

	for i := 0; i < 256; i++ {
		length := byte(i)
		assert.Equal(t, byte(0), length+CalculateLengthChecksum(length), "length=%d", i)
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	got, err := Build(0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00}, got)

	got, err = Build(0x40, []byte{0x01, 0x30, 0x04})
	require.NoError(t, err)
	assert.Len(t, got, 5+Overhead)
	assert.False(t, ValidateChecksum(got[3:5]))
	assert.False(t, ValidateChecksum(got[5:len(got)-1]))

	_, err = Build(0x40, make([]byte, MaxCommandArgs+1))
	require.ErrorIs(t, err, ErrDataTooLarge)
}

func TestParse(t *testing.T) {
	t.Parallel()

	firmware := []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE8, 0x00}

	tests := []struct {
		wantErr  error
		name     string
		buf      []byte
		want     Frame
		consumed int
	}{
		{name: "ack", buf: AckFrame, want: Frame{Kind: KindAck}, consumed: 6},
		{name: "nack", buf: NackFrame, want: Frame{Kind: KindNack}, consumed: 6},
		{
			name:     "data",
			buf:      firmware,
			want:     Frame{Kind: KindData, Data: []byte{0x03, 0x32, 0x01, 0x06, 0x07}},
			consumed: len(firmware),
		},
		{
			name:     "leading garbage",
			buf:      append([]byte{0x55, 0x55}, firmware...),
			want:     Frame{Kind: KindData, Data: []byte{0x03, 0x32, 0x01, 0x06, 0x07}},
			consumed: len(firmware) + 2,
		},
		{
			name:     "application error",
			buf:      []byte{0x00, 0x00, 0xFF, 0x01, 0xFF, 0x7F, 0x81, 0x00},
			want:     Frame{Kind: KindError},
			consumed: 8,
		},
		{name: "no start code", buf: []byte{0x00, 0x00, 0x00}, wantErr: ErrIncomplete},
		{name: "truncated header", buf: []byte{0x00, 0x00, 0xFF, 0x06}, wantErr: ErrIncomplete},
		{name: "truncated body", buf: firmware[:9], wantErr: ErrIncomplete},
		{name: "bad length checksum", buf: []byte{0x00, 0x00, 0xFF, 0x06, 0xFB, 0xD5}, wantErr: ErrChecksumMismatch},
		{
			name:    "bad data checksum",
			buf:     []byte{0x00, 0x00, 0xFF, 0x06, 0xFA, 0xD5, 0x03, 0x32, 0x01, 0x06, 0x07, 0xE9, 0x00},
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "host frame echoed",
			buf:     []byte{0x00, 0x00, 0xFF, 0x02, 0xFE, 0xD4, 0x02, 0x2A, 0x00},
			wantErr: ErrFrameCorrupted,
		},
		{name: "extended frame", buf: []byte{0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x00, 0x02}, wantErr: ErrFrameCorrupted},
		{name: "empty frame", buf: []byte{0x00, 0x00, 0xFF, 0x00, 0x00, 0x00}, wantErr: ErrFrameCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, n, err := Parse(tt.buf)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.consumed, n)
		})
	}
}

func TestBuildResponseParses(t *testing.T) {
	t.Parallel()

	data := []byte{0x41, 0x00, 0x03, 0x0C, 0xD1, 0x01}
	got, n, err := Parse(BuildResponse(data))
	require.NoError(t, err)
	assert.Equal(t, KindData, got.Kind)
	assert.Equal(t, data, got.Data)
	assert.Equal(t, 1+len(data)+Overhead, n)
}
