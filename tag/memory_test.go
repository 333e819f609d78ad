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

package tag

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-kor/internal/testing"
)

var errRF = errors.New("rf field lost")

func TestReadUserMemory(t *testing.T) {
	t.Parallel()

	vt := testutil.NewVirtualNTAG213(nil)
	content := bytes.Repeat([]byte{0xAB}, 10)
	vt.SetUserMemory(content)

	buf, err := ReadUserMemory(context.Background(), vt, NTAG213)
	require.NoError(t, err)
	require.Len(t, buf, 144)
	assert.Equal(t, content, buf[:10])
	assert.Equal(t, make([]byte, 134), buf[10:])

	reads, _ := vt.Stats()
	assert.Equal(t, 36, reads)
}

func TestReadUserMemoryTruncatesOnFailure(t *testing.T) {
	t.Parallel()

	vt := testutil.NewVirtualNTAG213(nil)
	vt.FailReadAt(7, errRF)

	buf, err := ReadUserMemory(context.Background(), vt, NTAG213)
	require.ErrorIs(t, err, errRF)
	assert.Len(t, buf, 3*PageSize, "pages 4-6 are kept")
	assert.Equal(t, []byte{0x03, 0x00, 0xFE, 0x00}, buf[:PageSize])
}

func TestReadUserMemoryCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, err := ReadUserMemory(ctx, testutil.NewVirtualNTAG213(nil), NTAG213)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, buf)
}

func TestWriteUserMemory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		layout    Layout
		newTag    func([]byte) *testutil.VirtualTag
		size      int
		wantPages int
		wantErr   error
	}{
		{name: "single partial page", layout: NTAG213, newTag: testutil.NewVirtualNTAG213, size: 3, wantPages: 1},
		{name: "exact pages", layout: NTAG213, newTag: testutil.NewVirtualNTAG213, size: 16, wantPages: 4},
		{name: "full NTAG213", layout: NTAG213, newTag: testutil.NewVirtualNTAG213, size: 144, wantPages: 36},
		{
			name: "overflow NTAG213", layout: NTAG213, newTag: testutil.NewVirtualNTAG213,
			size: 145, wantPages: 36, wantErr: ErrCapacityExceeded,
		},
		{name: "fits NTAG215", layout: NTAG215, newTag: testutil.NewVirtualNTAG215, size: 400, wantPages: 100},
		{name: "fits NTAG216", layout: NTAG216, newTag: testutil.NewVirtualNTAG216, size: 888, wantPages: 222},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			vt := tt.newTag(nil)
			data := make([]byte, tt.size)
			for i := range data {
				data[i] = byte(i + 1)
			}

			err := WriteUserMemory(context.Background(), vt, tt.layout, data)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			_, writes := vt.Stats()
			assert.Equal(t, tt.wantPages, writes)

			mem := vt.UserMemory()
			n := min(tt.size, tt.layout.UserBytes())
			assert.Equal(t, data[:n], mem[:n])
		})
	}
}

func TestWriteUserMemoryPadsLastPage(t *testing.T) {
	t.Parallel()

	vt := testutil.NewVirtualNTAG213(nil)
	vt.SetUserMemory(bytes.Repeat([]byte{0xFF}, 8))

	require.NoError(t, WriteUserMemory(context.Background(), vt, NTAG213, []byte{0x03, 0x01, 0x00, 0xFE, 0x11}))
	assert.Equal(t, []byte{0x03, 0x01, 0x00, 0xFE, 0x11, 0x00, 0x00, 0x00}, vt.UserMemory()[:8])
}

func TestWriteUserMemoryPageFailure(t *testing.T) {
	t.Parallel()

	vt := testutil.NewVirtualNTAG213(nil)
	vt.FailWriteAt(5, errRF)

	err := WriteUserMemory(context.Background(), vt, NTAG213, make([]byte, 20))
	require.ErrorIs(t, err, errRF)
	assert.Contains(t, err.Error(), "page 5")

	_, writes := vt.Stats()
	assert.Equal(t, 1, writes)
}
