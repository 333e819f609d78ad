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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorBounds(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{0x03, 0x12, 0x34, '7'})

	b, ok := c.Byte()
	assert.True(t, ok)
	assert.Equal(t, byte(0x03), b)

	v, ok := c.Uint16()
	assert.True(t, ok)
	assert.Equal(t, uint16(0x1234), v)

	d, ok := c.Digit()
	assert.True(t, ok)
	assert.Equal(t, uint8(7), d)

	assert.Equal(t, 0, c.Remaining())
	_, ok = c.Byte()
	assert.False(t, ok)
	_, ok = c.Uint16()
	assert.False(t, ok)
	assert.False(t, c.Skip(1))
	assert.True(t, c.Skip(0))
	assert.Equal(t, 4, c.Offset())
}

func TestCursorFailedReadKeepsPosition(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte("KOx"))
	assert.False(t, c.Expect('K', 'O', 'R'))
	assert.Equal(t, 0, c.Offset())

	_, ok := c.Bytes(4)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Offset())

	_, ok = c.Digit()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Offset())

	assert.True(t, c.Expect('K', 'O'))
	assert.Equal(t, 2, c.Offset())
}

func TestCursorAt(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{1, 2, 3})

	b, ok := c.At(2).Byte()
	assert.True(t, ok)
	assert.Equal(t, byte(3), b)

	assert.Equal(t, 0, c.At(10).Remaining())
	assert.Equal(t, 0, c.At(-1).Remaining())
	assert.Equal(t, 0, c.Offset(), "At must not move the original cursor")

	_, ok = c.Peek(-1)
	assert.False(t, ok)
	assert.False(t, c.Has(-1))
}
