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

// Cursor reads bytes from a buffer without ever indexing past its end.
// Every accessor reports ok=false instead of reading out of range, and a
// failed read leaves the position unchanged.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// At returns a cursor over the same buffer positioned at off. A negative
// off or one beyond the end yields a cursor with nothing remaining.
func (c *Cursor) At(off int) *Cursor {
	if off < 0 || off > len(c.buf) {
		off = len(c.buf)
	}
	return &Cursor{buf: c.buf, pos: off}
}

// Offset returns the current position.
func (c *Cursor) Offset() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Has reports whether at least n bytes remain.
func (c *Cursor) Has(n int) bool {
	return n >= 0 && n <= c.Remaining()
}

// Peek returns the byte n positions ahead without consuming it.
func (c *Cursor) Peek(n int) (byte, bool) {
	if n < 0 || !c.Has(n+1) {
		return 0, false
	}
	return c.buf[c.pos+n], true
}

// Byte consumes one byte.
func (c *Cursor) Byte() (byte, bool) {
	b, ok := c.Peek(0)
	if ok {
		c.pos++
	}
	return b, ok
}

// Uint16 consumes a big-endian 16-bit value.
func (c *Cursor) Uint16() (uint16, bool) {
	b, ok := c.Bytes(2)
	if !ok {
		return 0, false
	}
	return uint16(b[0])<<8 | uint16(b[1]), true
}

// Bytes consumes n bytes. The returned slice aliases the buffer.
func (c *Cursor) Bytes(n int) ([]byte, bool) {
	if !c.Has(n) {
		return nil, false
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, true
}

// Skip advances n bytes.
func (c *Cursor) Skip(n int) bool {
	if !c.Has(n) {
		return false
	}
	c.pos += n
	return true
}

// Expect consumes len(want) bytes if they equal want.
func (c *Cursor) Expect(want ...byte) bool {
	if !c.Has(len(want)) {
		return false
	}
	for i, b := range want {
		if c.buf[c.pos+i] != b {
			return false
		}
	}
	c.pos += len(want)
	return true
}

// Digit consumes one ASCII decimal digit and returns its value.
func (c *Cursor) Digit() (uint8, bool) {
	b, ok := c.Peek(0)
	if !ok || b < '0' || b > '9' {
		return 0, false
	}
	c.pos++
	return b - '0', true
}
