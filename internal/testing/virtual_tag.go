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

package testing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
)

const pageSize = 4

var (
	ErrTagNotPresent  = errors.New("tag not present")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrWriteProtected = errors.New("page is write protected")
)

// VirtualTag represents a simulated NTAG21x tag for testing. It is safe
// for concurrent use.
type VirtualTag struct {
	failRead  map[uint8]error
	failWrite map[uint8]error
	Type      string
	UID       []byte
	pages     [][pageSize]byte
	reads     int
	writes    int
	corrupt   int
	mu        sync.Mutex
	present   bool
}

// NewVirtualNTAG213 creates a blank, formatted virtual NTAG213 tag
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	return newVirtualNTAG("NTAG213", uid, 45, 0x12)
}

// NewVirtualNTAG215 creates a blank, formatted virtual NTAG215 tag
func NewVirtualNTAG215(uid []byte) *VirtualTag {
	return newVirtualNTAG("NTAG215", uid, 135, 0x3E)
}

// NewVirtualNTAG216 creates a blank, formatted virtual NTAG216 tag
func NewVirtualNTAG216(uid []byte) *VirtualTag {
	return newVirtualNTAG("NTAG216", uid, 231, 0x6D)
}

func newVirtualNTAG(typ string, uid []byte, totalPages int, ccSize byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}

	v := &VirtualTag{
		Type:      typ,
		UID:       append([]byte(nil), uid...),
		pages:     make([][pageSize]byte, totalPages),
		present:   true,
		failRead:  make(map[uint8]error),
		failWrite: make(map[uint8]error),
	}

	// Pages 0-2: UID, check bytes and lock bytes
	for i := 0; i < len(v.UID) && i < 2*pageSize; i++ {
		v.pages[i/pageSize][i%pageSize] = v.UID[i]
	}
	// Page 3: capability container
	v.pages[3] = [pageSize]byte{0xE1, 0x10, ccSize, 0x00}
	// Page 4: empty NDEF message
	v.pages[4] = [pageSize]byte{0x03, 0x00, 0xFE, 0x00}

	return v
}

// UIDString returns the UID as a hex string
func (v *VirtualTag) UIDString() string {
	return hex.EncodeToString(v.UID)
}

// TotalPages returns the number of pages including configuration pages.
func (v *VirtualTag) TotalPages() int {
	return len(v.pages)
}

// ReadPage returns the 4 bytes of one page.
func (v *VirtualTag) ReadPage(ctx context.Context, page uint8) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkRead(page); err != nil {
		return nil, err
	}
	v.reads++
	data := v.pages[page]
	return data[:], nil
}

// ReadBlock mimics the NTAG READ command: 16 bytes starting at page, with
// addresses past the last page rolling over to page 0.
func (v *VirtualTag) ReadBlock(page uint8) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkRead(page); err != nil {
		return nil, err
	}
	v.reads++
	out := make([]byte, 0, 4*pageSize)
	for i := 0; i < 4; i++ {
		p := (int(page) + i) % len(v.pages)
		out = append(out, v.pages[p][:]...)
	}
	return out, nil
}

// WritePage writes exactly 4 bytes to page.
func (v *VirtualTag) WritePage(ctx context.Context, page uint8, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.WriteBlock(page, data)
}

// WriteBlock is WritePage without a context, for the PN532 mock.
func (v *VirtualTag) WriteBlock(page uint8, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.present {
		return ErrTagNotPresent
	}
	if int(page) >= len(v.pages) {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	if page < 3 {
		return fmt.Errorf("%w: %d", ErrWriteProtected, page)
	}
	if err, ok := v.failWrite[page]; ok {
		return err
	}
	if len(data) != pageSize {
		return fmt.Errorf("data must be exactly %d bytes, got %d", pageSize, len(data))
	}

	v.writes++
	copy(v.pages[page][:], data)
	if v.corrupt > 0 {
		v.corrupt--
		v.pages[page][0] ^= 0xFF
	}
	return nil
}

func (v *VirtualTag) checkRead(page uint8) error {
	if !v.present {
		return ErrTagNotPresent
	}
	if int(page) >= len(v.pages) {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	if err, ok := v.failRead[page]; ok {
		return err
	}
	return nil
}

// SetUserMemory stores data from page 4 onwards and zeroes the rest of
// user memory. Data beyond user memory is dropped.
func (v *VirtualTag) SetUserMemory(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	last := v.lastUserPage()
	for p := 4; p <= last; p++ {
		v.pages[p] = [pageSize]byte{}
		off := (p - 4) * pageSize
		if off < len(data) {
			copy(v.pages[p][:], data[off:])
		}
	}
}

// UserMemory returns a copy of the user memory area.
func (v *VirtualTag) UserMemory() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	last := v.lastUserPage()
	out := make([]byte, 0, (last-3)*pageSize)
	for p := 4; p <= last; p++ {
		out = append(out, v.pages[p][:]...)
	}
	return out
}

// lastUserPage leaves the five configuration pages at the end untouched.
func (v *VirtualTag) lastUserPage() int {
	return len(v.pages) - 6
}

// FailReadAt makes reads of page fail with err until cleared with a nil err.
func (v *VirtualTag) FailReadAt(page uint8, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		delete(v.failRead, page)
		return
	}
	v.failRead[page] = err
}

// FailWriteAt makes writes to page fail with err until cleared with a nil err.
func (v *VirtualTag) FailWriteAt(page uint8, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err == nil {
		delete(v.failWrite, page)
		return
	}
	v.failWrite[page] = err
}

// CorruptNextWrites makes the next n successful writes store flipped data.
func (v *VirtualTag) CorruptNextWrites(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.corrupt = n
}

// Stats returns the number of page reads and writes served.
func (v *VirtualTag) Stats() (reads, writes int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reads, v.writes
}

// Present reports whether the tag is in the field.
func (v *VirtualTag) Present() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.present
}

// Remove takes the tag out of the field
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
}

// Insert puts the tag back into the field
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
}
