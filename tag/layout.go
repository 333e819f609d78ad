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
	"context"
	"fmt"
)

const (
	// FirstUserPage is the first page of user memory on every NTAG21x.
	FirstUserPage uint8 = 4
	// CapabilityContainerPage holds the NDEF capability container.
	CapabilityContainerPage uint8 = 3

	ccMagic = 0xE1
)

// Layout describes where user memory lives on a tag type.
type Layout struct {
	Name string
	// TotalPages is the number of pages including configuration pages.
	TotalPages    int
	FirstUserPage uint8
	LastUserPage  uint8
	// ccSize is the data area size advertised in the capability
	// container, in units of 8 bytes.
	ccSize byte
}

var (
	NTAG213 = Layout{Name: "NTAG213", TotalPages: 45, FirstUserPage: FirstUserPage, LastUserPage: 39, ccSize: 0x12}
	NTAG215 = Layout{Name: "NTAG215", TotalPages: 135, FirstUserPage: FirstUserPage, LastUserPage: 129, ccSize: 0x3E}
	NTAG216 = Layout{Name: "NTAG216", TotalPages: 231, FirstUserPage: FirstUserPage, LastUserPage: 225, ccSize: 0x6D}
)

// Layouts lists the supported tag types, smallest first.
var Layouts = []Layout{NTAG213, NTAG215, NTAG216}

// UserPages returns the number of user memory pages.
func (l Layout) UserPages() int {
	return int(l.LastUserPage) - int(l.FirstUserPage) + 1
}

// UserBytes returns the user memory size in bytes.
func (l Layout) UserBytes() int {
	return l.UserPages() * PageSize
}

// CapabilityContainer returns the page 3 contents of a freshly formatted
// tag of this type: NDEF mapping version 1.0, read/write access.
func (l Layout) CapabilityContainer() []byte {
	return []byte{ccMagic, 0x10, l.ccSize, 0x00}
}

func (l Layout) String() string {
	return fmt.Sprintf("%s (%d bytes user memory)", l.Name, l.UserBytes())
}

// LayoutForPages selects a layout by the total number of pages.
func LayoutForPages(total int) (Layout, bool) {
	for _, l := range Layouts {
		if l.TotalPages == total {
			return l, true
		}
	}
	return Layout{}, false
}

// LayoutByName selects a layout by its name, e.g. "NTAG215".
func LayoutByName(name string) (Layout, bool) {
	for _, l := range Layouts {
		if l.Name == name {
			return l, true
		}
	}
	return Layout{}, false
}

// LayoutForCapabilityContainer selects a layout from the data area size in
// a capability container page.
func LayoutForCapabilityContainer(cc []byte) (Layout, bool) {
	if len(cc) < PageSize || cc[0] != ccMagic {
		return Layout{}, false
	}
	for _, l := range Layouts {
		if l.ccSize == cc[2] {
			return l, true
		}
	}
	return Layout{}, false
}

// DetectLayout reads the capability container of the tag in the field.
// Tags with an unrecognized container fall back to NTAG213, the smallest
// layout, together with ErrUnknownLayout.
func DetectLayout(ctx context.Context, r PageReader) (Layout, error) {
	cc, err := r.ReadPage(ctx, CapabilityContainerPage)
	if err != nil {
		return NTAG213, fmt.Errorf("failed to read capability container: %w", err)
	}
	if l, ok := LayoutForCapabilityContainer(cc); ok {
		return l, nil
	}
	return NTAG213, fmt.Errorf("%w: CC % X", ErrUnknownLayout, cc[:min(len(cc), PageSize)])
}
