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

// Package tag reads and writes the user memory of NFC Forum Type 2 tags
// (NTAG213/215/216) one 4-byte page at a time.
package tag

import (
	"context"
	"errors"
)

// PageSize is the size of one Type 2 tag page in bytes.
const PageSize = 4

var (
	// ErrCapacityExceeded is returned when data does not fit the user
	// memory of a tag. The pages that fit have been written.
	ErrCapacityExceeded = errors.New("data exceeds tag user memory")
	ErrInvalidPageSize  = errors.New("invalid page size")
	ErrVerifyMismatch   = errors.New("write verification failed: data mismatch")
	ErrUnknownLayout    = errors.New("unknown tag memory layout")
)

// PageReader reads one page from a tag.
type PageReader interface {
	// ReadPage returns at least PageSize bytes starting at page. Only the
	// first PageSize bytes are used.
	ReadPage(ctx context.Context, page uint8) ([]byte, error)
}

// PageWriter writes one page to a tag.
type PageWriter interface {
	// WritePage writes exactly PageSize bytes to page.
	WritePage(ctx context.Context, page uint8, data []byte) error
}

// PageDevice reads and writes pages of the tag currently in the field.
type PageDevice interface {
	PageReader
	PageWriter
}
