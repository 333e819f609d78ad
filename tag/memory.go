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

// ReadUserMemory reads the user memory of a tag page by page. A failed page
// read stops the read; the pages read so far are returned together with
// the error so callers can still decode a partial image.
func ReadUserMemory(ctx context.Context, r PageReader, layout Layout) ([]byte, error) {
	buf := make([]byte, 0, layout.UserBytes())

	for page := int(layout.FirstUserPage); page <= int(layout.LastUserPage); page++ {
		if err := ctx.Err(); err != nil {
			return buf, err
		}

		data, err := r.ReadPage(ctx, uint8(page))
		if err != nil {
			return buf, fmt.Errorf("failed to read page %d: %w", page, err)
		}
		if len(data) < PageSize {
			return buf, fmt.Errorf("%w: page %d returned %d bytes", ErrInvalidPageSize, page, len(data))
		}
		buf = append(buf, data[:PageSize]...)
	}

	return buf, nil
}

// WriteUserMemory writes data from the first user page onwards, padding the
// last page with zeros. When data is larger than the user memory the pages
// that fit are written and ErrCapacityExceeded is returned.
func WriteUserMemory(ctx context.Context, w PageWriter, layout Layout, data []byte) error {
	pages := (len(data) + PageSize - 1) / PageSize
	var capErr error
	if pages > layout.UserPages() {
		capErr = fmt.Errorf("%w: %d bytes, %s holds %d", ErrCapacityExceeded, len(data), layout.Name, layout.UserBytes())
		pages = layout.UserPages()
	}

	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk := make([]byte, PageSize)
		copy(chunk, data[i*PageSize:])

		page := int(layout.FirstUserPage) + i
		if err := w.WritePage(ctx, uint8(page), chunk); err != nil {
			return fmt.Errorf("failed to write page %d: %w", page, err)
		}
	}

	return capErr
}
