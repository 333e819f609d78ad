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

package race

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	kor "github.com/ZaparooProject/go-kor"
)

// Summary describes a press table against a course.
type Summary struct {
	// Visited lists the distinct controls punched, in first-punch order.
	Visited []kor.CheckpointID
	// Missing lists the course controls never punched.
	Missing []kor.CheckpointID
	// Elapsed is the time of the last press.
	Elapsed      uint32
	Presses      int
	CourseLength uint8
	Started      bool
	Finished     bool
}

// Summarize evaluates records, as stored in a press log or decoded from a
// readout URL, against a course of courseLength controls.
func Summarize(records []kor.PressRecord, courseLength uint8) Summary {
	ids := lo.Map(records, func(r kor.PressRecord, _ int) kor.CheckpointID { return r.Checkpoint })
	controls := lo.Uniq(lo.Filter(ids, func(id kor.CheckpointID, _ int) bool { return id.IsControl() }))
	course := lo.RangeFrom(kor.FirstControl, int(courseLength))

	s := Summary{
		Visited:      controls,
		Missing:      lo.Without(course, controls...),
		Presses:      len(records),
		CourseLength: courseLength,
		Started:      len(records) > 0 && records[0].Checkpoint == kor.StartCheckpoint,
		Finished:     lo.Contains(ids, kor.FinishCheckpoint),
	}
	if len(records) > 0 {
		s.Elapsed = records[len(records)-1].ElapsedMs
	}
	return s
}

// FormatTable renders records one per line, e.g. " 2. KOR03 +1:02.250".
func FormatTable(records []kor.PressRecord) string {
	if len(records) == 0 {
		return "(no presses)"
	}
	width := len(fmt.Sprint(len(records)))
	lines := lo.Map(records, func(r kor.PressRecord, i int) string {
		return fmt.Sprintf("%*d. %s", width, i+1, r)
	})
	return strings.Join(lines, "\n")
}
