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

package kor

import "fmt"

// Event is a decoded tag event. The set of implementations is closed:
// Start, Visit, Finish and ReadoutTrigger.
type Event interface {
	fmt.Stringer
	isEvent()
}

// Start is produced by the start tag. CourseLength is zero when the tag
// carries no course length override.
type Start struct {
	CourseLength uint8
}

// Visit is produced by a control tag.
type Visit struct {
	ID CheckpointID
}

// Finish is produced by the finish tag.
type Finish struct{}

// ReadoutTrigger is produced by a URI record matching the readout trigger.
type ReadoutTrigger struct {
	URL string
}

func (Start) isEvent()          {}
func (Visit) isEvent()          {}
func (Finish) isEvent()         {}
func (ReadoutTrigger) isEvent() {}

func (s Start) String() string {
	if s.CourseLength > 0 {
		return fmt.Sprintf("start (course length %d)", s.CourseLength)
	}
	return "start"
}

func (v Visit) String() string {
	return "visit " + v.ID.String()
}

func (Finish) String() string {
	return "finish"
}

func (r ReadoutTrigger) String() string {
	return "readout " + r.URL
}

// CheckpointEvent maps a checkpoint id read from a tag to its event.
// courseLength is only meaningful for the start checkpoint.
func CheckpointEvent(id CheckpointID, courseLength uint8) Event {
	switch {
	case id == StartCheckpoint:
		return Start{CourseLength: courseLength}
	case id == FinishCheckpoint:
		return Finish{}
	default:
		return Visit{ID: id}
	}
}
