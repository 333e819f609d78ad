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

// CheckpointID identifies a course checkpoint.
type CheckpointID uint8

const (
	// StartCheckpoint is the id of the start tag.
	StartCheckpoint CheckpointID = 0
	// FirstControl is the lowest control id.
	FirstControl CheckpointID = 1
	// LastControl is the highest control id.
	LastControl CheckpointID = 98
	// FinishCheckpoint is the id of the finish tag.
	FinishCheckpoint CheckpointID = 99
)

// CheckpointMarker is the literal prefix of a checkpoint Text record.
const CheckpointMarker = "KOR"

// IsControl reports whether id is a control between start and finish.
func (id CheckpointID) IsControl() bool {
	return id >= FirstControl && id <= LastControl
}

// Valid reports whether id fits the two-digit checkpoint range.
func (id CheckpointID) Valid() bool {
	return id <= FinishCheckpoint
}

// String returns the tag text for id, e.g. "KOR07".
func (id CheckpointID) String() string {
	return fmt.Sprintf("%s%02d", CheckpointMarker, uint8(id))
}

// ValidCourseLength reports whether n can be used as a course length.
func ValidCourseLength(n uint8) bool {
	return n >= uint8(FirstControl) && n <= uint8(LastControl)
}
