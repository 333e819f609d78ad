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

import (
	"fmt"
	"time"
)

const (
	// PressLogCapacity is the maximum number of records kept per attempt.
	PressLogCapacity = 100

	// MaxElapsedMs is the largest elapsed time a record can carry (24 bits,
	// about 4h39m).
	MaxElapsedMs = 0xFFFFFF
)

// PressRecord is one checkpoint press of the current attempt.
type PressRecord struct {
	Checkpoint CheckpointID
	ElapsedMs  uint32
}

// NewPressRecord builds a record with elapsedMs saturated to MaxElapsedMs.
func NewPressRecord(id CheckpointID, elapsedMs uint32) PressRecord {
	return PressRecord{Checkpoint: id, ElapsedMs: SaturateElapsed(elapsedMs)}
}

// SaturateElapsed clamps ms to the 24-bit range.
func SaturateElapsed(ms uint32) uint32 {
	if ms > MaxElapsedMs {
		return MaxElapsedMs
	}
	return ms
}

// ElapsedSince converts the time between start and now to saturated
// milliseconds. A now before start yields 0.
func ElapsedSince(start, now time.Time) uint32 {
	d := now.Sub(start).Milliseconds()
	if d <= 0 {
		return 0
	}
	if d > MaxElapsedMs {
		return MaxElapsedMs
	}
	return uint32(d)
}

// Elapsed returns the record's elapsed time as a duration.
func (r PressRecord) Elapsed() time.Duration {
	return time.Duration(r.ElapsedMs) * time.Millisecond
}

// String formats the record as "KOR03 +1:02.250".
func (r PressRecord) String() string {
	ms := r.ElapsedMs
	return fmt.Sprintf("%s +%d:%02d.%03d", r.Checkpoint, ms/60000, (ms/1000)%60, ms%1000)
}

// PressLog is the ordered, bounded list of presses of one race attempt.
// Insertion order is chronological order.
type PressLog struct {
	records []PressRecord
}

// NewPressLog returns an empty log with room for PressLogCapacity records.
func NewPressLog() *PressLog {
	return &PressLog{records: make([]PressRecord, 0, PressLogCapacity)}
}

// Append adds r to the log. When the log is full the record is dropped and
// Append returns false.
func (l *PressLog) Append(r PressRecord) bool {
	if len(l.records) >= PressLogCapacity {
		return false
	}
	r.ElapsedMs = SaturateElapsed(r.ElapsedMs)
	l.records = append(l.records, r)
	return true
}

// Clear empties the log, keeping its storage.
func (l *PressLog) Clear() {
	l.records = l.records[:0]
}

// Len returns the number of records.
func (l *PressLog) Len() int {
	return len(l.records)
}

// Cap returns the log capacity.
func (*PressLog) Cap() int {
	return PressLogCapacity
}

// Full reports whether further appends will be dropped.
func (l *PressLog) Full() bool {
	return len(l.records) >= PressLogCapacity
}

// At returns the i-th record. It panics if i is out of range.
func (l *PressLog) At(i int) PressRecord {
	return l.records[i]
}

// Last returns the most recent record and false when the log is empty.
func (l *PressLog) Last() (PressRecord, bool) {
	if len(l.records) == 0 {
		return PressRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

// Records returns a copy of the records in log order.
func (l *PressLog) Records() []PressRecord {
	out := make([]PressRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Encode returns the log in its URL-safe table form.
func (l *PressLog) Encode() string {
	return EncodeTable(l.records)
}
