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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPressLogAppend(t *testing.T) {
	t.Parallel()

	l := NewPressLog()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, PressLogCapacity, l.Cap())

	for i := 0; i < PressLogCapacity; i++ {
		assert.True(t, l.Append(NewPressRecord(CheckpointID(i%99), uint32(i))))
	}
	assert.True(t, l.Full())

	// Appends past capacity are dropped without disturbing existing records.
	assert.False(t, l.Append(NewPressRecord(FinishCheckpoint, 1)))
	assert.Equal(t, PressLogCapacity, l.Len())
	last, ok := l.Last()
	assert.True(t, ok)
	assert.Equal(t, uint32(PressLogCapacity-1), last.ElapsedMs)
}

func TestPressLogClearKeepsStorage(t *testing.T) {
	t.Parallel()

	l := NewPressLog()
	l.Append(NewPressRecord(StartCheckpoint, 0))
	l.Append(NewPressRecord(1, 1000))
	l.Clear()

	assert.Equal(t, 0, l.Len())
	_, ok := l.Last()
	assert.False(t, ok)
	assert.Equal(t, "", l.Encode())

	l.Append(NewPressRecord(StartCheckpoint, 0))
	assert.Equal(t, 1, l.Len())
}

func TestPressLogRecordsIsCopy(t *testing.T) {
	t.Parallel()

	l := NewPressLog()
	l.Append(NewPressRecord(StartCheckpoint, 0))
	records := l.Records()
	records[0].Checkpoint = 42

	assert.Equal(t, StartCheckpoint, l.At(0).Checkpoint)
}

func TestPressLogAppendSaturates(t *testing.T) {
	t.Parallel()

	l := NewPressLog()
	l.Append(PressRecord{Checkpoint: 3, ElapsedMs: 0x2000000})
	assert.Equal(t, uint32(MaxElapsedMs), l.At(0).ElapsedMs)
}

func TestElapsedSince(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		now  time.Time
		name string
		want uint32
	}{
		{name: "same instant", now: start, want: 0},
		{name: "clock went backwards", now: start.Add(-time.Second), want: 0},
		{name: "one minute", now: start.Add(time.Minute + 250*time.Millisecond), want: 60250},
		{name: "saturates", now: start.Add(5 * time.Hour), want: MaxElapsedMs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ElapsedSince(start, tt.now))
		})
	}
}

func TestPressRecordString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "KOR00 +0:00.000", NewPressRecord(StartCheckpoint, 0).String())
	assert.Equal(t, "KOR03 +1:02.250", NewPressRecord(3, 62250).String())
	assert.Equal(t, "KOR99 +61:01.005", NewPressRecord(FinishCheckpoint, 3661005).String())
}

func TestCheckpointEvent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Start{CourseLength: 7}, CheckpointEvent(StartCheckpoint, 7))
	assert.Equal(t, Visit{ID: 12}, CheckpointEvent(12, 0))
	assert.Equal(t, Finish{}, CheckpointEvent(FinishCheckpoint, 0))

	assert.True(t, CheckpointID(1).IsControl())
	assert.True(t, CheckpointID(98).IsControl())
	assert.False(t, StartCheckpoint.IsControl())
	assert.False(t, FinishCheckpoint.IsControl())
	assert.Equal(t, "KOR07", CheckpointID(7).String())
}
