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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kor "github.com/ZaparooProject/go-kor"
	testutil "github.com/ZaparooProject/go-kor/internal/testing"
	"github.com/ZaparooProject/go-kor/ndef"
	"github.com/ZaparooProject/go-kor/tag"
)

func checkpointImage(t *testing.T, id kor.CheckpointID, courseLength uint8) []byte {
	t.Helper()
	buf, err := ndef.EncodeCheckpoint(id, courseLength)
	require.NoError(t, err)
	return buf
}

func newTestStation(opts ...StationOption) *Station {
	clock := newFakeClock(time.Second)
	return NewStation(NewMachine(WithClock(clock.Now), WithCourseLength(3)), opts...)
}

func TestStationProcess(t *testing.T) {
	t.Parallel()

	s := newTestStation()

	out := s.Process(checkpointImage(t, kor.StartCheckpoint, 2))
	assert.Equal(t, kor.Start{CourseLength: 2}, out.Event)
	assert.Equal(t, Result{Valid: true, Correct: true}, out.Result)
	assert.Equal(t, SignalStart, out.Signal())
	assert.Nil(t, out.WriteBack)

	out = s.Process(checkpointImage(t, 1, 0))
	assert.Equal(t, SignalControl, out.Signal())

	out = s.Process(checkpointImage(t, 2, 0))
	assert.True(t, out.Result.Correct)

	out = s.Process(checkpointImage(t, kor.FinishCheckpoint, 0))
	assert.Equal(t, kor.Finish{}, out.Event)
	assert.Equal(t, Result{Valid: true, Correct: true}, out.Result)
	assert.Equal(t, SignalFinish, out.Signal())

	out = s.Process(checkpointImage(t, 1, 0))
	assert.Equal(t, Result{}, out.Result)
	assert.Equal(t, SignalError, out.Signal())

	out = s.Process(make([]byte, 144))
	assert.Nil(t, out.Event)
	assert.Equal(t, SignalNone, out.Signal())
}

func TestStationProcessReadout(t *testing.T) {
	t.Parallel()

	s := newTestStation()
	s.Process(checkpointImage(t, kor.StartCheckpoint, 0))
	s.Process(checkpointImage(t, 1, 0))

	out := s.Process(ndef.EncodeURI(kor.DefaultReadoutBase))
	assert.Equal(t, kor.ReadoutTrigger{URL: kor.DefaultReadoutBase}, out.Event)
	assert.Equal(t, "https://kor.swarm.ostuda.net/dump.html?table=AAAAAAEAA-g", out.ReadoutURL)
	assert.Equal(t, ndef.EncodeURI(out.ReadoutURL), out.WriteBack)
	assert.Equal(t, Result{}, out.Result)
	assert.Equal(t, Running, s.Machine().State(), "readout does not change race state")

	records, err := kor.ParseReadoutURL(kor.DefaultReadoutBase, out.ReadoutURL)
	require.NoError(t, err)
	assert.Equal(t, s.Machine().Records(), records)

	// The written image is not itself a readout trigger.
	assert.Nil(t, s.Process(out.WriteBack).Event)
}

func TestStationHandleTag(t *testing.T) {
	t.Parallel()

	s := newTestStation()
	ctx := context.Background()

	vt := testutil.NewVirtualNTAG213(nil)
	vt.SetUserMemory(checkpointImage(t, kor.StartCheckpoint, 0))
	out, err := s.HandleTag(ctx, vt)
	require.NoError(t, err)
	assert.Equal(t, SignalStart, out.Signal())

	_, writes := vt.Stats()
	assert.Equal(t, 0, writes, "checkpoint tags are never written")

	readout := testutil.NewVirtualNTAG213(nil)
	readout.SetUserMemory(ndef.EncodeURI(kor.DefaultReadoutBase))
	out, err = s.HandleTag(ctx, readout)
	require.NoError(t, err)
	assert.True(t, out.Written)
	assert.Equal(t, SignalReadout, out.Signal())

	uri, ok := ndef.ExtractURI(readout.UserMemory())
	assert.True(t, ok)
	assert.Equal(t, out.ReadoutURL, uri)
}

func TestStationHandleTagPartialRead(t *testing.T) {
	t.Parallel()

	s := newTestStation()
	vt := testutil.NewVirtualNTAG213(nil)
	vt.SetUserMemory(checkpointImage(t, kor.StartCheckpoint, 0))
	vt.FailReadAt(9, errors.New("rf lost"))

	out, err := s.HandleTag(context.Background(), vt)
	require.NoError(t, err)
	assert.Equal(t, kor.Start{}, out.Event)

	vt.FailReadAt(tag.FirstUserPage, errors.New("rf lost"))
	_, err = s.HandleTag(context.Background(), vt)
	require.Error(t, err)
}

func TestStationReadoutExceedsCapacity(t *testing.T) {
	t.Parallel()

	s := newTestStation()
	s.Process(checkpointImage(t, kor.StartCheckpoint, 0))
	for i := 0; i < 60; i++ {
		s.Process(checkpointImage(t, 1, 0))
	}

	vt := testutil.NewVirtualNTAG213(nil)
	vt.SetUserMemory(ndef.EncodeURI(kor.DefaultReadoutBase))
	out, err := s.HandleTag(context.Background(), vt)
	require.ErrorIs(t, err, tag.ErrCapacityExceeded)
	assert.False(t, out.Written)
	assert.Equal(t, SignalError, out.Signal())

	// A larger tag takes the same readout.
	big := testutil.NewVirtualNTAG216(nil)
	big.SetUserMemory(ndef.EncodeURI(kor.DefaultReadoutBase))
	s = NewStation(s.Machine(), WithLayoutDetection(true))
	out, err = s.HandleTag(context.Background(), big)
	require.NoError(t, err)
	assert.True(t, out.Written)

	// The URI no longer fits a short record.
	body, err := ndef.MessageTLV(big.UserMemory())
	require.NoError(t, err)
	require.Equal(t, byte(ndef.HeaderLongWellKnown), body[0])
	uri := ndef.URIPrefix(body[7]) + string(body[8:])
	records, err := kor.ParseReadoutURL(kor.DefaultReadoutBase, uri)
	require.NoError(t, err)
	assert.Len(t, records, 61)
}

func TestStationPrefixMatchDecoder(t *testing.T) {
	t.Parallel()

	s := newTestStation(WithDecoder(ndef.NewDecoder(ndef.WithReadoutPrefixMatch(true))))
	s.Process(checkpointImage(t, kor.StartCheckpoint, 0))

	first := s.Process(ndef.EncodeURI(kor.DefaultReadoutBase))
	require.NotNil(t, first.WriteBack)

	// With prefix matching a previously written readout triggers again.
	again := s.Process(first.WriteBack)
	assert.Equal(t, kor.ReadoutTrigger{URL: first.ReadoutURL}, again.Event)
	assert.Equal(t, first.ReadoutURL, again.ReadoutURL)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []kor.PressRecord{
		{Checkpoint: 0},
		{Checkpoint: 1, ElapsedMs: 1000},
		{Checkpoint: 3, ElapsedMs: 2000},
		{Checkpoint: 1, ElapsedMs: 2500},
		{Checkpoint: 99, ElapsedMs: 4000},
	}

	s := Summarize(records, 4)
	assert.Equal(t, []kor.CheckpointID{1, 3}, s.Visited)
	assert.Equal(t, []kor.CheckpointID{2, 4}, s.Missing)
	assert.True(t, s.Started)
	assert.True(t, s.Finished)
	assert.Equal(t, uint32(4000), s.Elapsed)
	assert.Equal(t, 5, s.Presses)

	empty := Summarize(nil, 2)
	assert.False(t, empty.Started)
	assert.False(t, empty.Finished)
	assert.Equal(t, []kor.CheckpointID{1, 2}, empty.Missing)
}

func TestFormatTable(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(no presses)", FormatTable(nil))

	records := make([]kor.PressRecord, 10)
	records[9] = kor.PressRecord{Checkpoint: 99, ElapsedMs: 62250}
	got := FormatTable(records)
	assert.Contains(t, got, " 1. KOR00 +0:00.000\n")
	assert.Contains(t, got, "10. KOR99 +1:02.250")
}
