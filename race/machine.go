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

// Package race tracks one runner's traversal of a course: the race state
// machine, its press log, and the station that drives both from tag reads.
package race

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/log"
)

// DefaultCourseLength is the number of controls expected when no start tag
// has overridden it.
const DefaultCourseLength uint8 = 10

// State is the race state.
type State int

const (
	// Pending waits for a start tag.
	Pending State = iota
	// Running records checkpoint presses until the finish tag.
	Running
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Result reports how a checkpoint event was taken.
type Result struct {
	// Valid is true when the event was recorded in the press log.
	Valid bool
	// Correct is true when the event was in course order.
	Correct bool
}

// Machine is the race state machine. It is not safe for concurrent use.
type Machine struct {
	start        time.Time
	log          *zap.Logger
	now          func() time.Time
	presses      *kor.PressLog
	attempt      uuid.UUID
	state        State
	courseLength uint8
	next         kor.CheckpointID
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the time source used for elapsed times.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		m.log = l
	}
}

// WithCourseLength sets the initial course length. Values outside 1-98
// are ignored.
func WithCourseLength(n uint8) Option {
	return func(m *Machine) {
		if kor.ValidCourseLength(n) {
			m.courseLength = n
		}
	}
}

// NewMachine creates a machine in the Pending state with an empty log.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{
		now:          time.Now,
		presses:      kor.NewPressLog(),
		courseLength: DefaultCourseLength,
		next:         kor.FirstControl,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = log.OrDefault(m.log, "race")
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// CourseLength returns the number of controls of the current course.
func (m *Machine) CourseLength() uint8 { return m.courseLength }

// Next returns the control expected next.
func (m *Machine) Next() kor.CheckpointID { return m.next }

// Attempt identifies the current race attempt. It is the zero UUID until
// the first start.
func (m *Machine) Attempt() uuid.UUID { return m.attempt }

// StartedAt returns when the current attempt started.
func (m *Machine) StartedAt() time.Time { return m.start }

// Records returns a copy of the press log.
func (m *Machine) Records() []kor.PressRecord { return m.presses.Records() }

// Len returns the number of recorded presses.
func (m *Machine) Len() int { return m.presses.Len() }

// Table returns the press log encoded for a readout URL.
func (m *Machine) Table() string { return m.presses.Encode() }

// Apply feeds one decoded event to the machine. Readout triggers are not
// race events and are reported invalid without touching state.
func (m *Machine) Apply(ev kor.Event) Result {
	switch e := ev.(type) {
	case kor.Start:
		return m.applyStart(e)
	case kor.Visit:
		return m.applyVisit(e)
	case kor.Finish:
		return m.applyFinish()
	default:
		return Result{}
	}
}

func (m *Machine) applyStart(e kor.Start) Result {
	if m.state == Running {
		// A second start tag is recorded like any other press without
		// restarting the clock.
		m.record(kor.StartCheckpoint)
		m.log.Warn("start tag while running",
			zap.Stringer("attempt", m.attempt), zap.Int("presses", m.presses.Len()))
		return Result{Valid: true}
	}

	m.presses.Clear()
	if kor.ValidCourseLength(e.CourseLength) {
		m.courseLength = e.CourseLength
	}
	m.next = kor.FirstControl
	m.start = m.now()
	m.attempt = uuid.New()
	m.presses.Append(kor.NewPressRecord(kor.StartCheckpoint, 0))
	m.state = Running

	m.log.Info("race started",
		zap.Stringer("attempt", m.attempt), zap.Uint8("courseLength", m.courseLength))
	return Result{Valid: true, Correct: true}
}

func (m *Machine) applyVisit(e kor.Visit) Result {
	if m.state != Running {
		m.log.Info("ignoring control before start", zap.Stringer("checkpoint", e.ID))
		return Result{}
	}

	m.record(e.ID)
	correct := e.ID == m.next
	if correct {
		m.next++
	}

	m.log.Info("control punched",
		zap.Stringer("attempt", m.attempt),
		zap.Stringer("checkpoint", e.ID),
		zap.Bool("correct", correct),
		zap.Stringer("next", m.next))
	return Result{Valid: true, Correct: correct}
}

func (m *Machine) applyFinish() Result {
	if m.state != Running {
		m.log.Info("ignoring finish before start")
		return Result{}
	}

	m.record(kor.FinishCheckpoint)
	correct := int(m.next) == int(m.courseLength)+1
	m.state = Pending

	m.log.Info("race finished",
		zap.Stringer("attempt", m.attempt),
		zap.Bool("correct", correct),
		zap.Int("controlsInOrder", int(m.next)-1),
		zap.Uint8("courseLength", m.courseLength))
	return Result{Valid: true, Correct: correct}
}

func (m *Machine) record(id kor.CheckpointID) {
	elapsed := kor.ElapsedSince(m.start, m.now())
	if !m.presses.Append(kor.NewPressRecord(id, elapsed)) {
		m.log.Warn("press log full, dropping press",
			zap.Stringer("checkpoint", id), zap.Int("capacity", m.presses.Cap()))
	}
}
