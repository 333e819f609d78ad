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

package polling

import (
	"errors"
	"time"
)

// CardDetectionState represents the finite state machine for card detection
type CardDetectionState int

const (
	// StateIdle means no tag is in the field
	StateIdle CardDetectionState = iota
	// StateTagDetected means a new tag is in the field and is being handled
	StateTagDetected
	// StateHandled means the tag in the field has been handled and is
	// ignored until it leaves
	StateHandled
)

func (s CardDetectionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTagDetected:
		return "detected"
	case StateHandled:
		return "handled"
	default:
		return "unknown"
	}
}

// CardState tracks the state of a card on a reader
type CardState struct {
	LastSeenTime   time.Time
	HandledTime    time.Time
	LastUID        string
	DetectionState CardDetectionState
	Present        bool
}

// ErrStop is returned by a Handler to end Monitor.Run without an error
var ErrStop = errors.New("stop polling")

// TransitionToDetected records a newly presented tag
func (cs *CardState) TransitionToDetected(uid string, now time.Time) {
	cs.DetectionState = StateTagDetected
	cs.Present = true
	cs.LastUID = uid
	cs.LastSeenTime = now
	cs.HandledTime = time.Time{}
}

// TransitionToHandled marks the present tag as done
func (cs *CardState) TransitionToHandled(now time.Time) {
	cs.DetectionState = StateHandled
	cs.HandledTime = now
}

// TransitionToIdle resets to idle state
func (cs *CardState) TransitionToIdle() {
	*cs = CardState{}
}

// Seen refreshes the presence of the current tag
func (cs *CardState) Seen(now time.Time) {
	cs.LastSeenTime = now
}

// IsNew reports whether uid should be handled: nothing was in the field,
// or a different tag replaced the handled one
func (cs *CardState) IsNew(uid string) bool {
	return !cs.Present || cs.LastUID != uid
}
