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

/*
Package kor provides the data model shared by the KOR orienteering checkpoint
station: checkpoint identifiers, the events decoded from checkpoint tags, the
bounded press log kept for the current race attempt, and the compact codec
used to write that log back onto a tag as a URL.

The station itself is assembled from the sub-packages:

  - ndef: decodes checkpoint and readout tags, encodes the readout URL record
  - race: the race state machine and the Station that runs one tag cycle
  - tag: page-level access to NTAG user memory
  - pn532, transport/uart, transport/i2c: the PN532 reader
  - polling: the presence loop that drives the station

Basic Usage:

	log := kor.NewPressLog()
	log.Append(kor.NewPressRecord(kor.StartCheckpoint, 0))
	log.Append(kor.NewPressRecord(1, 61_250))

	url := kor.ReadoutURL(kor.DefaultReadoutBase, log.Records())
	// https://kor.swarm.ostuda.net/dump.html?table=AAAAAAEAAA...

	records, err := kor.ParseReadoutURL(kor.DefaultReadoutBase, url)

Checkpoint tags carry a well-known Text record "KORnn", where nn is 00 for
the start, 01-98 for controls and 99 for the finish. The start tag may also
carry a course length as "KOR00/NN".

Thread Safety:

PressLog is not safe for concurrent use. The station owns one log and
mutates it from a single control path.
*/
package kor
