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

package testing

import (
	"fmt"
	"sync"
)

// Command bytes for reference
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
	CmdInRelease           = 0x52

	ntagRead  = 0x30
	ntagWrite = 0xA2

	// StatusTimeout is the PN532 status for a target that did not answer
	StatusTimeout = 0x01
)

// TestNTAG213UID is a sample NTAG213 UID
var TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

// Response data below is what a transport returns after frame decoding:
// it starts at the response code, without the D5 TFI byte.

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response
func BuildFirmwareVersionResponse() []byte {
	// IC, Ver, Rev, Support: PN532 v1.6, supports ISO14443A/B
	return []byte{0x03, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{0x15}
}

// BuildRFConfigurationResponse creates an RFConfiguration response
func BuildRFConfigurationResponse() []byte {
	return []byte{0x33}
}

// BuildTagDetectionResponse creates an InListPassiveTarget response for one
// NTAG21x target
func BuildTagDetectionResponse(uid []byte) []byte {
	response := []byte{0x4B, 0x01, 0x01}
	// ATQA, SAK, UID length and UID
	response = append(response, 0x00, 0x44, 0x00, byte(len(uid)))
	return append(response, uid...)
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{0x4B, 0x00}
}

// BuildDataExchangeResponse creates a successful InDataExchange response
func BuildDataExchangeResponse(data []byte) []byte {
	response := []byte{0x41, 0x00}
	return append(response, data...)
}

// BuildErrorResponse creates a response carrying a status byte
func BuildErrorResponse(cmd, status byte) []byte {
	return []byte{cmd + 1, status}
}

// Reader simulates a PN532 with at most one NTAG in its field. It answers
// commands the way the chip does after frame decoding.
type Reader struct {
	tag      *VirtualTag
	commands []byte
	mu       sync.Mutex
}

// NewReader returns a simulated reader holding tag, which may be nil
func NewReader(tag *VirtualTag) *Reader {
	return &Reader{tag: tag}
}

// SetTag places tag in the field; nil empties it
func (r *Reader) SetTag(tag *VirtualTag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tag = tag
}

// Commands returns the command codes received so far
func (r *Reader) Commands() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.commands...)
}

// Respond answers one command
func (r *Reader) Respond(cmd byte, args []byte) ([]byte, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	tag := r.tag
	r.mu.Unlock()

	switch cmd {
	case CmdGetFirmwareVersion:
		return BuildFirmwareVersionResponse(), nil
	case CmdSAMConfiguration:
		return BuildSAMConfigurationResponse(), nil
	case CmdRFConfiguration:
		return BuildRFConfigurationResponse(), nil
	case CmdInListPassiveTarget:
		if tag == nil || !tag.Present() {
			return BuildNoTagResponse(), nil
		}
		return BuildTagDetectionResponse(tag.UID), nil
	case CmdInRelease:
		return []byte{cmd + 1, 0x00}, nil
	case CmdInDataExchange:
		return r.dataExchange(tag, args), nil
	default:
		return nil, fmt.Errorf("simulated reader: unsupported command 0x%02X", cmd)
	}
}

func (*Reader) dataExchange(tag *VirtualTag, args []byte) []byte {
	// Tg, tag command, page, data...
	if tag == nil || len(args) < 3 {
		return BuildErrorResponse(CmdInDataExchange, StatusTimeout)
	}

	switch args[1] {
	case ntagRead:
		data, err := tag.ReadBlock(args[2])
		if err != nil {
			return BuildErrorResponse(CmdInDataExchange, StatusTimeout)
		}
		return BuildDataExchangeResponse(data)
	case ntagWrite:
		if err := tag.WriteBlock(args[2], args[3:]); err != nil {
			return BuildErrorResponse(CmdInDataExchange, StatusTimeout)
		}
		return BuildDataExchangeResponse(nil)
	default:
		return BuildErrorResponse(CmdInDataExchange, StatusTimeout)
	}
}
