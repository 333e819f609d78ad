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

// Package detection finds serial ports that may have a PN532 reader
// attached.
package detection

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.bug.st/serial/enumerator"
)

// Port is a candidate serial port
type Port struct {
	Path         string
	VIDPID       string
	Product      string
	SerialNumber string
	// Bridge names the USB serial chip when VIDPID is a known PN532 board
	Bridge string
	IsUSB  bool
}

// Options filters the listed ports
type Options struct {
	// Blocklist holds VID:PID pairs that must never be opened
	Blocklist []string
	// IgnorePaths holds device paths to skip
	IgnorePaths []string
	// KnownOnly keeps only USB bridges found on PN532 boards
	KnownOnly bool
}

// DefaultOptions lists every USB serial port not in DefaultBlocklist
func DefaultOptions() Options {
	return Options{Blocklist: DefaultBlocklist()}
}

// knownBridges are USB serial chips used on common PN532 breakout boards
var knownBridges = map[string]string{
	"1A86:7523": "CH340",
	"1A86:55D4": "CH9102",
	"10C4:EA60": "CP210x",
	"0403:6001": "FT232R",
	"067B:2303": "PL2303",
}

// DefaultBlocklist returns devices that misbehave when probed. Format is
// VID:PID in hexadecimal.
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets on open
		"2341:0001",
	}
}

// ListSerialPorts enumerates serial ports and applies opts. Ports are
// sorted with known bridges first.
func ListSerialPorts(opts Options) ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return filterPorts(details, opts), nil
}

func filterPorts(details []*enumerator.PortDetails, opts Options) []Port {
	ports := lo.FilterMap(details, func(d *enumerator.PortDetails, _ int) (Port, bool) {
		if d == nil || IsPathIgnored(d.Name, opts.IgnorePaths) {
			return Port{}, false
		}
		p := Port{
			Path:         d.Name,
			Product:      d.Product,
			SerialNumber: d.SerialNumber,
			IsUSB:        d.IsUSB,
		}
		if d.IsUSB {
			p.VIDPID = ParseVIDPID(d.VID + ":" + d.PID)
			p.Bridge = knownBridges[p.VIDPID]
		}
		if p.VIDPID != "" && IsBlocked(p.VIDPID, opts.Blocklist) {
			return Port{}, false
		}
		if opts.KnownOnly && p.Bridge == "" {
			return Port{}, false
		}
		return p, true
	})

	sort.SliceStable(ports, func(i, j int) bool {
		if (ports[i].Bridge != "") != (ports[j].Bridge != "") {
			return ports[i].Bridge != ""
		}
		return ports[i].Path < ports[j].Path
	})
	return ports
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = ParseVIDPID(vidpid)
	if vidpid == "" {
		return false
	}
	return lo.ContainsBy(blocklist, func(blocked string) bool {
		return ParseVIDPID(blocked) == vidpid
	})
}

// ParseVIDPID normalizes "1a86:7523" style identifiers to upper case with
// four digits on each side. It returns "" for anything else.
func ParseVIDPID(s string) string {
	vid, pid, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return ""
	}
	vid, pid = normalizeHex(vid), normalizeHex(pid)
	if vid == "" || pid == "" {
		return ""
	}
	return vid + ":" + pid
}

func normalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if s == "" || len(s) > 4 {
		return ""
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return ""
		}
	}
	return strings.Repeat("0", 4-len(s)) + s
}

// IsPathIgnored checks if a device path should be ignored. Paths are
// compared after cleaning and case folding.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	normalized := normalizedPath(devicePath)
	return lo.ContainsBy(ignorePaths, func(p string) bool {
		return p != "" && normalizedPath(p) == normalized
	})
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
