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

package ndef

import "strings"

// URI identifier codes understood by the decoder.
const (
	URICodeNone     byte = 0x00
	URICodeHTTPWWW  byte = 0x01
	URICodeHTTPSWWW byte = 0x02
	URICodeHTTP     byte = 0x03
	URICodeHTTPS    byte = 0x04
	URICodeTel      byte = 0x05
	URICodeMailto   byte = 0x06
)

var uriPrefixes = [...]string{
	URICodeNone:     "",
	URICodeHTTPWWW:  "http://www.",
	URICodeHTTPSWWW: "https://www.",
	URICodeHTTP:     "http://",
	URICodeHTTPS:    "https://",
	URICodeTel:      "tel:",
	URICodeMailto:   "mailto:",
}

// URIPrefix returns the expansion of an identifier code. Unknown codes
// expand to nothing.
func URIPrefix(code byte) string {
	if int(code) >= len(uriPrefixes) {
		return ""
	}
	return uriPrefixes[code]
}

// SplitURI picks the identifier code used when writing url and returns the
// remainder stored in the record. Only the https:// and http:// schemes
// are abbreviated.
func SplitURI(url string) (code byte, rest string) {
	switch {
	case strings.HasPrefix(url, "https://"):
		return URICodeHTTPS, url[len("https://"):]
	case strings.HasPrefix(url, "http://"):
		return URICodeHTTP, url[len("http://"):]
	default:
		return URICodeNone, url
	}
}
