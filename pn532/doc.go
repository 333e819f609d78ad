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
Package pn532 drives a PN532 NFC controller far enough to run a KOR
checkpoint station: find an NTAG21x in the field and read or write its
4-byte pages.

Features:
  - UART and I2C transports (see transport/uart and transport/i2c)
  - ISO14443A target detection with UID, ATQA and SAK
  - NTAG READ and WRITE through InDataExchange
  - Retries of transient transport failures
  - Typed transport and status errors

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-kor/pn532"
	    "github.com/ZaparooProject/go-kor/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    return err
	}
	defer transport.Close()

	device, err := pn532.New(transport, pn532.WithTimeout(time.Second))
	if err != nil {
	    return err
	}
	if err := device.Init(ctx); err != nil {
	    return err
	}

	target, err := device.DetectTag(ctx)
	if errors.Is(err, pn532.ErrNoTagDetected) {
	    // field is empty
	}

	page, err := device.ReadPage(ctx, 4)

Device implements tag.PageDevice, so the tag package and the race
station can read and write user memory through it.

Error Handling:

Transport failures are *TransportError values; IsRetryable and
GetErrorType classify any error. A non-zero PN532 status byte is a
*StatusError that matches ErrCommandFailed.

	if errors.Is(err, pn532.ErrTransportTimeout) {
	    // Handle timeout
	}

Thread Safety:

Device operations are not thread-safe. If you need concurrent access,
implement appropriate synchronization in your application.
*/
package pn532
