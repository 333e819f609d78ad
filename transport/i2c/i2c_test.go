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

package i2c

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-kor/internal/frame"
	testutil "github.com/ZaparooProject/go-kor/internal/testing"
	"github.com/ZaparooProject/go-kor/pn532"
)

// fakeBus answers like a PN532 behind an I2C bus: every read starts with
// the ready byte, followed by the next queued frame
type fakeBus struct {
	reader    *testutil.Reader
	queue     [][]byte
	last      []byte
	busyReads int
	corrupt   int
	nacks     int
	mu        sync.Mutex
	silent    bool
}

func (b *fakeBus) Tx(w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w != nil {
		return b.write(w)
	}

	for i := range r {
		r[i] = 0
	}
	if len(b.queue) == 0 || b.busyReads > 0 {
		if b.busyReads > 0 {
			b.busyReads--
		}
		return nil
	}
	r[0] = pn532Ready
	copy(r[1:], b.queue[0])
	b.queue = b.queue[1:]
	return nil
}

func (b *fakeBus) write(w []byte) error {
	if bytes.Equal(w, frame.NackFrame) {
		b.nacks++
		b.push()
		return nil
	}
	if b.silent {
		return nil
	}
	res, err := b.reader.Respond(w[6], w[7:len(w)-2])
	if err != nil {
		return err
	}
	b.last = frame.BuildResponse(res)
	b.queue = append(b.queue, frame.AckFrame)
	b.push()
	return nil
}

func (b *fakeBus) push() {
	if b.corrupt == 0 {
		b.queue = append(b.queue, b.last)
		return
	}
	b.corrupt--
	bad := append([]byte(nil), b.last...)
	bad[len(bad)-2] ^= 0xFF
	b.queue = append(b.queue, bad)
}

func TestI2CContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	transport := newTransport(&fakeBus{reader: testutil.NewReader(nil)}, "fake")
	_, err := transport.SendCommand(ctx, 0x02, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestI2CSendCommand(t *testing.T) {
	t.Parallel()

	b := &fakeBus{reader: testutil.NewReader(nil), busyReads: 3}
	transport := newTransport(b, "fake")

	res, err := transport.SendCommand(context.Background(), 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildFirmwareVersionResponse(), res)
	assert.Equal(t, pn532.TransportI2C, transport.Type())
}

func TestI2CDevice(t *testing.T) {
	t.Parallel()

	vt := testutil.NewVirtualNTAG215(nil)
	transport := newTransport(&fakeBus{reader: testutil.NewReader(vt)}, "fake")
	device, err := pn532.New(transport)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, device.Init(ctx))
	page, err := device.ReadPage(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, byte(0x3E), page[2])
}

func TestI2CNackRecovery(t *testing.T) {
	t.Parallel()

	b := &fakeBus{reader: testutil.NewReader(nil), corrupt: 1}
	transport := newTransport(b, "fake")

	res, err := transport.SendCommand(context.Background(), 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, testutil.BuildFirmwareVersionResponse(), res)
	assert.Equal(t, 1, b.nacks)
}

func TestI2CNoAck(t *testing.T) {
	t.Parallel()

	transport := newTransport(&fakeBus{reader: testutil.NewReader(nil), silent: true}, "fake")
	require.NoError(t, transport.SetTimeout(20*time.Millisecond))

	_, err := transport.SendCommand(context.Background(), 0x02, nil)
	require.ErrorIs(t, err, pn532.ErrNoACK)
	assert.True(t, pn532.IsRetryable(err))
}

func TestI2CClose(t *testing.T) {
	t.Parallel()

	closed := false
	transport := newTransport(&fakeBus{}, "fake")
	transport.closer = func() error {
		closed = true
		return errors.New("bus busy")
	}

	require.Error(t, transport.Close())
	assert.True(t, closed)
	assert.False(t, transport.IsConnected())
	require.NoError(t, transport.Close())

	_, err := transport.SendCommand(context.Background(), 0x02, nil)
	require.ErrorIs(t, err, pn532.ErrTransportClosed)
}
