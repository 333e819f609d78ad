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

package pn532

import (
	"context"
	"sync"
	"time"
)

// ResponseFunc answers one command on a MockTransport
type ResponseFunc func(cmd byte, args []byte) ([]byte, error)

// MockTransport is an in-memory Transport for tests and dry runs. Each
// command is answered by Responder; Block makes commands wait until
// Unblock, Close or context cancellation.
type MockTransport struct {
	Responder ResponseFunc
	blockChan chan struct{}
	calls     []byte
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
	blocked   bool
}

// NewMockTransport returns a connected mock answering with fn
func NewMockTransport(fn ResponseFunc) *MockTransport {
	return &MockTransport{
		Responder: fn,
		blockChan: make(chan struct{}),
		timeout:   time.Second,
	}
}

// SendCommand answers through Responder
func (m *MockTransport) SendCommand(ctx context.Context, cmd byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, NewTransportError("SendCommand", "mock", ErrTransportClosed, ErrorTypePermanent)
	}
	m.calls = append(m.calls, cmd)
	blocked, blockChan, timeout, fn := m.blocked, m.blockChan, m.timeout, m.Responder
	m.mu.Unlock()

	if blocked {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-blockChan:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, NewTimeoutError("SendCommand", "mock")
		}
		if !m.IsConnected() {
			return nil, NewTransportError("SendCommand", "mock", ErrTransportClosed, ErrorTypePermanent)
		}
	}

	if fn == nil {
		return nil, NewTransportError("SendCommand", "mock", ErrNoACK, ErrorTypeTransient)
	}
	return fn(cmd, args)
}

// Block makes subsequent commands wait
func (m *MockTransport) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked = true
}

// Unblock releases waiting commands and stops blocking new ones
func (m *MockTransport) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blocked && !m.closed {
		close(m.blockChan)
		m.blockChan = make(chan struct{})
	}
	m.blocked = false
}

// Calls returns the command codes sent so far
func (m *MockTransport) Calls() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.calls...)
}

// Close unblocks all operations and marks transport as closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.blockChan)
	}
	return nil
}

// SetTimeout configures how long a blocked command waits
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected reports whether Close has not been called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}
