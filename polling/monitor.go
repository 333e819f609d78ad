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

// Package polling watches a PN532 reader for presented tags and runs one
// handler per new tag.
package polling

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/go-kor/internal/transport"
	"github.com/ZaparooProject/go-kor/log"
	"github.com/ZaparooProject/go-kor/pn532"
	"github.com/ZaparooProject/go-kor/tag"
)

// Reader is the part of a PN532 device the monitor drives
type Reader interface {
	tag.PageDevice
	DetectTag(ctx context.Context) (*pn532.Target, error)
	InRelease(ctx context.Context) error
}

// Handler runs once per newly presented tag. Returning ErrStop ends Run.
type Handler func(ctx context.Context, target *pn532.Target, dev tag.PageDevice) error

// Metrics tracks operational counters of a Monitor
type Metrics struct {
	PollCycles    int64
	PollErrors    int64
	CardsDetected int64
	HandlerErrors int64
}

// Monitor handles continuous card monitoring with state machine. It is
// driven by a single goroutine calling Run.
type Monitor struct {
	reader         Reader
	config         *Config
	handler        Handler
	log            *zap.Logger
	now            func() time.Time
	OnCardDetected func(target *pn532.Target)
	OnCardRemoved  func(uid string)
	state          CardState
	pollCycles     atomic.Int64
	pollErrors     atomic.Int64
	cardsDetected  atomic.Int64
	handlerErrors  atomic.Int64
	errStreak      int
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithLogger sets the monitor logger
func WithLogger(logger *zap.Logger) MonitorOption {
	return func(m *Monitor) {
		m.log = logger
	}
}

// WithClock replaces time.Now for state timestamps
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		m.now = now
	}
}

// NewMonitor creates a new card monitor. A nil config uses DefaultConfig.
func NewMonitor(reader Reader, config *Config, handler Handler, opts ...MonitorOption) (*Monitor, error) {
	if reader == nil || handler == nil {
		return nil, errors.New("reader and handler are required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid poll config: %w", err)
	}

	m := &Monitor{
		reader:  reader,
		config:  config,
		handler: handler,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = log.OrDefault(m.log, "polling")
	return m, nil
}

// GetState returns the current card state
func (m *Monitor) GetState() CardState {
	return m.state
}

// Metrics returns a snapshot of the counters. It is safe to call while
// Run is active.
func (m *Monitor) Metrics() Metrics {
	return Metrics{
		PollCycles:    m.pollCycles.Load(),
		PollErrors:    m.pollErrors.Load(),
		CardsDetected: m.cardsDetected.Load(),
		HandlerErrors: m.handlerErrors.Load(),
	}
}

// Run polls until ctx is done, the handler returns ErrStop, or the reader
// fails permanently
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		handled, err := m.poll(ctx)
		if errors.Is(err, ErrStop) {
			return nil
		}
		if err != nil {
			return err
		}

		wait := m.config.PollInterval
		if handled && m.config.Cooldown > 0 {
			m.log.Debug("cooldown", zap.Duration("duration", m.config.Cooldown))
			wait = m.config.Cooldown
		}
		if err := transport.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// poll runs one detection cycle. It reports whether a tag was handled.
func (m *Monitor) poll(ctx context.Context) (bool, error) {
	m.pollCycles.Add(1)

	target, err := m.reader.DetectTag(ctx)
	switch {
	case errors.Is(err, pn532.ErrNoTagDetected):
		m.errStreak = 0
		m.handleCardRemoval()
		return false, nil
	case err != nil:
		return false, m.handlePollingError(ctx, err)
	}
	m.errStreak = 0

	uid := target.UIDString()
	if !m.state.IsNew(uid) {
		m.state.Seen(m.now())
		return false, nil
	}

	if m.state.Present {
		m.handleCardRemoval()
	}
	m.state.TransitionToDetected(uid, m.now())
	m.cardsDetected.Add(1)
	m.log.Info("tag detected", zap.String("uid", uid))
	if m.OnCardDetected != nil {
		m.OnCardDetected(target)
	}

	herr := m.handler(ctx, target, m.reader)
	m.state.TransitionToHandled(m.now())
	if rerr := m.reader.InRelease(ctx); rerr != nil {
		m.log.Debug("release failed", zap.Error(rerr))
	}

	switch {
	case errors.Is(herr, ErrStop):
		return true, ErrStop
	case herr != nil:
		m.handlerErrors.Add(1)
		m.log.Warn("tag handler failed", zap.String("uid", uid), zap.Error(herr))
	}
	return true, nil
}

// handlePollingError decides whether a failed poll ends Run
func (m *Monitor) handlePollingError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	m.pollErrors.Add(1)
	m.errStreak++

	// A reader error also means the tag can no longer be trusted to be
	// the one we handled.
	m.handleCardRemoval()

	if errors.Is(err, pn532.ErrTransportClosed) || errors.Is(err, pn532.ErrDeviceNotFound) {
		return fmt.Errorf("reader lost: %w", err)
	}
	if m.config.MaxConsecutiveErrors > 0 && m.errStreak >= m.config.MaxConsecutiveErrors {
		return fmt.Errorf("%d consecutive poll errors: %w", m.errStreak, err)
	}
	m.log.Warn("poll failed",
		zap.Error(err),
		zap.Bool("retryable", pn532.IsRetryable(err)),
		zap.Int("streak", m.errStreak))
	return nil
}

// handleCardRemoval handles card removal state changes
func (m *Monitor) handleCardRemoval() {
	if !m.state.Present {
		return
	}
	uid := m.state.LastUID
	m.log.Debug("tag removed", zap.String("uid", uid))
	if m.OnCardRemoved != nil {
		m.OnCardRemoved(uid)
	}
	m.state.TransitionToIdle()
}

// HandleNextTag polls until one tag is presented, runs fn on it and
// returns fn's error
func HandleNextTag(ctx context.Context, reader Reader, config *Config, fn Handler, opts ...MonitorOption) error {
	var result error
	m, err := NewMonitor(reader, config, func(ctx context.Context, target *pn532.Target, dev tag.PageDevice) error {
		result = fn(ctx, target, dev)
		return ErrStop
	}, opts...)
	if err != nil {
		return err
	}
	if err := m.Run(ctx); err != nil {
		return err
	}
	return result
}
