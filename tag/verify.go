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

package tag

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/go-kor/internal/transport"
	"github.com/ZaparooProject/go-kor/log"
)

// VerifyConfig holds configuration for read-back verification of writes
type VerifyConfig struct {
	// RetryDelay specifies delay between retry attempts
	RetryDelay time.Duration

	// SettleDelay is waited after a write before reading the page back
	SettleDelay time.Duration

	// Retries specifies max number of rewrites on verification failure
	Retries int
}

// DefaultVerifyConfig returns default verification configuration
func DefaultVerifyConfig() VerifyConfig {
	return VerifyConfig{
		Retries:     3,
		RetryDelay:  50 * time.Millisecond,
		SettleDelay: 10 * time.Millisecond,
	}
}

// VerifiedWriter wraps a PageDevice and reads every written page back,
// rewriting it until the contents match or retries run out.
type VerifiedWriter struct {
	dev PageDevice
	log *zap.Logger
	cfg VerifyConfig
}

// NewVerifiedWriter creates a verifying wrapper around dev.
func NewVerifiedWriter(dev PageDevice, cfg VerifyConfig, logger *zap.Logger) *VerifiedWriter {
	return &VerifiedWriter{dev: dev, cfg: cfg, log: log.OrDefault(logger, "tag")}
}

// ReadPage reads from the wrapped device unchanged.
func (v *VerifiedWriter) ReadPage(ctx context.Context, page uint8) ([]byte, error) {
	return v.dev.ReadPage(ctx, page)
}

// WritePage writes data and confirms it by reading the page back.
func (v *VerifiedWriter) WritePage(ctx context.Context, page uint8, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("%w: expected %d, got %d", ErrInvalidPageSize, PageSize, len(data))
	}

	cfg := transport.RetryConfig{
		Description: fmt.Sprintf("verified write of page %d", page),
		MaxRetries:  v.cfg.Retries,
		RetryDelay:  v.cfg.RetryDelay,
		OnRetry: func(attempt int, cause error) error {
			v.log.Debug("retrying page write", zap.Uint8("page", page), zap.Int("attempt", attempt), zap.Error(cause))
			return nil
		},
	}

	_, err := transport.WithRetry(ctx, cfg, func() (struct{}, bool, error) {
		if err := v.dev.WritePage(ctx, page, data); err != nil {
			return struct{}{}, true, err
		}

		if err := transport.Sleep(ctx, v.cfg.SettleDelay); err != nil {
			return struct{}{}, false, err
		}

		readBack, err := v.dev.ReadPage(ctx, page)
		if err != nil {
			return struct{}{}, true, err
		}
		if len(readBack) < PageSize || !bytes.Equal(data, readBack[:PageSize]) {
			return struct{}{}, true, ErrVerifyMismatch
		}
		return struct{}{}, false, nil
	})
	return err
}
