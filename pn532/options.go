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
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTimeout sets the default timeout for device operations
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive", ErrInvalidParameter)
		}
		return d.SetTimeout(timeout)
	}
}

// WithMaxRetries sets how many times a transient transport failure is retried
func WithMaxRetries(maxRetries int) Option {
	return func(d *Device) error {
		if maxRetries < 0 {
			return fmt.Errorf("%w: max retries must not be negative", ErrInvalidParameter)
		}
		d.config.MaxRetries = maxRetries
		return nil
	}
}

// WithRetryDelay sets the pause between retries
func WithRetryDelay(delay time.Duration) Option {
	return func(d *Device) error {
		d.config.RetryDelay = delay
		return nil
	}
}

// WithLogger sets the logger used for command tracing
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) error {
		d.log = logger
		return nil
	}
}
