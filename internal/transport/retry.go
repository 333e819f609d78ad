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

// Package transport provides internal retry utilities shared by the tag
// layer and the reader transports
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrTimeout          = errors.New("operation timed out")
)

// RetryOperation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the attempt failed transiently; err, if any, is
//   kept as the cause reported when retries run out
// - error: with shouldRetry false, a permanent error that stops retries
type RetryOperation[T any] func() (T, bool, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	// OnRetry runs before every repeated attempt with the previous cause.
	// Returning an error aborts the loop with that error.
	OnRetry     func(attempt int, cause error) error
	Description string
	MaxRetries  int
	RetryDelay  time.Duration
}

// WithRetry executes an operation with retry logic. The context is checked
// between attempts and interrupts the retry delay.
func WithRetry[T any](ctx context.Context, config RetryConfig, operation RetryOperation[T]) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			if config.OnRetry != nil {
				if err := config.OnRetry(attempt, lastErr); err != nil {
					return zero, err
				}
			}
			if err := Sleep(ctx, config.RetryDelay); err != nil {
				return zero, err
			}
		}

		result, shouldRetry, err := operation()
		if !shouldRetry {
			return result, err
		}
		lastErr = err
	}

	return zero, retriesExhausted(config, lastErr)
}

func retriesExhausted(config RetryConfig, cause error) error {
	desc := config.Description
	if desc == "" {
		desc = "operation"
	}
	if cause == nil {
		return fmt.Errorf("%s: %w after %d retries", desc, ErrRetriesExhausted, config.MaxRetries)
	}
	return fmt.Errorf("%s: %w after %d retries: %w", desc, ErrRetriesExhausted, config.MaxRetries, cause)
}

// TimeoutRetry executes an operation with timeout-based retry logic
// Common pattern for polling operations (like waiting for device ready)
func TimeoutRetry[T any](ctx context.Context, timeout, interval time.Duration, operation RetryOperation[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)
	if interval <= 0 {
		interval = time.Millisecond
	}

	for time.Now().Before(deadline) {
		result, shouldRetry, err := operation()
		if !shouldRetry {
			return result, err
		}

		if err := Sleep(ctx, interval); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %v", ErrTimeout, timeout)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
