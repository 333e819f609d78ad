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

package polling

import (
	"fmt"
	"time"
)

// Config holds the poll loop timing
type Config struct {
	// PollInterval is the pause between two detection attempts
	PollInterval time.Duration
	// Cooldown is the pause after a handled tag before polling resumes
	Cooldown time.Duration
	// MaxConsecutiveErrors ends Run after that many failed polls in a
	// row. Zero never gives up.
	MaxConsecutiveErrors int
}

// DefaultConfig returns the station timing: poll every 500 ms and rest
// 5 s after each handled tag
func DefaultConfig() *Config {
	return &Config{
		PollInterval:         500 * time.Millisecond,
		Cooldown:             5 * time.Second,
		MaxConsecutiveErrors: 20,
	}
}

// Validate checks the config values
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative, got %v", c.Cooldown)
	}
	if c.MaxConsecutiveErrors < 0 {
		return fmt.Errorf("max consecutive errors must not be negative, got %d", c.MaxConsecutiveErrors)
	}
	return nil
}
