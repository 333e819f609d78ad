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

package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-kor/tag"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, TransportUART, c.Transport)
	assert.Equal(t, uint8(10), c.CourseLength)
	assert.True(t, c.Verify)

	pc := c.PollConfig()
	assert.Equal(t, 500*time.Millisecond, pc.PollInterval)
	assert.Equal(t, 5*time.Second, pc.Cooldown)
	assert.Equal(t, 20, pc.MaxConsecutiveErrors)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{name: "unknown transport", modify: func(c *Config) { c.Transport = "spi" }, errMsg: `unknown transport "spi"`},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, errMsg: "timeout must be positive"},
		{name: "zero poll interval", modify: func(c *Config) { c.PollInterval = 0 }, errMsg: "poll interval"},
		{name: "negative cooldown", modify: func(c *Config) { c.Cooldown = -time.Second }, errMsg: "cooldown"},
		{name: "course length zero", modify: func(c *Config) { c.CourseLength = 0 }, errMsg: "course length 0"},
		{name: "course length 99", modify: func(c *Config) { c.CourseLength = 99 }, errMsg: "course length 99"},
		{name: "relative readout base", modify: func(c *Config) { c.ReadoutBase = "/dump" }, errMsg: "not an absolute URL"},
		{
			name:   "readout base without slash",
			modify: func(c *Config) { c.ReadoutBase = "https://example.com/kor" },
			errMsg: "must end with /",
		},
		{name: "unknown layout", modify: func(c *Config) { c.Layout = "MIFARE1K" }, errMsg: `unknown tag layout "MIFARE1K"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Default()
			tt.modify(&c)
			err := c.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	c := Default()
	c.Transport = ""
	c.CourseLength = 0
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
	assert.Contains(t, err.Error(), "course length")
}

func TestTagLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		layout string
		want   tag.Layout
		detect bool
	}{
		{name: "empty", layout: "", want: tag.NTAG213, detect: true},
		{name: "auto", layout: "AUTO", want: tag.NTAG213, detect: true},
		{name: "fixed", layout: "NTAG215", want: tag.NTAG215},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Default()
			c.Layout = tt.layout
			got, detect, err := c.TagLayout()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.detect, detect)
		})
	}
}

func TestRegisterFlags(t *testing.T) {
	t.Parallel()

	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.RegisterFlags(fs)

	err := fs.Parse([]string{
		"-t", "i2c",
		"--device", "/dev/i2c-1",
		"--course-length", "12",
		"--cooldown", "2s",
		"--layout", "NTAG216",
		"--verify=false",
		"--log-filter", "warn+:* debug:race",
	})
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, TransportI2C, c.Transport)
	assert.Equal(t, "/dev/i2c-1", c.Device)
	assert.Equal(t, uint8(12), c.CourseLength)
	assert.Equal(t, 2*time.Second, c.Cooldown)
	assert.Equal(t, "NTAG216", c.Layout)
	assert.False(t, c.Verify)
	assert.Equal(t, "warn+:* debug:race", c.LogOptions().Filter)
	assert.Equal(t, "info", fs.Lookup("log-level").DefValue)
}
