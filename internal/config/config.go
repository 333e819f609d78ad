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

// Package config holds the station settings resolved from flags, the
// config file and the environment
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"

	kor "github.com/ZaparooProject/go-kor"
	"github.com/ZaparooProject/go-kor/log"
	"github.com/ZaparooProject/go-kor/polling"
	"github.com/ZaparooProject/go-kor/race"
	"github.com/ZaparooProject/go-kor/tag"
)

// Transport names
const (
	TransportUART = "uart"
	TransportI2C  = "i2c"
)

// LayoutAuto reads the capability container of every tag
const LayoutAuto = "auto"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the configuration values used by the station
type Config struct {
	Device             string        // serial port or I2C bus; empty picks the first candidate
	Transport          string        // uart or i2c
	Timeout            time.Duration // reader response timeout
	PollInterval       time.Duration // pause between tag detection attempts
	Cooldown           time.Duration // pause after a handled tag
	CourseLength       uint8         // controls on the course unless the start tag overrides it
	ReadoutBase        string        // base URL of written readout links
	ReadoutPrefixMatch bool          // accept any URL under ReadoutBase as readout trigger
	Layout             string        // auto, NTAG213, NTAG215 or NTAG216
	Verify             bool          // read back every written page
	LogLevel           string        // zap level
	LogFilter          string        // zapfilter rules
	LogDevelopment     bool          // console encoder instead of JSON
}

// Default returns the station defaults
func Default() Config {
	pc := polling.DefaultConfig()
	return Config{
		Transport:    TransportUART,
		Timeout:      time.Second,
		PollInterval: pc.PollInterval,
		Cooldown:     pc.Cooldown,
		CourseLength: race.DefaultCourseLength,
		ReadoutBase:  kor.DefaultReadoutBase,
		Layout:       LayoutAuto,
		Verify:       true,
		LogLevel:     "info",
	}
}

// RegisterFlags binds the fields of c to flags on fs, using the current
// values as defaults
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Device, "device", "d", c.Device, "serial port or I2C bus of the reader (empty: first found)")
	fs.StringVarP(&c.Transport, "transport", "t", c.Transport, "reader transport: uart or i2c")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "reader response timeout")
	fs.DurationVar(&c.PollInterval, "poll-interval", c.PollInterval, "pause between tag detection attempts")
	fs.DurationVar(&c.Cooldown, "cooldown", c.Cooldown, "pause after a handled tag")
	fs.Uint8Var(&c.CourseLength, "course-length", c.CourseLength, "number of controls on the course")
	fs.StringVar(&c.ReadoutBase, "readout-base", c.ReadoutBase, "base URL of readout links")
	fs.BoolVar(&c.ReadoutPrefixMatch, "readout-prefix-match", c.ReadoutPrefixMatch,
		"treat any URL under the readout base as a readout trigger")
	fs.StringVar(&c.Layout, "layout", c.Layout, "tag layout: auto, NTAG213, NTAG215 or NTAG216")
	fs.BoolVar(&c.Verify, "verify", c.Verify, "read back written pages")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFilter, "log-filter", c.LogFilter, `zapfilter LEVEL:NAMESPACE rules, e.g. "info+:* debug:race"`)
	fs.BoolVar(&c.LogDevelopment, "log-dev", c.LogDevelopment, "human readable log output")
}

// Validate checks c and returns every problem found
func (c Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportUART, TransportI2C:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig))
	}
	if err := c.PollConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if !kor.ValidCourseLength(c.CourseLength) {
		errs = append(errs, fmt.Errorf("%w: course length %d outside 1-98", ErrInvalidConfig, c.CourseLength))
	}
	if u, err := url.Parse(c.ReadoutBase); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%w: readout base %q is not an absolute URL", ErrInvalidConfig, c.ReadoutBase))
	} else if !strings.HasSuffix(c.ReadoutBase, "/") {
		errs = append(errs, fmt.Errorf("%w: readout base %q must end with /", ErrInvalidConfig, c.ReadoutBase))
	}
	if _, _, err := c.TagLayout(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TagLayout returns the configured layout and whether it should be
// detected per tag. With auto detection NTAG213 is the fallback.
func (c Config) TagLayout() (tag.Layout, bool, error) {
	if c.Layout == "" || strings.EqualFold(c.Layout, LayoutAuto) {
		return tag.NTAG213, true, nil
	}
	l, ok := tag.LayoutByName(c.Layout)
	if !ok {
		return tag.Layout{}, false, fmt.Errorf("%w: unknown tag layout %q", ErrInvalidConfig, c.Layout)
	}
	return l, false, nil
}

// PollConfig returns the polling timing
func (c Config) PollConfig() *polling.Config {
	pc := polling.DefaultConfig()
	pc.PollInterval = c.PollInterval
	pc.Cooldown = c.Cooldown
	return pc
}

// LogOptions returns the logger settings
func (c Config) LogOptions() log.Options {
	return log.Options{Level: c.LogLevel, Filter: c.LogFilter, Development: c.LogDevelopment}
}
