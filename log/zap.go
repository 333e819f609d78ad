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

// Package log holds the process-wide zap logger used by the station and
// its command line tools.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

var Logger = zap.NewNop()

// Options configures the logger built by New.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Filter is a zapfilter rule string of LEVEL:NAMESPACE pairs such as
	// "info+:* debug:race". Empty means no filtering beyond Level.
	Filter string
	// Development switches to the console encoder with colored levels.
	Development bool
}

func InitProductionLogger() {
	Logger, _ = zap.NewProduction()
}

func InitDevelopmentLogger() {
	Logger, _ = zap.NewDevelopment()
}

// Default returns the process-wide logger. It is a no-op logger until one
// of the Init functions or Init is called.
func Default() *zap.Logger {
	return Logger
}

// Init builds a logger from opts and installs it as the default.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// New builds a logger writing to stderr.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var encoder zapcore.Encoder
	if opts.Development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core, err := filterCore(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level), opts.Filter)
	if err != nil {
		return nil, err
	}
	return zap.New(core, zap.AddCaller()), nil
}

// filterCore wraps core with the zapfilter rules, or returns it unchanged
// when rules is empty
func filterCore(core zapcore.Core, rules string) (zapcore.Core, error) {
	if rules == "" {
		return core, nil
	}
	filter, err := zapfilter.ParseRules(rules)
	if err != nil {
		return nil, fmt.Errorf("invalid log filter %q: %w", rules, err)
	}
	return zapfilter.NewFilteringCore(core, filter), nil
}

// OrDefault returns l, or a named child of the default logger when l is nil.
func OrDefault(l *zap.Logger, name string) *zap.Logger {
	if l != nil {
		return l
	}
	return Default().Named(name)
}
