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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ZaparooProject/go-kor/internal/config"
	"github.com/ZaparooProject/go-kor/log"
)

const envPrefix = "KOR"

// app carries the settings shared by all subcommands
type app struct {
	cfgFile string
	cfg     config.Config
}

// newRootCmd builds the command tree. Settings resolve in the order flag,
// environment (KOR_COURSE_LENGTH), config file, default.
func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}
	rootCmd := &cobra.Command{
		Use:           "korstation",
		Short:         "Checkpoint station for KOR orienteering tags",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.initConfig(cmd)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return log.Init(a.cfg.LogOptions())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"config file (default is $HOME/.korstation.yaml)")
	a.cfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(a.newRunCmd())
	rootCmd.AddCommand(a.newProgramCmd())
	rootCmd.AddCommand(a.newDecodeCmd())
	rootCmd.AddCommand(a.newInspectCmd())
	rootCmd.AddCommand(newPortsCmd())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func (a *app) initConfig(cmd *cobra.Command) {
	v := viper.New()
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".korstation")
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		_, _ = fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}

	bindFlags(cmd, v)
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --course-length to KOR_COURSE_LENGTH
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v\n", f.Name, err)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Could not set flag value for %s: %v\n", f.Name, err)
			}
		}
	})
}
