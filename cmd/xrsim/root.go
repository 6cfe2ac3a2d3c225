// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config   string
	LogLevel levelFlag
	Format   string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of xrsim.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "xrsim",
		Short: "Simulate a head-mounted display session",
		Long: `xrsim runs the xr session driver against a scripted runtime with a
software graphics context. Session state changes, hand poses and
trigger values come from the configuration file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "configuration file (.yaml, .yml, .json, .jsonc)")
	cmd.PersistentFlags().Var(&opts.LogLevel, "log-level", "override the configured log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// load reads the configuration and installs its logger.
func (o *RootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		var err error
		if cfg, err = config.Load(o.Config); err != nil {
			return nil, err
		}
	}
	if o.LogLevel != "" {
		cfg.Log.Level = string(o.LogLevel)
	}
	xr.SetLogger(cfg.Logger(cmd.ErrOrStderr()))
	return cfg, nil
}

// levelFlag is a log level checked when the flag is parsed.
type levelFlag string

var _ pflag.Value = (*levelFlag)(nil)

func (l *levelFlag) String() string { return string(*l) }
func (l *levelFlag) Type() string   { return "level" }

func (l *levelFlag) Set(s string) error {
	switch s {
	case "debug", "info", "warn", "error":
		*l = levelFlag(s)
		return nil
	}
	return fmt.Errorf("unknown log level %q", s)
}
