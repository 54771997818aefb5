// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/postpen/postpen/internal/config"
	"github.com/postpen/postpen/internal/xdg"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	var write, validate bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration that serve would use, after applying the config
file, flags and environment. Secrets are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if validate {
				if err := cfg.Validate(); err != nil {
					return err //nolint:wrapcheck // already a CONFIG_INVALID oops error
				}
			}

			if !write {
				out, err := cfg.YAML()
				if err != nil {
					return err //nolint:wrapcheck // already a CONFIG_DUMP_FAILED oops error
				}
				cmd.Print(string(out))
				return nil
			}

			out, err := cfg.FileYAML()
			if err != nil {
				return err //nolint:wrapcheck // already a CONFIG_DUMP_FAILED oops error
			}
			path, err := writeDefaultConfig(out)
			if err != nil {
				return err
			}
			cmd.Println("Wrote " + path)
			return nil
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&write, "write", false, "write to the XDG config file instead of stdout (fails if it exists)")
	cmd.Flags().BoolVar(&validate, "validate", false, "fail if the configuration is not servable")
	return cmd
}

// writeDefaultConfig creates the XDG config file with content.
func writeDefaultConfig(content []byte) (string, error) {
	path, err := xdg.ConfigFile()
	if err != nil {
		return "", err //nolint:wrapcheck // xdg errors carry their own oops codes
	}
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err //nolint:wrapcheck // xdg errors carry their own oops codes
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	if err := f.Close(); err != nil {
		return "", oops.Code("CONFIG_WRITE_FAILED").With("path", path).Wrap(err)
	}
	return path, nil
}
