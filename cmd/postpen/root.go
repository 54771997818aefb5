// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Postpen Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/postpen/postpen/internal/config"
)

// NewRootCmd creates the root command for the Postpen CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postpen",
		Short: "Postpen - account and session backend",
		Long: `Postpen serves user accounts over a JSON API: registration,
login with cookie sessions, the current user and the user list.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (default: XDG_CONFIG_HOME/postpen/config.yaml)")

	cmd.AddCommand(NewServeCmd(nil))
	cmd.AddCommand(NewMigrateCmd(nil))
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig reads the configuration for cmd, honoring --config and the
// configuration flags registered on cmd, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path = ""
	}
	//nolint:wrapcheck // config errors carry their own oops codes
	return config.Load(path, cmd.Flags())
}
