// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/veraison/cmdattest/command"
)

func newNonceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nonce <challenge> <command>",
		Short: "Print the nonce binding a challenge to a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), command.DeriveNonce(args[0], args[1]))
			return nil
		},
	}
}
