// Copyright 2026 Contributors to the Veraison project.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	apiclient "github.com/veraison/cmdattest"
	"github.com/veraison/cmdattest/command"
	"github.com/veraison/cmdattest/integrity"
)

func newRunCmd(flags *clientFlags) *cobra.Command {
	var (
		tokenCmd string
		tick     time.Duration
		deadline time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [flags] <command> [<express command>...]",
		Short: "Run an attested command, then any further commands with the express token",
		Long: `Fetch a challenge, obtain an integrity token bound to the first command
from the token program and submit both to the verification server. Each
further command is submitted with the express token returned by the
previous successful verdict.

The token program is run with the nonce as its last argument and must print
the integrity token on standard output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			fields := strings.Fields(tokenCmd)
			if len(fields) == 0 {
				return errors.New("--token-cmd is required")
			}

			provider, err := integrity.NewExecProvider(fields[0], fields[1:]...)
			if err != nil {
				return err
			}
			provider.Logger = log.Logger

			cfg, err := flags.config(cmd.Flags())
			if err != nil {
				return err
			}

			s, err := apiclient.New(*cfg, provider)
			if err != nil {
				return err
			}
			defer closeSession(s, &err)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if err := attested(ctx, cmd.OutOrStdout(), s, args[0], tick, deadline); err != nil {
				return err
			}

			for _, c := range args[1:] {
				if r := s.BeginExpressCommand(c); r != command.ResultSuccess {
					return report(s, c)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c, s.Summary())
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&tokenCmd, "token-cmd", "", "program (and leading arguments) that prints an integrity token for a nonce")
	cmd.Flags().DurationVar(&tick, "tick", 100*time.Millisecond, "interval between token status polls")
	cmd.Flags().DurationVar(&deadline, "deadline", 30*time.Second, "give up waiting for the integrity token after this long")

	return cmd
}

// attested drives one attested command to completion on a fixed tick
func attested(ctx context.Context, out io.Writer, s *command.Session, c string, tick, deadline time.Duration) error {
	if r := s.BeginAttestedCommand(c); r != command.ResultPending {
		return report(s, c)
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Cancel()
			return fmt.Errorf("waiting for integrity token: %w", ctx.Err())
		case <-ticker.C:
			if s.Tick() == command.StatusAwaitingToken {
				continue
			}

			if s.Result() != command.ResultSuccess {
				return report(s, c)
			}

			fmt.Fprintf(out, "%s: %s\n", c, s.Summary())
			return nil
		}
	}
}

// closeSession closes c, joining any failure into *err
func closeSession(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("closing session: %w", cerr))
	}
}

func report(s *command.Session, c string) error {
	if err := s.LastError(); err != nil {
		return fmt.Errorf("%s: %s: %w", c, s.Result(), err)
	}
	return fmt.Errorf("%s: %s", c, s.Result())
}
