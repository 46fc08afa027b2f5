// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/parley-tui/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		delay time.Duration
		rps   float64
		burst int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local development backend",
		Long: `Run a backend that speaks the /ask and /history contract and echoes
every prompt. Point the client at it with --api-url or api.base_url.`,
		Example: `  parley serve --addr 127.0.0.1:8000 --delay 500ms`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := server.New(server.Config{
				Addr:              addr,
				Delay:             delay,
				RequestsPerSecond: rps,
				Burst:             burst,
			}, a.log)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("[OK] Listening on http://"+srv.Addr()))

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("shutdown", zap.Error(err))
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "Listen address")
	cmd.Flags().DurationVar(&delay, "delay", 0, "Delay before each reply")
	cmd.Flags().Float64Var(&rps, "rps", 0, "Per-IP requests per second (0 = unlimited)")
	cmd.Flags().IntVar(&burst, "burst", 4, "Per-IP burst")
	return cmd
}
