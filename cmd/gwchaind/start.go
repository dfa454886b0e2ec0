// Copyright 2024 The Gwchain Authors
// This file is part of Gwchain.
//
// Gwchain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gwchain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Gwchain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "run the chain/mem-pool service until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context())
		},
	}
}

func runStart(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := newRootLogger()
	if err != nil {
		return err
	}
	cfg, err := loadNodeConfig(flags.configPath)
	if err != nil {
		return err
	}

	s, err := buildStack(ctx, flags.datadir, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	s.pool.Start()
	log.Info("chain ready", "tip_number", s.chain.TipBlockNumber(), "tip_hash", s.chain.TipBlockHash())

	srv := &http.Server{Addr: flags.metricsAddr, Handler: s.metrics.Handler()}

	// g tracks the metrics server and the shutdown waiter as one group:
	// whichever returns first (the server dying unexpectedly, or ctx
	// being cancelled) triggers Shutdown on the other via gctx.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("serving metrics", "addr", flags.metricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("start exited with error", "err", err)
		return err
	}
	return nil
}
