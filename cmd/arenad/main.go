// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/riftlab/arena/server"
	"github.com/riftlab/arena/server/rules"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "toml config file")
	flag.Parse()

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := server.NewLogger(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	catalogue, err := loadCatalogue(cfg, logger)
	if err != nil {
		logger.Fatal("catalogue", zap.Error(err))
	}

	registry := server.NewMatchRegistry(cfg, catalogue, logger)
	api := server.NewAPI(cfg, registry, logger)
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("arena server started", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		registry.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

// loadCatalogue reads the configured yaml catalogue, falling back to the
// built-in one. Ability scripts stay as source here; every match compiles
// its own interpreter.
func loadCatalogue(cfg server.Config, logger *zap.Logger) (*rules.Catalogue, error) {
	if cfg.Rules.Catalogue == "" {
		return rules.Default(), nil
	}
	catalogue, err := rules.Load(cfg.Rules.Catalogue)
	if err != nil {
		return nil, err
	}
	logger.Info("catalogue loaded",
		zap.String("path", cfg.Rules.Catalogue),
		zap.Strings("champions", catalogue.ChampionIDs()),
	)
	return catalogue, nil
}
