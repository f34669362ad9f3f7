package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/bodycache"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/lua"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/pagectx"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/server"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the debug HTTP preview server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := namespace.LoadLanguage("", cfg.Language)
		if err != nil {
			return err
		}
		st, err := store.Open(afero.NewOsFs(), cfg.CacheDir, ns)
		if err != nil {
			return fmt.Errorf("opening page store: %w", err)
		}
		defer st.Close()

		cache := bodycache.New(cfg.BodyCacheSize, cfg.BodyCacheTTL, cfg.BodyCacheTTL/2)
		defer cache.Stop()

		pc := pagectx.New(ns, st, nil, lua.NoopSandbox{}, logger)

		if cfg.Development {
			w, werr := watch.New(cfg.CacheDir, st, cache, logger)
			if werr != nil {
				logger.Warn("could not start file watcher", zap.Error(werr))
			} else {
				w.Start()
				defer w.Stop()
			}
		}

		srv := server.New(pc, st, cache)
		logger.Info("serving", zap.String("addr", cfg.ListenAddr))
		return srv.Listen(cfg.ListenAddr)
	},
}
