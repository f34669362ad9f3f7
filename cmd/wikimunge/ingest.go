package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/bodycache"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/ingest"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/reprocess"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/watch"
)

var watchAfterIngest bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <dump.xml[.bz2]>",
	Short: "Stream a MediaWiki XML export into the page store",
	Args:  cobra.ExactArgs(1),
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

		r, err := ingest.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening dump: %w", err)
		}
		defer r.Close()

		timer := reprocess.NewProgressTimer(0, logger)
		count := 0
		err = ingest.Stream(r, func(p ingest.Page) error {
			if addErr := st.Add(p.Model, p.Title, p.Text); addErr != nil {
				return addErr
			}
			count++
			timer.Inc()
			return nil
		})
		if err != nil {
			return fmt.Errorf("streaming dump: %w", err)
		}

		st.RedirectTemplates()
		if err := st.Save(); err != nil {
			return fmt.Errorf("saving store index: %w", err)
		}

		logger.Info("ingest complete", zap.Int("pages", count))

		if !watchAfterIngest {
			return nil
		}
		return watchLoop(st)
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&watchAfterIngest, "watch", false,
		"after the initial ingest, keep running and re-ingest template source files under --cache-dir as they change on disk")
}

// watchLoop runs internal/watch against the store's own directory, so an
// operator hand-editing "<cache-dir>/<name>.wiki" files during development
// sees them re-ingested and their cached body evicted, until interrupted.
func watchLoop(st *store.PageStore) error {
	cache := bodycache.New(cfg.BodyCacheSize, cfg.BodyCacheTTL, cfg.BodyCacheTTL/2)
	defer cache.Stop()

	w, err := watch.New(cfg.CacheDir, st, cache, logger)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	w.Start()
	defer w.Stop()

	logger.Info("watching for template source changes", zap.String("dir", cfg.CacheDir))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := st.Save(); err != nil {
		return fmt.Errorf("saving store index: %w", err)
	}
	return nil
}
