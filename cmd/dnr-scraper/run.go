// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dnr-scraper/internal/browser"
	"github.com/pdiddy/dnr-scraper/internal/extract"
	"github.com/pdiddy/dnr-scraper/internal/extract/tesseract"
	"github.com/pdiddy/dnr-scraper/internal/fetch"
	"github.com/pdiddy/dnr-scraper/internal/pipeline"
	"github.com/pdiddy/dnr-scraper/internal/store"
	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// runScrape runs the pipeline. Per-record failures are reported in the
// summary and do not fail the command; navigation, store and launch
// failures do.
func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if noOCR, _ := cmd.Flags().GetBool("no-ocr"); noOCR {
		cfg.OCR.Enabled = false
	}
	params, err := searchParams(viper.GetViper())
	if err != nil {
		return err
	}

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	ext := newExtractor(cfg.OCR)

	driver, err := browser.Launch(cfg.Browser, moduleLogger("browser"))
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			slog.Warn("closing browser", "error", err)
		}
	}()

	results, err := driver.Search(ctx, params)
	if err != nil {
		return err
	}

	fetcher := fetch.New(nil, cfg.Fetch, moduleLogger("fetch"))
	ctrl := pipeline.New(fetcher, ext, st, cfg.Run, cmd.OutOrStdout(), moduleLogger("pipeline"))

	fmt.Fprintf(cmd.OutOrStdout(), "run %s: processing up to %d enforcement orders into %s\n",
		ctrl.RunID(), cfg.Run.Limit, st.Path())

	_, err = ctrl.Run(ctx, results)
	return err
}

// newExtractor builds the strategy list: the text layer always, then OCR
// when enabled and pdftoppm is installed.
func newExtractor(cfg types.OCRConfig) *extract.Extractor {
	log := moduleLogger("extract")
	strategies := []extract.Strategy{extract.TextLayer{}}

	if cfg.Enabled {
		raster, err := extract.NewPdftoppm(cfg)
		if err != nil {
			log.Warn("OCR fallback disabled", "error", err)
		} else {
			ocr := extract.NewOCR(raster, tesseract.New(cfg, log), log)
			strategies = append(strategies, ocr)
		}
	}

	e := extract.New(log, strategies...)
	log.Debug("extraction strategies", "methods", e.Methods())
	return e
}
