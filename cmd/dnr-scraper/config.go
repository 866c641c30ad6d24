// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/dnr-scraper/internal/browser"
	"github.com/pdiddy/dnr-scraper/internal/httputil"
	"github.com/pdiddy/dnr-scraper/internal/pipeline"
	"github.com/pdiddy/dnr-scraper/internal/store"
	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// Configuration keys. Nested keys map to env vars with "." replaced by "_",
// e.g. DNR_SCRAPER_STORE_DB_PATH.
const (
	keyLogLevel = "log_level"

	keySearchURL      = "browser.search_url"
	keyBaseURL        = "browser.base_url"
	keyHeadless       = "browser.headless"
	keyExecutablePath = "browser.executable_path"
	keyBrowserArgs    = "browser.args"
	keyBrowserTimeout = "browser.timeout"
	keyPageDelay      = "browser.page_delay"
	keySelProgram     = "browser.selectors.program"
	keySelQuery       = "browser.selectors.query"
	keySelDateFrom    = "browser.selectors.date_from"
	keySelDateTo      = "browser.selectors.date_to"
	keySelSubmit      = "browser.selectors.submit"
	keySelResults     = "browser.selectors.results"

	keyProgram = "search.program"
	keyQuery   = "search.query"
	keyFrom    = "search.from"
	keyTo      = "search.to"

	keyFetchTimeout  = "fetch.timeout"
	keyUserAgent     = "fetch.user_agent"
	keyMaxDocBytes   = "fetch.max_document_bytes"
	keyDocumentsDir  = "fetch.documents_dir"
	keyOCREnabled    = "ocr.enabled"
	keyOCRDPI        = "ocr.dpi"
	keyOCRLanguages  = "ocr.languages"
	keyPdftoppmPath  = "ocr.pdftoppm_path"
	keyDBPath        = "store.db_path"
	keyExportDir     = "store.export_dir"
	keyLimit         = "run.limit"
	keyPlaintiff     = "run.plaintiff"
	keyViolationType = "run.violation_type"
	keyDataSource    = "run.data_source"
)

const (
	defaultSearchURL = "https://programs.iowadnr.gov/documentsearch/Home/Search"
	defaultBaseURL   = "https://programs.iowadnr.gov/documentsearch"

	flagDateLayout = "2006-01-02"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyLogLevel, "info")

	v.SetDefault(keySearchURL, defaultSearchURL)
	v.SetDefault(keyBaseURL, defaultBaseURL)
	v.SetDefault(keyHeadless, true)
	v.SetDefault(keyBrowserArgs, []string{"--no-sandbox", "--disable-dev-shm-usage"})
	v.SetDefault(keyBrowserTimeout, 30*time.Second)
	v.SetDefault(keyPageDelay, 2*time.Second)
	v.SetDefault(keySelProgram, "#Program")
	v.SetDefault(keySelQuery, "")
	v.SetDefault(keySelDateFrom, "")
	v.SetDefault(keySelDateTo, "")
	v.SetDefault(keySelSubmit, "#searchSubmit")
	v.SetDefault(keySelResults, "#ResultsTable")

	v.SetDefault(keyProgram, "Enforcement Orders")

	v.SetDefault(keyFetchTimeout, 60*time.Second)
	v.SetDefault(keyUserAgent, httputil.DefaultUserAgent)
	v.SetDefault(keyMaxDocBytes, int64(50<<20))
	v.SetDefault(keyOCREnabled, true)
	v.SetDefault(keyOCRDPI, 400)
	v.SetDefault(keyOCRLanguages, []string{"eng"})
	v.SetDefault(keyDBPath, store.DefaultDBPath)

	v.SetDefault(keyLimit, pipeline.DefaultLimit)
	v.SetDefault(keyPlaintiff, "Iowa Department of Natural Resources")
	v.SetDefault(keyViolationType, "environmental")
	v.SetDefault(keyDataSource, defaultSearchURL)
}

func bindFlag(f *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, f); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", f.Name, err))
	}
}

// loadConfig assembles the stage configuration from v.
func loadConfig(v *viper.Viper) (types.ScraperConfig, error) {
	cfg := types.ScraperConfig{
		Browser: types.BrowserConfig{
			SearchURL:      v.GetString(keySearchURL),
			BaseURL:        v.GetString(keyBaseURL),
			Headless:       v.GetBool(keyHeadless),
			ExecutablePath: v.GetString(keyExecutablePath),
			Args:           v.GetStringSlice(keyBrowserArgs),
			Timeout:        v.GetDuration(keyBrowserTimeout),
			PageDelay:      v.GetDuration(keyPageDelay),
			Selectors: types.Selectors{
				Program:  v.GetString(keySelProgram),
				Query:    v.GetString(keySelQuery),
				DateFrom: v.GetString(keySelDateFrom),
				DateTo:   v.GetString(keySelDateTo),
				Submit:   v.GetString(keySelSubmit),
				Results:  v.GetString(keySelResults),
			},
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration(keyFetchTimeout),
				UserAgent: v.GetString(keyUserAgent),
			},
			MaxDocumentBytes: v.GetInt64(keyMaxDocBytes),
			DocumentsDir:     v.GetString(keyDocumentsDir),
		},
		OCR: types.OCRConfig{
			Enabled:      v.GetBool(keyOCREnabled),
			DPI:          v.GetInt(keyOCRDPI),
			Languages:    v.GetStringSlice(keyOCRLanguages),
			PdftoppmPath: v.GetString(keyPdftoppmPath),
		},
		Store: types.StoreConfig{
			DBPath:    v.GetString(keyDBPath),
			ExportDir: v.GetString(keyExportDir),
		},
		Run: types.RunConfig{
			Limit:         v.GetInt(keyLimit),
			Plaintiff:     v.GetString(keyPlaintiff),
			ViolationType: v.GetString(keyViolationType),
			DataSource:    v.GetString(keyDataSource),
		},
	}

	if cfg.Run.Limit < 1 {
		return cfg, fmt.Errorf("limit must be at least 1, got %d", cfg.Run.Limit)
	}
	if cfg.Browser.SearchURL == "" {
		return cfg, fmt.Errorf("%s is required", keySearchURL)
	}
	return cfg, nil
}

// searchParams reads the search form inputs from v.
func searchParams(v *viper.Viper) (browser.SearchParams, error) {
	p := browser.SearchParams{
		Program: v.GetString(keyProgram),
		Query:   v.GetString(keyQuery),
	}
	var err error
	if p.DateFrom, err = parseFlagDate(v.GetString(keyFrom)); err != nil {
		return p, fmt.Errorf("--from: %w", err)
	}
	if p.DateTo, err = parseFlagDate(v.GetString(keyTo)); err != nil {
		return p, fmt.Errorf("--to: %w", err)
	}
	if !p.DateFrom.IsZero() && !p.DateTo.IsZero() && p.DateTo.Before(p.DateFrom) {
		return p, fmt.Errorf("--to %s is before --from %s",
			p.DateTo.Format(flagDateLayout), p.DateFrom.Format(flagDateLayout))
	}
	return p, nil
}

func parseFlagDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(flagDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// setupLogging installs a text handler on stderr as the default logger.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: use debug, info, warn or error", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// moduleLogger returns the default logger scoped to one pipeline module.
func moduleLogger(module string) *slog.Logger {
	return slog.Default().With("module", module)
}
