// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dnr-scraper CLI.
//
// The root command runs the scraper: it searches the Iowa DNR document
// portal for enforcement orders, downloads each order, extracts the
// settlement amount, and stores one record per case in SQLite.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd runs the scraper.
var rootCmd = &cobra.Command{
	Use:   "dnr-scraper",
	Short: "Scrape Iowa DNR enforcement orders into a local database",
	Long: `dnr-scraper searches the Iowa DNR document portal for enforcement orders,
downloads each order PDF, extracts the settlement amount (from the text layer,
falling back to OCR for scanned documents), and stores one record per case in
a SQLite database.

Runs are idempotent: cases already in the database are skipped. At most
--limit candidates are processed per run.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(viper.GetString(keyLogLevel))
	},
	RunE: runScrape,
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./dnr-scraper.yaml or ~/.config/dnr-scraper/dnr-scraper.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("db", "", "SQLite database path (default dnr_records.db)")
	bindFlag(pf.Lookup("log-level"), keyLogLevel)
	bindFlag(pf.Lookup("db"), keyDBPath)

	f := rootCmd.Flags()
	f.Int("limit", 0, "maximum number of candidates to process (default 5)")
	f.String("query", "", "free-text search query")
	f.String("from", "", "earliest document date, YYYY-MM-DD")
	f.String("to", "", "latest document date, YYYY-MM-DD")
	f.String("documents-dir", "", "keep a copy of each downloaded PDF in this directory")
	f.Bool("headless", true, "run the browser without a window")
	f.Bool("no-ocr", false, "disable the OCR fallback")
	bindFlag(f.Lookup("limit"), keyLimit)
	bindFlag(f.Lookup("query"), keyQuery)
	bindFlag(f.Lookup("from"), keyFrom)
	bindFlag(f.Lookup("to"), keyTo)
	bindFlag(f.Lookup("documents-dir"), keyDocumentsDir)
	bindFlag(f.Lookup("headless"), keyHeadless)
}

func initConfig() {
	// A missing .env is normal; a malformed one is reported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: reading .env:", err)
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dnr-scraper")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dnr-scraper"))
		}
	}

	viper.SetEnvPrefix("DNR_SCRAPER")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "warning: reading config:", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
