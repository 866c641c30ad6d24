// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

func testViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	return v
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(testViper(t))
	require.NoError(t, err)

	assert.Equal(t, defaultSearchURL, cfg.Browser.SearchURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"--no-sandbox", "--disable-dev-shm-usage"}, cfg.Browser.Args)
	assert.Equal(t, "#ResultsTable", cfg.Browser.Selectors.Results)
	assert.Equal(t, 60*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.OCR.Enabled)
	assert.Equal(t, 400, cfg.OCR.DPI)
	assert.Equal(t, "dnr_records.db", cfg.Store.DBPath)
	assert.Equal(t, 5, cfg.Run.Limit)
	assert.Equal(t, "Iowa Department of Natural Resources", cfg.Run.Plaintiff)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dnr-scraper.yaml")
	yaml := `
browser:
  headless: false
  page_delay: 500ms
fetch:
  documents_dir: pdfs
ocr:
  enabled: false
  languages: [eng, osd]
store:
  db_path: data/records.db
run:
  limit: 3
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	v := testViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 500*time.Millisecond, cfg.Browser.PageDelay)
	assert.Equal(t, "pdfs", cfg.Fetch.DocumentsDir)
	assert.False(t, cfg.OCR.Enabled)
	assert.Equal(t, []string{"eng", "osd"}, cfg.OCR.Languages)
	assert.Equal(t, "data/records.db", cfg.Store.DBPath)
	assert.Equal(t, 3, cfg.Run.Limit)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("DNR_SCRAPER_RUN_LIMIT", "7")
	t.Setenv("DNR_SCRAPER_STORE_DB_PATH", "env.db")

	v := testViper(t)
	v.SetEnvPrefix("DNR_SCRAPER")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Run.Limit)
	assert.Equal(t, "env.db", cfg.Store.DBPath)
}

func TestLoadConfigRejectsBadLimit(t *testing.T) {
	v := testViper(t)
	v.Set(keyLimit, 0)
	_, err := loadConfig(v)
	assert.ErrorContains(t, err, "limit must be at least 1")
}

func TestSearchParams(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantErr  string
	}{
		{name: "no dates"},
		{name: "range", from: "2024-01-01", to: "2024-06-30"},
		{name: "bad from", from: "01/02/2024", wantErr: "--from"},
		{name: "bad to", to: "June", wantErr: "--to"},
		{name: "reversed", from: "2024-06-30", to: "2024-01-01", wantErr: "before"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testViper(t)
			v.Set(keyFrom, tt.from)
			v.Set(keyTo, tt.to)

			p, err := searchParams(v)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Enforcement Orders", p.Program)
			if tt.from != "" {
				assert.Equal(t, tt.from, p.DateFrom.Format(flagDateLayout))
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug"))
	assert.NoError(t, setupLogging("WARN"))
	assert.Error(t, setupLogging("loud"))
	require.NoError(t, setupLogging("info"))
}

func TestFormatRecords(t *testing.T) {
	amt := types.NewAmount(12500, 0)
	records := []types.ViolationRecord{
		{
			CaseID:           "12345",
			ViolatorName:     "Hawkeye Hog Farms LLC",
			ViolationDate:    time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
			SettlementAmount: &amt,
			ExtractedVia:     types.ExtractedViaText,
			Confidence:       types.ConfidenceHigh,
		},
		{
			CaseID:       "67890",
			ViolatorName: "City of Example",
			ExtractedVia: types.ExtractedViaOCR,
			Confidence:   types.ConfidenceLow,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, formatRecords(&buf, records, false))
	out := buf.String()
	assert.Contains(t, out, "$12,500.00")
	assert.Contains(t, out, "2024-03-14")
	assert.Contains(t, out, "2 records")

	buf.Reset()
	require.NoError(t, formatRecords(&buf, records, true))
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "12500.00", decoded[0]["settlement_amount"])
	assert.Nil(t, decoded[1]["settlement_amount"])

	buf.Reset()
	require.NoError(t, formatRecords(&buf, nil, false))
	assert.Equal(t, "No records found.\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "dnr-scraper dev\n", buf.String())
}
