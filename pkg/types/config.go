package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "dnr-scraper/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BrowserConfig holds settings for the headless browser search stage.
type BrowserConfig struct {
	// SearchURL is the portal search page.
	SearchURL string `json:"search_url" yaml:"search_url"`

	// BaseURL is the portal root that result links are resolved against.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Headless runs Chromium without a window.
	Headless bool `json:"headless" yaml:"headless"`

	// ExecutablePath overrides the Chromium binary; empty uses the bundled one.
	ExecutablePath string `json:"executable_path,omitempty" yaml:"executable_path,omitempty"`

	// Args are extra Chromium command-line switches.
	Args []string `json:"args" yaml:"args"`

	// Timeout bounds each navigation and element wait.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// PageDelay is the pause after clicking to the next results page.
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	Selectors Selectors `json:"selectors" yaml:"selectors"`
}

// Selectors locates the search form and results on the portal page.
type Selectors struct {
	Program  string `json:"program" yaml:"program"`
	Query    string `json:"query" yaml:"query"`
	DateFrom string `json:"date_from" yaml:"date_from"`
	DateTo   string `json:"date_to" yaml:"date_to"`
	Submit   string `json:"submit" yaml:"submit"`
	Results  string `json:"results" yaml:"results"`
}

// FetchConfig holds settings for the document download stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxDocumentBytes caps the size of a downloaded PDF.
	MaxDocumentBytes int64 `json:"max_document_bytes" yaml:"max_document_bytes"`

	// DocumentsDir, when set, keeps a copy of each PDF as <case_id>.pdf.
	DocumentsDir string `json:"documents_dir,omitempty" yaml:"documents_dir,omitempty"`
}

// OCRConfig holds settings for the rasterize-and-recognize fallback.
type OCRConfig struct {
	// Enabled turns the OCR fallback on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// DPI is the rasterization resolution (default 400).
	DPI int `json:"dpi" yaml:"dpi"`

	// Languages are Tesseract language codes (default "eng").
	Languages []string `json:"languages" yaml:"languages"`

	// PdftoppmPath overrides the pdftoppm binary; empty looks it up on PATH.
	PdftoppmPath string `json:"pdftoppm_path,omitempty" yaml:"pdftoppm_path,omitempty"`
}

// StoreConfig holds settings for the record store.
type StoreConfig struct {
	// DBPath is the SQLite database file (default "dnr_records.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// ExportDir is where export.yaml and export.json are written.
	ExportDir string `json:"export_dir" yaml:"export_dir"`
}

// RunConfig holds settings for the run controller.
type RunConfig struct {
	// Limit is the maximum number of candidates processed per run (default 5).
	Limit int `json:"limit" yaml:"limit"`

	// Plaintiff, ViolationType and DataSource are stamped on every record.
	Plaintiff     string `json:"plaintiff" yaml:"plaintiff"`
	ViolationType string `json:"violation_type" yaml:"violation_type"`
	DataSource    string `json:"data_source" yaml:"data_source"`
}

// ScraperConfig groups all stage configurations.
type ScraperConfig struct {
	Browser BrowserConfig `json:"browser" yaml:"browser"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	OCR     OCRConfig     `json:"ocr" yaml:"ocr"`
	Store   StoreConfig   `json:"store" yaml:"store"`
	Run     RunConfig     `json:"run" yaml:"run"`
}
