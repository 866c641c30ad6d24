// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads enforcement order PDFs and optionally keeps a local
// copy of each document.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pdiddy/dnr-scraper/internal/httputil"
	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// DefaultMaxDocumentBytes caps downloads when the configuration leaves it unset.
const DefaultMaxDocumentBytes = 50 << 20

// pdfMagicWindow is how far into the body the %PDF- header may appear.
const pdfMagicWindow = 1024

var (
	// ErrNotPDF is returned when the response body is not a PDF document.
	ErrNotPDF = errors.New("response is not a PDF")

	// ErrTooLarge is returned when the document exceeds MaxDocumentBytes.
	ErrTooLarge = errors.New("document exceeds size limit")
)

// FetchError reports a failed document download. It is a per-record failure:
// the record is skipped and the run continues.
type FetchError struct {
	CaseID     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s (case %s): HTTP %d", e.URL, e.CaseID, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s (case %s): %v", e.URL, e.CaseID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher downloads documents over HTTP.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
	log    *slog.Logger
}

// New creates a Fetcher. A nil client uses httputil.NewClient(cfg.HTTPConfig).
func New(client *http.Client, cfg types.FetchConfig, log *slog.Logger) *Fetcher {
	if client == nil {
		client = httputil.NewClient(cfg.HTTPConfig)
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{client: client, cfg: cfg, log: log}
}

// Fetch returns the PDF bytes behind link.DocumentURL. When DocumentsDir is
// configured and already holds <case_id>.pdf, the local copy is returned
// without a network call; otherwise the download is saved there.
func (f *Fetcher) Fetch(ctx context.Context, link types.ResultLink) ([]byte, error) {
	localPath := f.localPath(link.CaseID)
	if localPath != "" {
		if data, err := os.ReadFile(localPath); err == nil && IsPDF(data) {
			f.log.Debug("using local copy", "case_id", link.CaseID, "path", localPath)
			return data, nil
		}
	}

	data, err := f.download(ctx, link.DocumentURL)
	if err != nil {
		fe := &FetchError{CaseID: link.CaseID, URL: link.DocumentURL, Err: err}
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) {
			fe.StatusCode = statusErr.StatusCode
		}
		return nil, fe
	}
	f.log.Debug("downloaded document", "case_id", link.CaseID, "bytes", len(data))

	if localPath != "" {
		if err := writeFileAtomic(localPath, data); err != nil {
			f.log.Warn("could not keep local copy", "case_id", link.CaseID, "error", err)
		}
	}
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	resp, err := httputil.Get(ctx, f.client, url, "application/pdf")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxDocumentBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, f.cfg.MaxDocumentBytes)
	}
	if !IsPDF(data) {
		return nil, fmt.Errorf("%w (content type %q)", ErrNotPDF, resp.Header.Get("Content-Type"))
	}
	return data, nil
}

// IsPDF reports whether data carries a %PDF- header near its start.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > pdfMagicWindow {
		head = head[:pdfMagicWindow]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (f *Fetcher) localPath(caseID string) string {
	if f.cfg.DocumentsDir == "" || caseID == "" {
		return ""
	}
	name := unsafeFileChars.ReplaceAllString(caseID, "_")
	return filepath.Join(f.cfg.DocumentsDir, name+".pdf")
}

// writeFileAtomic writes data to a temporary file next to destPath and
// renames it into place.
func writeFileAtomic(destPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
