// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the scraper end to end: for each search result it
// checks the store, fetches the order PDF, extracts the settlement amount,
// and stores the record. Candidates are processed one at a time, up to the
// configured limit.
//
// Failures are classified by type. A NavigationError from the result
// cursor ends the run. FetchError and PersistenceError skip the record. An
// AmbiguityError still stores the record, with a null amount and low
// confidence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/dnr-scraper/internal/browser"
	"github.com/pdiddy/dnr-scraper/internal/extract"
	"github.com/pdiddy/dnr-scraper/internal/fetch"
	"github.com/pdiddy/dnr-scraper/internal/store"
	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// DefaultLimit is the number of candidates processed when no limit is set.
const DefaultLimit = 5

// Pipeline stages reported in logs.
const (
	stageSearch  = "search"
	stageCheck   = "check"
	stageFetch   = "fetch"
	stageExtract = "extract"
	stageStore   = "store"
)

// Candidates yields search results in portal order. browser.Results
// satisfies it.
type Candidates interface {
	Next(ctx context.Context) (types.ResultLink, bool, error)
}

// Fetcher downloads the document behind a result link.
type Fetcher interface {
	Fetch(ctx context.Context, link types.ResultLink) ([]byte, error)
}

// Extractor finds the settlement amount in a PDF.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (types.Extraction, error)
}

// RecordStore is the insert-if-absent record store.
type RecordStore interface {
	Exists(ctx context.Context, caseID string) (bool, error)
	Insert(ctx context.Context, rec types.ViolationRecord) (bool, error)
}

// Summary holds the counts of one run.
type Summary struct {
	RunID string

	// Processed is the number of candidates taken from the results,
	// including ones already stored.
	Processed int

	Stored        int
	Existing      int
	FetchFailed   int
	PersistFailed int

	// NullAmounts counts stored records whose amount could not be found.
	NullAmounts int
}

// Failed returns the number of candidates that were skipped on error.
func (s Summary) Failed() int {
	return s.FetchFailed + s.PersistFailed
}

// HasFailures reports whether any candidate was skipped on error.
func (s Summary) HasFailures() bool {
	return s.Failed() > 0
}

// Controller wires the pipeline stages together.
type Controller struct {
	fetcher   Fetcher
	extractor Extractor
	store     RecordStore
	cfg       types.RunConfig
	out       io.Writer
	log       *slog.Logger
	runID     string
	now       func() time.Time
}

// New creates a Controller. Progress lines and the final summary are
// written to out; diagnostics go to log.
func New(f Fetcher, e Extractor, s RecordStore, cfg types.RunConfig, out io.Writer, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	runID := uuid.NewString()
	return &Controller{
		fetcher:   f,
		extractor: e,
		store:     s,
		cfg:       cfg,
		out:       out,
		log:       log.With("run_id", runID),
		runID:     runID,
		now:       time.Now,
	}
}

// RunID identifies this controller's run in logs and stored rows.
func (c *Controller) RunID() string { return c.runID }

// Run processes up to the configured limit of candidates. It returns an
// error only when the run cannot continue: the candidate cursor failed or
// ctx was canceled. The summary is valid in both cases.
func (c *Controller) Run(ctx context.Context, cands Candidates) (Summary, error) {
	summary := Summary{RunID: c.runID}
	c.log.Info("run started", "limit", c.cfg.Limit)

	var err error
	for summary.Processed < c.cfg.Limit {
		if err = ctx.Err(); err != nil {
			break
		}
		var (
			link types.ResultLink
			ok   bool
		)
		link, ok, err = cands.Next(ctx)
		if err != nil {
			err = c.searchFailed(ctx, err)
			break
		}
		if !ok {
			c.log.Info("no more results", "processed", summary.Processed)
			break
		}

		summary.Processed++
		if err = c.process(ctx, link, &summary); err != nil {
			break
		}
	}

	c.printSummary(summary)
	c.log.Info("run finished",
		"processed", summary.Processed,
		"stored", summary.Stored,
		"existing", summary.Existing,
		"failed", summary.Failed(),
		"null_amounts", summary.NullAmounts)
	return summary, err
}

func (c *Controller) searchFailed(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var nav *browser.NavigationError
	if errors.As(err, &nav) {
		c.log.Error("search navigation failed", "stage", stageSearch, "nav_stage", nav.Stage, "url", nav.URL, "error", nav.Err)
	} else {
		c.log.Error("reading search results failed", "stage", stageSearch, "error", err)
	}
	return err
}

// process runs one candidate through the stages. Per-record failures are
// recorded in summary and swallowed; only context cancellation is returned.
func (c *Controller) process(ctx context.Context, link types.ResultLink, summary *Summary) error {
	log := c.log.With("case_id", link.CaseID)

	exists, err := c.store.Exists(ctx, link.CaseID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("checking store failed", "stage", stageCheck, "error", err)
		fmt.Fprintf(c.out, "failed:   %s (store: %v)\n", link.CaseID, err)
		summary.PersistFailed++
		return nil
	}
	if exists {
		log.Info("already stored", "stage", stageCheck)
		fmt.Fprintf(c.out, "existing: %s\n", link.CaseID)
		summary.Existing++
		return nil
	}

	pdf, err := c.fetcher.Fetch(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var fe *fetch.FetchError
		if errors.As(err, &fe) {
			log.Warn("fetch failed", "stage", stageFetch, "url", fe.URL, "status", fe.StatusCode, "error", fe.Err)
		} else {
			log.Warn("fetch failed", "stage", stageFetch, "url", link.DocumentURL, "error", err)
		}
		fmt.Fprintf(c.out, "failed:   %s (fetch: %v)\n", link.CaseID, err)
		summary.FetchFailed++
		return nil
	}

	ext, err := c.extractor.Extract(ctx, pdf)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var amb *extract.AmbiguityError
		if errors.As(err, &amb) {
			log.Warn("no settlement amount found", "stage", stageExtract, "attempts", len(amb.Attempts))
		} else {
			log.Warn("extraction failed", "stage", stageExtract, "error", err)
			ext = types.Extraction{Method: types.ExtractedViaText}
		}
		ext.Amount = nil
		ext.Confidence = types.ConfidenceLow
	}

	rec := c.record(link, ext)
	inserted, err := c.store.Insert(ctx, rec)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var pe *store.PersistenceError
		if errors.As(err, &pe) {
			log.Error("storing record failed", "stage", stageStore, "op", pe.Op, "error", pe.Err)
		} else {
			log.Error("storing record failed", "stage", stageStore, "error", err)
		}
		fmt.Fprintf(c.out, "failed:   %s (store: %v)\n", link.CaseID, err)
		summary.PersistFailed++
		return nil
	}
	if !inserted {
		log.Info("already stored", "stage", stageStore)
		fmt.Fprintf(c.out, "existing: %s\n", link.CaseID)
		summary.Existing++
		return nil
	}

	summary.Stored++
	if rec.SettlementAmount == nil {
		summary.NullAmounts++
		fmt.Fprintf(c.out, "stored:   %s (no amount found, via %s)\n", link.CaseID, rec.ExtractedVia)
	} else {
		fmt.Fprintf(c.out, "stored:   %s (%s via %s)\n", link.CaseID, rec.SettlementAmount.Display(), rec.ExtractedVia)
	}
	log.Info("record stored", "stage", stageStore, "via", rec.ExtractedVia, "confidence", rec.Confidence)
	return nil
}

func (c *Controller) record(link types.ResultLink, ext types.Extraction) types.ViolationRecord {
	return types.ViolationRecord{
		CaseID:            link.CaseID,
		ViolatorName:      link.Violator,
		ViolationDate:     link.Date,
		SettlementAmount:  ext.Amount,
		SourceDocumentURL: link.DocumentURL,
		ExtractedVia:      ext.Method,
		Confidence:        ext.Confidence,
		Plaintiff:         c.cfg.Plaintiff,
		ViolationType:     c.cfg.ViolationType,
		DataSource:        c.cfg.DataSource,
		Notes:             link.Notes,
		RunID:             c.runID,
		CreatedAt:         c.now(),
	}
}

func (c *Controller) printSummary(s Summary) {
	fmt.Fprintf(c.out, "\nRun summary: %d stored, %d existing, %d failed, %d without amount (processed: %d)\n",
		s.Stored, s.Existing, s.Failed(), s.NullAmounts, s.Processed)
}
