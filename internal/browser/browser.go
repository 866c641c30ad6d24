// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser drives the document portal's search form in a headless
// browser and enumerates the result rows as ResultLinks.
//
// The package is split in two halves: Driver owns the Playwright session and
// the form interaction, while ParseResultsPage and Results work on page HTML
// only, so result parsing and pagination are testable without a browser.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// Navigation stages reported by NavigationError.
const (
	StageLaunch  = "launch"
	StageLoad    = "load"
	StageForm    = "form"
	StageSubmit  = "submit"
	StageResults = "results"
	StagePaging  = "paging"
)

// NavigationError reports that the portal could not be driven: the page did
// not load or its structure no longer matches the expected selectors. It is
// fatal for the current run.
type NavigationError struct {
	Stage string
	URL   string
	Err   error
}

func (e *NavigationError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("navigation failed at %s (%s): %v", e.Stage, e.URL, e.Err)
	}
	return fmt.Sprintf("navigation failed at %s: %v", e.Stage, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// SearchParams holds the search form inputs.
type SearchParams struct {
	// Program is the visible text of the program option (e.g. "Enforcement Orders").
	Program string

	// Query is optional free text typed into the query box.
	Query string

	// DateFrom and DateTo bound the document date; zero means unbounded.
	DateFrom time.Time
	DateTo   time.Time
}

// InRange reports whether d falls inside the params' date range. Links with
// an unknown (zero) date are kept.
func (p SearchParams) InRange(d time.Time) bool {
	if d.IsZero() {
		return true
	}
	if !p.DateFrom.IsZero() && d.Before(p.DateFrom) {
		return false
	}
	if !p.DateTo.IsZero() && d.After(p.DateTo) {
		return false
	}
	return true
}

// resultPage is the view of a results page that Results needs.
type resultPage interface {
	// Content returns the current page HTML.
	Content() (string, error)

	// NextPage navigates to result page n. It returns false when there is
	// no link to that page.
	NextPage(ctx context.Context, n int) (bool, error)
}

// Results is a finite, forward-only cursor over search result links. It
// loads further result pages lazily as the consumer calls Next.
type Results struct {
	page          resultPage
	baseURL       string
	tableSelector string
	params        SearchParams
	log           *slog.Logger

	pageNum int
	buf     []types.ResultLink
	done    bool
}

func newResults(page resultPage, baseURL, tableSelector string, params SearchParams, log *slog.Logger) *Results {
	if log == nil {
		log = slog.Default()
	}
	return &Results{
		page:          page,
		baseURL:       baseURL,
		tableSelector: tableSelector,
		params:        params,
		log:           log,
	}
}

// Next returns the next result link. The boolean is false once the results
// are exhausted. Errors are NavigationErrors and end the sequence.
func (r *Results) Next(ctx context.Context) (types.ResultLink, bool, error) {
	for len(r.buf) == 0 {
		if r.done {
			return types.ResultLink{}, false, nil
		}
		if err := ctx.Err(); err != nil {
			return types.ResultLink{}, false, err
		}
		if err := r.loadPage(ctx); err != nil {
			r.done = true
			return types.ResultLink{}, false, err
		}
	}

	link := r.buf[0]
	r.buf = r.buf[1:]
	return link, true, nil
}

func (r *Results) loadPage(ctx context.Context) error {
	if r.pageNum > 0 {
		ok, err := r.page.NextPage(ctx, r.pageNum+1)
		if err != nil {
			return &NavigationError{Stage: StagePaging, Err: err}
		}
		if !ok {
			r.done = true
			return nil
		}
	}

	html, err := r.page.Content()
	if err != nil {
		return &NavigationError{Stage: StageResults, Err: fmt.Errorf("reading page content: %w", err)}
	}
	parsed, err := ParseResultsPage(html, r.baseURL, r.tableSelector)
	if err != nil {
		return err
	}
	r.pageNum++

	for _, link := range parsed.Links {
		if !r.params.InRange(link.Date) {
			continue
		}
		r.buf = append(r.buf, link)
	}
	r.log.Debug("results page loaded",
		"page", r.pageNum, "rows", len(parsed.Links), "kept", len(r.buf), "malformed", parsed.Skipped)
	if parsed.Skipped > 0 {
		r.log.Warn("skipped malformed result rows", "page", r.pageNum, "count", parsed.Skipped)
	}
	return nil
}
