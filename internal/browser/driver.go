// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

const formDateLayout = "01/02/2006"

// Driver owns a Playwright session with one Chromium page.
type Driver struct {
	cfg     types.BrowserConfig
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	log     *slog.Logger
}

// Launch starts Playwright and opens a Chromium page. The Playwright driver
// is installed on first use; Chromium itself is only installed when no
// executable path is configured.
func Launch(cfg types.BrowserConfig, log *slog.Logger) (*Driver, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := playwright.Install(&playwright.RunOptions{
		Browsers:            []string{"chromium"},
		SkipInstallBrowsers: cfg.ExecutablePath != "",
	}); err != nil {
		return nil, &NavigationError{Stage: StageLaunch, Err: fmt.Errorf("installing playwright: %w", err)}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, &NavigationError{Stage: StageLaunch, Err: fmt.Errorf("starting playwright: %w", err)}
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     cfg.Args,
	}
	if cfg.ExecutablePath != "" {
		opts.ExecutablePath = playwright.String(cfg.ExecutablePath)
	}
	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, &NavigationError{Stage: StageLaunch, Err: fmt.Errorf("launching chromium: %w", err)}
	}

	page, err := browser.NewPage()
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, &NavigationError{Stage: StageLaunch, Err: fmt.Errorf("opening page: %w", err)}
	}
	if cfg.Timeout > 0 {
		page.SetDefaultTimeout(float64(cfg.Timeout.Milliseconds()))
	}

	log.Info("browser launched", "headless", cfg.Headless)
	return &Driver{cfg: cfg, pw: pw, browser: browser, page: page, log: log}, nil
}

// Close shuts down the browser and the Playwright driver.
func (d *Driver) Close() error {
	var errs []error
	if err := d.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing browser: %w", err))
	}
	if err := d.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
	}
	return errors.Join(errs...)
}

// Search loads the search page, fills and submits the form, and returns a
// cursor over the result links. Any mismatch between the page and the
// configured selectors is reported as a NavigationError.
func (d *Driver) Search(ctx context.Context, params SearchParams) (*Results, error) {
	sel := d.cfg.Selectors
	url := d.cfg.SearchURL

	d.log.Info("loading search page", "url", url)
	if _, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, &NavigationError{Stage: StageLoad, URL: url, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	program := d.page.Locator(sel.Program)
	if err := program.WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateAttached,
	}); err != nil {
		return nil, &NavigationError{Stage: StageForm, URL: url, Err: fmt.Errorf("program select %q: %w", sel.Program, err)}
	}
	if params.Program != "" {
		if _, err := program.SelectOption(playwright.SelectOptionValues{
			Labels: &[]string{params.Program},
		}); err != nil {
			return nil, &NavigationError{Stage: StageForm, URL: url, Err: fmt.Errorf("selecting program %q: %w", params.Program, err)}
		}
	}

	fills := []struct {
		selector string
		value    string
	}{
		{sel.Query, params.Query},
		{sel.DateFrom, formatFormDate(params.DateFrom)},
		{sel.DateTo, formatFormDate(params.DateTo)},
	}
	for _, f := range fills {
		if f.value == "" || f.selector == "" {
			continue
		}
		if err := d.page.Locator(f.selector).Fill(f.value); err != nil {
			return nil, &NavigationError{Stage: StageForm, URL: url, Err: fmt.Errorf("filling %q: %w", f.selector, err)}
		}
	}

	if err := d.page.Locator(sel.Submit).Click(); err != nil {
		return nil, &NavigationError{Stage: StageSubmit, URL: url, Err: fmt.Errorf("clicking %q: %w", sel.Submit, err)}
	}
	if err := d.page.Locator(sel.Results).WaitFor(playwright.LocatorWaitForOptions{
		State: playwright.WaitForSelectorStateAttached,
	}); err != nil {
		return nil, &NavigationError{Stage: StageResults, URL: url, Err: fmt.Errorf("waiting for %q: %w", sel.Results, err)}
	}

	pg := &playwrightPage{page: d.page, delay: d.cfg.PageDelay}
	return newResults(pg, d.cfg.BaseURL, sel.Results, params, d.log), nil
}

func formatFormDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(formDateLayout)
}

// playwrightPage adapts a Playwright page to resultPage.
type playwrightPage struct {
	page  playwright.Page
	delay time.Duration
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) NextPage(ctx context.Context, n int) (bool, error) {
	links, err := p.page.Locator("a[href*='" + pageParam + "=']").All()
	if err != nil {
		return false, fmt.Errorf("locating page %d link: %w", n, err)
	}
	hrefs := make([]string, len(links))
	for i, l := range links {
		if hrefs[i], err = l.GetAttribute("href"); err != nil {
			return false, fmt.Errorf("reading page link: %w", err)
		}
	}
	idx := PageLinkIndex(hrefs, n)
	if idx < 0 {
		return false, nil
	}
	if err := links[idx].Click(); err != nil {
		return false, fmt.Errorf("clicking page %d link: %w", n, err)
	}
	if err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	}); err != nil {
		return false, fmt.Errorf("waiting for page %d: %w", n, err)
	}

	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return true, nil
}
