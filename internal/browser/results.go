// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// Results table column layout on the portal.
const (
	colLink     = 0
	colDate     = 2
	colNotes    = 4
	colViolator = 5
	minColumns  = 6
)

const resultDateLayout = "1/2/2006"

// caseIDParams are query parameters that carry the document id in result links.
var caseIDParams = []string{"docId", "docid", "documentId", "id"}

// PageResult holds the parsed rows of one results page.
type PageResult struct {
	Links []types.ResultLink

	// Skipped counts data rows that did not have the expected shape.
	Skipped int
}

// ParseResultsPage extracts result links from the HTML of a results page.
// It returns a NavigationError when the results table is missing, or when
// the table has data rows but none of them can be read (layout drift).
// A table with only a header row yields an empty PageResult.
func ParseResultsPage(html, baseURL, tableSelector string) (PageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageResult{}, &NavigationError{Stage: StageResults, Err: fmt.Errorf("parsing results HTML: %w", err)}
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return PageResult{}, &NavigationError{
			Stage: StageResults,
			Err:   fmt.Errorf("results table %q not found", tableSelector),
		}
	}

	var (
		result   PageResult
		dataRows int
	)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			// Header rows use <th>.
			return
		}
		dataRows++
		link, ok := parseRow(cells, baseURL)
		if !ok {
			result.Skipped++
			return
		}
		result.Links = append(result.Links, link)
	})

	// A single-cell row is the portal's "no documents found" placeholder.
	if dataRows > 0 && len(result.Links) == 0 && !placeholderOnly(table) {
		return PageResult{}, &NavigationError{
			Stage: StageResults,
			Err:   fmt.Errorf("none of %d result rows match the expected %d-column layout", dataRows, minColumns),
		}
	}

	return result, nil
}

func parseRow(cells *goquery.Selection, baseURL string) (types.ResultLink, bool) {
	if cells.Length() < minColumns {
		return types.ResultLink{}, false
	}
	anchor := cells.Eq(colLink).Find("a").First()
	href, ok := anchor.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return types.ResultLink{}, false
	}

	docURL, err := DocumentURL(baseURL, strings.TrimSpace(href))
	if err != nil {
		return types.ResultLink{}, false
	}

	caseID := CaseIDFromURL(docURL)
	if caseID == "" {
		caseID = cleanText(anchor.Text())
	}
	if caseID == "" {
		return types.ResultLink{}, false
	}

	link := types.ResultLink{
		CaseID:      caseID,
		DocumentURL: docURL,
		Violator:    cleanText(cells.Eq(colViolator).Text()),
		Notes:       cleanText(cells.Eq(colNotes).Text()),
	}
	if d, err := time.Parse(resultDateLayout, cleanText(cells.Eq(colDate).Text())); err == nil {
		link.Date = d
	}
	return link, true
}

func placeholderOnly(table *goquery.Selection) bool {
	placeholder := true
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if n := row.Find("td").Length(); n > 1 {
			placeholder = false
		}
	})
	return placeholder
}

// DocumentURL resolves a result link href to an absolute document URL. The
// portal emits relative links of the form "./GetDocument?docId=123", which
// live under <base>/Home/.
func DocumentURL(baseURL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parsing link %q: %w", href, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	base := strings.TrimRight(baseURL, "/")
	if i := strings.LastIndex(href, "./"); i >= 0 {
		return base + "/Home/" + href[i+2:], nil
	}

	home, err := url.Parse(base + "/Home/")
	if err != nil {
		return "", fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}
	return home.ResolveReference(ref).String(), nil
}

// CaseIDFromURL returns the document id carried by a document URL: a known
// id query parameter when present, otherwise the last path segment.
func CaseIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, key := range caseIDParams {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	seg := path.Base(u.Path)
	if seg == "." || seg == "/" {
		return ""
	}
	return strings.TrimSuffix(seg, path.Ext(seg))
}

// pageParam is the query parameter carrying the page number in pagination links.
const pageParam = "page"

// PageLinkIndex returns the index of the first href whose page parameter is
// exactly n, or -1 when none is. A link to page 12 does not match n=1.
func PageLinkIndex(hrefs []string, n int) int {
	want := strconv.Itoa(n)
	for i, href := range hrefs {
		u, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		if u.Query().Get(pageParam) == want {
			return i
		}
	}
	return -1
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
