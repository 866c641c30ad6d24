// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "https://programs.iowadnr.gov/documentsearch"

func row(docID, date, notes, violator string) string {
	return fmt.Sprintf(`<tr>
	<td><a href="./GetDocument?docId=%s">View</a></td>
	<td>Enforcement Orders</td>
	<td>%s</td>
	<td>Administrative Order</td>
	<td>%s</td>
	<td>%s</td>
</tr>`, docID, date, notes, violator)
}

func resultsHTML(rows ...string) string {
	return `<html><body><table id="ResultsTable">
<tr><th>Document</th><th>Program</th><th>Date</th><th>Type</th><th>Description</th><th>Name</th></tr>
` + strings.Join(rows, "\n") + `
</table></body></html>`
}

func TestParseResultsPage(t *testing.T) {
	html := resultsHTML(
		row("1001", "03/14/2023", "Wastewater discharge", "Acme  Hog Farms, LLC"),
		row("1002", "11/2/2022", "Air permit", "City of Ames"),
	)

	got, err := ParseResultsPage(html, testBase, "#ResultsTable")
	require.NoError(t, err)
	require.Len(t, got.Links, 2)
	assert.Equal(t, 0, got.Skipped)

	first := got.Links[0]
	assert.Equal(t, "1001", first.CaseID)
	assert.Equal(t, testBase+"/Home/GetDocument?docId=1001", first.DocumentURL)
	assert.Equal(t, "Acme Hog Farms, LLC", first.Violator)
	assert.Equal(t, "Wastewater discharge", first.Notes)
	assert.Equal(t, time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC), first.Date)

	assert.Equal(t, time.Date(2022, 11, 2, 0, 0, 0, 0, time.UTC), got.Links[1].Date)
}

func TestParseResultsPage_SkipsMalformedRows(t *testing.T) {
	html := resultsHTML(
		row("1001", "03/14/2023", "ok", "Acme"),
		`<tr><td>only</td><td>three</td><td>cells</td></tr>`,
		`<tr><td>no link</td><td></td><td>01/01/2023</td><td></td><td></td><td>X</td></tr>`,
	)

	got, err := ParseResultsPage(html, testBase, "#ResultsTable")
	require.NoError(t, err)
	assert.Len(t, got.Links, 1)
	assert.Equal(t, 2, got.Skipped)
}

func TestParseResultsPage_BadDateKeepsRow(t *testing.T) {
	got, err := ParseResultsPage(resultsHTML(row("7", "pending", "", "Acme")), testBase, "#ResultsTable")
	require.NoError(t, err)
	require.Len(t, got.Links, 1)
	assert.True(t, got.Links[0].Date.IsZero())
}

func TestParseResultsPage_Errors(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"missing table", `<html><body><p>Maintenance</p></body></html>`},
		{"layout drift", resultsHTML(
			`<tr><td><a href="./GetDocument?docId=1">x</a></td><td>a</td><td>b</td></tr>`,
			`<tr><td><a href="./GetDocument?docId=2">x</a></td><td>a</td><td>b</td></tr>`,
		)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResultsPage(tt.html, testBase, "#ResultsTable")
			var navErr *NavigationError
			require.ErrorAs(t, err, &navErr)
			assert.Equal(t, StageResults, navErr.Stage)
		})
	}
}

func TestParseResultsPage_EmptyResults(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"header only", resultsHTML()},
		{"placeholder row", resultsHTML(`<tr><td colspan="6">No documents found.</td></tr>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResultsPage(tt.html, testBase, "#ResultsTable")
			require.NoError(t, err)
			assert.Empty(t, got.Links)
		})
	}
}

func TestDocumentURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"dot relative", "./GetDocument?docId=12", testBase + "/Home/GetDocument?docId=12"},
		{"nested dot relative", "../Home/./GetDocument?docId=12", testBase + "/Home/GetDocument?docId=12"},
		{"plain relative", "GetDocument?docId=12", testBase + "/Home/GetDocument?docId=12"},
		{"root relative", "/files/12.pdf", "https://programs.iowadnr.gov/files/12.pdf"},
		{"absolute", "https://cdn.example.com/a.pdf", "https://cdn.example.com/a.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DocumentURL(testBase, tt.href)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCaseIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://x/Home/GetDocument?docId=4821", "4821"},
		{"https://x/Home/GetDocument?id=99", "99"},
		{"https://x/files/order-2023-17.pdf", "order-2023-17"},
		{"https://x/", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, CaseIDFromURL(tt.url))
		})
	}
}

func TestPageLinkIndex(t *testing.T) {
	hrefs := []string{
		"./Search?page=12&sort=date",
		"./Search?page=10",
		"./Search?sort=date&page=1",
		"./Search?page=2",
	}
	tests := []struct {
		n    int
		want int
	}{
		{n: 1, want: 2},
		{n: 2, want: 3},
		{n: 10, want: 1},
		{n: 12, want: 0},
		{n: 3, want: -1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, PageLinkIndex(hrefs, tt.n))
		})
	}

	assert.Equal(t, -1, PageLinkIndex([]string{"./Search?page=12"}, 1))
	assert.Equal(t, -1, PageLinkIndex(nil, 1))
}

func TestSearchParamsInRange(t *testing.T) {
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	p := SearchParams{DateFrom: from, DateTo: to}

	assert.True(t, p.InRange(time.Time{}), "unknown date is kept")
	assert.True(t, p.InRange(from))
	assert.True(t, p.InRange(to))
	assert.False(t, p.InRange(from.AddDate(0, 0, -1)))
	assert.False(t, p.InRange(to.AddDate(0, 0, 1)))
	assert.True(t, SearchParams{}.InRange(from), "no bounds")
}

// --- Results cursor ---

// fakePage serves canned result pages in order.
type fakePage struct {
	pages     []string
	current   int
	nextCalls []int
	nextErr   error
}

func (f *fakePage) Content() (string, error) {
	return f.pages[f.current], nil
}

func (f *fakePage) NextPage(_ context.Context, n int) (bool, error) {
	f.nextCalls = append(f.nextCalls, n)
	if f.nextErr != nil {
		return false, f.nextErr
	}
	if n-1 >= len(f.pages) {
		return false, nil
	}
	f.current = n - 1
	return true, nil
}

func drain(t *testing.T, r *Results) ([]string, error) {
	t.Helper()
	var ids []string
	for {
		link, ok, err := r.Next(context.Background())
		if err != nil {
			return ids, err
		}
		if !ok {
			return ids, nil
		}
		ids = append(ids, link.CaseID)
	}
}

func TestResults_Paginates(t *testing.T) {
	pg := &fakePage{pages: []string{
		resultsHTML(row("1", "01/01/2023", "", "A"), row("2", "01/02/2023", "", "B")),
		resultsHTML(row("3", "01/03/2023", "", "C")),
	}}
	r := newResults(pg, testBase, "#ResultsTable", SearchParams{}, nil)

	ids, err := drain(t, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, []int{2, 3}, pg.nextCalls)

	// Exhausted cursors stay exhausted.
	_, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResults_LazyPaging(t *testing.T) {
	pg := &fakePage{pages: []string{
		resultsHTML(row("1", "01/01/2023", "", "A"), row("2", "01/02/2023", "", "B")),
		resultsHTML(row("3", "01/03/2023", "", "C")),
	}}
	r := newResults(pg, testBase, "#ResultsTable", SearchParams{}, nil)

	_, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, pg.nextCalls, "second page must not load before it is needed")
}

func TestResults_FiltersByDate(t *testing.T) {
	pg := &fakePage{pages: []string{
		resultsHTML(row("old", "06/01/2021", "", "A"), row("new", "06/01/2023", "", "B")),
	}}
	params := SearchParams{DateFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newResults(pg, testBase, "#ResultsTable", params, nil)

	ids, err := drain(t, r)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestResults_NavigationErrors(t *testing.T) {
	t.Run("schema drift on first page", func(t *testing.T) {
		pg := &fakePage{pages: []string{`<html><body>redesigned</body></html>`}}
		r := newResults(pg, testBase, "#ResultsTable", SearchParams{}, nil)

		_, err := drain(t, r)
		var navErr *NavigationError
		require.ErrorAs(t, err, &navErr)
		assert.Equal(t, StageResults, navErr.Stage)
	})

	t.Run("paging failure", func(t *testing.T) {
		pg := &fakePage{
			pages:   []string{resultsHTML(row("1", "01/01/2023", "", "A"))},
			nextErr: errors.New("detached frame"),
		}
		r := newResults(pg, testBase, "#ResultsTable", SearchParams{}, nil)

		ids, err := drain(t, r)
		assert.Equal(t, []string{"1"}, ids)
		var navErr *NavigationError
		require.ErrorAs(t, err, &navErr)
		assert.Equal(t, StagePaging, navErr.Stage)
	})
}

func TestResults_ContextCancelled(t *testing.T) {
	pg := &fakePage{pages: []string{resultsHTML(row("1", "01/01/2023", "", "A"))}}
	r := newResults(pg, testBase, "#ResultsTable", SearchParams{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := r.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
