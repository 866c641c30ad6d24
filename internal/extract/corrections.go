// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"unicode"
)

// Correction maps a character sequence OCR commonly produces in place of a
// digit to the digit it stands for.
type Correction struct {
	From string
	To   string
}

// DefaultCorrections is the confusion table applied to OCR output.
var DefaultCorrections = []Correction{
	{From: "S", To: "5"},
	{From: "s", To: "5"},
	{From: "O", To: "0"},
	{From: "o", To: "0"},
	{From: "I", To: "1"},
	{From: "l", To: "1"},
	{From: "B", To: "8"},
}

// CorrectNumericRuns applies table inside numeric runs of text and leaves
// everything else untouched, so names and words keep their letters.
//
// A numeric run is a maximal span of digits, "," and "." and the table's
// confusable characters that does not touch another letter. It is corrected
// when it directly follows a "$" (spaces allowed), or when it holds more
// real digits than confusable characters and every confusable sits between
// two digits.
func CorrectNumericRuns(text string, table []Correction) string {
	if len(table) == 0 || text == "" {
		return text
	}

	confusable := make(map[rune]bool)
	for _, c := range table {
		for _, r := range c.From {
			confusable[r] = true
		}
	}
	inRun := func(r rune) bool {
		return unicode.IsDigit(r) || r == ',' || r == '.' || confusable[r]
	}

	runes := []rune(text)
	var out strings.Builder
	out.Grow(len(text))

	for i := 0; i < len(runes); {
		if !inRun(runes[i]) {
			out.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && inRun(runes[j]) {
			j++
		}
		run := string(runes[i:j])
		if isNumericRun(runes, i, j, confusable) {
			for _, c := range table {
				run = strings.ReplaceAll(run, c.From, c.To)
			}
		}
		out.WriteString(run)
		i = j
	}
	return out.String()
}

func isNumericRun(runes []rune, start, end int, confusable map[rune]bool) bool {
	if start > 0 && unicode.IsLetter(runes[start-1]) {
		return false
	}
	if end < len(runes) && unicode.IsLetter(runes[end]) {
		return false
	}

	var digits, letters int
	for _, r := range runes[start:end] {
		switch {
		case unicode.IsDigit(r):
			digits++
		case confusable[r]:
			letters++
		}
	}
	if letters == 0 {
		return false
	}
	if followsDollar(runes, start) {
		return true
	}
	if digits <= letters {
		return false
	}
	// Without a dollar sign each confusable must sit between two digits, so
	// code citations like "455B.146" stay as written.
	for k := start; k < end; k++ {
		if !confusable[runes[k]] {
			continue
		}
		if k == start || k == end-1 || !unicode.IsDigit(runes[k-1]) || !unicode.IsDigit(runes[k+1]) {
			return false
		}
	}
	return true
}

func followsDollar(runes []rune, start int) bool {
	for k := start - 1; k >= 0; k-- {
		switch runes[k] {
		case ' ', '\t':
			continue
		case '$':
			return true
		default:
			return false
		}
	}
	return false
}
