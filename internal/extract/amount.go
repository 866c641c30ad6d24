// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// numberPattern matches a dollar figure with optional thousands separators
// and cents. It never ends in a separator.
const numberPattern = `(\d(?:[\d,]*\d)?(?:\.\d{2})?)`

// PenaltyPhrase is a wording that introduces the settlement figure in an
// enforcement order. Phrases are matched case-insensitively with any run of
// whitespace (including line breaks) between words.
type PenaltyPhrase struct {
	Phrase string

	// RequireDollar demands a "$" before the figure. Generic verbs like
	// "shall pay" are followed by non-monetary numbers too often without it.
	RequireDollar bool
}

// PenaltyPhrases are tried in order before the generic currency pattern.
// More specific wordings come first.
var PenaltyPhrases = []PenaltyPhrase{
	{Phrase: "administrative penalty in the amount of"},
	{Phrase: "administrative penalty of"},
	{Phrase: "civil penalty of"},
	{Phrase: "stipulated penalty of"},
	{Phrase: "monetary penalty of"},
	{Phrase: "total penalty of"},
	{Phrase: "assessed a penalty of"},
	{Phrase: "penalty in the amount of"},
	{Phrase: "penalties totaling"},
	{Phrase: "pay a penalty of"},
	{Phrase: "penalty of", RequireDollar: true},
	{Phrase: "in the amount of", RequireDollar: true},
	{Phrase: "agrees to pay", RequireDollar: true},
	{Phrase: "shall pay a", RequireDollar: true},
	{Phrase: "shall pay", RequireDollar: true},
	{Phrase: "shall be assessed", RequireDollar: true},
	{Phrase: "pay a", RequireDollar: true},
	{Phrase: "pay", RequireDollar: true},
}

// currencyPattern is the generic fallback: a dollar sign followed by a figure.
var currencyPattern = regexp.MustCompile(`\$\s?` + numberPattern)

// bareFigure is what a phrase may be followed by when no dollar sign is
// present. It must look like money: grouped thousands or two decimals.
const bareFigure = `(\d{1,3}(?:,\d{3})+(?:\.\d{2})?|\d+\.\d{2})`

var phrasePatterns = compilePhrases(PenaltyPhrases)

// phrasePattern holds the two forms of one phrase. bare is nil when the
// phrase requires a dollar sign.
type phrasePattern struct {
	dollar *regexp.Regexp
	bare   *regexp.Regexp
}

func compilePhrases(phrases []PenaltyPhrase) []phrasePattern {
	out := make([]phrasePattern, len(phrases))
	for i, p := range phrases {
		words := strings.Fields(p.Phrase)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		prefix := `(?i)\b` + strings.Join(words, `\s+`) + `\s+`
		out[i].dollar = regexp.MustCompile(prefix + `\$\s?` + numberPattern)
		if !p.RequireDollar {
			out[i].bare = regexp.MustCompile(prefix + bareFigure + `\b`)
		}
	}
	return out
}

// AmountMatch is a monetary value found in text.
type AmountMatch struct {
	Amount types.Amount

	// Raw is the matched figure as it appeared, e.g. "5,000.00".
	Raw string
}

// FindAmount returns the settlement amount stated in text. Penalty phrases
// followed by a dollar figure are tried first, in order, then the first
// dollar figure anywhere in the text. A phrase followed by a bare figure
// counts only when the text holds no dollar figure at all.
func FindAmount(text string) (AmountMatch, bool) {
	for _, pp := range phrasePatterns {
		if m, ok := firstParsable(pp.dollar, text); ok {
			return m, true
		}
	}
	if m, ok := firstParsable(currencyPattern, text); ok {
		return m, true
	}
	for _, pp := range phrasePatterns {
		if pp.bare == nil {
			continue
		}
		if m, ok := firstParsable(pp.bare, text); ok {
			return m, true
		}
	}
	return AmountMatch{}, false
}

func firstParsable(re *regexp.Regexp, text string) (AmountMatch, bool) {
	for _, sub := range re.FindAllStringSubmatch(text, -1) {
		raw := sub[1]
		amount, err := types.ParseAmount(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			continue
		}
		return AmountMatch{Amount: amount, Raw: raw}, true
	}
	return AmountMatch{}, false
}
