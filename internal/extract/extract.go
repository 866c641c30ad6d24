// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract finds the settlement amount in an enforcement order PDF.
//
// Extraction runs an ordered list of strategies. The text-layer strategy
// reads the PDF's embedded text; the OCR strategy rasterizes each page and
// recognizes it with Tesseract. Each strategy declares the correction table
// applied to its output before the amount search, so OCR confusions such as
// "S" for "5" are fixed only where OCR was involved.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// previewLength bounds the text preview logged when no amount is found.
const previewLength = 500

// Strategy produces searchable text from a PDF.
type Strategy interface {
	// Method tags results produced by this strategy.
	Method() types.ExtractionMethod

	// Text returns the document text.
	Text(ctx context.Context, pdf []byte) (string, error)

	// Corrections is the confusion table applied to Text's output inside
	// numeric runs. Nil means the text is used as is.
	Corrections() []Correction
}

// Attempt records the outcome of one strategy on one document.
type Attempt struct {
	Method  types.ExtractionMethod
	TextLen int
	Err     error
}

// AmbiguityError reports that no strategy found a settlement amount. The
// accompanying Extraction is still valid: it carries a nil amount and low
// confidence, and the record is stored that way.
type AmbiguityError struct {
	Attempts []Attempt
}

func (e *AmbiguityError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		if a.Err != nil {
			parts[i] = fmt.Sprintf("%s: %v", a.Method, a.Err)
		} else {
			parts[i] = fmt.Sprintf("%s: %d chars, no amount", a.Method, a.TextLen)
		}
	}
	return "no settlement amount found (" + strings.Join(parts, "; ") + ")"
}

// Extractor runs strategies in order until one yields an amount.
type Extractor struct {
	strategies []Strategy
	log        *slog.Logger
}

// New creates an Extractor over the given strategies, tried in order.
func New(log *slog.Logger, strategies ...Strategy) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{strategies: strategies, log: log}
}

// Methods lists the configured strategies in order.
func (e *Extractor) Methods() []types.ExtractionMethod {
	out := make([]types.ExtractionMethod, len(e.strategies))
	for i, s := range e.strategies {
		out[i] = s.Method()
	}
	return out
}

// Extract returns the settlement amount in pdf. When no strategy finds one
// it returns a low-confidence Extraction with a nil amount together with an
// *AmbiguityError. Context cancellation is returned as is.
func (e *Extractor) Extract(ctx context.Context, pdf []byte) (types.Extraction, error) {
	var (
		attempts []Attempt
		last     = types.Extraction{Method: types.ExtractedViaText, Confidence: types.ConfidenceLow}
	)

	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return types.Extraction{}, err
		}
		method := s.Method()

		text, err := s.Text(ctx, pdf)
		if err != nil {
			if ctx.Err() != nil {
				return types.Extraction{}, ctx.Err()
			}
			e.log.Warn("extraction strategy failed", "method", method, "error", err)
			attempts = append(attempts, Attempt{Method: method, Err: err})
			continue
		}

		text = CorrectNumericRuns(text, s.Corrections())
		last = types.Extraction{Method: method, Confidence: types.ConfidenceLow, Text: text}

		m, ok := FindAmount(text)
		if !ok {
			e.log.Info("no amount in extracted text", "method", method, "chars", len(text))
			attempts = append(attempts, Attempt{Method: method, TextLen: len(text)})
			continue
		}

		e.log.Info("found settlement amount", "method", method, "amount", m.Amount.Display())
		amount := m.Amount
		return types.Extraction{
			Amount:     &amount,
			Method:     method,
			Confidence: types.ConfidenceHigh,
			Text:       text,
		}, nil
	}

	if last.Text != "" {
		e.log.Debug("text preview", "method", last.Method, "preview", Preview(last.Text, previewLength))
	}
	return last, &AmbiguityError{Attempts: attempts}
}

// Preview flattens whitespace in text and truncates it to n runes.
func Preview(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= n {
		return flat
	}
	return string(r[:n]) + "…"
}
