// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

// Rasterizer renders PDF pages to images.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error)
}

// Recognizer runs OCR over one PNG-encoded page image.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) (string, error)
}

// OCR rasterizes every page, enhances it, and recognizes its text.
type OCR struct {
	raster     Rasterizer
	recognizer Recognizer
	table      []Correction
	enhance    EnhanceOptions
	log        *slog.Logger
}

// NewOCR creates the OCR strategy with DefaultCorrections and
// DefaultEnhanceOptions.
func NewOCR(raster Rasterizer, recognizer Recognizer, log *slog.Logger) *OCR {
	if log == nil {
		log = slog.Default()
	}
	return &OCR{
		raster:     raster,
		recognizer: recognizer,
		table:      DefaultCorrections,
		enhance:    DefaultEnhanceOptions,
		log:        log,
	}
}

// WithCorrections replaces the confusion table.
func (o *OCR) WithCorrections(table []Correction) *OCR {
	o.table = table
	return o
}

func (o *OCR) Method() types.ExtractionMethod { return types.ExtractedViaOCR }

func (o *OCR) Corrections() []Correction { return o.table }

// Text recognizes each page in order. A page that fails recognition is
// logged and skipped; Text fails only when no page produced any text.
func (o *OCR) Text(ctx context.Context, pdf []byte) (string, error) {
	pages, err := o.raster.Rasterize(ctx, pdf)
	if err != nil {
		return "", fmt.Errorf("rasterizing: %w", err)
	}

	var texts []string
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, Enhance(page, o.enhance)); err != nil {
			o.log.Warn("encoding page image failed", "page", i+1, "error", err)
			continue
		}

		text, err := o.recognizer.Recognize(ctx, buf.Bytes())
		if err != nil {
			o.log.Warn("OCR failed for page", "page", i+1, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			o.log.Debug("page produced no OCR text", "page", i+1)
			continue
		}
		texts = append(texts, text)
	}

	if len(texts) == 0 {
		return "", fmt.Errorf("OCR produced no text from %d page(s)", len(pages))
	}
	o.log.Debug("OCR complete", "pages", len(pages), "pages_with_text", len(texts))
	return strings.Join(texts, "\n\n"), nil
}
