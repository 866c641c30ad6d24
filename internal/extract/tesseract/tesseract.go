// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tesseract recognizes page images with the Tesseract OCR engine
// through gosseract. It needs libtesseract at build time and is kept apart
// from package extract so the rest of the pipeline builds without it.
package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

const defaultLanguage = "eng"

// variables tune Tesseract for typed legal documents. Interword spacing is
// kept so dollar figures stay next to the words that introduce them, and
// table rule characters that OCR reads as glyphs are suppressed.
var variables = map[string]string{
	"preserve_interword_spaces": "1",
	"tessedit_char_blacklist":   "|~`",
}

// Recognizer runs Tesseract over one PNG page at a time. It satisfies
// extract.Recognizer.
type Recognizer struct {
	languages     []string
	dpi           int
	clientFactory func() *gosseract.Client
	log           *slog.Logger
}

// New creates a Recognizer from the OCR configuration.
func New(cfg types.OCRConfig, log *slog.Logger) *Recognizer {
	if log == nil {
		log = slog.Default()
	}
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{defaultLanguage}
	}
	return &Recognizer{
		languages:     langs,
		dpi:           cfg.DPI,
		clientFactory: gosseract.NewClient,
		log:           log,
	}
}

// Recognize returns the text Tesseract reads from png. The page is treated
// as a single uniform block of text.
func (r *Recognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(r.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}
	if r.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(r.dpi)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return "", fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	if err := c.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimSpace(text)
	r.log.Debug("tesseract page recognized", "chars", len(text), "languages", strings.Join(r.languages, "+"))
	return text, nil
}
