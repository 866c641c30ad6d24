// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/dnr-scraper/pkg/types"
)

const (
	binPdftoppm = "pdftoppm"
	defaultDPI  = 400
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

var defaultExec executor = osExecutor{}

// Pdftoppm rasterizes PDFs with poppler's pdftoppm into grayscale PNG pages.
type Pdftoppm struct {
	bin  string
	dpi  int
	exec executor
}

// NewPdftoppm locates the pdftoppm binary. It returns an error when the
// binary is not installed, in which case OCR cannot run.
func NewPdftoppm(cfg types.OCRConfig) (*Pdftoppm, error) {
	return newPdftoppm(cfg, defaultExec)
}

func newPdftoppm(cfg types.OCRConfig, ex executor) (*Pdftoppm, error) {
	bin := cfg.PdftoppmPath
	if bin == "" {
		bin = binPdftoppm
	}
	path, err := ex.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%s not available: %w", bin, err)
	}
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	return &Pdftoppm{bin: path, dpi: dpi, exec: ex}, nil
}

// Rasterize renders every page of pdf and returns the images in page order.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	dir, err := os.MkdirTemp("", "dnr-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(input, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("writing temp PDF: %w", err)
	}
	prefix := filepath.Join(dir, "page")

	args := []string{"-r", strconv.Itoa(p.dpi), "-gray", "-png", input, prefix}
	if err := p.exec.Run(ctx, p.bin, args...); err != nil {
		return nil, fmt.Errorf("running %s: %w", filepath.Base(p.bin), err)
	}

	// pdftoppm zero-pads page numbers to a common width, so names sort in
	// page order.
	files, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s produced no pages", filepath.Base(p.bin))
	}
	sort.Strings(files)

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := decodePNG(f)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
