// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"image"

	"golang.org/x/image/draw"
)

// EnhanceOptions controls page image preparation before OCR.
type EnhanceOptions struct {
	// MinWidth upscales narrower pages to this width. Zero disables scaling.
	MinWidth int

	// Contrast scales each pixel's distance from the mean luminance.
	// 1.0 leaves the image unchanged.
	Contrast float64
}

// DefaultEnhanceOptions matches a letter page rendered at roughly 300 dpi
// and doubles contrast.
var DefaultEnhanceOptions = EnhanceOptions{MinWidth: 2400, Contrast: 2.0}

// Enhance converts img to grayscale, upscales it when it is narrower than
// MinWidth, and stretches its contrast around the mean luminance.
func Enhance(img image.Image, opts EnhanceOptions) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	if opts.MinWidth > 0 && b.Dx() > 0 && b.Dx() < opts.MinWidth {
		h := b.Dy() * opts.MinWidth / b.Dx()
		scaled := image.NewGray(image.Rect(0, 0, opts.MinWidth, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)
		gray = scaled
	}

	if opts.Contrast > 0 && opts.Contrast != 1 {
		stretchContrast(gray, opts.Contrast)
	}
	return gray
}

func stretchContrast(img *image.Gray, factor float64) {
	if len(img.Pix) == 0 {
		return
	}
	var sum int
	for _, p := range img.Pix {
		sum += int(p)
	}
	mean := float64(sum) / float64(len(img.Pix))

	var lut [256]uint8
	for v := range lut {
		out := mean + factor*(float64(v)-mean)
		switch {
		case out < 0:
			out = 0
		case out > 255:
			out = 255
		}
		lut[v] = uint8(out + 0.5)
	}
	for i, p := range img.Pix {
		img.Pix[i] = lut[p]
	}
}
