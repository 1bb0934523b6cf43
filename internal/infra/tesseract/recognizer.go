// Package tesseract runs OCR through the Tesseract engine via gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"pdf-to-word/internal/domain"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"
)

// minHeight is the smallest image height handed to the engine; shorter
// images are upscaled because Tesseract misreads glyphs under ~20px.
const minHeight = 48

// maxUpscaledPixels bounds the area of an upscaled image. A long, thin strip
// is scaled less (or not at all) rather than allocating gigabytes.
const maxUpscaledPixels = 1 << 24

// Recognizer implements domain.Recognizer. A fresh gosseract client is created
// per call, so one Recognizer may serve concurrent conversions.
type Recognizer struct {
	clientFactory func() *gosseract.Client
	logger        domain.Logger
}

// NewRecognizer creates a Tesseract-backed recognizer
func NewRecognizer(logger domain.Logger) *Recognizer {
	return &Recognizer{clientFactory: gosseract.NewClient, logger: logger}
}

type ocrResult struct {
	text string
	err  error
}

// Recognize runs OCR with the given languages joined as "vie+eng".
// The engine call cannot be interrupted; on cancellation the result is
// discarded and the context error returned.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	resultCh := make(chan ocrResult, 1)
	go func() {
		text, err := r.run(img, languages)
		resultCh <- ocrResult{text: text, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrOCREngine, res.err)
		}
		return res.text, nil
	case <-ctx.Done():
		r.logger.Warn("OCR abandoned after cancellation", "error", ctx.Err())
		return "", ctx.Err()
	}
}

func (r *Recognizer) run(img image.Image, languages []string) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("engine panic: %v", rec)
		}
	}()

	data, err := prepare(img)
	if err != nil {
		return "", err
	}

	c := r.clientFactory()
	defer c.Close()

	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err = c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// prepare converts img to an 8-bit grayscale PNG, upscaling short images.
func prepare(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	w, h := b.Dx(), b.Dy()
	if scale := upscaleFactor(w, h); scale > 1 {
		w, h = w*scale, h*scale
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), img, b, draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// upscaleFactor returns the integer factor that brings h up to minHeight,
// reduced until the scaled area fits in maxUpscaledPixels.
func upscaleFactor(w, h int) int {
	if h <= 0 || w <= 0 || h >= minHeight {
		return 1
	}
	scale := (minHeight + h - 1) / h
	for scale > 1 && int64(w)*int64(h)*int64(scale)*int64(scale) > maxUpscaledPixels {
		scale--
	}
	return scale
}
