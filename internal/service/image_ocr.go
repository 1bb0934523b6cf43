package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"pdf-to-word/internal/domain"
)

// ImageTextResult holds the OCR strings of one page plus counters.
type ImageTextResult struct {
	Texts   []string
	Seen    int
	Skipped int
}

// OCRExtractor decodes each embedded image of a page and runs OCR on it.
type OCRExtractor struct {
	decoder    domain.ImageDecoder
	recognizer domain.Recognizer
	languages  []string
	policy     domain.OCRFailurePolicy
	logger     domain.Logger
}

// NewOCRExtractor creates an extractor bound to a fixed language set.
func NewOCRExtractor(
	decoder domain.ImageDecoder,
	recognizer domain.Recognizer,
	languages []string,
	policy domain.OCRFailurePolicy,
	logger domain.Logger,
) *OCRExtractor {
	langs := make([]string, len(languages))
	copy(langs, languages)
	return &OCRExtractor{
		decoder:    decoder,
		recognizer: recognizer,
		languages:  langs,
		policy:     policy,
		logger:     logger,
	}
}

// Extract returns the sanitized, non-empty OCR text of every image on the page,
// in extraction order. Undecodable images are skipped. OCR engine errors abort
// or skip according to the policy.
func (e *OCRExtractor) Extract(ctx context.Context, doc domain.SourceDocument, pageIndex int) (ImageTextResult, error) {
	var res ImageTextResult

	images, err := doc.PageImages(pageIndex)
	if err != nil {
		return res, fmt.Errorf("%w: images of page %d: %w", domain.ErrPageExtraction, pageIndex+1, err)
	}

	for _, raw := range images {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Seen++

		text, err := e.recognizeImage(ctx, raw)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			if errors.Is(err, domain.ErrImageDecode) {
				res.Skipped++
				e.logger.Warn("Skipping undecodable image",
					"page", pageIndex+1,
					"image", raw.Index+1,
					"object", raw.ObjectNr,
					"format", string(raw.Format),
					"error", err,
				)
				continue
			}
			if e.policy == domain.OCRFailureSkip {
				res.Skipped++
				e.logger.Warn("Skipping image after OCR failure",
					"page", pageIndex+1,
					"image", raw.Index+1,
					"error", err,
				)
				continue
			}
			return res, fmt.Errorf("page %d image %d: %w", pageIndex+1, raw.Index+1, err)
		}

		text = SanitizeText(text)
		if strings.TrimSpace(text) == "" {
			e.logger.Debug("Image produced no text", "page", pageIndex+1, "image", raw.Index+1)
			continue
		}
		res.Texts = append(res.Texts, text)
	}

	return res, nil
}

// recognizeImage is the per-image failure boundary.
func (e *OCRExtractor) recognizeImage(ctx context.Context, raw domain.RawImage) (string, error) {
	img, err := e.decode(raw)
	if err != nil {
		return "", err
	}

	text, err := e.recognizer.Recognize(ctx, img, e.languages)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(err, domain.ErrOCREngine) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrOCREngine, err)
	}
	return text, nil
}

// decode converts decoder panics on hostile input into ErrImageDecode.
func (e *OCRExtractor) decode(raw domain.RawImage) (img image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("%w: decoder panic: %v", domain.ErrImageDecode, r)
		}
	}()

	if raw.Err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, raw.Err)
	}

	img, err = e.decoder.Decode(raw)
	if err != nil {
		if errors.Is(err, domain.ErrImageDecode) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: empty image", domain.ErrImageDecode)
	}
	return img, nil
}
