package service

import (
	"fmt"

	"pdf-to-word/internal/domain"
)

// PageTextExtractor returns the native text of a page as one opaque block.
type PageTextExtractor struct {
	logger domain.Logger
}

// NewPageTextExtractor creates a new page text extractor
func NewPageTextExtractor(logger domain.Logger) *PageTextExtractor {
	return &PageTextExtractor{logger: logger}
}

// Extract returns the page text. Image-only pages yield "".
func (e *PageTextExtractor) Extract(doc domain.SourceDocument, pageIndex int) (string, error) {
	text, err := doc.PageText(pageIndex)
	if err != nil {
		return "", fmt.Errorf("%w: text of page %d: %w", domain.ErrPageExtraction, pageIndex+1, err)
	}
	e.logger.Debug("Native text extracted", "page", pageIndex+1, "chars", len(text))
	return text, nil
}
