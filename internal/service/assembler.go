package service

import (
	"context"
	"strings"

	"pdf-to-word/internal/domain"
)

// DefaultOCRMarker labels every OCR block in the output.
const DefaultOCRMarker = "[Text extracted from image (OCR)]:"

// Assembler walks a source document page by page and builds the output artifact.
type Assembler struct {
	text   *PageTextExtractor
	images *OCRExtractor
	marker string
	logger domain.Logger
}

// NewAssembler creates a new document assembler
func NewAssembler(text *PageTextExtractor, images *OCRExtractor, marker string, logger domain.Logger) *Assembler {
	marker = SanitizeText(marker)
	if strings.TrimSpace(marker) == "" {
		marker = DefaultOCRMarker
	}
	return &Assembler{
		text:   text,
		images: images,
		marker: marker,
		logger: logger,
	}
}

// Assemble appends, for every page in order, the native text block, then a
// marker and an OCR block per recognized image, then a page break unless the
// page is the last one. Any returned error aborts the whole conversion.
func (a *Assembler) Assemble(ctx context.Context, doc domain.SourceDocument) (*domain.Artifact, domain.Stats, error) {
	artifact := &domain.Artifact{}
	stats := domain.Stats{}

	numPages := doc.PageCount()
	stats.Pages = numPages

	for pageIndex := 0; pageIndex < numPages; pageIndex++ {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		a.logger.Debug("Assembling page", "page", pageIndex+1, "total", numPages)

		text, err := a.text.Extract(doc, pageIndex)
		if err != nil {
			return nil, stats, err
		}
		if block := NewTextBlock(text, domain.ProvenanceNative, pageIndex); strings.TrimSpace(block.Text) != "" {
			artifact.AppendText(block)
			stats.NativeBlocks++
		}

		ocr, err := a.images.Extract(ctx, doc, pageIndex)
		stats.ImagesSeen += ocr.Seen
		stats.ImagesSkipped += ocr.Skipped
		if err != nil {
			return nil, stats, err
		}
		for _, t := range ocr.Texts {
			artifact.AppendText(NewTextBlock(a.marker, domain.ProvenanceOCRMarker, pageIndex))
			artifact.AppendText(NewTextBlock(t, domain.ProvenanceOCR, pageIndex))
			stats.OCRBlocks++
		}

		if pageIndex < numPages-1 {
			artifact.AppendPageBreak()
		}
	}

	return artifact, stats, nil
}
