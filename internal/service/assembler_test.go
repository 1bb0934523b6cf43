package service

import (
	"context"
	"errors"
	"testing"

	"pdf-to-word/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(policy domain.OCRFailurePolicy, marker string) (*Assembler, *MockLogger) {
	logger := NewMockLogger()
	text := NewPageTextExtractor(logger)
	ocr := NewOCRExtractor(fakeDecoder{}, &fakeRecognizer{}, []string{"vie", "eng"}, policy, logger)
	return NewAssembler(text, ocr, marker, logger), logger
}

// kinds flattens an artifact to "provenance:text" and "break" entries.
func kinds(a *domain.Artifact) []string {
	var out []string
	for _, e := range a.Elements {
		if e.Kind == domain.ElementPageBreak {
			out = append(out, "break")
			continue
		}
		out = append(out, string(e.Block.Provenance)+":"+e.Block.Text)
	}
	return out
}

func TestAssembler_SinglePageNativeText(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureAbort, "")
	doc := &fakeSource{pages: []fakePage{{text: "Hello"}}}

	artifact, stats, err := asm.Assemble(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"native:Hello"}, kinds(artifact))
	assert.Equal(t, 0, artifact.PageBreaks())
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 1, stats.NativeBlocks)
}

func TestAssembler_OCRBlockFollowsNativeText(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureAbort, "")
	doc := &fakeSource{pages: []fakePage{
		{text: "page1 text"},
		{images: []domain.RawImage{rawImage(1, 0, "Invoice #42")}},
	}}

	artifact, stats, err := asm.Assemble(context.Background(), doc)
	require.NoError(t, err)

	want := []string{
		"native:page1 text",
		"break",
		"ocr_marker:" + DefaultOCRMarker,
		"ocr:Invoice #42",
	}
	assert.Equal(t, want, kinds(artifact))
	assert.Equal(t, 1, stats.OCRBlocks)
	assert.Equal(t, 1, stats.ImagesSeen)
}

func TestAssembler_ControlCharactersRemoved(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureAbort, "")
	doc := &fakeSource{pages: []fakePage{
		{text: "A\x07B", images: []domain.RawImage{rawImage(0, 0, "C\x00D")}},
	}}

	artifact, _, err := asm.Assemble(context.Background(), doc)
	require.NoError(t, err)

	for _, b := range artifact.Blocks() {
		for _, r := range b.Text {
			assert.False(t, isIllegalControl(r), "block %q contains %U", b.Text, r)
		}
	}
	assert.Equal(t, []string{"native:AB", "ocr_marker:" + DefaultOCRMarker, "ocr:CD"}, kinds(artifact))
}

func TestAssembler_PageBreakCount(t *testing.T) {
	tests := []struct {
		pages int
		want  int
	}{
		{pages: 0, want: 0},
		{pages: 1, want: 0},
		{pages: 2, want: 1},
		{pages: 7, want: 6},
	}

	for _, tt := range tests {
		asm, _ := newTestAssembler(domain.OCRFailureAbort, "")
		doc := &fakeSource{pages: make([]fakePage, tt.pages)}

		artifact, stats, err := asm.Assemble(context.Background(), doc)
		require.NoError(t, err)
		assert.Equal(t, tt.want, artifact.PageBreaks(), "pages=%d", tt.pages)
		assert.Equal(t, tt.pages, stats.Pages)

		// Empty pages contribute no text
		assert.Empty(t, artifact.Blocks())
	}
}

func TestAssembler_WhitespaceOnlyTextIsDropped(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureAbort, "")
	doc := &fakeSource{pages: []fakePage{
		{text: "  \n\t "},
		// Only controls and whitespace, empty after sanitizing
		{text: "\x00\x01 \x02", images: []domain.RawImage{rawImage(1, 0, "   ")}},
	}}

	artifact, stats, err := asm.Assemble(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"break"}, kinds(artifact))
	assert.Equal(t, 0, stats.NativeBlocks)
	assert.Equal(t, 0, stats.OCRBlocks)
	assert.Equal(t, 1, stats.ImagesSeen)
}

func TestAssembler_CorruptImageIsSkipped(t *testing.T) {
	asm, logger := newTestAssembler(domain.OCRFailureAbort, "")
	doc := &fakeSource{pages: []fakePage{{
		text: "body",
		images: []domain.RawImage{
			rawImage(0, 0, "first"),
			rawImage(0, 1, "corrupt"),
			rawImage(0, 2, "third"),
		},
	}}}

	artifact, stats, err := asm.Assemble(context.Background(), doc)
	require.NoError(t, err)

	want := []string{
		"native:body",
		"ocr_marker:" + DefaultOCRMarker,
		"ocr:first",
		"ocr_marker:" + DefaultOCRMarker,
		"ocr:third",
	}
	assert.Equal(t, want, kinds(artifact))
	assert.Equal(t, 3, stats.ImagesSeen)
	assert.Equal(t, 1, stats.ImagesSkipped)
	assert.Len(t, logger.Warnings(), 1)
}

func TestAssembler_CustomMarker(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureAbort, "[OCR]\x00")
	doc := &fakeSource{pages: []fakePage{{images: []domain.RawImage{rawImage(0, 0, "scan")}}}}

	artifact, _, err := asm.Assemble(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"ocr_marker:[OCR]", "ocr:scan"}, kinds(artifact))
}

func TestAssembler_TextExtractionFailureAborts(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureSkip, "")
	doc := &fakeSource{pages: []fakePage{
		{text: "ok"},
		{textErr: errors.New("broken content stream")},
	}}

	artifact, _, err := asm.Assemble(context.Background(), doc)
	require.Error(t, err)
	assert.Nil(t, artifact)
	assert.ErrorIs(t, err, domain.ErrPageExtraction)
}

func TestAssembler_ImageListingFailureAborts(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureSkip, "")
	doc := &fakeSource{pages: []fakePage{{imagesErr: errors.New("bad xobject")}}}

	_, _, err := asm.Assemble(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrPageExtraction)
}

func TestAssembler_CanceledContext(t *testing.T) {
	asm, _ := newTestAssembler(domain.OCRFailureAbort, "")
	doc := &fakeSource{pages: []fakePage{{text: "a"}, {text: "b"}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	artifact, _, err := asm.Assemble(ctx, doc)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, artifact)
}
