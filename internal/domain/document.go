package domain

import "io"

// Provenance tags where a TextBlock came from.
type Provenance string

const (
	ProvenanceNative Provenance = "native"
	ProvenanceOCR    Provenance = "ocr"
	// ProvenanceOCRMarker is the fixed label paragraph emitted before each OCR block.
	ProvenanceOCRMarker Provenance = "ocr_marker"
)

// TextBlock is one unit of sanitized output text.
// Build it through service.NewTextBlock so the sanitizer always runs.
type TextBlock struct {
	Text       string     `json:"text"`
	Provenance Provenance `json:"provenance"`
	PageIndex  int        `json:"page_index"`
}

// ElementKind distinguishes text from page separators in an Artifact.
type ElementKind string

const (
	ElementText      ElementKind = "text"
	ElementPageBreak ElementKind = "page_break"
)

// Element is either a TextBlock or a page break.
type Element struct {
	Kind  ElementKind `json:"kind"`
	Block *TextBlock  `json:"block,omitempty"`
}

// Artifact is the ordered output of one conversion before serialization.
type Artifact struct {
	Elements []Element `json:"elements"`
}

// AppendText adds a text block.
func (a *Artifact) AppendText(block TextBlock) {
	b := block
	a.Elements = append(a.Elements, Element{Kind: ElementText, Block: &b})
}

// AppendPageBreak adds a page separator.
func (a *Artifact) AppendPageBreak() {
	a.Elements = append(a.Elements, Element{Kind: ElementPageBreak})
}

// Blocks returns the text blocks in order.
func (a *Artifact) Blocks() []TextBlock {
	blocks := make([]TextBlock, 0, len(a.Elements))
	for _, e := range a.Elements {
		if e.Kind == ElementText && e.Block != nil {
			blocks = append(blocks, *e.Block)
		}
	}
	return blocks
}

// PageBreaks counts page separators.
func (a *Artifact) PageBreaks() int {
	n := 0
	for _, e := range a.Elements {
		if e.Kind == ElementPageBreak {
			n++
		}
	}
	return n
}

// Render replays the artifact into a container writer.
func (a *Artifact) Render(w DocumentWriter) {
	for _, e := range a.Elements {
		switch e.Kind {
		case ElementText:
			if e.Block != nil {
				w.AddParagraph(e.Block.Text)
			}
		case ElementPageBreak:
			w.AddPageBreak()
		}
	}
}

// DocumentWriter is the output container API: paragraphs, page breaks, serialization.
type DocumentWriter interface {
	AddParagraph(text string)
	AddPageBreak()
	WriteTo(w io.Writer) (int64, error)
}

// DocumentWriterFactory creates an empty container per conversion.
type DocumentWriterFactory func() DocumentWriter
