// Package docx builds .docx packages with godocx: plain paragraphs and
// explicit page breaks on top of the library's default template.
package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"pdf-to-word/internal/domain"

	"github.com/gomutex/godocx"
	godocxpkg "github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
)

// MIMEType is the media type of a .docx package.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	bodyFont     = "Times New Roman"
	bodyLanguage = "vi-VN"

	corePropsPath = "docProps/core.xml"
	thumbnailRel  = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/thumbnail"
)

// Document implements domain.DocumentWriter.
type Document struct {
	Title   string
	Creator string
	Created time.Time

	root       *godocxpkg.RootDoc
	err        error
	paragraphs int
}

// New creates an empty document stamped with the current time. A template
// that fails to unpack is reported by WriteTo.
func New() *Document {
	d := &Document{Creator: "pdf-to-word", Created: time.Now().UTC()}

	root, err := godocx.NewDocument()
	if err != nil {
		d.err = fmt.Errorf("load template: %w", err)
		return d
	}
	setDefaults(root)
	d.root = root
	return d
}

// NewWriter adapts New to domain.DocumentWriterFactory.
func NewWriter() domain.DocumentWriter {
	return New()
}

// AddParagraph appends one paragraph. Line breaks inside text become soft
// breaks and tabs become tab stops. CRLF counts as one break.
func (d *Document) AddParagraph(text string) {
	d.paragraphs++
	if d.root == nil {
		return
	}

	p := d.root.AddEmptyParagraph()
	if text == "" {
		return
	}
	run := &ctypes.Run{Children: runContent(text)}
	ct := p.GetCT()
	ct.Children = append(ct.Children, ctypes.ParagraphChild{Run: run})
}

// AddPageBreak appends a paragraph holding a single page break.
func (d *Document) AddPageBreak() {
	d.paragraphs++
	if d.root == nil {
		return
	}
	d.root.AddPageBreak()
}

// Paragraphs returns the number of blocks added so far, page breaks included.
func (d *Document) Paragraphs() int {
	return d.paragraphs
}

// WriteTo serializes the package as a zip archive.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}

	core, err := d.coreProps()
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", corePropsPath, err)
	}
	d.root.FileMap.Store(corePropsPath, core)

	// godocx reports zero bytes written, so count them here.
	cw := &countingWriter{w: w}
	if _, err := d.root.WriteTo(cw); err != nil {
		return cw.n, fmt.Errorf("write package: %w", err)
	}
	return cw.n, nil
}

// runContent splits text into w:t segments separated by w:br and w:tab.
func runContent(text string) []ctypes.RunChild {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		children []ctypes.RunChild
		seg      strings.Builder
	)
	flush := func() {
		if seg.Len() == 0 {
			return
		}
		preserve := ctypes.TextSpacePreserve
		children = append(children, ctypes.RunChild{Text: &ctypes.Text{Text: seg.String(), Space: &preserve}})
		seg.Reset()
	}

	for _, r := range text {
		switch r {
		case '\n', '\r':
			flush()
			children = append(children, ctypes.RunChild{Break: &ctypes.Break{}})
		case '\t':
			flush()
			children = append(children, ctypes.RunChild{Tab: &ctypes.Empty{}})
		default:
			seg.WriteRune(r)
		}
	}
	flush()
	return children
}

// setDefaults sets the body font and proofing language, and drops the
// template's preview thumbnail.
func setDefaults(root *godocxpkg.RootDoc) {
	if root.DocStyles != nil {
		if root.DocStyles.DocDefaults == nil {
			root.DocStyles.DocDefaults = &ctypes.DocDefault{}
		}
		defaults := root.DocStyles.DocDefaults
		if defaults.RunProp == nil {
			defaults.RunProp = &ctypes.RunPropDefault{}
		}
		if defaults.RunProp.RunProp == nil {
			defaults.RunProp.RunProp = &ctypes.RunProperty{}
		}
		rp := defaults.RunProp.RunProp
		rp.Fonts = &ctypes.RunFonts{Ascii: bodyFont, HAnsi: bodyFont, EastAsia: bodyFont, CS: bodyFont}
		lang := bodyLanguage
		rp.Lang = &ctypes.Lang{Val: &lang}
	}

	rels := root.RootRels.Relationships[:0]
	for _, rel := range root.RootRels.Relationships {
		if rel.Type == thumbnailRel {
			root.FileMap.Delete(rel.Target)
			continue
		}
		rels = append(rels, rel)
	}
	root.RootRels.Relationships = rels
}

func (d *Document) coreProps() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)

	for _, el := range []struct{ name, value string }{
		{"dc:title", d.Title},
		{"dc:creator", d.Creator},
	} {
		if el.value == "" {
			continue
		}
		buf.WriteString("<" + el.name + ">")
		if err := xml.EscapeText(&buf, []byte(el.value)); err != nil {
			return nil, err
		}
		buf.WriteString("</" + el.name + ">")
	}

	created := d.Created.UTC().Format(time.RFC3339)
	buf.WriteString(`<dcterms:created xsi:type="dcterms:W3CDTF">` + created + `</dcterms:created>`)
	buf.WriteString(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + created + `</dcterms:modified>`)
	buf.WriteString(`</cp:coreProperties>`)
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
